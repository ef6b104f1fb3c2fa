package bkash

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type fakeGateway struct {
	grants    atomic.Int32
	executeTx string
	failGrant atomic.Bool
}

func (f *fakeGateway) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tokenized/checkout/token/grant", func(w http.ResponseWriter, r *http.Request) {
		f.grants.Add(1)
		if r.Header.Get("username") != "merchant" || r.Header.Get("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"errorCode": "2001", "errorMessage": "Invalid credentials"})
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["app_key"] != "key" || body["app_secret"] != "appsecret" {
			t.Errorf("grant body = %v", body)
		}
		if f.failGrant.Load() {
			_ = json.NewEncoder(w).Encode(map[string]any{"statusCode": "0000"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"statusCode": "0000",
			"id_token":   "tok-1",
			"expires_in": 3600,
		})
	})
	mux.HandleFunc("/tokenized/checkout/create", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "tok-1" || r.Header.Get("X-App-Key") != "key" {
			t.Errorf("create headers = %v", r.Header)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["mode"] != "0011" || body["currency"] != "BDT" || body["intent"] != "sale" {
			t.Errorf("create body = %v", body)
		}
		if body["amount"] != "1450.00" || body["merchantInvoiceNumber"] != "INV-1" {
			t.Errorf("create amount/invoice = %v", body)
		}
		if body["callbackURL"] != "https://api.example.com/api/payments/bkash/callback" {
			t.Errorf("callbackURL = %q", body["callbackURL"])
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"statusCode":            "0000",
			"paymentID":             "PAY-1",
			"bkashURL":              "https://sandbox.bka.sh/pay/PAY-1",
			"transactionStatus":     "Initiated",
			"amount":                "1450.00",
			"merchantInvoiceNumber": "INV-1",
		})
	})
	mux.HandleFunc("/tokenized/checkout/execute", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["paymentID"] == "PAY-BAD" {
			_ = json.NewEncoder(w).Encode(map[string]string{"statusCode": "2056", "statusMessage": "Invalid Payment State"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"statusCode":        "0000",
			"paymentID":         body["paymentID"],
			"trxID":             f.executeTx,
			"transactionStatus": "Completed",
			"amount":            "1450.00",
		})
	})
	return mux
}

func testConfig(base string) Config {
	return Config{
		BaseURL:     base + "/",
		AppKey:      "key",
		AppSecret:   "appsecret",
		Username:    "merchant",
		Password:    "secret",
		CallbackURL: "https://api.example.com/api/payments/bkash/callback",
	}
}

func TestConfig_Configured(t *testing.T) {
	full := testConfig("https://x")
	if !full.Configured() || full.Partial() {
		t.Error("full config should be configured and not partial")
	}
	var empty Config
	if empty.Configured() || empty.Partial() {
		t.Error("empty config should be neither configured nor partial")
	}
	part := Config{BaseURL: "https://x", AppKey: "k"}
	if part.Configured() || !part.Partial() {
		t.Error("partial config misreported")
	}
}

func TestClient_NotConfigured(t *testing.T) {
	c := New(Config{}, zap.NewNop())
	ctx := context.Background()
	if _, err := c.GrantToken(ctx); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("GrantToken() error = %v", err)
	}
	if _, err := c.CreatePayment(ctx, 10, "INV"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("CreatePayment() error = %v", err)
	}
	if _, err := c.ExecutePayment(ctx, "PAY"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("ExecutePayment() error = %v", err)
	}
}

func TestClient_CreateAndExecute(t *testing.T) {
	gw := &fakeGateway{executeTx: "TRX-9"}
	srv := httptest.NewServer(gw.handler(t))
	defer srv.Close()

	c := New(testConfig(srv.URL), zap.NewNop())
	ctx := context.Background()

	p, err := c.CreatePayment(ctx, 1450, "INV-1")
	if err != nil {
		t.Fatalf("CreatePayment() error = %v", err)
	}
	if p.PaymentID != "PAY-1" || p.BkashURL == "" {
		t.Errorf("CreatePayment() = %+v", p)
	}

	ex, err := c.ExecutePayment(ctx, "PAY-1")
	if err != nil {
		t.Fatalf("ExecutePayment() error = %v", err)
	}
	if !ex.Completed() || ex.TrxID != "TRX-9" || ex.PaymentID != "PAY-1" {
		t.Errorf("ExecutePayment() = %+v", ex)
	}

	if got := gw.grants.Load(); got != 1 {
		t.Errorf("token granted %d times, want 1 (cached)", got)
	}
}

func TestClient_GatewayErrors(t *testing.T) {
	gw := &fakeGateway{}
	srv := httptest.NewServer(gw.handler(t))
	defer srv.Close()
	ctx := context.Background()

	cfg := testConfig(srv.URL)
	cfg.Password = "wrong"
	_, err := New(cfg, zap.NewNop()).GrantToken(ctx)
	var ext *ExternalError
	if !errors.As(err, &ext) {
		t.Fatalf("GrantToken(bad creds) error = %v, want *ExternalError", err)
	}
	if ext.HTTPStatus != http.StatusUnauthorized || ext.Code != "2001" {
		t.Errorf("ExternalError = %+v", ext)
	}

	c := New(testConfig(srv.URL), zap.NewNop())
	_, err = c.ExecutePayment(ctx, "PAY-BAD")
	if !errors.As(err, &ext) || ext.Code != "2056" {
		t.Errorf("ExecutePayment(bad) error = %v", err)
	}

	gw.failGrant.Store(true)
	_, err = New(testConfig(srv.URL), zap.NewNop()).GrantToken(ctx)
	if !errors.As(err, &ext) {
		t.Errorf("GrantToken(no id_token) error = %v, want *ExternalError", err)
	}
}

// rejectingGateway accepts only the token it granted last.
func rejectingGateway(grants *atomic.Int32, rejectAll bool) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tokenized/checkout/token/grant", func(w http.ResponseWriter, r *http.Request) {
		grants.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"statusCode": "0000", "id_token": "tok-new", "expires_in": 3600})
	})
	mux.HandleFunc("/tokenized/checkout/execute", func(w http.ResponseWriter, r *http.Request) {
		if rejectAll || r.Header.Get("Authorization") != "tok-new" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"errorCode": "2079", "errorMessage": "Invalid app token"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"statusCode": "0000", "paymentID": "PAY-1", "trxID": "T", "transactionStatus": "Completed"})
	})
	return mux
}

func TestClient_RejectedTokenIsDropped(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := NewRedisTokenCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer cache.Close()
	ctx := context.Background()

	var grants atomic.Int32
	srv := httptest.NewServer(rejectingGateway(&grants, false))
	defer srv.Close()

	if err := cache.Set(ctx, "tok-stale", time.Hour); err != nil {
		t.Fatal(err)
	}
	c := New(testConfig(srv.URL), zap.NewNop(), WithTokenCache(cache))
	if _, err := c.ExecutePayment(ctx, "PAY-1"); err != nil {
		t.Fatalf("ExecutePayment() error = %v", err)
	}
	if got := grants.Load(); got != 1 {
		t.Errorf("token granted %d times, want 1", got)
	}
	if tok, ok := cache.Get(ctx); !ok || tok != "tok-new" {
		t.Errorf("cached token = %q, %v, want tok-new", tok, ok)
	}
}

func TestClient_RejectedTokenNotRetriedTwice(t *testing.T) {
	var grants atomic.Int32
	srv := httptest.NewServer(rejectingGateway(&grants, true))
	defer srv.Close()
	ctx := context.Background()

	cache := NewMemoryTokenCache()
	_ = cache.Set(ctx, "tok-stale", time.Hour)
	c := New(testConfig(srv.URL), zap.NewNop(), WithTokenCache(cache))

	_, err := c.ExecutePayment(ctx, "PAY-1")
	var ext *ExternalError
	if !errors.As(err, &ext) || ext.HTTPStatus != http.StatusUnauthorized {
		t.Fatalf("ExecutePayment() error = %v, want 401 ExternalError", err)
	}
	if got := grants.Load(); got != 1 {
		t.Errorf("token granted %d times, want 1", got)
	}
	if _, ok := cache.Get(ctx); ok {
		t.Error("rejected token still cached")
	}
}

func TestClient_UnreachableGateway(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := New(testConfig(base), zap.NewNop()).GrantToken(context.Background())
	var ext *ExternalError
	if !errors.As(err, &ext) {
		t.Fatalf("GrantToken() error = %v, want *ExternalError", err)
	}
}

func TestMemoryTokenCache_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryTokenCache()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if _, ok := c.Get(ctx); ok {
		t.Fatal("empty cache hit")
	}
	_ = c.Set(ctx, "abc", time.Minute)
	if tok, ok := c.Get(ctx); !ok || tok != "abc" {
		t.Fatalf("Get() = %q, %v", tok, ok)
	}
	_ = c.Delete(ctx)
	if _, ok := c.Get(ctx); ok {
		t.Error("deleted token returned")
	}
	_ = c.Set(ctx, "abc", time.Minute)
	now = now.Add(time.Minute)
	if _, ok := c.Get(ctx); ok {
		t.Error("expired token returned")
	}
}

func TestRedisTokenCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := NewRedisTokenCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer rc.Close()
	ctx := context.Background()

	if err := rc.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if _, ok := rc.Get(ctx); ok {
		t.Fatal("empty cache hit")
	}
	if err := rc.Set(ctx, "tok-r", 30*time.Second); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if tok, ok := rc.Get(ctx); !ok || tok != "tok-r" {
		t.Fatalf("Get() = %q, %v", tok, ok)
	}
	if err := rc.Delete(ctx); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := rc.Get(ctx); ok {
		t.Fatal("deleted token returned")
	}
	_ = rc.Set(ctx, "tok-r", 30*time.Second)
	mr.FastForward(31 * time.Second)
	if _, ok := rc.Get(ctx); ok {
		t.Error("expired token returned")
	}
	if err := rc.Set(ctx, "x", 0); err == nil {
		t.Error("Set() with zero ttl should fail")
	}
}

func TestRedisTokenCache_SharedAcrossClients(t *testing.T) {
	mr := miniredis.RunT(t)
	gw := &fakeGateway{executeTx: "T"}
	srv := httptest.NewServer(gw.handler(t))
	defer srv.Close()

	cache, err := NewRedisTokenCacheFromURL("redis://" + mr.Addr() + "/0")
	if err != nil {
		t.Fatalf("NewRedisTokenCacheFromURL() error = %v", err)
	}
	defer cache.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		c := New(testConfig(srv.URL), zap.NewNop(), WithTokenCache(cache))
		if _, err := c.ExecutePayment(ctx, "PAY-1"); err != nil {
			t.Fatalf("ExecutePayment() error = %v", err)
		}
	}
	if got := gw.grants.Load(); got != 1 {
		t.Errorf("token granted %d times, want 1", got)
	}
}
