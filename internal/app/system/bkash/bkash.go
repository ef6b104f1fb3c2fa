// Package bkash is a client for the bKash tokenized checkout API.
//
// A payment is three calls: grant a token, create the payment (which
// returns the bKash page the customer is sent to) and, once bKash calls
// back, execute it. Grant tokens are cached until shortly before expiry.
package bkash

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned by every call when credentials are missing.
var ErrNotConfigured = errors.New("bKash payment gateway is not configured")

// StatusCompleted is the transactionStatus of a successful execute.
const StatusCompleted = "Completed"

const (
	successCode    = "0000"
	tokenLeeway    = time.Minute
	defaultTimeout = 15 * time.Second
)

// Config holds the merchant credentials.
type Config struct {
	BaseURL     string
	AppKey      string
	AppSecret   string
	Username    string
	Password    string
	CallbackURL string
}

// Configured reports whether every credential is present.
func (c Config) Configured() bool {
	return c.BaseURL != "" && c.AppKey != "" && c.AppSecret != "" &&
		c.Username != "" && c.Password != "" && c.CallbackURL != ""
}

// Partial reports whether some but not all credentials are set.
func (c Config) Partial() bool {
	set := 0
	for _, v := range []string{c.BaseURL, c.AppKey, c.AppSecret, c.Username, c.Password, c.CallbackURL} {
		if v != "" {
			set++
		}
	}
	return set > 0 && set < 6
}

// ExternalError describes a failed or malformed gateway response.
type ExternalError struct {
	Op         string
	HTTPStatus int
	Code       string
	Message    string
}

func (e *ExternalError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unexpected response"
	}
	if e.Code != "" {
		return fmt.Sprintf("bkash %s: %s (code %s, http %d)", e.Op, msg, e.Code, e.HTTPStatus)
	}
	return fmt.Sprintf("bkash %s: %s (http %d)", e.Op, msg, e.HTTPStatus)
}

// Token is a grant token and its lifetime.
type Token struct {
	IDToken   string
	ExpiresIn time.Duration
}

// Payment is the result of CreatePayment.
type Payment struct {
	PaymentID         string `json:"paymentID"`
	BkashURL          string `json:"bkashURL"`
	TransactionStatus string `json:"transactionStatus"`
	Amount            string `json:"amount"`
	Invoice           string `json:"merchantInvoiceNumber"`
}

// Execution is the result of ExecutePayment.
type Execution struct {
	PaymentID         string `json:"paymentID"`
	TrxID             string `json:"trxID"`
	TransactionStatus string `json:"transactionStatus"`
	Amount            string `json:"amount"`
	Invoice           string `json:"merchantInvoiceNumber"`
	CustomerMsisdn    string `json:"customerMsisdn,omitempty"`
}

// Completed reports whether the transaction went through.
func (e *Execution) Completed() bool { return e.TransactionStatus == StatusCompleted }

// Client talks to one bKash merchant account.
type Client struct {
	cfg    Config
	http   *http.Client
	tokens TokenCache
	log    *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenCache replaces the in-memory token cache.
func WithTokenCache(tc TokenCache) Option {
	return func(c *Client) { c.tokens = tc }
}

// New builds a client. A client built from an unconfigured Config is
// valid; its calls return ErrNotConfigured.
func New(cfg Config, log *zap.Logger, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: defaultTimeout},
		tokens: NewMemoryTokenCache(),
		log:    log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Configured reports whether calls can be made.
func (c *Client) Configured() bool { return c != nil && c.cfg.Configured() }

// envelope carries the status fields every response may include.
type envelope struct {
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	ErrorCode     string `json:"errorCode"`
	ErrorMessage  string `json:"errorMessage"`
}

func (e envelope) failure() (code, msg string, failed bool) {
	if e.ErrorCode != "" {
		return e.ErrorCode, e.ErrorMessage, true
	}
	if e.StatusCode != "" && e.StatusCode != successCode {
		return e.StatusCode, e.StatusMessage, true
	}
	return "", "", false
}

// GrantToken requests a fresh id_token. It does not consult the cache.
func (c *Client) GrantToken(ctx context.Context) (Token, error) {
	if !c.Configured() {
		return Token{}, ErrNotConfigured
	}
	var out struct {
		envelope
		IDToken   string          `json:"id_token"`
		ExpiresIn json.RawMessage `json:"expires_in"`
	}
	headers := map[string]string{
		"username": c.cfg.Username,
		"password": c.cfg.Password,
	}
	body := map[string]string{"app_key": c.cfg.AppKey, "app_secret": c.cfg.AppSecret}
	if err := c.post(ctx, "grant token", "/tokenized/checkout/token/grant", headers, body, &out); err != nil {
		return Token{}, err
	}
	if out.IDToken == "" {
		return Token{}, &ExternalError{Op: "grant token", HTTPStatus: http.StatusOK, Message: "response has no id_token"}
	}
	return Token{IDToken: out.IDToken, ExpiresIn: time.Duration(flexInt(out.ExpiresIn)) * time.Second}, nil
}

// flexInt decodes a number that the gateway may send as a JSON string.
func flexInt(raw json.RawMessage) int64 {
	s := strings.Trim(string(raw), `"`)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// token returns a cached id_token or grants a new one.
func (c *Client) token(ctx context.Context) (string, error) {
	if tok, ok := c.tokens.Get(ctx); ok {
		return tok, nil
	}
	t, err := c.GrantToken(ctx)
	if err != nil {
		return "", err
	}
	if ttl := t.ExpiresIn - tokenLeeway; ttl > 0 {
		if err := c.tokens.Set(ctx, t.IDToken, ttl); err != nil {
			c.log.Warn("bkash token cache write failed", zap.Error(err))
		}
	}
	return t.IDToken, nil
}

// authedPost sends an authorized call. A 401 drops the cached token and
// the call is retried once with a fresh grant.
func (c *Client) authedPost(ctx context.Context, op, path string, body any, out interface{ failure() (string, string, bool) }) error {
	for attempt := 0; ; attempt++ {
		tok, err := c.token(ctx)
		if err != nil {
			return err
		}
		headers := map[string]string{"Authorization": tok, "X-App-Key": c.cfg.AppKey}
		err = c.post(ctx, op, path, headers, body, out)
		var ext *ExternalError
		if !errors.As(err, &ext) || ext.HTTPStatus != http.StatusUnauthorized {
			return err
		}
		if derr := c.tokens.Delete(ctx); derr != nil {
			c.log.Warn("bkash token cache delete failed", zap.Error(derr))
		}
		if attempt > 0 {
			return err
		}
	}
}

// CreatePayment starts a sale of amount BDT for the merchant invoice.
func (c *Client) CreatePayment(ctx context.Context, amount float64, invoice string) (*Payment, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	body := map[string]string{
		"mode":                  "0011",
		"payerReference":        invoice,
		"callbackURL":           c.cfg.CallbackURL,
		"amount":                strconv.FormatFloat(amount, 'f', 2, 64),
		"currency":              "BDT",
		"intent":                "sale",
		"merchantInvoiceNumber": invoice,
	}
	var out struct {
		envelope
		Payment
	}
	if err := c.authedPost(ctx, "create payment", "/tokenized/checkout/create", body, &out); err != nil {
		return nil, err
	}
	if out.PaymentID == "" || out.BkashURL == "" {
		return nil, &ExternalError{Op: "create payment", HTTPStatus: http.StatusOK, Message: "response has no paymentID or bkashURL"}
	}
	return &out.Payment, nil
}

// ExecutePayment finalizes a payment the customer authorized.
func (c *Client) ExecutePayment(ctx context.Context, paymentID string) (*Execution, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	var out struct {
		envelope
		Execution
	}
	if err := c.authedPost(ctx, "execute payment", "/tokenized/checkout/execute", map[string]string{"paymentID": paymentID}, &out); err != nil {
		return nil, err
	}
	if out.PaymentID == "" {
		out.PaymentID = paymentID
	}
	return &out.Execution, nil
}

func (c *Client) post(ctx context.Context, op, path string, headers map[string]string, body any, out interface{ failure() (string, string, bool) }) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("bkash %s: encode: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("bkash %s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &ExternalError{Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &ExternalError{Op: op, HTTPStatus: resp.StatusCode, Message: "read body: " + err.Error()}
	}
	c.log.Debug("bkash call",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env envelope
		_ = json.Unmarshal(raw, &env)
		code, msg, _ := env.failure()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &ExternalError{Op: op, HTTPStatus: resp.StatusCode, Code: code, Message: msg}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ExternalError{Op: op, HTTPStatus: resp.StatusCode, Message: "invalid JSON response"}
	}
	if code, msg, failed := out.failure(); failed {
		return &ExternalError{Op: op, HTTPStatus: resp.StatusCode, Code: code, Message: msg}
	}
	return nil
}
