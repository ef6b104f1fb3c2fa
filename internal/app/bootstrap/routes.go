// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"net/url"
	"time"

	"github.com/dalemusser/noorhub/internal/app/fallback"
	adminfeature "github.com/dalemusser/noorhub/internal/app/features/admin"
	authapifeature "github.com/dalemusser/noorhub/internal/app/features/authapi"
	authgooglefeature "github.com/dalemusser/noorhub/internal/app/features/authgoogle"
	bookingsfeature "github.com/dalemusser/noorhub/internal/app/features/bookings"
	bookmarksfeature "github.com/dalemusser/noorhub/internal/app/features/bookmarks"
	errorsfeature "github.com/dalemusser/noorhub/internal/app/features/errors"
	hadithfeature "github.com/dalemusser/noorhub/internal/app/features/hadith"
	healthfeature "github.com/dalemusser/noorhub/internal/app/features/health"
	navbarfeature "github.com/dalemusser/noorhub/internal/app/features/navbar"
	newsfeature "github.com/dalemusser/noorhub/internal/app/features/news"
	ordersfeature "github.com/dalemusser/noorhub/internal/app/features/orders"
	paymentsfeature "github.com/dalemusser/noorhub/internal/app/features/payments"
	productsfeature "github.com/dalemusser/noorhub/internal/app/features/products"
	questionsfeature "github.com/dalemusser/noorhub/internal/app/features/questions"
	quranfeature "github.com/dalemusser/noorhub/internal/app/features/quran"
	uploadsfeature "github.com/dalemusser/noorhub/internal/app/features/uploads"
	usersfeature "github.com/dalemusser/noorhub/internal/app/features/users"
	videosfeature "github.com/dalemusser/noorhub/internal/app/features/videos"
	"github.com/dalemusser/noorhub/internal/app/store/audit"
	"github.com/dalemusser/noorhub/internal/app/store/ratelimit"
	"github.com/dalemusser/noorhub/internal/app/store/sessions"
	userstore "github.com/dalemusser/noorhub/internal/app/store/users"
	"github.com/dalemusser/noorhub/internal/app/system/auditlog"
	"github.com/dalemusser/noorhub/internal/app/system/auth"
	"github.com/dalemusser/noorhub/internal/app/system/bkash"
	"github.com/dalemusser/noorhub/internal/app/system/mailer"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// csrfExempt are the browser-redirect endpoints reached from third-party
// sites; they carry their own state or payment id.
var csrfExempt = map[string]bool{
	"/api/payments/bkash/callback": true,
	"/api/auth/google/callback":    true,
}

// BuildHandler constructs the root HTTP handler for noorhub.
//
// Every API route lives under /api and speaks JSON. Health probes sit at
// /health, /ready, /readyz and /livez. Locally stored uploads are served
// under storage_local_url.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	// Fresh user data on each request, so role changes and disabled
	// accounts take effect immediately; tracked sessions can be revoked.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db, logger))
	sessionMgr.SetSessionTracker(sessions.New(db))

	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	// Demo data is served only when allowed; a nil provider disables it.
	var fb *fallback.Provider
	if appCfg.AllowDemoMode {
		fb = fallback.New()
	}

	site := mailer.Site{Name: appCfg.MailFromName, URL: appCfg.FrontendURL}
	if site.Name == "" {
		site.Name = "NoorHub"
	}

	var rateLimitStore *ratelimit.Store
	if appCfg.RateLimitEnabled {
		rateLimitStore = ratelimit.New(db,
			appCfg.RateLimitLoginAttempts,
			appCfg.RateLimitLoginWindow,
			appCfg.RateLimitLoginLockout,
		)
	}

	var bkashOpts []bkash.Option
	if deps.Redis != nil {
		bkashOpts = append(bkashOpts, bkash.WithTokenCache(bkash.NewRedisTokenCache(deps.Redis)))
	}
	gateway := bkash.New(bkashConfig(appCfg), logger, bkashOpts...)
	if gateway.Configured() {
		logger.Info("bKash payments enabled", zap.Bool("shared_token_cache", deps.Redis != nil))
	}

	errorsHandler := errorsfeature.NewHandler(logger)

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Timeout(30 * time.Second))

	// CORS must run before anything that can reject a preflight.
	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	r.Use(sessionMgr.LoadSessionUser)
	r.Use(csrfMiddleware(appCfg, secure, errorsHandler))

	// ─────────────────────────────────────────────────────────────────────────────
	// Routes
	// ─────────────────────────────────────────────────────────────────────────────

	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, appCfg.AllowDemoMode, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	// Uploaded files (local storage only)
	if appCfg.StorageType == "local" || appCfg.StorageType == "" {
		r.Handle(appCfg.StorageLocalURL+"/*", fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath))
	}

	r.Route("/api", func(api chi.Router) {
		// Authentication
		authHandler := authapifeature.NewHandler(db, sessionMgr, rateLimitStore, auditLogger, deps.Mailer, site, logger)
		googleHandler := authgooglefeature.NewHandler(db, sessionMgr, auditLogger, authgooglefeature.Config{
			ClientID:     appCfg.GoogleClientID,
			ClientSecret: appCfg.GoogleClientSecret,
			BaseURL:      appCfg.BaseURL,
			FrontendURL:  appCfg.FrontendURL,
		}, logger)
		api.Route("/auth", func(ar chi.Router) {
			ar.Mount("/google", authgooglefeature.Routes(googleHandler))
			ar.Mount("/", authapifeature.Routes(authHandler))
		})

		// Content
		api.Mount("/news", newsfeature.Routes(newsfeature.NewHandler(db, fb, auditLogger, logger), sessionMgr))
		api.Mount("/videos", videosfeature.Routes(videosfeature.NewHandler(db, fb, auditLogger, logger), sessionMgr))
		api.Mount("/products", productsfeature.Routes(productsfeature.NewHandler(db, fb, auditLogger, logger), sessionMgr))
		api.Mount("/quran", quranfeature.Routes(quranfeature.NewHandler(db, fb, auditLogger, logger), sessionMgr))
		api.Mount("/hadith", hadithfeature.Routes(hadithfeature.NewHandler(db, fb, auditLogger, logger), sessionMgr))
		api.Mount("/navbar", navbarfeature.Routes(navbarfeature.NewHandler(db, fb, auditLogger, logger), sessionMgr))

		questionsHandler := questionsfeature.NewHandler(db, fb, deps.Mailer, site, auditLogger, logger)
		api.Mount("/questions", questionsfeature.Routes(questionsHandler, sessionMgr))

		// Member activity
		ordersHandler := ordersfeature.NewHandler(db, deps.Mailer, site, auditLogger, logger)
		api.Mount("/orders", ordersfeature.Routes(ordersHandler, sessionMgr))
		api.Mount("/bookings", bookingsfeature.Routes(bookingsfeature.NewHandler(db, logger), sessionMgr))
		api.Mount("/bookmarks", bookmarksfeature.Routes(bookmarksfeature.NewHandler(db, logger), sessionMgr))

		paymentsHandler := paymentsfeature.NewHandler(db, gateway, auditLogger, appCfg.FrontendURL, logger)
		api.Mount("/payments/bkash", paymentsfeature.Routes(paymentsHandler, sessionMgr))

		// Administration
		api.Mount("/users", usersfeature.Routes(usersfeature.NewHandler(db, auditLogger, logger), sessionMgr))
		api.Mount("/uploads", uploadsfeature.Routes(uploadsfeature.NewHandler(deps.FileStorage, auditLogger, logger), sessionMgr))
		api.Mount("/admin", adminfeature.Routes(adminfeature.NewHandler(db, taskRunner, logger), sessionMgr))
	})

	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	return r, nil
}

// csrfMiddleware protects cookie-authenticated mutations. Clients fetch a
// token from GET /api/auth/csrf and echo it in the X-CSRF-Token header.
func csrfMiddleware(appCfg AppConfig, secure bool, errorsHandler *errorsfeature.Handler) func(http.Handler) http.Handler {
	opts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("noorhub_csrf"),
		csrf.RequestHeader("X-CSRF-Token"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(errorsHandler.CSRFFailure)),
	}

	// The web client runs on its own origin.
	var trusted []string
	if u, err := url.Parse(appCfg.FrontendURL); err == nil && u.Host != "" {
		trusted = append(trusted, u.Host)
	}
	if !secure {
		trusted = append(trusted, "localhost:8080", "localhost:3000", "127.0.0.1:8080", "127.0.0.1:3000")
	}
	if len(trusted) > 0 {
		opts = append(opts, csrf.TrustedOrigins(trusted))
	}
	if appCfg.SessionDomain != "" {
		opts = append(opts, csrf.Domain(appCfg.SessionDomain))
	}
	protect := csrf.Protect([]byte(appCfg.CSRFKey), opts...)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if csrfExempt[req.URL.Path] {
				next.ServeHTTP(w, req)
				return
			}
			protected.ServeHTTP(w, req)
		})
	}
}
