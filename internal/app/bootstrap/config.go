// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/noorhub/internal/app/system/bkash"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "NOORHUB"

// bkashSandboxURL is used when credentials are set without a base URL.
const bkashSandboxURL = "https://tokenized.sandbox.bka.sh/v1.2.0-beta"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: NOORHUB_MONGO_URI, NOORHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "noorhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "allow_demo_mode", Default: true, Desc: "Serve static demo content when MongoDB is unreachable"},

	{Name: "db_ping_timeout", Default: "2s", Desc: "Deadline for health-check pings"},
	{Name: "db_short_timeout", Default: "5s", Desc: "Deadline for single-document operations"},
	{Name: "db_long_timeout", Default: "30s", Desc: "Deadline for list, aggregate and background operations"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "noorhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "168h", Desc: "Session cookie max age (e.g., 24h, 168h, 30m)"},

	// Rate limiting configuration
	{Name: "rate_limit_enabled", Default: true, Desc: "Enable rate limiting for login attempts"},
	{Name: "rate_limit_login_attempts", Default: 5, Desc: "Max failed login attempts before lockout"},
	{Name: "rate_limit_login_window", Default: "15m", Desc: "Time window for counting failed attempts"},
	{Name: "rate_limit_login_lockout", Default: "15m", Desc: "Lockout duration after exceeding limit"},

	{Name: "csrf_key", Default: "dev-only-csrf-key-please-change-0123456789", Desc: "CSRF token signing key (32+ chars in production)"},

	// File storage configuration
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local storage path for uploaded files"},
	{Name: "storage_local_url", Default: "/files", Desc: "URL prefix for serving local files"},
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "noorhub/", Desc: "S3 key prefix"},
	{Name: "storage_cf_url", Default: "", Desc: "CloudFront distribution URL"},
	{Name: "storage_cf_keypair_id", Default: "", Desc: "CloudFront key pair ID"},
	{Name: "storage_cf_key_path", Default: "", Desc: "Path to CloudFront private key file"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank disables email)"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@noorhub.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "NoorHub", Desc: "From display name"},

	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public URL of this API"},
	{Name: "frontend_url", Default: "http://localhost:3000", Desc: "Public URL of the web client"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	// Admin seeding configuration
	{Name: "seed_admin_email", Default: "", Desc: "Email of admin user to create on startup"},
	{Name: "seed_admin_name", Default: "Admin", Desc: "Name of admin user to create on startup"},
	{Name: "seed_admin_password", Default: "", Desc: "Password for a newly created seed admin"},

	// bKash tokenized checkout
	{Name: "bkash_base_url", Default: "", Desc: "bKash API base URL (sandbox when blank and credentials are set)"},
	{Name: "bkash_app_key", Default: "", Desc: "bKash app key"},
	{Name: "bkash_app_secret", Default: "", Desc: "bKash app secret"},
	{Name: "bkash_username", Default: "", Desc: "bKash merchant username"},
	{Name: "bkash_password", Default: "", Desc: "bKash merchant password"},
	{Name: "bkash_callback_url", Default: "", Desc: "bKash callback URL (defaults to base_url + /api/payments/bkash/callback)"},

	{Name: "redis_url", Default: "", Desc: "Redis URL for the shared bKash token cache (optional)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// Precedence is flags > env > files > defaults; WAFFLE_* variables feed the
// core config and NOORHUB_* variables feed AppConfig.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		AllowDemoMode:    appValues.Bool("allow_demo_mode"),

		DBPingTimeout:  appValues.Duration("db_ping_timeout", 2*time.Second),
		DBShortTimeout: appValues.Duration("db_short_timeout", 5*time.Second),
		DBLongTimeout:  appValues.Duration("db_long_timeout", 30*time.Second),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 7*24*time.Hour),

		RateLimitEnabled:       appValues.Bool("rate_limit_enabled"),
		RateLimitLoginAttempts: appValues.Int("rate_limit_login_attempts"),
		RateLimitLoginWindow:   appValues.Duration("rate_limit_login_window", 15*time.Minute),
		RateLimitLoginLockout:  appValues.Duration("rate_limit_login_lockout", 15*time.Minute),

		CSRFKey: appValues.String("csrf_key"),

		StorageType:        appValues.String("storage_type"),
		StorageLocalPath:   appValues.String("storage_local_path"),
		StorageLocalURL:    appValues.String("storage_local_url"),
		StorageS3Region:    appValues.String("storage_s3_region"),
		StorageS3Bucket:    appValues.String("storage_s3_bucket"),
		StorageS3Prefix:    appValues.String("storage_s3_prefix"),
		StorageCFURL:       appValues.String("storage_cf_url"),
		StorageCFKeyPairID: appValues.String("storage_cf_keypair_id"),
		StorageCFKeyPath:   appValues.String("storage_cf_key_path"),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		BaseURL:     strings.TrimRight(appValues.String("base_url"), "/"),
		FrontendURL: strings.TrimRight(appValues.String("frontend_url"), "/"),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		SeedAdminEmail:    appValues.String("seed_admin_email"),
		SeedAdminName:     appValues.String("seed_admin_name"),
		SeedAdminPassword: appValues.String("seed_admin_password"),

		BkashBaseURL:     appValues.String("bkash_base_url"),
		BkashAppKey:      appValues.String("bkash_app_key"),
		BkashAppSecret:   appValues.String("bkash_app_secret"),
		BkashUsername:    appValues.String("bkash_username"),
		BkashPassword:    appValues.String("bkash_password"),
		BkashCallbackURL: appValues.String("bkash_callback_url"),

		RedisURL: appValues.String("redis_url"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	switch appCfg.StorageType {
	case "", "local", "s3":
	default:
		return fmt.Errorf("unknown storage type: %s", appCfg.StorageType)
	}

	if bk := bkashConfig(appCfg); bk.Partial() {
		logger.Warn("bKash is partially configured; payments are disabled until every bkash_* credential is set")
	}

	if coreCfg.Env == "prod" && strings.HasPrefix(appCfg.SessionKey, "dev-only") {
		logger.Warn("session_key is the development default; set a strong key in production")
	}
	return nil
}

// bkashConfig derives the gateway config. The sandbox URL and the callback
// URL are filled in only once any credential is present, so an empty
// configuration stays empty.
func bkashConfig(appCfg AppConfig) bkash.Config {
	cfg := bkash.Config{
		BaseURL:     appCfg.BkashBaseURL,
		AppKey:      appCfg.BkashAppKey,
		AppSecret:   appCfg.BkashAppSecret,
		Username:    appCfg.BkashUsername,
		Password:    appCfg.BkashPassword,
		CallbackURL: appCfg.BkashCallbackURL,
	}
	if cfg.AppKey == "" && cfg.AppSecret == "" && cfg.Username == "" && cfg.Password == "" {
		return cfg
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = bkashSandboxURL
	}
	if cfg.CallbackURL == "" {
		cfg.CallbackURL = appCfg.BaseURL + "/api/payments/bkash/callback"
	}
	return cfg
}
