// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for noorhub.
//
// Values come from environment variables (NOORHUB_*), configuration files,
// or command-line flags, loaded in LoadConfig. Framework-level settings such
// as ports, TLS, log level and CORS live in WAFFLE's CoreConfig.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Serve the static demo dataset when MongoDB cannot be reached.
	AllowDemoMode bool

	// Database operation deadlines
	DBPingTimeout  time.Duration
	DBShortTimeout time.Duration
	DBLongTimeout  time.Duration

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: noorhub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Maximum session cookie lifetime (default: 168h)

	// Rate limiting configuration
	RateLimitEnabled       bool          // Enable rate limiting for login attempts (default: true)
	RateLimitLoginAttempts int           // Max failed login attempts before lockout (default: 5)
	RateLimitLoginWindow   time.Duration // Time window for counting failed attempts (default: 15m)
	RateLimitLoginLockout  time.Duration // Lockout duration after exceeding limit (default: 15m)

	// CSRF protection configuration
	CSRFKey string // Secret key for CSRF token signing (32 bytes, must be strong in production)

	// File storage configuration
	StorageType      string // Storage backend: "local" or "s3"
	StorageLocalPath string // Local storage path (e.g., "./uploads")
	StorageLocalURL  string // URL prefix for serving local files (e.g., "/files")

	// S3/CloudFront configuration (only used if StorageType is "s3")
	StorageS3Region    string
	StorageS3Bucket    string
	StorageS3Prefix    string
	StorageCFURL       string
	StorageCFKeyPairID string
	StorageCFKeyPath   string

	// Email/SMTP configuration. A blank host disables outgoing mail.
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// BaseURL is where this API is reachable (OAuth redirect, bKash callback).
	BaseURL string
	// FrontendURL is the web client; email links and payment/OAuth
	// redirects point here.
	FrontendURL string

	// Audit logging configuration
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	AuditLogAuth  string
	AuditLogAdmin string

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Admin seeding configuration
	SeedAdminEmail    string
	SeedAdminName     string
	SeedAdminPassword string

	// bKash tokenized checkout
	BkashBaseURL     string
	BkashAppKey      string
	BkashAppSecret   string
	BkashUsername    string
	BkashPassword    string
	BkashCallbackURL string

	// RedisURL enables the shared bKash token cache (blank keeps it in memory).
	RedisURL string
}
