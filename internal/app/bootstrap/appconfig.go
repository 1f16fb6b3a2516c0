// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration. WAFFLE's CoreConfig covers
// ports, TLS, logging, CORS and the environment name.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Credential configuration
	JWTSecret        string        // HMAC key for JWTs, hash key for securecookie
	CredentialFormat string        // "jwt" or "securecookie"
	CookieName       string        // Cookie carrying the credential (default: token)
	CookieDomain     string        // Cookie domain (blank means current host)
	TokenTTL         time.Duration // Credential and cookie lifetime

	// Revocation list; blank disables logout revocation.
	RedisURL string

	// Listing
	DefaultPageSize int
	MaxPageSize     int

	// Login throttling per client IP
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// Audit logging destinations: all, db, log, off
	AuditLogAuth    string
	AuditLogContent string

	BcryptCost int
}
