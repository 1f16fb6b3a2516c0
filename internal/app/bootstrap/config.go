// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/noteshare/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	credentialJWT          = "jwt"
	credentialSecureCookie = "securecookie"

	devSecret           = "dev-only-change-me-please-0123456789ABCDEF"
	minSecretLength     = 16
	minProdSecretLength = 32
)

// appConfigKeys defines the configuration keys for NoteShare.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: NOTESHARE_MONGO_URI, NOTESHARE_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "noteshare", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Credentials
	{Name: "jwt_secret", Default: devSecret, Desc: "Credential signing key (must be strong in production)"},
	{Name: "credential_format", Default: credentialJWT, Desc: "Credential encoding: 'jwt' or 'securecookie'"},
	{Name: "cookie_name", Default: "token", Desc: "Credential cookie name"},
	{Name: "cookie_domain", Default: "", Desc: "Credential cookie domain (blank means current host)"},
	{Name: "token_ttl", Default: "168h", Desc: "Credential lifetime (e.g., 168h, 24h)"},

	// Revocation list
	{Name: "redis_url", Default: "", Desc: "Redis URL for the logout revocation list (blank disables it)"},

	// Listing
	{Name: "default_page_size", Default: 10, Desc: "Notes per page when no limit is given"},
	{Name: "max_page_size", Default: 100, Desc: "Largest accepted page size; larger values are clamped"},

	// Login throttling
	{Name: "login_rate_limit", Default: 10, Desc: "Login attempts allowed per client IP per window"},
	{Name: "login_rate_window", Default: "15m", Desc: "Login rate limit window (e.g., 15m, 1h)"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_content", Default: "all", Desc: "Note event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "bcrypt_cost", Default: bcrypt.DefaultCost, Desc: "bcrypt cost for password hashes"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, NOTESHARE_* for app) and
// command-line flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "NOTESHARE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret:        appValues.String("jwt_secret"),
		CredentialFormat: appValues.String("credential_format"),
		CookieName:       appValues.String("cookie_name"),
		CookieDomain:     appValues.String("cookie_domain"),
		TokenTTL:         appValues.Duration("token_ttl", 7*24*time.Hour),

		RedisURL: appValues.String("redis_url"),

		DefaultPageSize: appValues.Int("default_page_size"),
		MaxPageSize:     appValues.Int("max_page_size"),

		LoginRateLimit:  appValues.Int("login_rate_limit"),
		LoginRateWindow: appValues.Duration("login_rate_window", 15*time.Minute),

		AuditLogAuth:    appValues.String("audit_log_auth"),
		AuditLogContent: appValues.String("audit_log_content"),

		BcryptCost: appValues.Int("bcrypt_cost"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if err := validateAppConfig(coreCfg.Env, appCfg); err != nil {
		logger.Error("invalid app config", zap.Error(err))
		return err
	}
	if coreCfg.Env != "prod" && appCfg.JWTSecret == devSecret {
		logger.Warn("using the built-in development jwt_secret")
	}
	return nil
}

func validateAppConfig(env string, c AppConfig) error {
	if c.MongoDatabase == "" {
		return errors.New("mongo_database must be set")
	}

	switch c.CredentialFormat {
	case credentialJWT, credentialSecureCookie:
	default:
		return fmt.Errorf("credential_format must be %q or %q, got %q", credentialJWT, credentialSecureCookie, c.CredentialFormat)
	}

	if len(c.JWTSecret) < minSecretLength {
		return fmt.Errorf("jwt_secret must be at least %d characters", minSecretLength)
	}
	if env == "prod" {
		if c.JWTSecret == devSecret {
			return errors.New("jwt_secret must be changed from the development default in production")
		}
		if len(c.JWTSecret) < minProdSecretLength {
			return fmt.Errorf("jwt_secret must be at least %d characters in production", minProdSecretLength)
		}
	}

	if c.CookieName == "" {
		return errors.New("cookie_name must be set")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token_ttl must be positive")
	}

	if c.DefaultPageSize < 1 || c.MaxPageSize < 1 {
		return errors.New("default_page_size and max_page_size must be positive")
	}
	if c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("default_page_size (%d) exceeds max_page_size (%d)", c.DefaultPageSize, c.MaxPageSize)
	}

	if c.LoginRateLimit < 1 || c.LoginRateWindow <= 0 {
		return errors.New("login_rate_limit and login_rate_window must be positive")
	}

	if !auditlog.ValidDestination(c.AuditLogAuth) {
		return fmt.Errorf("audit_log_auth: unknown destination %q", c.AuditLogAuth)
	}
	if !auditlog.ValidDestination(c.AuditLogContent) {
		return fmt.Errorf("audit_log_content: unknown destination %q", c.AuditLogContent)
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}
