// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the service.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, token_secret, etc.
//   - Environment variables: VIDEIRA_MONGO_URI, VIDEIRA_TOKEN_SECRET, etc.
//   - Command-line flags: --mongo_uri, --token_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "videira_caruaru", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	// Token configuration
	{Name: "token_secret", Default: "", Desc: "HMAC secret for signing session tokens (required)"},
	{Name: "token_issuer", Default: "videira-caruaru-api", Desc: "Issuer claim for signed tokens"},
	{Name: "session_ttl", Default: "24h", Desc: "Session token lifetime (e.g., 24h, 8h, 30m)"},

	// Database operation timeouts (blank keeps built-in defaults)
	{Name: "db_timeout_short", Default: "", Desc: "Timeout for point reads (e.g., 2s)"},
	{Name: "db_timeout_medium", Default: "", Desc: "Timeout for list queries (e.g., 5s)"},
	{Name: "db_timeout_long", Default: "", Desc: "Timeout for multi-document transactions (e.g., 15s)"},

	// Audit trail
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_retention", Default: "2160h", Desc: "How long stored audit events are kept (e.g., 2160h for 90 days)"},

	// First-run bootstrap
	{Name: "bootstrap_admin_email", Default: "", Desc: "Email of the admin member seeded on first run (blank disables seeding)"},
	{Name: "bootstrap_admin_name", Default: "Administrador", Desc: "Display name of the seeded admin member"},
	{Name: "bootstrap_admin_password", Default: "", Desc: "Password for the seeded admin (blank logs a set-password invite token instead)"},
	{Name: "bootstrap_matrix_name", Default: "Videira Caruaru", Desc: "Name of the matrix seeded on first run"},
	{Name: "bootstrap_matrix_domain", Default: "", Desc: "Optional domain alias for the seeded matrix"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// environment variables (WAFFLE_* for core, VIDEIRA_* for app), and
// command-line flags, with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "VIDEIRA", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		TokenSecret:     appValues.String("token_secret"),
		TokenIssuerName: appValues.String("token_issuer"),
		SessionTTL:      appValues.Duration("session_ttl", 24*time.Hour),

		DBTimeoutShort:  appValues.Duration("db_timeout_short", 0),
		DBTimeoutMedium: appValues.Duration("db_timeout_medium", 0),
		DBTimeoutLong:   appValues.Duration("db_timeout_long", 0),

		AuditLogAuth:   appValues.String("audit_log_auth"),
		AuditRetention: appValues.Duration("audit_retention", 90*24*time.Hour),

		BootstrapAdminEmail:    appValues.String("bootstrap_admin_email"),
		BootstrapAdminName:     appValues.String("bootstrap_admin_name"),
		BootstrapAdminPassword: appValues.String("bootstrap_admin_password"),
		BootstrapMatrixName:    appValues.String("bootstrap_matrix_name"),
		BootstrapMatrixDomain:  appValues.String("bootstrap_matrix_domain"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI format and the token secret are checked here so
// misconfiguration surfaces before any connection attempt.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.TokenSecret == "" {
		return fmt.Errorf("token_secret must be set (VIDEIRA_TOKEN_SECRET)")
	}
	if len(appCfg.TokenSecret) < 32 {
		return fmt.Errorf("token_secret must be at least 32 bytes, got %d", len(appCfg.TokenSecret))
	}
	if appCfg.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}

	return nil
}
