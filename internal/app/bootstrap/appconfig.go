// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (HTTP ports, TLS,
// logging, CORS, body limits). AppConfig is everything specific to this
// application: database coordinates, token signing material, and the
// first-run bootstrap identities.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Token configuration. Sessions are stateless JWTs signed with
	// TokenSecret; TokenIssuerName ends up in the iss claim.
	TokenSecret     string
	TokenIssuerName string
	SessionTTL      time.Duration

	// Database operation timeout overrides. Zero keeps the defaults.
	DBTimeoutShort  time.Duration
	DBTimeoutMedium time.Duration
	DBTimeoutLong   time.Duration

	// Audit trail settings. AuditLogAuth is one of "all", "db", "log",
	// "off"; AuditRetention bounds how long stored events are kept.
	AuditLogAuth   string
	AuditRetention time.Duration

	// First-run bootstrap. When the database has no matrices, Startup
	// seeds one matrix with its ministry ladder, an admin role, and an
	// admin member using these values. BootstrapAdminEmail empty
	// disables seeding.
	BootstrapAdminEmail    string
	BootstrapAdminName     string
	BootstrapAdminPassword string // empty means a set-password invite token is logged instead
	BootstrapMatrixName    string
	BootstrapMatrixDomain  string // optional domain alias for the seeded matrix
}
