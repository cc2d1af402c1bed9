// internal/app/features/authapi/handler.go
package authapi

import (
	matrixstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/matrices"
	matrixmembershipstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/matrixmemberships"
	memberstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/members"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auditlog"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/notify"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/permissions"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the auth endpoints:
// login with matrix selection, token refresh, password setup. Audit
// may be nil (auditing disabled); Limiter may be nil (no throttling),
// which tests use.
type Handler struct {
	Members     *memberstore.Store
	Memberships *matrixmembershipstore.Store
	Matrices    *matrixstore.Store
	Issuer      *auth.TokenIssuer
	Resolver    *permissions.Resolver
	Notify      notify.Notifier
	Audit       *auditlog.Logger
	Limiter     *ratelimit.LoginLimiter
	Log         *zap.Logger
}

func NewHandler(
	members *memberstore.Store,
	memberships *matrixmembershipstore.Store,
	matrices *matrixstore.Store,
	issuer *auth.TokenIssuer,
	resolver *permissions.Resolver,
	notifier notify.Notifier,
	audit *auditlog.Logger,
	limiter *ratelimit.LoginLimiter,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Members:     members,
		Memberships: memberships,
		Matrices:    matrices,
		Issuer:      issuer,
		Resolver:    resolver,
		Notify:      notifier,
		Audit:       audit,
		Limiter:     limiter,
		Log:         logger,
	}
}
