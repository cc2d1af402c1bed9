// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/Pelezi/videira-caruaru-api/internal/app/features/authapi"
	celulasfeature "github.com/Pelezi/videira-caruaru-api/internal/app/features/celulas"
	discipuladosfeature "github.com/Pelezi/videira-caruaru-api/internal/app/features/discipulados"
	groupsfeature "github.com/Pelezi/videira-caruaru-api/internal/app/features/groups"
	healthfeature "github.com/Pelezi/videira-caruaru-api/internal/app/features/health"
	matricesfeature "github.com/Pelezi/videira-caruaru-api/internal/app/features/matrices"
	membersfeature "github.com/Pelezi/videira-caruaru-api/internal/app/features/members"
	ministriesfeature "github.com/Pelezi/videira-caruaru-api/internal/app/features/ministries"
	redesfeature "github.com/Pelezi/videira-caruaru-api/internal/app/features/redes"
	rolesfeature "github.com/Pelezi/videira-caruaru-api/internal/app/features/roles"
	winnerpathsfeature "github.com/Pelezi/videira-caruaru-api/internal/app/features/winnerpaths"
	"github.com/Pelezi/videira-caruaru-api/internal/app/policy/grouppolicy"
	"github.com/Pelezi/videira-caruaru-api/internal/app/policy/tenantpolicy"
	auditstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/audit"
	celulareportstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/celulareports"
	celulastore "github.com/Pelezi/videira-caruaru-api/internal/app/store/celulas"
	discipuladostore "github.com/Pelezi/videira-caruaru-api/internal/app/store/discipulados"
	groupmemberstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/groupmembers"
	grouprolestore "github.com/Pelezi/videira-caruaru-api/internal/app/store/grouproles"
	groupstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/groups"
	matrixstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/matrices"
	matrixmembershipstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/matrixmemberships"
	memberstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/members"
	ministrystore "github.com/Pelezi/videira-caruaru-api/internal/app/store/ministries"
	"github.com/Pelezi/videira-caruaru-api/internal/app/store/permsource"
	redestore "github.com/Pelezi/videira-caruaru-api/internal/app/store/redes"
	rolestore "github.com/Pelezi/videira-caruaru-api/internal/app/store/roles"
	winnerpathstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/winnerpaths"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auditlog"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/matrixdomain"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/notify"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/permissions"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this
// WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and Startup have completed. All stores share the single Mongo
// database from DBDeps; policy layers and middleware are built on top
// of them here, once, and handed to every feature router.
//
// Route groups:
//   - /health and /auth are reachable without a session token.
//   - Matrix-scoped features additionally pass the domain cross-check
//     and get a permission snapshot attached per request.
//   - /groups (personal finance) requires a token but no matrix
//     permissions; isolation there is group-membership based.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	members := memberstore.New(db)
	memberships := matrixmembershipstore.New(db)
	matrices := matrixstore.New(db)
	ministries := ministrystore.New(db)
	roles := rolestore.New(db)
	redes := redestore.New(db)
	discipulados := discipuladostore.New(db)
	celulas := celulastore.New(db)
	reports := celulareportstore.New(db)
	winnerpaths := winnerpathstore.New(db)
	groups := groupstore.New(db)
	grouproles := grouprolestore.New(db)
	groupmembers := groupmemberstore.New(db)

	source := permsource.New(db)
	resolver := permissions.NewResolver(source)
	tenant := tenantpolicy.NewValidator(source)
	groupPolicy := grouppolicy.New(source)
	groupGuard := grouppolicy.NewGuard(groupPolicy, logger)

	issuer, err := auth.NewTokenIssuer(appCfg.TokenSecret, appCfg.TokenIssuerName, appCfg.SessionTTL)
	if err != nil {
		logger.Error("token issuer init failed", zap.Error(err))
		return nil, err
	}
	tokens := auth.NewTokenGate(issuer, logger)
	perms := permissions.NewGate(resolver, logger)
	domainCheck := matrixdomain.Middleware(source, logger)

	notifier := &notify.LogNotifier{Channel: "email", Log: logger}
	audit := auditlog.New(auditstore.New(db), logger, auditlog.Config{Auth: appCfg.AuditLogAuth})
	loginLimiter := ratelimit.NewLoginLimiter()

	r := chi.NewRouter()

	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, logger)))
	r.Mount("/auth", authapi.Routes(
		authapi.NewHandler(members, memberships, matrices, issuer, resolver, notifier, audit, loginLimiter, logger),
		tokens, perms))

	// Matrix-scoped features: token, then host/matrix cross-check, then
	// the permission snapshot every handler reads.
	r.Group(func(r chi.Router) {
		r.Use(tokens.RequireToken)
		r.Use(domainCheck)
		r.Use(perms.Attach)

		r.Mount("/matrices", matricesfeature.Routes(
			matricesfeature.NewHandler(matrices, memberships, logger)))
		r.Mount("/members", membersfeature.Routes(
			membersfeature.NewHandler(deps.MongoClient, members, memberships, ministries, roles, celulas, tenant, logger)))
		r.Mount("/ministries", ministriesfeature.Routes(
			ministriesfeature.NewHandler(ministries, tenant, logger)))
		r.Mount("/roles", rolesfeature.Routes(
			rolesfeature.NewHandler(roles, tenant, logger)))
		r.Mount("/winner-paths", winnerpathsfeature.Routes(
			winnerpathsfeature.NewHandler(winnerpaths, tenant, logger)))
		r.Mount("/redes", redesfeature.Routes(
			redesfeature.NewHandler(redes, discipulados, members, ministries, tenant, logger)))
		r.Mount("/discipulados", discipuladosfeature.Routes(
			discipuladosfeature.NewHandler(discipulados, celulas, members, ministries, tenant, logger)))
		r.Mount("/celulas", celulasfeature.Routes(
			celulasfeature.NewHandler(deps.MongoClient, celulas, members, ministries, reports, tenant, logger)))
	})

	// Finance groups: authenticated, but not matrix-scoped.
	r.Group(func(r chi.Router) {
		r.Use(tokens.RequireToken)

		r.Mount("/groups", groupsfeature.Routes(
			groupsfeature.NewHandler(deps.MongoClient, groups, grouproles, groupmembers, groupPolicy, logger),
			groupGuard))
	})

	return r, nil
}
