// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/Pelezi/videira-caruaru-api/internal/app/policy/ministrypolicy"
	auditstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/audit"
	matrixstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/matrices"
	matrixmembershipstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/matrixmemberships"
	memberstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/members"
	ministrystore "github.com/Pelezi/videira-caruaru-api/internal/app/store/ministries"
	rolestore "github.com/Pelezi/videira-caruaru-api/internal/app/store/roles"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/normalize"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/tasks"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/timeouts"
	"github.com/Pelezi/videira-caruaru-api/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// bootstrapInviteTTL bounds the set-password token logged for a seeded
// admin that was created without a password.
const bootstrapInviteTTL = 48 * time.Hour

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
// It applies timeout overrides and, on an empty database, seeds the
// first matrix and its admin member.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.DBTimeoutShort,
		Medium: appCfg.DBTimeoutMedium,
		Long:   appCfg.DBTimeoutLong,
	})

	// Maintenance jobs run for the life of the process, independent of
	// the startup context.
	tasks.Start(context.Background(), logger,
		tasks.AuditRetentionJob(auditstore.New(deps.MongoDatabase), logger, appCfg.AuditRetention))

	if appCfg.BootstrapAdminEmail == "" {
		logger.Info("bootstrap seeding disabled, no admin email configured")
		return nil
	}
	return seedFirstRun(ctx, appCfg, deps, logger)
}

// seedFirstRun creates the initial matrix, its ministry ladder, an
// admin role, and the admin member. It is a no-op once any matrix
// exists, so restarting the service never duplicates the seed.
func seedFirstRun(ctx context.Context, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase
	matrices := matrixstore.New(db)
	members := memberstore.New(db)
	memberships := matrixmembershipstore.New(db)
	ministries := ministrystore.New(db)
	roles := rolestore.New(db)

	existing, err := matrices.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Debug("matrices already present, skipping bootstrap seed")
		return nil
	}

	var domains []string
	if appCfg.BootstrapMatrixDomain != "" {
		domains = []string{appCfg.BootstrapMatrixDomain}
	}
	matrix, err := matrices.Create(ctx, models.Matrix{
		Name:    appCfg.BootstrapMatrixName,
		Domains: domains,
	})
	if err != nil {
		return err
	}

	var presidentMinistry *models.Ministry
	for _, m := range ministryLadder(matrix.ID) {
		created, err := ministries.Create(ctx, m)
		if err != nil {
			return err
		}
		if created.Type == models.MinistryPresidentPastor {
			presidentMinistry = &created
		}
	}

	adminRole, err := roles.Create(ctx, models.Role{
		Name:     "Administrador",
		IsAdmin:  true,
		MatrixID: matrix.ID,
	})
	if err != nil {
		return err
	}

	admin := models.Member{
		FullName:        normalize.Name(appCfg.BootstrapAdminName),
		Email:           normalize.Email(appCfg.BootstrapAdminEmail),
		HasSystemAccess: true,
		RoleIDs:         []primitive.ObjectID{adminRole.ID},
	}
	if presidentMinistry != nil {
		admin.MinistryPositionID = &presidentMinistry.ID
	}
	admin, err = members.Create(ctx, admin)
	if err != nil {
		if errors.Is(err, memberstore.ErrDuplicateEmail) {
			logger.Warn("bootstrap admin email already taken, skipping admin seed",
				zap.String("email", appCfg.BootstrapAdminEmail))
			return nil
		}
		return err
	}
	if err := memberships.Add(ctx, admin.ID, matrix.ID); err != nil {
		return err
	}

	if appCfg.BootstrapAdminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(appCfg.BootstrapAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if err := members.SetPassword(ctx, admin.ID, string(hash)); err != nil {
			return err
		}
		logger.Info("bootstrap admin seeded with configured password",
			zap.String("email", admin.Email),
			zap.String("matrix", matrix.Name))
		return nil
	}

	issuer, err := auth.NewTokenIssuer(appCfg.TokenSecret, appCfg.TokenIssuerName, appCfg.SessionTTL)
	if err != nil {
		return err
	}
	invite, err := issuer.SignPurpose(admin.ID.Hex(), auth.PurposeSetPassword, bootstrapInviteTTL)
	if err != nil {
		return err
	}
	logger.Info("bootstrap admin seeded, set a password with the invite token",
		zap.String("email", admin.Email),
		zap.String("matrix", matrix.Name),
		zap.String("set_password_token", invite))
	return nil
}

// ministryLadder builds the default position set for a new matrix,
// ordered from highest authority (priority 0) down.
func ministryLadder(matrixID primitive.ObjectID) []models.Ministry {
	types := []models.MinistryType{
		models.MinistryPresidentPastor,
		models.MinistryPastor,
		models.MinistryDiscipulador,
		models.MinistryLeader,
		models.MinistryLeaderInTraining,
		models.MinistryMember,
		models.MinistryRegularAttendee,
		models.MinistryVisitor,
	}
	out := make([]models.Ministry, 0, len(types))
	for i, t := range types {
		out = append(out, models.Ministry{
			Name:     ministrypolicy.Label(t),
			Type:     t,
			Priority: i,
			MatrixID: matrixID,
		})
	}
	return out
}
