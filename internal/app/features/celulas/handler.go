// internal/app/features/celulas/handler.go
package celulas

import (
	"context"

	"github.com/Pelezi/videira-caruaru-api/internal/app/policy/tenantpolicy"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/txn"
	"github.com/Pelezi/videira-caruaru-api/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// CelulaStore is the slice of the célula store this feature consumes.
type CelulaStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Celula, error)
	Create(ctx context.Context, c models.Celula) (models.Celula, error)
	Update(ctx context.Context, id primitive.ObjectID, name, description string, leaderID primitive.ObjectID, viceLeaderID *primitive.ObjectID, traineeIDs []primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	ListByMatrix(ctx context.Context, matrixID primitive.ObjectID) ([]models.Celula, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Celula, error)
}

type MemberStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Member, error)
	CountInCelula(ctx context.Context, celulaID primitive.ObjectID) (int64, error)
	MoveToCelula(ctx context.Context, memberIDs []primitive.ObjectID, fromCelula, toCelula primitive.ObjectID) (int64, error)
	SetMinistryPosition(ctx context.Context, id primitive.ObjectID, ministryID *primitive.ObjectID) error
}

type MinistryStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Ministry, error)
	GetByType(ctx context.Context, matrixID primitive.ObjectID, typ models.MinistryType) (models.Ministry, error)
}

type ReportStore interface {
	Create(ctx context.Context, r models.CelulaReport) (models.CelulaReport, error)
	ListByCelula(ctx context.Context, celulaID primitive.ObjectID, limit int64) ([]models.CelulaReport, error)
	DeleteByCelula(ctx context.Context, celulaID primitive.ObjectID) (int64, error)
}

// Handler is the dependency container for the células feature: CRUD,
// multiplication, deletion with its precondition, and weekly reports.
// InTxn wraps multi-document writes; NewHandler binds it to a Mongo
// transaction.
type Handler struct {
	Celulas    CelulaStore
	Members    MemberStore
	Ministries MinistryStore
	Reports    ReportStore
	Tenant     *tenantpolicy.Validator
	InTxn      func(ctx context.Context, fn func(context.Context) error) error
	Log        *zap.Logger
}

func NewHandler(
	client *mongo.Client,
	celulas CelulaStore,
	members MemberStore,
	ministries MinistryStore,
	reports ReportStore,
	tenant *tenantpolicy.Validator,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Celulas:    celulas,
		Members:    members,
		Ministries: ministries,
		Reports:    reports,
		Tenant:     tenant,
		InTxn: func(ctx context.Context, fn func(context.Context) error) error {
			return txn.Run(ctx, client, logger, fn)
		},
		Log: logger,
	}
}
