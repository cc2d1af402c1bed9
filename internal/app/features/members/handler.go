// internal/app/features/members/handler.go
package members

import (
	"github.com/Pelezi/videira-caruaru-api/internal/app/policy/tenantpolicy"
	celulastore "github.com/Pelezi/videira-caruaru-api/internal/app/store/celulas"
	matrixmembershipstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/matrixmemberships"
	memberstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/members"
	ministrystore "github.com/Pelezi/videira-caruaru-api/internal/app/store/ministries"
	rolestore "github.com/Pelezi/videira-caruaru-api/internal/app/store/roles"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the member registry: profiles, matrix enrollment,
// ministry and role assignment, célula attendance and spouse pairing.
type Handler struct {
	Client      *mongo.Client
	Members     *memberstore.Store
	Memberships *matrixmembershipstore.Store
	Ministries  *ministrystore.Store
	Roles       *rolestore.Store
	Celulas     *celulastore.Store
	Tenant      *tenantpolicy.Validator
	Log         *zap.Logger
}

func NewHandler(
	client *mongo.Client,
	members *memberstore.Store,
	memberships *matrixmembershipstore.Store,
	ministries *ministrystore.Store,
	roles *rolestore.Store,
	celulas *celulastore.Store,
	tenant *tenantpolicy.Validator,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Client:      client,
		Members:     members,
		Memberships: memberships,
		Ministries:  ministries,
		Roles:       roles,
		Celulas:     celulas,
		Tenant:      tenant,
		Log:         logger,
	}
}
