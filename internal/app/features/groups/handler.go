// internal/app/features/groups/handler.go
package groups

import (
	"github.com/Pelezi/videira-caruaru-api/internal/app/policy/grouppolicy"
	groupmemberstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/groupmembers"
	grouprolestore "github.com/Pelezi/videira-caruaru-api/internal/app/store/grouproles"
	groupstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/groups"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the finance module's groups: group CRUD, role CRUD,
// membership and invite codes. Groups are not matrix-scoped; isolation
// is purely membership-based, enforced by the grouppolicy guard.
type Handler struct {
	Client  *mongo.Client
	Groups  *groupstore.Store
	Roles   *grouprolestore.Store
	Members *groupmemberstore.Store
	Policy  *grouppolicy.Policy
	Log     *zap.Logger
}

func NewHandler(
	client *mongo.Client,
	groups *groupstore.Store,
	roles *grouprolestore.Store,
	members *groupmemberstore.Store,
	policy *grouppolicy.Policy,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Client:  client,
		Groups:  groups,
		Roles:   roles,
		Members: members,
		Policy:  policy,
		Log:     logger,
	}
}
