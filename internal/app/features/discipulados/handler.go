// internal/app/features/discipulados/handler.go
package discipulados

import (
	"github.com/Pelezi/videira-caruaru-api/internal/app/policy/tenantpolicy"
	celulastore "github.com/Pelezi/videira-caruaru-api/internal/app/store/celulas"
	discipuladostore "github.com/Pelezi/videira-caruaru-api/internal/app/store/discipulados"
	memberstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/members"
	ministrystore "github.com/Pelezi/videira-caruaru-api/internal/app/store/ministries"
	"go.uber.org/zap"
)

// Handler serves the middle tier of the discipleship hierarchy.
type Handler struct {
	Discipulados *discipuladostore.Store
	Celulas      *celulastore.Store
	Members      *memberstore.Store
	Ministries   *ministrystore.Store
	Tenant       *tenantpolicy.Validator
	Log          *zap.Logger
}

func NewHandler(
	discipulados *discipuladostore.Store,
	celulas *celulastore.Store,
	members *memberstore.Store,
	ministries *ministrystore.Store,
	tenant *tenantpolicy.Validator,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Discipulados: discipulados,
		Celulas:      celulas,
		Members:      members,
		Ministries:   ministries,
		Tenant:       tenant,
		Log:          logger,
	}
}
