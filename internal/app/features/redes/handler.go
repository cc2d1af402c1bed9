// internal/app/features/redes/handler.go
package redes

import (
	"github.com/Pelezi/videira-caruaru-api/internal/app/policy/tenantpolicy"
	discipuladostore "github.com/Pelezi/videira-caruaru-api/internal/app/store/discipulados"
	memberstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/members"
	ministrystore "github.com/Pelezi/videira-caruaru-api/internal/app/store/ministries"
	redestore "github.com/Pelezi/videira-caruaru-api/internal/app/store/redes"
	"go.uber.org/zap"
)

// Handler serves the top tier of the discipleship hierarchy.
type Handler struct {
	Redes        *redestore.Store
	Discipulados *discipuladostore.Store
	Members      *memberstore.Store
	Ministries   *ministrystore.Store
	Tenant       *tenantpolicy.Validator
	Log          *zap.Logger
}

func NewHandler(
	redes *redestore.Store,
	discipulados *discipuladostore.Store,
	members *memberstore.Store,
	ministries *ministrystore.Store,
	tenant *tenantpolicy.Validator,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Redes:        redes,
		Discipulados: discipulados,
		Members:      members,
		Ministries:   ministries,
		Tenant:       tenant,
		Log:          logger,
	}
}
