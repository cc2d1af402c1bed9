// internal/app/features/celulas/multiply.go
package celulas

import (
	"context"
	"net/http"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/htmlsanitize"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/httpjson"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/permissions"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/timeouts"
	"github.com/Pelezi/videira-caruaru-api/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type multiplyRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	LeaderID    string   `json:"leader_id"`
	MemberIDs   []string `json:"member_ids"`
}

// HandleMultiply splits a célula: a new célula is created under the
// same discipulado with the given leader, and the listed members move
// from the source célula to the new one. Everything happens in one
// transaction; if any listed member is not currently attached to the
// source célula the whole split is aborted.
func (h *Handler) HandleMultiply(w http.ResponseWriter, r *http.Request) {
	sourceID, err := pathID(r, "id")
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	var req multiplyRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)

	leaderID, err := primitive.ObjectIDFromHex(req.LeaderID)
	if err != nil {
		apperr.Render(w, apperr.Invalidf("invalid leader id"), h.Log)
		return
	}
	memberIDs := make([]primitive.ObjectID, 0, len(req.MemberIDs))
	seen := make(map[primitive.ObjectID]bool, len(req.MemberIDs))
	for _, hex := range req.MemberIDs {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			apperr.Render(w, apperr.Invalidf("invalid member id"), h.Log)
			return
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		memberIDs = append(memberIDs, id)
	}
	if len(memberIDs) == 0 {
		apperr.Render(w, apperr.Invalidf("no members to move"), h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Tenant.Celula(ctx, sourceID, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if err := permissions.RequireCelulaAccess(perm, sourceID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if err := h.Tenant.Member(ctx, leaderID, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	source, err := h.Celulas.GetByID(ctx, sourceID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	var created models.Celula
	err = h.InTxn(ctx, func(sc context.Context) error {
		if err := h.ensureLeaderStanding(sc, principal.MatrixID, leaderID); err != nil {
			return err
		}
		var err error
		created, err = h.Celulas.Create(sc, models.Celula{
			Name:          req.Name,
			Description:   htmlsanitize.Sanitize(req.Description),
			DiscipuladoID: source.DiscipuladoID,
			LeaderID:      leaderID,
			MatrixID:      principal.MatrixID,
		})
		if err != nil {
			return err
		}
		moved, err := h.Members.MoveToCelula(sc, memberIDs, sourceID, created.ID)
		if err != nil {
			return err
		}
		if moved != int64(len(memberIDs)) {
			return apperr.Preconditionf("some members are not attached to the source célula")
		}
		return nil
	})
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	h.Log.Info("célula multiplied",
		zap.String("source_id", sourceID.Hex()),
		zap.String("new_id", created.ID.Hex()),
		zap.Int("members_moved", len(memberIDs)))
	httpjson.Write(w, http.StatusCreated, created)
}
