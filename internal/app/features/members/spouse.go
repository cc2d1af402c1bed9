// internal/app/features/members/spouse.go
package members

import (
	"context"
	"net/http"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/httpjson"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/permissions"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/timeouts"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type spouseRequest struct {
	SpouseID string `json:"spouse_id"`
}

// HandlePairSpouse pairs two members as spouses. The pairing is
// symmetric and exclusive: both sides are written in one transaction,
// and a member already paired with someone else must be unpaired
// first.
func (h *Handler) HandlePairSpouse(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	var req spouseRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)
	if err := requireLeadership(perm); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	spouseID, err := primitive.ObjectIDFromHex(req.SpouseID)
	if err != nil {
		apperr.Render(w, apperr.Invalidf("invalid spouse id"), h.Log)
		return
	}
	if spouseID == id {
		apperr.Render(w, apperr.Invalidf("a member cannot be their own spouse"), h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Tenant.Member(ctx, id, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if err := h.Tenant.Member(ctx, spouseID, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	err = txn.Run(ctx, h.Client, h.Log, func(sc context.Context) error {
		a, err := h.Members.GetByID(sc, id)
		if err != nil {
			return err
		}
		b, err := h.Members.GetByID(sc, spouseID)
		if err != nil {
			return err
		}
		if a.SpouseID != nil && *a.SpouseID != spouseID {
			return apperr.Preconditionf("member is already paired with someone else")
		}
		if b.SpouseID != nil && *b.SpouseID != id {
			return apperr.Preconditionf("spouse is already paired with someone else")
		}
		return h.Members.SetSpouse(sc, id, spouseID)
	})
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	h.Log.Info("spouses paired",
		zap.String("member_id", id.Hex()),
		zap.String("spouse_id", spouseID.Hex()))
	httpjson.NoContent(w)
}

// HandleUnpairSpouse clears the pairing on both sides.
func (h *Handler) HandleUnpairSpouse(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)
	if err := requireLeadership(perm); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Tenant.Member(ctx, id, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	m, err := h.Members.GetByID(ctx, id)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if m.SpouseID == nil {
		apperr.Render(w, apperr.Preconditionf("member is not paired"), h.Log)
		return
	}
	if err := h.Members.ClearSpouse(ctx, id, *m.SpouseID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.NoContent(w)
}
