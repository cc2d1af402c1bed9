// internal/app/features/redes/crud.go
package redes

import (
	"context"
	"net/http"

	"github.com/Pelezi/videira-caruaru-api/internal/app/policy/ministrypolicy"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/httpjson"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/permissions"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/timeouts"
	"github.com/Pelezi/videira-caruaru-api/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperr.Invalidf("invalid %s", name)
	}
	return id, nil
}

type redeRequest struct {
	Name     string  `json:"name"`
	PastorID *string `json:"pastor_id"`
}

// HandleList returns the matrix's redes for admins, or the ones the
// requester pastors.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Redes.ListByMatrix(ctx, principal.MatrixID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if !perm.IsAdmin {
		visible := out[:0]
		for _, rede := range out {
			for _, id := range perm.RedeIDs {
				if id == rede.ID {
					visible = append(visible, rede)
					break
				}
			}
		}
		out = visible
	}
	if out == nil {
		out = []models.Rede{}
	}
	httpjson.Write(w, http.StatusOK, out)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Tenant.Rede(ctx, id, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if err := h.requireRedeAccess(perm, id); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	rede, err := h.Redes.GetByID(ctx, id)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.Write(w, http.StatusOK, rede)
}

// HandleCreate creates a rede. Admin only; the optional pastor must be
// a member of the matrix holding a pastor-tier ministry.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req redeRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)
	if err := permissions.RequireAdmin(perm); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	pastorID, err := h.resolvePastor(ctx, principal.MatrixID, req.PastorID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	created, err := h.Redes.Create(ctx, models.Rede{
		Name:     req.Name,
		PastorID: pastorID,
		MatrixID: principal.MatrixID,
	})
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	h.Log.Info("rede created",
		zap.String("rede_id", created.ID.Hex()),
		zap.String("matrix_id", principal.MatrixID.Hex()))
	httpjson.Write(w, http.StatusCreated, created)
}

// HandleUpdate renames the rede or reassigns its pastor. Admins or the
// rede's current pastor.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	var req redeRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Tenant.Rede(ctx, id, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if err := h.requireRedeAccess(perm, id); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	pastorID, err := h.resolvePastor(ctx, principal.MatrixID, req.PastorID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if err := h.Redes.UpdateInfo(ctx, id, req.Name, pastorID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.NoContent(w)
}

// HandleDelete removes a rede. Admin only; rejected while any
// discipulado still hangs under it.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)
	if err := permissions.RequireAdmin(perm); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Tenant.Rede(ctx, id, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	n, err := h.Discipulados.CountByRede(ctx, id)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if n > 0 {
		apperr.Render(w, apperr.Preconditionf("rede still has discipulados"), h.Log)
		return
	}
	if _, err := h.Redes.Delete(ctx, id); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	h.Log.Info("rede deleted", zap.String("rede_id", id.Hex()))
	httpjson.NoContent(w)
}

// requireRedeAccess admits admins and the rede's pastor.
func (h *Handler) requireRedeAccess(p permissions.Full, redeID primitive.ObjectID) error {
	if p.IsAdmin {
		return nil
	}
	for _, id := range p.RedeIDs {
		if id == redeID {
			return nil
		}
	}
	return apperr.Forbiddenf("no authority over this rede")
}

// resolvePastor validates the optional pastor: a member of the matrix
// whose ministry position carries pastor standing.
func (h *Handler) resolvePastor(ctx context.Context, matrixID primitive.ObjectID, hex *string) (*primitive.ObjectID, error) {
	if hex == nil || *hex == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(*hex)
	if err != nil {
		return nil, apperr.Invalidf("invalid pastor id")
	}
	if err := h.Tenant.Member(ctx, id, matrixID); err != nil {
		return nil, err
	}
	member, err := h.Members.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var typ models.MinistryType
	if member.MinistryPositionID != nil {
		ministry, err := h.Ministries.GetByID(ctx, *member.MinistryPositionID)
		if err == nil {
			typ = ministry.Type
		}
	}
	if !ministrypolicy.CanBePastor(typ) {
		return nil, apperr.Preconditionf("member's ministry position cannot pastor a rede")
	}
	return &id, nil
}
