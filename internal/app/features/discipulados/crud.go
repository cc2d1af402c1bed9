// internal/app/features/discipulados/crud.go
package discipulados

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

type discipuladoRequest struct {
	Name           string  `json:"name"`
	RedeID         string  `json:"rede_id"`
	DiscipuladorID *string `json:"discipulador_id"`
}

// HandleList returns the matrix's discipulados for admins, or the
// requester's authority set (directly led plus reachable through
// pastored redes).
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Discipulados.ListByMatrix(ctx, principal.MatrixID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if !perm.IsAdmin {
		visible := out[:0]
		for _, d := range out {
			if containsID(perm.DiscipuladoIDs, d.ID) {
				visible = append(visible, d)
			}
		}
		out = visible
	}
	if out == nil {
		out = []models.Discipulado{}
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

	if err := h.Tenant.Discipulado(ctx, id, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if err := requireAccess(perm, id); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	d, err := h.Discipulados.GetByID(ctx, id)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.Write(w, http.StatusOK, d)
}

// HandleCreate creates a discipulado under a rede. Admins, or the
// pastor of the parent rede.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req discipuladoRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)

	redeID, err := primitive.ObjectIDFromHex(req.RedeID)
	if err != nil {
		apperr.Render(w, apperr.Invalidf("invalid rede id"), h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Tenant.Rede(ctx, redeID, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if !perm.IsAdmin && !containsID(perm.RedeIDs, redeID) {
		apperr.Render(w, apperr.Forbiddenf("no authority over this rede"), h.Log)
		return
	}
	discipuladorID, err := h.resolveDiscipulador(ctx, principal.MatrixID, req.DiscipuladorID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	created, err := h.Discipulados.Create(ctx, models.Discipulado{
		Name:           req.Name,
		RedeID:         redeID,
		DiscipuladorID: discipuladorID,
		MatrixID:       principal.MatrixID,
	})
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	h.Log.Info("discipulado created",
		zap.String("discipulado_id", created.ID.Hex()),
		zap.String("rede_id", redeID.Hex()))
	httpjson.Write(w, http.StatusCreated, created)
}

// HandleUpdate renames the discipulado or reassigns its discipulador.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	var req discipuladoRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Tenant.Discipulado(ctx, id, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if err := requireAccess(perm, id); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	discipuladorID, err := h.resolveDiscipulador(ctx, principal.MatrixID, req.DiscipuladorID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if err := h.Discipulados.UpdateInfo(ctx, id, req.Name, discipuladorID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.NoContent(w)
}

// HandleDelete removes a discipulado. Rejected while any célula still
// hangs under it.
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

	if err := h.Tenant.Discipulado(ctx, id, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	n, err := h.Celulas.CountByDiscipulado(ctx, id)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if n > 0 {
		apperr.Render(w, apperr.Preconditionf("discipulado still has células"), h.Log)
		return
	}
	if _, err := h.Discipulados.Delete(ctx, id); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	h.Log.Info("discipulado deleted", zap.String("discipulado_id", id.Hex()))
	httpjson.NoContent(w)
}

// HandleListCelulas lists the células under one discipulado.
func (h *Handler) HandleListCelulas(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Tenant.Discipulado(ctx, id, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if err := requireAccess(perm, id); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	celulas, err := h.Celulas.ListByDiscipulado(ctx, id)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if celulas == nil {
		celulas = []models.Celula{}
	}
	httpjson.Write(w, http.StatusOK, celulas)
}

// requireAccess admits admins and members whose authority set covers
// the discipulado.
func requireAccess(p permissions.Full, discipuladoID primitive.ObjectID) error {
	if p.IsAdmin || containsID(p.DiscipuladoIDs, discipuladoID) {
		return nil
	}
	return apperr.Forbiddenf("no authority over this discipulado")
}

// resolveDiscipulador validates the optional discipulador: a member of
// the matrix whose ministry position carries discipulador standing.
func (h *Handler) resolveDiscipulador(ctx context.Context, matrixID primitive.ObjectID, hex *string) (*primitive.ObjectID, error) {
	if hex == nil || *hex == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(*hex)
	if err != nil {
		return nil, apperr.Invalidf("invalid discipulador id")
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
	if !ministrypolicy.CanBeDiscipulador(typ) {
		return nil, apperr.Preconditionf("member's ministry position cannot lead a discipulado")
	}
	return &id, nil
}

func containsID(ids []primitive.ObjectID, want primitive.ObjectID) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}
