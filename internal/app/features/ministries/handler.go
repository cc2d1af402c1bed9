// internal/app/features/ministries/handler.go
package ministries

import (
	"context"
	"net/http"

	"github.com/Pelezi/videira-caruaru-api/internal/app/policy/ministrypolicy"
	"github.com/Pelezi/videira-caruaru-api/internal/app/policy/tenantpolicy"
	ministrystore "github.com/Pelezi/videira-caruaru-api/internal/app/store/ministries"
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

// Handler serves the matrix's ministry positions. Reads are open to
// any member of the matrix; mutations are admin only.
type Handler struct {
	Ministries *ministrystore.Store
	Tenant     *tenantpolicy.Validator
	Log        *zap.Logger
}

func NewHandler(ministries *ministrystore.Store, tenant *tenantpolicy.Validator, logger *zap.Logger) *Handler {
	return &Handler{Ministries: ministries, Tenant: tenant, Log: logger}
}

var validTypes = map[models.MinistryType]bool{
	models.MinistryPresidentPastor:  true,
	models.MinistryPastor:           true,
	models.MinistryDiscipulador:     true,
	models.MinistryLeader:           true,
	models.MinistryLeaderInTraining: true,
	models.MinistryMember:           true,
	models.MinistryRegularAttendee:  true,
	models.MinistryVisitor:          true,
}

type ministryRequest struct {
	Name     string              `json:"name"`
	Type     models.MinistryType `json:"type"`
	Priority *int                `json:"priority"`
}

type ministryResponse struct {
	models.Ministry
	Label string `json:"label"`
}

func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperr.Invalidf("invalid %s", name)
	}
	return id, nil
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ministries, err := h.Ministries.ListByMatrix(ctx, principal.MatrixID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	out := make([]ministryResponse, 0, len(ministries))
	for _, m := range ministries {
		out = append(out, ministryResponse{Ministry: m, Label: ministrypolicy.Label(m.Type)})
	}
	httpjson.Write(w, http.StatusOK, out)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	principal, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Tenant.Ministry(ctx, id, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	m, err := h.Ministries.GetByID(ctx, id)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.Write(w, http.StatusOK, ministryResponse{Ministry: m, Label: ministrypolicy.Label(m.Type)})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req ministryRequest
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
	if !validTypes[req.Type] {
		apperr.Render(w, apperr.Invalidf("unknown ministry type"), h.Log)
		return
	}
	if req.Priority == nil || *req.Priority < 0 {
		apperr.Render(w, apperr.Invalidf("priority is required and cannot be negative"), h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	created, err := h.Ministries.Create(ctx, models.Ministry{
		Name:     req.Name,
		Type:     req.Type,
		Priority: *req.Priority,
		MatrixID: principal.MatrixID,
	})
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	h.Log.Info("ministry created",
		zap.String("ministry_id", created.ID.Hex()),
		zap.String("type", string(created.Type)))
	httpjson.Write(w, http.StatusCreated, created)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	var req ministryRequest
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
	if !validTypes[req.Type] {
		apperr.Render(w, apperr.Invalidf("unknown ministry type"), h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Tenant.Ministry(ctx, id, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if err := h.Ministries.UpdateInfo(ctx, id, req.Name, req.Type, req.Priority); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.NoContent(w)
}

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

	if err := h.Tenant.Ministry(ctx, id, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if _, err := h.Ministries.Delete(ctx, id); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.NoContent(w)
}
