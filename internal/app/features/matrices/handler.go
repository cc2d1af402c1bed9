// internal/app/features/matrices/handler.go
package matrices

import (
	"context"
	"net/http"

	matrixstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/matrices"
	matrixmembershipstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/matrixmemberships"
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

// Handler serves matrices. A session is always bound to one matrix;
// reads and writes here are scoped to it, except listing, which shows
// every matrix the member belongs to.
type Handler struct {
	Matrices    *matrixstore.Store
	Memberships *matrixmembershipstore.Store
	Log         *zap.Logger
}

func NewHandler(matrices *matrixstore.Store, memberships *matrixmembershipstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Matrices: matrices, Memberships: memberships, Log: logger}
}

type matrixRequest struct {
	Name    string   `json:"name"`
	Domains []string `json:"domains"`
	Status  string   `json:"status"`
}

// HandleList returns every matrix the requester holds a membership in.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ids, err := h.Memberships.MatrixIDsForMember(ctx, principal.MemberID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	out, err := h.Matrices.ListByIDs(ctx, ids)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if out == nil {
		out = []models.Matrix{}
	}
	httpjson.Write(w, http.StatusOK, out)
}

// HandleGetCurrent returns the matrix the session is bound to.
func (h *Handler) HandleGetCurrent(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	m, err := h.Matrices.GetByID(ctx, principal.MatrixID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.Write(w, http.StatusOK, m)
}

// HandleUpdateCurrent updates the session matrix's name, domain
// aliases or status. Admin only.
func (h *Handler) HandleUpdateCurrent(w http.ResponseWriter, r *http.Request) {
	var req matrixRequest
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
	if req.Status != models.StatusActive && req.Status != models.StatusInactive {
		apperr.Render(w, apperr.Invalidf("unknown status"), h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Matrices.UpdateInfo(ctx, principal.MatrixID, req.Name, req.Domains, req.Status); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.NoContent(w)
}

// HandleCreate plants a new matrix. The creating admin is enrolled as
// its first member so the new matrix is reachable at next login.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req matrixRequest
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

	created, err := h.Matrices.Create(ctx, models.Matrix{
		Name:    req.Name,
		Domains: req.Domains,
	})
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if err := h.Memberships.Add(ctx, principal.MemberID, created.ID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	h.Log.Info("matrix created",
		zap.String("matrix_id", created.ID.Hex()),
		zap.String("name", created.Name))
	httpjson.Write(w, http.StatusCreated, created)
}

// HandleDelete removes a matrix. Admin only, and only a matrix the
// requester belongs to; the session's own matrix cannot be deleted
// from inside itself.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apperr.Render(w, apperr.Invalidf("invalid id"), h.Log)
		return
	}
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)
	if err := permissions.RequireAdmin(perm); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if id == principal.MatrixID {
		apperr.Render(w, apperr.Preconditionf("cannot delete the matrix this session is bound to"), h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	member, err := h.Memberships.Exists(ctx, principal.MemberID, id)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if !member {
		apperr.Render(w, apperr.Forbiddenf("not a member of this matrix"), h.Log)
		return
	}
	n, err := h.Matrices.Delete(ctx, id)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if n == 0 {
		apperr.Render(w, apperr.NotFoundf("matrix not found"), h.Log)
		return
	}
	h.Log.Info("matrix deleted", zap.String("matrix_id", id.Hex()))
	httpjson.NoContent(w)
}
