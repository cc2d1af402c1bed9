// internal/app/features/members/memberships.go
package members

import (
	"context"
	"errors"
	"net/http"

	matrixmembershipstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/matrixmemberships"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/httpjson"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/permissions"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleEnroll adds an existing member to the session matrix. Admin
// only: enrollment widens what the member can reach after login.
func (h *Handler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
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

	exists, err := h.Members.Exists(ctx, id)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if !exists {
		apperr.Render(w, apperr.NotFoundf("member not found"), h.Log)
		return
	}
	if err := h.Memberships.Add(ctx, id, principal.MatrixID); err != nil {
		if errors.Is(err, matrixmembershipstore.ErrDuplicateMembership) {
			apperr.Render(w, apperr.Preconditionf("member already belongs to this matrix"), h.Log)
			return
		}
		apperr.Render(w, err, h.Log)
		return
	}
	h.Log.Info("member enrolled",
		zap.String("member_id", id.Hex()),
		zap.String("matrix_id", principal.MatrixID.Hex()))
	httpjson.NoContent(w)
}

// HandleUnenroll removes the member from the session matrix. The
// member record survives; only the enrollment is dropped.
func (h *Handler) HandleUnenroll(w http.ResponseWriter, r *http.Request) {
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
	if id == principal.MemberID {
		apperr.Render(w, apperr.Preconditionf("cannot unenroll yourself"), h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Tenant.Member(ctx, id, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if err := h.Memberships.Remove(ctx, id, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.NoContent(w)
}
