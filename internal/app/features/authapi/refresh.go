// internal/app/features/authapi/refresh.go
package authapi

import (
	"context"
	"net/http"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/timeouts"
)

// HandleRefresh re-issues the session token for an authenticated
// principal and recomputes the simplified permission, so clients see
// leadership changes without logging in again. Runs behind the token
// gate.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.CurrentPrincipal(r)
	if !ok {
		apperr.Render(w, apperr.Unauthenticatedf("not authenticated"), h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	member, err := h.Members.GetByID(ctx, principal.MemberID)
	if err != nil {
		apperr.Render(w, apperr.Unauthenticatedf("member no longer exists"), h.Log)
		return
	}
	h.openSession(ctx, w, r, principal.MemberID, principal.MatrixID, member.FullName, sessionViaRefresh)
}
