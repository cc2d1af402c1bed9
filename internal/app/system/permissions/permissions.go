// internal/app/system/permissions/permissions.go
// Package permissions computes the per-request capability set for a
// member: which células, discipulados and redes they can act on, plus
// the coarse admin and ministry flags.
//
// Permission objects are derived, never persisted, and recomputed on
// every authenticated request. A resolved object is an immutable
// snapshot for the duration of its request; callers resolve at most
// once per request and must not cache across requests.
package permissions

import (
	"context"
	"net/http"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/Pelezi/videira-caruaru-api/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Full is the complete resolved permission, used by hierarchy-sensitive
// mutations. The id sets are deduplicated and sorted.
type Full struct {
	IsAdmin            bool                 `json:"is_admin"`
	MinistryPositionID *primitive.ObjectID  `json:"ministry_position_id,omitempty"`
	MinistryType       models.MinistryType  `json:"ministry_type,omitempty"`
	CelulaIDs          []primitive.ObjectID `json:"celula_ids"`
	DiscipuladoIDs     []primitive.ObjectID `json:"discipulado_ids"`
	RedeIDs            []primitive.ObjectID `json:"rede_ids"`
}

// Simplified collapses the same traversal into coarse capability flags.
// Used where the full hierarchy shape must not leak to the client
// (login response, token refresh).
type Simplified struct {
	IsViceLeader   bool                 `json:"vice_leader"`
	IsLeader       bool                 `json:"leader"`
	IsDiscipulador bool                 `json:"discipulador"`
	IsPastor       bool                 `json:"pastor"`
	CelulaIDs      []primitive.ObjectID `json:"celula_ids"`
}

// HasCelulaAccess reports whether the permission covers the given
// célula. Admins cover everything.
func HasCelulaAccess(p Full, celulaID primitive.ObjectID) bool {
	if p.IsAdmin {
		return true
	}
	for _, id := range p.CelulaIDs {
		if id == celulaID {
			return true
		}
	}
	return false
}

// RequireAdmin returns a Forbidden denial unless the permission carries
// the admin flag.
func RequireAdmin(p Full) error {
	if !p.IsAdmin {
		return apperr.Forbiddenf("operation requires an admin role")
	}
	return nil
}

// RequireCelulaAccess returns a Forbidden denial unless the permission
// covers the given célula.
func RequireCelulaAccess(p Full, celulaID primitive.ObjectID) error {
	if !HasCelulaAccess(p, celulaID) {
		return apperr.Forbiddenf("no access to this célula")
	}
	return nil
}

type ctxKey string

const permissionKey ctxKey = "permission"

// Current returns the permission attached by the permission gate.
// ok=false means the gate has not run for this request.
func Current(r *http.Request) (Full, bool) {
	p, ok := r.Context().Value(permissionKey).(Full)
	return p, ok
}

func withPermission(r *http.Request, p Full) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), permissionKey, p))
}

// WithTestPermission injects a resolved permission directly. Tests only.
func WithTestPermission(r *http.Request, p Full) *http.Request {
	return withPermission(r, p)
}
