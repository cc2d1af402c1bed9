// internal/app/features/members/assign.go
package members

import (
	"context"
	"net/http"

	"github.com/Pelezi/videira-caruaru-api/internal/app/policy/ministrypolicy"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/httpjson"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/permissions"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ministryAssignRequest struct {
	MinistryID *string `json:"ministry_id"` // null clears the position
}

type rolesAssignRequest struct {
	RoleIDs []string `json:"role_ids"`
}

type celulaAssignRequest struct {
	CelulaID *string `json:"celula_id"` // null detaches the member
}

// assigner builds the requester's side of the priority comparison from
// their resolved permission.
func (h *Handler) assigner(ctx context.Context, perm permissions.Full) (ministrypolicy.Assigner, error) {
	a := ministrypolicy.Assigner{IsAdmin: perm.IsAdmin, Type: perm.MinistryType}
	if perm.MinistryPositionID != nil {
		ministry, err := h.Ministries.GetByID(ctx, *perm.MinistryPositionID)
		if err != nil {
			return a, err
		}
		a.Priority = ministry.Priority
	}
	return a, nil
}

// HandleAssignMinistry sets or clears a member's ministry position.
// Assigning is allowed only strictly below the requester's own
// authority; admins and pastor-tier requesters bypass the comparison.
func (h *Handler) HandleAssignMinistry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	var req ministryAssignRequest
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Tenant.Member(ctx, id, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	a, err := h.assigner(ctx, perm)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	if req.MinistryID == nil || *req.MinistryID == "" {
		// Clearing is compared against the position being removed.
		m, err := h.Members.GetByID(ctx, id)
		if err != nil {
			apperr.Render(w, err, h.Log)
			return
		}
		if m.MinistryPositionID != nil {
			current, err := h.Ministries.GetByID(ctx, *m.MinistryPositionID)
			if err == nil && !ministrypolicy.CanAssign(a, current.Priority) {
				apperr.Render(w, apperr.Preconditionf("cannot remove a position at or above your own authority"), h.Log)
				return
			}
		}
		if err := h.Members.SetMinistryPosition(ctx, id, nil); err != nil {
			apperr.Render(w, err, h.Log)
			return
		}
		httpjson.NoContent(w)
		return
	}

	ministryID, err := primitive.ObjectIDFromHex(*req.MinistryID)
	if err != nil {
		apperr.Render(w, apperr.Invalidf("invalid ministry id"), h.Log)
		return
	}
	if err := h.Tenant.Ministry(ctx, ministryID, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	target, err := h.Ministries.GetByID(ctx, ministryID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if !ministrypolicy.CanAssign(a, target.Priority) {
		apperr.Render(w, apperr.Preconditionf("cannot assign a position at or above your own authority"), h.Log)
		return
	}
	if err := h.Members.SetMinistryPosition(ctx, id, &ministryID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	h.Log.Info("ministry position assigned",
		zap.String("member_id", id.Hex()),
		zap.String("ministry_id", ministryID.Hex()))
	httpjson.NoContent(w)
}

// HandleAssignRoles replaces a member's role set. Every role is
// tenant-validated; granting or revoking a role that carries the admin
// flag requires the requester to be an admin.
func (h *Handler) HandleAssignRoles(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	var req rolesAssignRequest
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

	roleIDs := make([]primitive.ObjectID, 0, len(req.RoleIDs))
	seen := make(map[primitive.ObjectID]bool, len(req.RoleIDs))
	for _, hex := range req.RoleIDs {
		rid, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			apperr.Render(w, apperr.Invalidf("invalid role id"), h.Log)
			return
		}
		if seen[rid] {
			continue
		}
		seen[rid] = true
		roleIDs = append(roleIDs, rid)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Tenant.Member(ctx, id, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	for _, rid := range roleIDs {
		if err := h.Tenant.Role(ctx, rid, principal.MatrixID); err != nil {
			apperr.Render(w, err, h.Log)
			return
		}
	}

	if !perm.IsAdmin {
		// Admin roles only change hands between admins: check both the
		// new set and the set being replaced.
		next, err := h.Roles.GetByIDs(ctx, principal.MatrixID, roleIDs)
		if err != nil {
			apperr.Render(w, err, h.Log)
			return
		}
		for _, role := range next {
			if role.IsAdmin {
				apperr.Render(w, apperr.Forbiddenf("only admins can assign admin roles"), h.Log)
				return
			}
		}
		m, err := h.Members.GetByID(ctx, id)
		if err != nil {
			apperr.Render(w, err, h.Log)
			return
		}
		current, err := h.Roles.GetByIDs(ctx, principal.MatrixID, m.RoleIDs)
		if err != nil {
			apperr.Render(w, err, h.Log)
			return
		}
		for _, role := range current {
			if role.IsAdmin {
				apperr.Render(w, apperr.Forbiddenf("only admins can revoke admin roles"), h.Log)
				return
			}
		}
	}

	if err := h.Members.SetRoles(ctx, id, roleIDs); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	h.Log.Info("roles assigned",
		zap.String("member_id", id.Hex()),
		zap.Int("roles", len(roleIDs)))
	httpjson.NoContent(w)
}

// HandleAssignCelula attaches the member to a célula as an attendee,
// or detaches them. The requester needs authority over the target
// célula (and over the current one when detaching).
func (h *Handler) HandleAssignCelula(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	var req celulaAssignRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Tenant.Member(ctx, id, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	if req.CelulaID == nil || *req.CelulaID == "" {
		m, err := h.Members.GetByID(ctx, id)
		if err != nil {
			apperr.Render(w, err, h.Log)
			return
		}
		if m.CelulaID != nil {
			if err := permissions.RequireCelulaAccess(perm, *m.CelulaID); err != nil {
				apperr.Render(w, err, h.Log)
				return
			}
		}
		if err := h.Members.SetCelula(ctx, id, nil); err != nil {
			apperr.Render(w, err, h.Log)
			return
		}
		httpjson.NoContent(w)
		return
	}

	celulaID, err := primitive.ObjectIDFromHex(*req.CelulaID)
	if err != nil {
		apperr.Render(w, apperr.Invalidf("invalid celula id"), h.Log)
		return
	}
	if err := h.Tenant.Celula(ctx, celulaID, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if err := permissions.RequireCelulaAccess(perm, celulaID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if err := h.Members.SetCelula(ctx, id, &celulaID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.NoContent(w)
}
