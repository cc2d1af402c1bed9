// internal/app/features/groups/members.go
package groups

import (
	"context"
	"errors"
	"net/http"

	groupmemberstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/groupmembers"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/httpjson"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/timeouts"
	"github.com/Pelezi/videira-caruaru-api/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HandleListMembers lists the group's memberships. Member only.
func (h *Handler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathGroupID(r)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	principal, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	member, err := h.Policy.IsMember(ctx, groupID, principal.MemberID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if !member {
		apperr.Render(w, apperr.Forbiddenf("not a member of this group"), h.Log)
		return
	}
	rows, err := h.Members.ListByGroup(ctx, groupID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if rows == nil {
		rows = []models.GroupMember{}
	}
	httpjson.Write(w, http.StatusOK, rows)
}

type setRoleRequest struct {
	RoleID string `json:"role_id"`
}

// HandleSetMemberRole changes one membership's role. The owner's
// membership cannot be downgraded.
func (h *Handler) HandleSetMemberRole(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathGroupID(r)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	memberID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "memberID"))
	if err != nil {
		apperr.Render(w, apperr.Invalidf("invalid member id"), h.Log)
		return
	}
	var req setRoleRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	roleID, err := primitive.ObjectIDFromHex(req.RoleID)
	if err != nil {
		apperr.Render(w, apperr.Invalidf("invalid role id"), h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	g, err := h.Groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = apperr.NotFoundf("group not found")
		}
		apperr.Render(w, err, h.Log)
		return
	}
	if g.OwnerID == memberID {
		apperr.Render(w, apperr.Preconditionf("the owner's role cannot be changed"), h.Log)
		return
	}
	role, err := h.Roles.GetByID(ctx, roleID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		apperr.Render(w, apperr.NotFoundf("role not found"), h.Log)
		return
	}
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if role.GroupID != groupID {
		apperr.Render(w, apperr.Forbiddenf("role belongs to another group"), h.Log)
		return
	}
	if _, err := h.Members.Get(ctx, groupID, memberID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = apperr.NotFoundf("membership not found")
		}
		apperr.Render(w, err, h.Log)
		return
	}
	if err := h.Members.SetRole(ctx, groupID, memberID, roleID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.NoContent(w)
}

// HandleRemoveMember kicks a member out of the group. The owner
// cannot be removed.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathGroupID(r)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	memberID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "memberID"))
	if err != nil {
		apperr.Render(w, apperr.Invalidf("invalid member id"), h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	g, err := h.Groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = apperr.NotFoundf("group not found")
		}
		apperr.Render(w, err, h.Log)
		return
	}
	if g.OwnerID == memberID {
		apperr.Render(w, apperr.Preconditionf("the owner cannot be removed from the group"), h.Log)
		return
	}
	if err := h.Members.Remove(ctx, groupID, memberID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.NoContent(w)
}

// HandleLeave removes the requester's own membership. Owners must
// delete the group or transfer it instead.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathGroupID(r)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	principal, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	g, err := h.Groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = apperr.NotFoundf("group not found")
		}
		apperr.Render(w, err, h.Log)
		return
	}
	if g.OwnerID == principal.MemberID {
		apperr.Render(w, apperr.Preconditionf("the owner cannot leave the group"), h.Log)
		return
	}
	if err := h.Members.Remove(ctx, groupID, principal.MemberID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.NoContent(w)
}

type joinRequest struct {
	InviteCode string `json:"invite_code"`
}

// HandleJoin joins the requester to a group by invite code, with the
// seeded Member role.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	principal, _ := auth.CurrentPrincipal(r)
	if req.InviteCode == "" {
		apperr.Render(w, apperr.Invalidf("invite code is required"), h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	g, err := h.Groups.GetByInviteCode(ctx, req.InviteCode)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = apperr.NotFoundf("invalid invite code")
		}
		apperr.Render(w, err, h.Log)
		return
	}
	roleID, err := h.defaultRoleID(ctx, g.ID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if err := h.Members.Add(ctx, g.ID, principal.MemberID, roleID); err != nil {
		if errors.Is(err, groupmemberstore.ErrDuplicateMembership) {
			apperr.Render(w, apperr.Preconditionf("already a member of this group"), h.Log)
			return
		}
		apperr.Render(w, err, h.Log)
		return
	}
	h.Log.Info("member joined group",
		zap.String("group_id", g.ID.Hex()),
		zap.String("member_id", principal.MemberID.Hex()))
	httpjson.Write(w, http.StatusOK, g)
}

// HandleRotateInvite replaces the group's invite code, revoking the
// old one.
func (h *Handler) HandleRotateInvite(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathGroupID(r)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	code, err := h.Groups.RotateInviteCode(ctx, groupID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"invite_code": code})
}

// defaultRoleID finds the seeded Member role joiners start with.
func (h *Handler) defaultRoleID(ctx context.Context, groupID primitive.ObjectID) (primitive.ObjectID, error) {
	roles, err := h.Roles.ListByGroup(ctx, groupID)
	if err != nil {
		return primitive.NilObjectID, err
	}
	for _, role := range roles {
		if role.Name == RoleNameMember {
			return role.ID, nil
		}
	}
	return primitive.NilObjectID, apperr.Preconditionf("group has no default member role")
}
