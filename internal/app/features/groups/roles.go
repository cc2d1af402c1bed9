// internal/app/features/groups/roles.go
package groups

import (
	"context"
	"errors"
	"net/http"

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

type roleRequest struct {
	Name                  string `json:"name"`
	CanViewTransactions   bool   `json:"can_view_transactions"`
	CanManageTransactions bool   `json:"can_manage_transactions"`
	CanViewCategories     bool   `json:"can_view_categories"`
	CanManageCategories   bool   `json:"can_manage_categories"`
	CanViewBudgets        bool   `json:"can_view_budgets"`
	CanManageBudgets      bool   `json:"can_manage_budgets"`
	CanViewAccounts       bool   `json:"can_view_accounts"`
	CanManageAccounts     bool   `json:"can_manage_accounts"`
	CanManageGroup        bool   `json:"can_manage_group"`
}

func (req roleRequest) toModel(groupID primitive.ObjectID) models.GroupRole {
	return models.GroupRole{
		GroupID:               groupID,
		Name:                  req.Name,
		CanViewTransactions:   req.CanViewTransactions,
		CanManageTransactions: req.CanManageTransactions,
		CanViewCategories:     req.CanViewCategories,
		CanManageCategories:   req.CanManageCategories,
		CanViewBudgets:        req.CanViewBudgets,
		CanManageBudgets:      req.CanManageBudgets,
		CanViewAccounts:       req.CanViewAccounts,
		CanManageAccounts:     req.CanManageAccounts,
		CanManageGroup:        req.CanManageGroup,
	}
}

// roleInGroup loads a role and confirms it belongs to the routed
// group, so role ids cannot be reached through another group's URL.
func (h *Handler) roleInGroup(ctx context.Context, groupID primitive.ObjectID, r *http.Request) (models.GroupRole, error) {
	roleID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "roleID"))
	if err != nil {
		return models.GroupRole{}, apperr.Invalidf("invalid role id")
	}
	role, err := h.Roles.GetByID(ctx, roleID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.GroupRole{}, apperr.NotFoundf("role not found")
	}
	if err != nil {
		return models.GroupRole{}, err
	}
	if role.GroupID != groupID {
		return models.GroupRole{}, apperr.Forbiddenf("role belongs to another group")
	}
	return role, nil
}

// HandleListRoles lists the group's roles. Member only (routed behind
// the membership check in HandleGet's guard chain).
func (h *Handler) HandleListRoles(w http.ResponseWriter, r *http.Request) {
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
	roles, err := h.Roles.ListByGroup(ctx, groupID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if roles == nil {
		roles = []models.GroupRole{}
	}
	httpjson.Write(w, http.StatusOK, roles)
}

// HandleCreateRole adds a custom role to the group.
func (h *Handler) HandleCreateRole(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathGroupID(r)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	var req roleRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if req.Name == "" {
		apperr.Render(w, apperr.Invalidf("name is required"), h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	created, err := h.Roles.Create(ctx, req.toModel(groupID))
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	h.Log.Info("group role created",
		zap.String("group_id", groupID.Hex()),
		zap.String("role_id", created.ID.Hex()))
	httpjson.Write(w, http.StatusCreated, created)
}

// HandleUpdateRole rewrites a role's permission booleans.
func (h *Handler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathGroupID(r)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	var req roleRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	role, err := h.roleInGroup(ctx, groupID, r)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	next := req.toModel(groupID)
	next.ID = role.ID
	next.CreatedAt = role.CreatedAt
	if err := h.Roles.Update(ctx, next); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.NoContent(w)
}

// HandleDeleteRole removes a role. Rejected while any membership still
// points at it.
func (h *Handler) HandleDeleteRole(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathGroupID(r)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	role, err := h.roleInGroup(ctx, groupID, r)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	n, err := h.Members.CountWithRole(ctx, role.ID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if n > 0 {
		apperr.Render(w, apperr.Preconditionf("role is still assigned to members"), h.Log)
		return
	}
	if _, err := h.Roles.Delete(ctx, role.ID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.NoContent(w)
}
