// internal/app/features/groups/crud.go
package groups

import (
	"context"
	"errors"
	"net/http"

	"github.com/Pelezi/videira-caruaru-api/internal/app/policy/grouppolicy"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/htmlsanitize"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/httpjson"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/timeouts"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/txn"
	"github.com/Pelezi/videira-caruaru-api/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Seeded role names. Every group starts with these three; Owner is
// what the creator's membership points at.
const (
	RoleNameOwner  = "Owner"
	RoleNameMember = "Member"
	RoleNameViewer = "Viewer"
)

func pathGroupID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupID"))
	if err != nil {
		return primitive.NilObjectID, apperr.Invalidf("invalid group id")
	}
	return id, nil
}

// seedRoles returns the three default roles for a new group.
func seedRoles(groupID primitive.ObjectID) []models.GroupRole {
	return []models.GroupRole{
		{
			GroupID:               groupID,
			Name:                  RoleNameOwner,
			CanViewTransactions:   true,
			CanManageTransactions: true,
			CanViewCategories:     true,
			CanManageCategories:   true,
			CanViewBudgets:        true,
			CanManageBudgets:      true,
			CanViewAccounts:       true,
			CanManageAccounts:     true,
			CanManageGroup:        true,
		},
		{
			GroupID:               groupID,
			Name:                  RoleNameMember,
			CanViewTransactions:   true,
			CanManageTransactions: true,
			CanViewCategories:     true,
			CanViewBudgets:        true,
			CanViewAccounts:       true,
		},
		{
			GroupID:             groupID,
			Name:                RoleNameViewer,
			CanViewTransactions: true,
			CanViewCategories:   true,
			CanViewBudgets:      true,
			CanViewAccounts:     true,
		},
	}
}

type groupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type groupResponse struct {
	models.Group
	MyPermissions *grouppolicy.Permissions `json:"my_permissions,omitempty"`
}

// HandleList returns the groups the requester belongs to.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ids, err := h.Members.GroupIDsForMember(ctx, principal.MemberID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	out, err := h.Groups.ListByIDs(ctx, ids)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if out == nil {
		out = []models.Group{}
	}
	httpjson.Write(w, http.StatusOK, out)
}

// HandleCreate creates a group and seeds it in one transaction: the
// group, its three default roles, and the creator's Owner membership.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	principal, _ := auth.CurrentPrincipal(r)
	if req.Name == "" {
		apperr.Render(w, apperr.Invalidf("name is required"), h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	var created models.Group
	err := txn.Run(ctx, h.Client, h.Log, func(sc context.Context) error {
		var err error
		created, err = h.Groups.Create(sc, models.Group{
			Name:        req.Name,
			Description: htmlsanitize.Sanitize(req.Description),
			OwnerID:     principal.MemberID,
		})
		if err != nil {
			return err
		}
		roles, err := h.Roles.CreateMany(sc, seedRoles(created.ID))
		if err != nil {
			return err
		}
		return h.Members.Add(sc, created.ID, principal.MemberID, roles[0].ID)
	})
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	h.Log.Info("group created",
		zap.String("group_id", created.ID.Hex()),
		zap.String("owner_id", principal.MemberID.Hex()))
	httpjson.Write(w, http.StatusCreated, created)
}

// HandleGet returns the group and the requester's permission set in
// it. Member only.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathGroupID(r)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	principal, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	perms, err := h.Policy.UserPermissions(ctx, id, principal.MemberID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if perms == nil {
		apperr.Render(w, apperr.Forbiddenf("not a member of this group"), h.Log)
		return
	}
	g, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.Write(w, http.StatusOK, groupResponse{Group: g, MyPermissions: perms})
}

// HandleUpdate renames the group. Routed behind the manage-group
// guard.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathGroupID(r)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	var req groupRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Groups.UpdateInfo(ctx, id, req.Name, htmlsanitize.Sanitize(req.Description)); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.NoContent(w)
}

// HandleDelete removes the group with its roles and memberships in
// one transaction. Owner only; delegated managers cannot delete.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathGroupID(r)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	principal, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	g, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = apperr.NotFoundf("group not found")
		}
		apperr.Render(w, err, h.Log)
		return
	}
	if g.OwnerID != principal.MemberID {
		apperr.Render(w, apperr.Forbiddenf("only the owner can delete the group"), h.Log)
		return
	}

	err = txn.Run(ctx, h.Client, h.Log, func(sc context.Context) error {
		if _, err := h.Members.DeleteByGroup(sc, id); err != nil {
			return err
		}
		if _, err := h.Roles.DeleteByGroup(sc, id); err != nil {
			return err
		}
		_, err := h.Groups.Delete(sc, id)
		return err
	})
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	h.Log.Info("group deleted", zap.String("group_id", id.Hex()))
	httpjson.NoContent(w)
}
