// Package grouppolicy provides the permission model for finance
// groups.
//
// Groups are not matrix-scoped; isolation is purely membership based.
// A member's authority inside a group comes from the group role their
// membership carries, except for the group owner, who implicitly holds
// every flag regardless of role.
package grouppolicy

import (
	"context"
	"net/http"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"github.com/Pelezi/videira-caruaru-api/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Flag names one granular group permission.
type Flag string

const (
	ViewTransactions   Flag = "view_transactions"
	ManageTransactions Flag = "manage_transactions"
	ViewCategories     Flag = "view_categories"
	ManageCategories   Flag = "manage_categories"
	ViewBudgets        Flag = "view_budgets"
	ManageBudgets      Flag = "manage_budgets"
	ViewAccounts       Flag = "view_accounts"
	ManageAccounts     Flag = "manage_accounts"
	ManageGroup        Flag = "manage_group"
)

// Permissions is the granular boolean set a member holds in a group.
type Permissions struct {
	ViewTransactions   bool `json:"viewTransactions"`
	ManageTransactions bool `json:"manageTransactions"`
	ViewCategories     bool `json:"viewCategories"`
	ManageCategories   bool `json:"manageCategories"`
	ViewBudgets        bool `json:"viewBudgets"`
	ManageBudgets      bool `json:"manageBudgets"`
	ViewAccounts       bool `json:"viewAccounts"`
	ManageAccounts     bool `json:"manageAccounts"`
	ManageGroup        bool `json:"manageGroup"`
}

// Has reports whether the flag is set.
func (p Permissions) Has(f Flag) bool {
	switch f {
	case ViewTransactions:
		return p.ViewTransactions
	case ManageTransactions:
		return p.ManageTransactions
	case ViewCategories:
		return p.ViewCategories
	case ManageCategories:
		return p.ManageCategories
	case ViewBudgets:
		return p.ViewBudgets
	case ManageBudgets:
		return p.ManageBudgets
	case ViewAccounts:
		return p.ViewAccounts
	case ManageAccounts:
		return p.ManageAccounts
	case ManageGroup:
		return p.ManageGroup
	default:
		return false
	}
}

// fullAccess is what the owner implicitly holds.
var fullAccess = Permissions{
	ViewTransactions:   true,
	ManageTransactions: true,
	ViewCategories:     true,
	ManageCategories:   true,
	ViewBudgets:        true,
	ManageBudgets:      true,
	ViewAccounts:       true,
	ManageAccounts:     true,
	ManageGroup:        true,
}

// FromRole maps a stored group role to its permission set.
func FromRole(role models.GroupRole) Permissions {
	return Permissions{
		ViewTransactions:   role.CanViewTransactions,
		ManageTransactions: role.CanManageTransactions,
		ViewCategories:     role.CanViewCategories,
		ManageCategories:   role.CanManageCategories,
		ViewBudgets:        role.CanViewBudgets,
		ManageBudgets:      role.CanManageBudgets,
		ViewAccounts:       role.CanViewAccounts,
		ManageAccounts:     role.CanManageAccounts,
		ManageGroup:        role.CanManageGroup,
	}
}

// Source loads the group data the policy needs. Lookups return nil
// when no document matches.
type Source interface {
	Group(ctx context.Context, id primitive.ObjectID) (*models.Group, error)
	Membership(ctx context.Context, groupID, memberID primitive.ObjectID) (*models.GroupMember, error)
	GroupRole(ctx context.Context, id primitive.ObjectID) (*models.GroupRole, error)
}

// Policy answers group permission questions against a Source.
type Policy struct {
	src Source
}

// New builds a Policy over src.
func New(src Source) *Policy {
	return &Policy{src: src}
}

// IsMember reports whether the member has a membership row in the
// group. The owner counts through their seeded membership like anyone
// else.
func (p *Policy) IsMember(ctx context.Context, groupID, memberID primitive.ObjectID) (bool, error) {
	m, err := p.src.Membership(ctx, groupID, memberID)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

// UserPermissions resolves the member's granular permission set in the
// group. The owner always gets the full set. A non-member gets nil.
// A missing group is NotFound.
func (p *Policy) UserPermissions(ctx context.Context, groupID, memberID primitive.ObjectID) (*Permissions, error) {
	group, err := p.src.Group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, apperr.NotFoundf("group not found")
	}
	if group.OwnerID == memberID {
		perms := fullAccess
		return &perms, nil
	}

	membership, err := p.src.Membership(ctx, groupID, memberID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, nil
	}
	role, err := p.src.GroupRole(ctx, membership.RoleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		// Role deleted underneath the membership: no flags.
		return &Permissions{}, nil
	}
	perms := FromRole(*role)
	return &perms, nil
}

// CanManageGroup reports whether the member can administer the group:
// the owner always can, otherwise the membership's role must carry the
// manage-group flag.
func (p *Policy) CanManageGroup(ctx context.Context, groupID, memberID primitive.ObjectID) (bool, error) {
	perms, err := p.UserPermissions(ctx, groupID, memberID)
	if err != nil {
		return false, err
	}
	return perms != nil && perms.ManageGroup, nil
}

// Guard is the route middleware enforcing group permissions.
type Guard struct {
	Policy *Policy
	Log    *zap.Logger
}

// NewGuard builds a Guard.
func NewGuard(policy *Policy, logger *zap.Logger) *Guard {
	return &Guard{Policy: policy, Log: logger}
}

// Require denies the request unless the authenticated principal is a
// member of the group named by the groupID URL parameter and their
// role carries the flag. Non-members and members without the flag both
// get Forbidden; a missing group is NotFound.
func (g *Guard) Require(flag Flag) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.CurrentPrincipal(r)
			if !ok {
				apperr.Render(w, apperr.Unauthenticatedf("not authenticated"), g.Log)
				return
			}
			groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupID"))
			if err != nil {
				apperr.Render(w, apperr.Invalidf("invalid group id"), g.Log)
				return
			}

			perms, err := g.Policy.UserPermissions(r.Context(), groupID, principal.MemberID)
			if err != nil {
				apperr.Render(w, err, g.Log)
				return
			}
			if perms == nil || !perms.Has(flag) {
				g.Log.Warn("group permission denied",
					zap.String("group_id", groupID.Hex()),
					zap.String("member_id", principal.MemberID.Hex()),
					zap.String("flag", string(flag)))
				apperr.Render(w, apperr.Forbiddenf("missing group permission"), g.Log)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
