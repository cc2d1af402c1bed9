// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a collaborative container in the personal-finance module.
// Groups are NOT matrix-scoped: isolation is purely membership-based.
// Every group is owned by exactly one member; the owner implicitly
// holds every permission regardless of role assignments.
type Group struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"name_ci"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	OwnerID     primitive.ObjectID `bson:"owner_id" json:"owner_id"`

	// InviteCode is a shareable opaque code for joining the group.
	InviteCode string `bson:"invite_code" json:"invite_code"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// GroupRole is a named set of granular boolean permissions inside one
// group. Group creation seeds three of these: Owner (all true),
// Member (transactions only) and Viewer (view only).
type GroupRole struct {
	ID      primitive.ObjectID `bson:"_id" json:"id"`
	GroupID primitive.ObjectID `bson:"group_id" json:"group_id"`
	Name    string             `bson:"name" json:"name"`

	CanViewTransactions   bool `bson:"can_view_transactions" json:"can_view_transactions"`
	CanManageTransactions bool `bson:"can_manage_transactions" json:"can_manage_transactions"`
	CanViewCategories     bool `bson:"can_view_categories" json:"can_view_categories"`
	CanManageCategories   bool `bson:"can_manage_categories" json:"can_manage_categories"`
	CanViewBudgets        bool `bson:"can_view_budgets" json:"can_view_budgets"`
	CanManageBudgets      bool `bson:"can_manage_budgets" json:"can_manage_budgets"`
	CanViewAccounts       bool `bson:"can_view_accounts" json:"can_view_accounts"`
	CanManageAccounts     bool `bson:"can_manage_accounts" json:"can_manage_accounts"`
	CanManageGroup        bool `bson:"can_manage_group" json:"can_manage_group"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// GroupMember joins a member to a group with one role. Exactly one
// document per (group_id, member_id).
type GroupMember struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID  primitive.ObjectID `bson:"group_id" json:"group_id"`
	MemberID primitive.ObjectID `bson:"member_id" json:"member_id"`
	RoleID   primitive.ObjectID `bson:"role_id" json:"role_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
