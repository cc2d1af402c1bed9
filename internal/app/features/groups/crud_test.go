// internal/app/features/groups/crud_test.go
package groups

import (
	"testing"

	"github.com/Pelezi/videira-caruaru-api/internal/app/policy/grouppolicy"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSeedRoles(t *testing.T) {
	groupID := primitive.NewObjectID()
	roles := seedRoles(groupID)
	if len(roles) != 3 {
		t.Fatalf("seeded %d roles, want 3", len(roles))
	}
	byName := make(map[string]grouppolicy.Permissions, 3)
	for _, role := range roles {
		if role.GroupID != groupID {
			t.Fatalf("role %q seeded into group %s", role.Name, role.GroupID.Hex())
		}
		byName[role.Name] = grouppolicy.FromRole(role)
	}

	owner := byName[RoleNameOwner]
	for _, f := range []grouppolicy.Flag{
		grouppolicy.ViewTransactions, grouppolicy.ManageTransactions,
		grouppolicy.ViewCategories, grouppolicy.ManageCategories,
		grouppolicy.ViewBudgets, grouppolicy.ManageBudgets,
		grouppolicy.ViewAccounts, grouppolicy.ManageAccounts,
		grouppolicy.ManageGroup,
	} {
		if !owner.Has(f) {
			t.Errorf("owner role missing %s", f)
		}
	}

	member := byName[RoleNameMember]
	if !member.Has(grouppolicy.ManageTransactions) || !member.Has(grouppolicy.ViewAccounts) {
		t.Error("member role should manage transactions and view accounts")
	}
	if member.Has(grouppolicy.ManageGroup) || member.Has(grouppolicy.ManageBudgets) {
		t.Error("member role must not carry management flags beyond transactions")
	}

	viewer := byName[RoleNameViewer]
	if !viewer.Has(grouppolicy.ViewTransactions) {
		t.Error("viewer role should view transactions")
	}
	for _, f := range []grouppolicy.Flag{
		grouppolicy.ManageTransactions, grouppolicy.ManageCategories,
		grouppolicy.ManageBudgets, grouppolicy.ManageAccounts, grouppolicy.ManageGroup,
	} {
		if viewer.Has(f) {
			t.Errorf("viewer role must not carry %s", f)
		}
	}
}
