// internal/app/features/members/crud_test.go
package members

import (
	"testing"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/permissions"
	"github.com/Pelezi/videira-caruaru-api/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRequireLeadership(t *testing.T) {
	if err := requireLeadership(permissions.Full{IsAdmin: true}); err != nil {
		t.Fatalf("admin: %v", err)
	}
	leader := permissions.Full{CelulaIDs: []primitive.ObjectID{primitive.NewObjectID()}}
	if err := requireLeadership(leader); err != nil {
		t.Fatalf("leader: %v", err)
	}
	err := requireLeadership(permissions.Full{})
	if apperr.KindOf(err) != apperr.Forbidden {
		t.Fatalf("plain member: kind = %v, want Forbidden", apperr.KindOf(err))
	}
}

func TestCanSeeMember(t *testing.T) {
	self := primitive.NewObjectID()
	other := primitive.NewObjectID()
	celula := primitive.NewObjectID()
	otherCelula := primitive.NewObjectID()

	tests := []struct {
		name      string
		perm      permissions.Full
		requester primitive.ObjectID
		member    models.Member
		want      bool
	}{
		{name: "self", requester: self, member: models.Member{ID: self}, want: true},
		{name: "admin", perm: permissions.Full{IsAdmin: true}, requester: other, member: models.Member{ID: self}, want: true},
		{
			name:      "leader of member's celula",
			perm:      permissions.Full{CelulaIDs: []primitive.ObjectID{celula}},
			requester: other,
			member:    models.Member{ID: self, CelulaID: &celula},
			want:      true,
		},
		{
			name:      "leader of a different celula",
			perm:      permissions.Full{CelulaIDs: []primitive.ObjectID{celula}},
			requester: other,
			member:    models.Member{ID: self, CelulaID: &otherCelula},
			want:      false,
		},
		{
			name:      "member without celula hidden from non-admins",
			perm:      permissions.Full{CelulaIDs: []primitive.ObjectID{celula}},
			requester: other,
			member:    models.Member{ID: self},
			want:      false,
		},
		{name: "stranger", requester: other, member: models.Member{ID: self}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canSeeMember(tt.perm, tt.requester, tt.member); got != tt.want {
				t.Fatalf("canSeeMember = %v, want %v", got, tt.want)
			}
		})
	}
}
