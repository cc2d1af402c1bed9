package tenantpolicy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Pelezi/videira-caruaru-api/internal/app/policy/tenantpolicy"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeSource maps entity ids to owning matrix ids, one map per
// collection, plus the member/membership sets.
type fakeSource struct {
	celulas      map[primitive.ObjectID]primitive.ObjectID
	discipulados map[primitive.ObjectID]primitive.ObjectID
	redes        map[primitive.ObjectID]primitive.ObjectID
	ministries   map[primitive.ObjectID]primitive.ObjectID
	roles        map[primitive.ObjectID]primitive.ObjectID
	winnerPaths  map[primitive.ObjectID]primitive.ObjectID
	members      map[primitive.ObjectID]bool
	memberships  map[[2]primitive.ObjectID]bool

	err error
}

func lookup(m map[primitive.ObjectID]primitive.ObjectID, id primitive.ObjectID, err error) (primitive.ObjectID, bool, error) {
	if err != nil {
		return primitive.NilObjectID, false, err
	}
	mid, ok := m[id]
	return mid, ok, nil
}

func (f *fakeSource) CelulaMatrix(_ context.Context, id primitive.ObjectID) (primitive.ObjectID, bool, error) {
	return lookup(f.celulas, id, f.err)
}
func (f *fakeSource) DiscipuladoMatrix(_ context.Context, id primitive.ObjectID) (primitive.ObjectID, bool, error) {
	return lookup(f.discipulados, id, f.err)
}
func (f *fakeSource) RedeMatrix(_ context.Context, id primitive.ObjectID) (primitive.ObjectID, bool, error) {
	return lookup(f.redes, id, f.err)
}
func (f *fakeSource) MinistryMatrix(_ context.Context, id primitive.ObjectID) (primitive.ObjectID, bool, error) {
	return lookup(f.ministries, id, f.err)
}
func (f *fakeSource) RoleMatrix(_ context.Context, id primitive.ObjectID) (primitive.ObjectID, bool, error) {
	return lookup(f.roles, id, f.err)
}
func (f *fakeSource) WinnerPathMatrix(_ context.Context, id primitive.ObjectID) (primitive.ObjectID, bool, error) {
	return lookup(f.winnerPaths, id, f.err)
}
func (f *fakeSource) MemberExists(_ context.Context, id primitive.ObjectID) (bool, error) {
	return f.members[id], f.err
}
func (f *fakeSource) HasMatrixMembership(_ context.Context, memberID, matrixID primitive.ObjectID) (bool, error) {
	return f.memberships[[2]primitive.ObjectID{memberID, matrixID}], f.err
}

func TestEntityValidators(t *testing.T) {
	matrixA := primitive.NewObjectID()
	matrixB := primitive.NewObjectID()
	ownedID := primitive.NewObjectID()
	foreignID := primitive.NewObjectID()
	missingID := primitive.NewObjectID()

	owned := map[primitive.ObjectID]primitive.ObjectID{
		ownedID:   matrixA,
		foreignID: matrixB,
	}
	src := &fakeSource{
		celulas:      owned,
		discipulados: owned,
		redes:        owned,
		ministries:   owned,
		roles:        owned,
		winnerPaths:  owned,
	}
	v := tenantpolicy.NewValidator(src)

	type validate func(context.Context, primitive.ObjectID, primitive.ObjectID) error
	validators := map[string]validate{
		"celula":      v.Celula,
		"discipulado": v.Discipulado,
		"rede":        v.Rede,
		"ministry":    v.Ministry,
		"role":        v.Role,
		"winner path": v.WinnerPath,
	}

	for name, fn := range validators {
		t.Run(name, func(t *testing.T) {
			if err := fn(context.Background(), ownedID, matrixA); err != nil {
				t.Errorf("owned entity: want nil, got %v", err)
			}
			if err := fn(context.Background(), foreignID, matrixA); apperr.KindOf(err) != apperr.Forbidden {
				t.Errorf("foreign entity: want Forbidden, got %v", err)
			}
			if err := fn(context.Background(), missingID, matrixA); apperr.KindOf(err) != apperr.NotFound {
				t.Errorf("missing entity: want NotFound, got %v", err)
			}
		})
	}
}

func TestMemberValidator(t *testing.T) {
	matrixA := primitive.NewObjectID()
	matrixB := primitive.NewObjectID()
	memberID := primitive.NewObjectID()

	src := &fakeSource{
		members: map[primitive.ObjectID]bool{memberID: true},
		memberships: map[[2]primitive.ObjectID]bool{
			{memberID, matrixA}: true,
		},
	}
	v := tenantpolicy.NewValidator(src)

	if err := v.Member(context.Background(), memberID, matrixA); err != nil {
		t.Errorf("member with membership: want nil, got %v", err)
	}
	if err := v.Member(context.Background(), memberID, matrixB); apperr.KindOf(err) != apperr.Forbidden {
		t.Errorf("member without membership: want Forbidden, got %v", err)
	}
	if err := v.Member(context.Background(), primitive.NewObjectID(), matrixA); apperr.KindOf(err) != apperr.NotFound {
		t.Errorf("unknown member: want NotFound, got %v", err)
	}
}

func TestSourceErrorsPassThrough(t *testing.T) {
	boom := errors.New("socket closed")
	src := &fakeSource{err: boom}
	v := tenantpolicy.NewValidator(src)

	if err := v.Celula(context.Background(), primitive.NewObjectID(), primitive.NewObjectID()); !errors.Is(err, boom) {
		t.Errorf("want underlying error, got %v", err)
	}
	if err := v.Member(context.Background(), primitive.NewObjectID(), primitive.NewObjectID()); !errors.Is(err, boom) {
		t.Errorf("want underlying error, got %v", err)
	}
}
