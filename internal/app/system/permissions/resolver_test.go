package permissions_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/permissions"
	"github.com/Pelezi/videira-caruaru-api/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeSource is an in-memory permissions.Source that scans plain
// slices, mirroring the matrix-scoped queries the Mongo source runs.
type fakeSource struct {
	members      map[primitive.ObjectID]*models.Member
	roles        map[primitive.ObjectID]models.Role
	ministries   map[primitive.ObjectID]*models.Ministry
	celulas      []models.Celula
	discipulados []models.Discipulado
	redes        []models.Rede
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		members:    make(map[primitive.ObjectID]*models.Member),
		roles:      make(map[primitive.ObjectID]models.Role),
		ministries: make(map[primitive.ObjectID]*models.Ministry),
	}
}

func (f *fakeSource) Member(_ context.Context, id primitive.ObjectID) (*models.Member, error) {
	return f.members[id], nil
}

func (f *fakeSource) RolesByIDs(_ context.Context, matrixID primitive.ObjectID, ids []primitive.ObjectID) ([]models.Role, error) {
	var out []models.Role
	for _, id := range ids {
		if r, ok := f.roles[id]; ok && r.MatrixID == matrixID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSource) Ministry(_ context.Context, id primitive.ObjectID) (*models.Ministry, error) {
	return f.ministries[id], nil
}

func (f *fakeSource) CelulasWhereLeader(_ context.Context, matrixID, memberID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var out []primitive.ObjectID
	for _, c := range f.celulas {
		if c.MatrixID == matrixID && c.LeaderID == memberID {
			out = append(out, c.ID)
		}
	}
	return out, nil
}

func (f *fakeSource) CelulasWhereViceLeader(_ context.Context, matrixID, memberID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var out []primitive.ObjectID
	for _, c := range f.celulas {
		if c.MatrixID == matrixID && c.ViceLeaderID != nil && *c.ViceLeaderID == memberID {
			out = append(out, c.ID)
		}
	}
	return out, nil
}

func (f *fakeSource) CelulasWhereTrainee(_ context.Context, matrixID, memberID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var out []primitive.ObjectID
	for _, c := range f.celulas {
		if c.MatrixID != matrixID {
			continue
		}
		for _, t := range c.TraineeIDs {
			if t == memberID {
				out = append(out, c.ID)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeSource) DiscipuladosWhereDiscipulador(_ context.Context, matrixID, memberID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var out []primitive.ObjectID
	for _, d := range f.discipulados {
		if d.MatrixID == matrixID && d.DiscipuladorID != nil && *d.DiscipuladorID == memberID {
			out = append(out, d.ID)
		}
	}
	return out, nil
}

func (f *fakeSource) RedesWherePastor(_ context.Context, matrixID, memberID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var out []primitive.ObjectID
	for _, r := range f.redes {
		if r.MatrixID == matrixID && r.PastorID != nil && *r.PastorID == memberID {
			out = append(out, r.ID)
		}
	}
	return out, nil
}

func (f *fakeSource) DiscipuladosInRedes(_ context.Context, redeIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	var out []primitive.ObjectID
	for _, d := range f.discipulados {
		for _, rid := range redeIDs {
			if d.RedeID == rid {
				out = append(out, d.ID)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeSource) CelulasInDiscipulados(_ context.Context, discIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	var out []primitive.ObjectID
	for _, c := range f.celulas {
		for _, did := range discIDs {
			if c.DiscipuladoID == did {
				out = append(out, c.ID)
				break
			}
		}
	}
	return out, nil
}

// fixture helpers

func (f *fakeSource) addMember(m models.Member) primitive.ObjectID {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	f.members[m.ID] = &m
	return m.ID
}

func (f *fakeSource) addRede(matrixID primitive.ObjectID, pastorID *primitive.ObjectID) primitive.ObjectID {
	id := primitive.NewObjectID()
	f.redes = append(f.redes, models.Rede{ID: id, MatrixID: matrixID, PastorID: pastorID})
	return id
}

func (f *fakeSource) addDiscipulado(matrixID, redeID primitive.ObjectID, discipuladorID *primitive.ObjectID) primitive.ObjectID {
	id := primitive.NewObjectID()
	f.discipulados = append(f.discipulados, models.Discipulado{ID: id, MatrixID: matrixID, RedeID: redeID, DiscipuladorID: discipuladorID})
	return id
}

func (f *fakeSource) addCelula(c models.Celula) primitive.ObjectID {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	f.celulas = append(f.celulas, c)
	return c.ID
}

func containsID(ids []primitive.ObjectID, want primitive.ObjectID) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}

func TestLoad_NoAuthority_AllEmpty(t *testing.T) {
	src := newFakeSource()
	matrixID := primitive.NewObjectID()
	memberID := src.addMember(models.Member{FullName: "Sem Cargo"})

	perm, err := permissions.NewResolver(src).Load(context.Background(), memberID, matrixID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if perm.IsAdmin {
		t.Error("IsAdmin must be false for a member with no roles")
	}
	if len(perm.CelulaIDs) != 0 || len(perm.DiscipuladoIDs) != 0 || len(perm.RedeIDs) != 0 {
		t.Errorf("expected all id sets empty, got %+v", perm)
	}
	if perm.MinistryType != "" {
		t.Errorf("expected no ministry type, got %q", perm.MinistryType)
	}
}

func TestLoad_MemberNotFound(t *testing.T) {
	src := newFakeSource()
	_, err := permissions.NewResolver(src).Load(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
	if apperr.KindOf(err) != apperr.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestLoad_AdminFlag(t *testing.T) {
	src := newFakeSource()
	matrixID := primitive.NewObjectID()

	adminRole := models.Role{ID: primitive.NewObjectID(), Name: "Secretaria Geral", IsAdmin: true, MatrixID: matrixID}
	plainRole := models.Role{ID: primitive.NewObjectID(), Name: "Recepção", IsAdmin: false, MatrixID: matrixID}
	src.roles[adminRole.ID] = adminRole
	src.roles[plainRole.ID] = plainRole

	memberID := src.addMember(models.Member{RoleIDs: []primitive.ObjectID{plainRole.ID, adminRole.ID}})

	perm, err := permissions.NewResolver(src).Load(context.Background(), memberID, matrixID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !perm.IsAdmin {
		t.Error("expected IsAdmin from an admin role")
	}
}

func TestLoad_AdminRoleInOtherMatrixIgnored(t *testing.T) {
	src := newFakeSource()
	matrixA := primitive.NewObjectID()
	matrixB := primitive.NewObjectID()

	adminInB := models.Role{ID: primitive.NewObjectID(), Name: "Admin", IsAdmin: true, MatrixID: matrixB}
	src.roles[adminInB.ID] = adminInB
	memberID := src.addMember(models.Member{RoleIDs: []primitive.ObjectID{adminInB.ID}})

	perm, err := permissions.NewResolver(src).Load(context.Background(), memberID, matrixA)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if perm.IsAdmin {
		t.Error("an admin role in another matrix must not grant admin here")
	}
}

// A pastor's permission must transitively cover every discipulado in
// their redes and every célula under those discipulados.
func TestLoad_PastorTransitiveClosure(t *testing.T) {
	src := newFakeSource()
	matrixID := primitive.NewObjectID()
	pastorID := src.addMember(models.Member{FullName: "Pastor"})
	leaderID := src.addMember(models.Member{FullName: "Líder"})

	redeID := src.addRede(matrixID, &pastorID)
	disc1 := src.addDiscipulado(matrixID, redeID, nil)
	disc2 := src.addDiscipulado(matrixID, redeID, nil)
	cel1 := src.addCelula(models.Celula{MatrixID: matrixID, DiscipuladoID: disc1, LeaderID: leaderID})
	cel2 := src.addCelula(models.Celula{MatrixID: matrixID, DiscipuladoID: disc1, LeaderID: leaderID})
	cel3 := src.addCelula(models.Celula{MatrixID: matrixID, DiscipuladoID: disc2, LeaderID: leaderID})

	// Noise in another rede the pastor does not hold.
	otherRede := src.addRede(matrixID, nil)
	otherDisc := src.addDiscipulado(matrixID, otherRede, nil)
	otherCel := src.addCelula(models.Celula{MatrixID: matrixID, DiscipuladoID: otherDisc, LeaderID: leaderID})

	perm, err := permissions.NewResolver(src).Load(context.Background(), pastorID, matrixID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !containsID(perm.RedeIDs, redeID) || len(perm.RedeIDs) != 1 {
		t.Errorf("RedeIDs = %v, want exactly [%s]", perm.RedeIDs, redeID.Hex())
	}
	for _, want := range []primitive.ObjectID{disc1, disc2} {
		if !containsID(perm.DiscipuladoIDs, want) {
			t.Errorf("DiscipuladoIDs missing %s", want.Hex())
		}
	}
	for _, want := range []primitive.ObjectID{cel1, cel2, cel3} {
		if !containsID(perm.CelulaIDs, want) {
			t.Errorf("CelulaIDs missing %s", want.Hex())
		}
	}
	if containsID(perm.CelulaIDs, otherCel) {
		t.Error("CelulaIDs must not include células outside the pastored rede")
	}
	if len(perm.CelulaIDs) != 3 {
		t.Errorf("len(CelulaIDs) = %d, want 3", len(perm.CelulaIDs))
	}
}

// A member who leads célula A and also disciples A's discipulado must
// see A exactly once.
func TestLoad_Deduplication(t *testing.T) {
	src := newFakeSource()
	matrixID := primitive.NewObjectID()
	memberID := src.addMember(models.Member{FullName: "Líder e Discipulador"})

	redeID := src.addRede(matrixID, nil)
	discID := src.addDiscipulado(matrixID, redeID, &memberID)
	celA := src.addCelula(models.Celula{MatrixID: matrixID, DiscipuladoID: discID, LeaderID: memberID})

	perm, err := permissions.NewResolver(src).Load(context.Background(), memberID, matrixID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	count := 0
	for _, id := range perm.CelulaIDs {
		if id == celA {
			count++
		}
	}
	if count != 1 {
		t.Errorf("célula appears %d times in CelulaIDs, want exactly 1", count)
	}
}

func TestLoad_Idempotent(t *testing.T) {
	src := newFakeSource()
	matrixID := primitive.NewObjectID()
	memberID := src.addMember(models.Member{FullName: "Pastor"})
	redeID := src.addRede(matrixID, &memberID)
	discID := src.addDiscipulado(matrixID, redeID, &memberID)
	src.addCelula(models.Celula{MatrixID: matrixID, DiscipuladoID: discID, LeaderID: memberID})
	src.addCelula(models.Celula{MatrixID: matrixID, DiscipuladoID: discID, LeaderID: memberID})

	resolver := permissions.NewResolver(src)
	first, err := resolver.Load(context.Background(), memberID, matrixID)
	if err != nil {
		t.Fatalf("first Load: %v", err)
	}
	second, err := resolver.Load(context.Background(), memberID, matrixID)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("two loads with no intervening writes differ:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestLoad_LeadershipInOtherMatrixIgnored(t *testing.T) {
	src := newFakeSource()
	matrixA := primitive.NewObjectID()
	matrixB := primitive.NewObjectID()
	memberID := src.addMember(models.Member{FullName: "Líder em B"})

	redeB := src.addRede(matrixB, nil)
	discB := src.addDiscipulado(matrixB, redeB, nil)
	src.addCelula(models.Celula{MatrixID: matrixB, DiscipuladoID: discB, LeaderID: memberID})

	perm, err := permissions.NewResolver(src).Load(context.Background(), memberID, matrixA)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(perm.CelulaIDs) != 0 {
		t.Errorf("leadership in matrix B leaked into matrix A session: %v", perm.CelulaIDs)
	}
}

func TestLoad_MinistryType(t *testing.T) {
	src := newFakeSource()
	matrixID := primitive.NewObjectID()
	ministry := &models.Ministry{ID: primitive.NewObjectID(), Type: models.MinistryDiscipulador, Priority: 3, MatrixID: matrixID}
	src.ministries[ministry.ID] = ministry

	memberID := src.addMember(models.Member{MinistryPositionID: &ministry.ID})

	perm, err := permissions.NewResolver(src).Load(context.Background(), memberID, matrixID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if perm.MinistryType != models.MinistryDiscipulador {
		t.Errorf("MinistryType = %q, want %q", perm.MinistryType, models.MinistryDiscipulador)
	}
	if perm.MinistryPositionID == nil || *perm.MinistryPositionID != ministry.ID {
		t.Errorf("MinistryPositionID = %v, want %s", perm.MinistryPositionID, ministry.ID.Hex())
	}
}

func TestLoadSimplified_Flags(t *testing.T) {
	src := newFakeSource()
	matrixID := primitive.NewObjectID()

	pastor := src.addMember(models.Member{FullName: "Pastor"})
	leader := src.addMember(models.Member{FullName: "Líder"})
	vice := src.addMember(models.Member{FullName: "Vice"})
	nobody := src.addMember(models.Member{FullName: "Membro"})

	redeID := src.addRede(matrixID, &pastor)
	discID := src.addDiscipulado(matrixID, redeID, nil)
	src.addCelula(models.Celula{MatrixID: matrixID, DiscipuladoID: discID, LeaderID: leader, ViceLeaderID: &vice})

	resolver := permissions.NewResolver(src)

	tests := []struct {
		name     string
		memberID primitive.ObjectID
		want     func(s permissions.Simplified) bool
	}{
		{"pastor flag", pastor, func(s permissions.Simplified) bool { return s.IsPastor && !s.IsLeader }},
		{"leader flag", leader, func(s permissions.Simplified) bool { return s.IsLeader && !s.IsPastor && !s.IsViceLeader }},
		{"vice flag", vice, func(s permissions.Simplified) bool { return s.IsViceLeader && !s.IsLeader }},
		{"no flags", nobody, func(s permissions.Simplified) bool {
			return !s.IsPastor && !s.IsDiscipulador && !s.IsLeader && !s.IsViceLeader && len(s.CelulaIDs) == 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := resolver.LoadSimplified(context.Background(), tt.memberID, matrixID)
			if err != nil {
				t.Fatalf("LoadSimplified: %v", err)
			}
			if !tt.want(s) {
				t.Errorf("unexpected simplified permission: %+v", s)
			}
		})
	}
}

func TestHasCelulaAccess(t *testing.T) {
	celA := primitive.NewObjectID()
	celB := primitive.NewObjectID()

	tests := []struct {
		name string
		perm permissions.Full
		id   primitive.ObjectID
		want bool
	}{
		{"admin covers everything", permissions.Full{IsAdmin: true}, celA, true},
		{"member of set", permissions.Full{CelulaIDs: []primitive.ObjectID{celA}}, celA, true},
		{"not in set", permissions.Full{CelulaIDs: []primitive.ObjectID{celA}}, celB, false},
		{"empty permission denies", permissions.Full{}, celA, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := permissions.HasCelulaAccess(tt.perm, tt.id); got != tt.want {
				t.Errorf("HasCelulaAccess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	if err := permissions.RequireAdmin(permissions.Full{IsAdmin: true}); err != nil {
		t.Errorf("admin must pass, got %v", err)
	}
	if err := permissions.RequireAdmin(permissions.Full{}); apperr.KindOf(err) != apperr.Forbidden {
		t.Errorf("non-admin must get Forbidden, got %v", err)
	}
}
