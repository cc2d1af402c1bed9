// internal/app/features/celulas/crud_test.go
package celulas

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Pelezi/videira-caruaru-api/internal/app/policy/tenantpolicy"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/permissions"
	"github.com/Pelezi/videira-caruaru-api/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// tenantSource answers membership and célula-ownership questions from
// in-memory sets; the remaining entity lookups are unused by the logic
// under test here.
type tenantSource struct {
	members map[primitive.ObjectID]bool
	celulas map[primitive.ObjectID]primitive.ObjectID
	matrix  primitive.ObjectID
}

func (f *tenantSource) CelulaMatrix(_ context.Context, id primitive.ObjectID) (primitive.ObjectID, bool, error) {
	m, ok := f.celulas[id]
	return m, ok, nil
}

func (f *tenantSource) DiscipuladoMatrix(context.Context, primitive.ObjectID) (primitive.ObjectID, bool, error) {
	return primitive.NilObjectID, false, nil
}

func (f *tenantSource) RedeMatrix(context.Context, primitive.ObjectID) (primitive.ObjectID, bool, error) {
	return primitive.NilObjectID, false, nil
}

func (f *tenantSource) MinistryMatrix(context.Context, primitive.ObjectID) (primitive.ObjectID, bool, error) {
	return primitive.NilObjectID, false, nil
}

func (f *tenantSource) RoleMatrix(context.Context, primitive.ObjectID) (primitive.ObjectID, bool, error) {
	return primitive.NilObjectID, false, nil
}

func (f *tenantSource) WinnerPathMatrix(context.Context, primitive.ObjectID) (primitive.ObjectID, bool, error) {
	return primitive.NilObjectID, false, nil
}

func (f *tenantSource) MemberExists(_ context.Context, id primitive.ObjectID) (bool, error) {
	return f.members[id], nil
}

func (f *tenantSource) HasMatrixMembership(_ context.Context, memberID, matrixID primitive.ObjectID) (bool, error) {
	return f.members[memberID] && matrixID == f.matrix, nil
}

func newLeadershipHandler(t *testing.T, memberIDs ...primitive.ObjectID) (*Handler, primitive.ObjectID) {
	t.Helper()
	src := &tenantSource{
		members: make(map[primitive.ObjectID]bool, len(memberIDs)),
		matrix:  primitive.NewObjectID(),
	}
	for _, id := range memberIDs {
		src.members[id] = true
	}
	h := &Handler{
		Tenant: tenantpolicy.NewValidator(src),
		Log:    zap.NewNop(),
	}
	return h, src.matrix
}

func hexp(id primitive.ObjectID) *string {
	s := id.Hex()
	return &s
}

func TestResolveLeadership_TraineeCannotBeLeader(t *testing.T) {
	leader := primitive.NewObjectID()
	h, matrix := newLeadershipHandler(t, leader)

	_, _, err := h.resolveLeadership(context.Background(), matrix, leader, nil, []string{leader.Hex()})
	if apperr.KindOf(err) != apperr.PreconditionFailed {
		t.Fatalf("kind = %v, want PreconditionFailed", apperr.KindOf(err))
	}
}

func TestResolveLeadership_DeduplicatesTrainees(t *testing.T) {
	leader := primitive.NewObjectID()
	trainee := primitive.NewObjectID()
	h, matrix := newLeadershipHandler(t, leader, trainee)

	_, trainees, err := h.resolveLeadership(context.Background(), matrix, leader, nil,
		[]string{trainee.Hex(), trainee.Hex()})
	if err != nil {
		t.Fatalf("resolveLeadership: %v", err)
	}
	if len(trainees) != 1 || trainees[0] != trainee {
		t.Fatalf("trainees = %v, want exactly [%s]", trainees, trainee.Hex())
	}
}

func TestResolveLeadership_ViceAndTraineesValidated(t *testing.T) {
	leader := primitive.NewObjectID()
	vice := primitive.NewObjectID()
	outsider := primitive.NewObjectID() // not a member anywhere
	h, matrix := newLeadershipHandler(t, leader, vice)

	got, trainees, err := h.resolveLeadership(context.Background(), matrix, leader, hexp(vice), nil)
	if err != nil {
		t.Fatalf("resolveLeadership: %v", err)
	}
	if got == nil || *got != vice {
		t.Fatalf("vice = %v, want %s", got, vice.Hex())
	}
	if trainees != nil {
		t.Fatalf("trainees = %v, want nil when none were sent", trainees)
	}

	_, _, err = h.resolveLeadership(context.Background(), matrix, leader, hexp(outsider), nil)
	if apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("unknown vice: kind = %v, want NotFound", apperr.KindOf(err))
	}

	_, _, err = h.resolveLeadership(context.Background(), matrix, leader, nil, []string{outsider.Hex()})
	if apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("unknown trainee: kind = %v, want NotFound", apperr.KindOf(err))
	}
}

func TestResolveLeadership_RejectsMalformedIDs(t *testing.T) {
	leader := primitive.NewObjectID()
	h, matrix := newLeadershipHandler(t, leader)

	bad := "not-an-id"
	if _, _, err := h.resolveLeadership(context.Background(), matrix, leader, &bad, nil); apperr.KindOf(err) != apperr.Invalid {
		t.Fatalf("bad vice hex: kind = %v, want Invalid", apperr.KindOf(err))
	}
	if _, _, err := h.resolveLeadership(context.Background(), matrix, leader, nil, []string{bad}); apperr.KindOf(err) != apperr.Invalid {
		t.Fatalf("bad trainee hex: kind = %v, want Invalid", apperr.KindOf(err))
	}
}

func TestResolveLeadership_EmptyTraineeListClears(t *testing.T) {
	leader := primitive.NewObjectID()
	h, matrix := newLeadershipHandler(t, leader)

	_, trainees, err := h.resolveLeadership(context.Background(), matrix, leader, nil, []string{})
	if err != nil {
		t.Fatalf("resolveLeadership: %v", err)
	}
	if trainees == nil || len(trainees) != 0 {
		t.Fatalf("trainees = %v, want empty non-nil slice to clear the set", trainees)
	}
}

// In-memory store fakes for driving the handlers end to end.

type fakeCelulas struct {
	byID    map[primitive.ObjectID]models.Celula
	created []models.Celula
	deleted []primitive.ObjectID
}

func (f *fakeCelulas) GetByID(_ context.Context, id primitive.ObjectID) (models.Celula, error) {
	c, ok := f.byID[id]
	if !ok {
		return models.Celula{}, mongo.ErrNoDocuments
	}
	return c, nil
}

func (f *fakeCelulas) Create(_ context.Context, c models.Celula) (models.Celula, error) {
	c.ID = primitive.NewObjectID()
	f.created = append(f.created, c)
	return c, nil
}

func (f *fakeCelulas) Update(context.Context, primitive.ObjectID, string, string, primitive.ObjectID, *primitive.ObjectID, []primitive.ObjectID) error {
	return nil
}

func (f *fakeCelulas) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	f.deleted = append(f.deleted, id)
	return 1, nil
}

func (f *fakeCelulas) ListByMatrix(context.Context, primitive.ObjectID) ([]models.Celula, error) {
	return nil, nil
}

func (f *fakeCelulas) ListByIDs(context.Context, []primitive.ObjectID) ([]models.Celula, error) {
	return nil, nil
}

type fakeMembers struct {
	byID     map[primitive.ObjectID]models.Member
	celulaOf map[primitive.ObjectID]primitive.ObjectID
	inCelula int64
	promoted map[primitive.ObjectID]primitive.ObjectID
}

func (f *fakeMembers) GetByID(_ context.Context, id primitive.ObjectID) (models.Member, error) {
	m, ok := f.byID[id]
	if !ok {
		return models.Member{}, mongo.ErrNoDocuments
	}
	return m, nil
}

func (f *fakeMembers) CountInCelula(context.Context, primitive.ObjectID) (int64, error) {
	return f.inCelula, nil
}

func (f *fakeMembers) MoveToCelula(_ context.Context, ids []primitive.ObjectID, from, to primitive.ObjectID) (int64, error) {
	var n int64
	for _, id := range ids {
		if f.celulaOf[id] == from {
			f.celulaOf[id] = to
			n++
		}
	}
	return n, nil
}

func (f *fakeMembers) SetMinistryPosition(_ context.Context, id primitive.ObjectID, ministryID *primitive.ObjectID) error {
	if f.promoted == nil {
		f.promoted = make(map[primitive.ObjectID]primitive.ObjectID)
	}
	f.promoted[id] = *ministryID
	return nil
}

type fakeMinistries struct {
	byID   map[primitive.ObjectID]models.Ministry
	byType map[models.MinistryType]models.Ministry
	getErr error
}

func (f *fakeMinistries) GetByID(_ context.Context, id primitive.ObjectID) (models.Ministry, error) {
	if f.getErr != nil {
		return models.Ministry{}, f.getErr
	}
	m, ok := f.byID[id]
	if !ok {
		return models.Ministry{}, mongo.ErrNoDocuments
	}
	return m, nil
}

func (f *fakeMinistries) GetByType(_ context.Context, _ primitive.ObjectID, typ models.MinistryType) (models.Ministry, error) {
	m, ok := f.byType[typ]
	if !ok {
		return models.Ministry{}, mongo.ErrNoDocuments
	}
	return m, nil
}

type fakeReports struct {
	deletedFor []primitive.ObjectID
}

func (f *fakeReports) Create(_ context.Context, r models.CelulaReport) (models.CelulaReport, error) {
	r.ID = primitive.NewObjectID()
	return r, nil
}

func (f *fakeReports) ListByCelula(context.Context, primitive.ObjectID, int64) ([]models.CelulaReport, error) {
	return nil, nil
}

func (f *fakeReports) DeleteByCelula(_ context.Context, celulaID primitive.ObjectID) (int64, error) {
	f.deletedFor = append(f.deletedFor, celulaID)
	return 1, nil
}

// fixture wires a handler against the fakes with one source célula
// already present. InTxn runs the body directly.
type fixture struct {
	h          *Handler
	celulas    *fakeCelulas
	members    *fakeMembers
	ministries *fakeMinistries
	reports    *fakeReports
	tenant     *tenantSource
	matrix     primitive.ObjectID
	source     models.Celula
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	matrix := primitive.NewObjectID()
	source := models.Celula{
		ID:            primitive.NewObjectID(),
		Name:          "Videira Centro",
		DiscipuladoID: primitive.NewObjectID(),
		LeaderID:      primitive.NewObjectID(),
		MatrixID:      matrix,
	}

	f := &fixture{
		celulas:    &fakeCelulas{byID: map[primitive.ObjectID]models.Celula{source.ID: source}},
		members:    &fakeMembers{byID: map[primitive.ObjectID]models.Member{}, celulaOf: map[primitive.ObjectID]primitive.ObjectID{}},
		ministries: &fakeMinistries{byID: map[primitive.ObjectID]models.Ministry{}, byType: map[models.MinistryType]models.Ministry{}},
		reports:    &fakeReports{},
		matrix:     matrix,
		source:     source,
	}
	src := &tenantSource{
		members: map[primitive.ObjectID]bool{},
		celulas: map[primitive.ObjectID]primitive.ObjectID{source.ID: matrix},
		matrix:  matrix,
	}
	f.h = &Handler{
		Celulas:    f.celulas,
		Members:    f.members,
		Ministries: f.ministries,
		Reports:    f.reports,
		Tenant:     tenantpolicy.NewValidator(src),
		InTxn: func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
		Log: zap.NewNop(),
	}
	f.tenant = src
	return f
}

// addMember registers a member of the fixture matrix, optionally
// attached to a célula.
func (f *fixture) addMember(t *testing.T, celulaID primitive.ObjectID) primitive.ObjectID {
	t.Helper()
	id := primitive.NewObjectID()
	f.tenant.members[id] = true
	f.members.byID[id] = models.Member{ID: id}
	if celulaID != primitive.NilObjectID {
		f.members.celulaOf[id] = celulaID
	}
	return id
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Mount("/celulas", Routes(f.h))

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req = auth.WithTestPrincipal(req, auth.Principal{
		MemberID: primitive.NewObjectID(),
		MatrixID: f.matrix,
	})
	req = permissions.WithTestPermission(req, permissions.Full{
		CelulaIDs: []primitive.ObjectID{f.source.ID},
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleDelete_BlockedWhileMembersAttached(t *testing.T) {
	f := newFixture(t)
	f.members.inCelula = 3

	rec := f.do(http.MethodDelete, "/celulas/"+f.source.ID.Hex(), "")
	if rec.Code != http.StatusPreconditionFailed {
		t.Fatalf("status = %d, want 412", rec.Code)
	}
	if len(f.celulas.deleted) != 0 {
		t.Fatalf("deleted = %v, want none while members remain", f.celulas.deleted)
	}
	if len(f.reports.deletedFor) != 0 {
		t.Fatalf("reports deleted for %v, want none while members remain", f.reports.deletedFor)
	}
}

func TestHandleDelete_CascadesReports(t *testing.T) {
	f := newFixture(t)
	f.members.inCelula = 0

	rec := f.do(http.MethodDelete, "/celulas/"+f.source.ID.Hex(), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(f.celulas.deleted) != 1 || f.celulas.deleted[0] != f.source.ID {
		t.Fatalf("deleted = %v, want exactly [%s]", f.celulas.deleted, f.source.ID.Hex())
	}
	if len(f.reports.deletedFor) != 1 || f.reports.deletedFor[0] != f.source.ID {
		t.Fatalf("reports deleted for %v, want exactly [%s]", f.reports.deletedFor, f.source.ID.Hex())
	}
}

func TestEnsureLeaderStanding_PropagatesMinistryLoadFailure(t *testing.T) {
	f := newFixture(t)
	leader := primitive.NewObjectID()
	position := primitive.NewObjectID()
	f.members.byID[leader] = models.Member{ID: leader, MinistryPositionID: &position}

	loadErr := errors.New("server selection timeout")
	f.ministries.getErr = loadErr

	if err := f.h.ensureLeaderStanding(context.Background(), f.matrix, leader); !errors.Is(err, loadErr) {
		t.Fatalf("err = %v, want the ministry load failure", err)
	}
	if len(f.members.promoted) != 0 {
		t.Fatalf("promoted = %v, want no promotion on a read failure", f.members.promoted)
	}
}

func TestEnsureLeaderStanding_DanglingPositionPromotes(t *testing.T) {
	f := newFixture(t)
	leader := primitive.NewObjectID()
	dangling := primitive.NewObjectID() // no ministry document behind it
	f.members.byID[leader] = models.Member{ID: leader, MinistryPositionID: &dangling}

	target := models.Ministry{ID: primitive.NewObjectID(), Type: models.MinistryLeader, MatrixID: f.matrix}
	f.ministries.byType[models.MinistryLeader] = target

	if err := f.h.ensureLeaderStanding(context.Background(), f.matrix, leader); err != nil {
		t.Fatalf("ensureLeaderStanding: %v", err)
	}
	if got := f.members.promoted[leader]; got != target.ID {
		t.Fatalf("promoted to %s, want %s", got.Hex(), target.ID.Hex())
	}
}

func TestPathID(t *testing.T) {
	want := primitive.NewObjectID()

	var got primitive.ObjectID
	var gotErr error
	r := chi.NewRouter()
	r.Get("/celulas/{id}", func(w http.ResponseWriter, req *http.Request) {
		got, gotErr = pathID(req, "id")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/celulas/"+want.Hex(), nil))
	if gotErr != nil || got != want {
		t.Fatalf("pathID = %v, %v; want %v, nil", got, gotErr, want)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/celulas/garbage", nil))
	if apperr.KindOf(gotErr) != apperr.Invalid {
		t.Fatalf("kind = %v, want Invalid", apperr.KindOf(gotErr))
	}
}
