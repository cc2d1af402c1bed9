package permissions_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/permissions"
	"github.com/Pelezi/videira-caruaru-api/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestGateAttach_NoPrincipalFailsClosed(t *testing.T) {
	gate := permissions.NewGate(permissions.NewResolver(newFakeSource()), zap.NewNop())

	called := false
	h := gate.Attach(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/celulas", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if called {
		t.Error("handler must not run without a principal")
	}
}

func TestGateAttach_MemberGoneGetsEmptyPermission(t *testing.T) {
	gate := permissions.NewGate(permissions.NewResolver(newFakeSource()), zap.NewNop())

	var got permissions.Full
	var ok bool
	h := gate.Attach(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = permissions.Current(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/celulas", nil)
	req = auth.WithTestPrincipal(req, auth.Principal{
		MemberID: primitive.NewObjectID(),
		MatrixID: primitive.NewObjectID(),
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !ok {
		t.Fatal("handler saw no permission")
	}
	if got.IsAdmin || len(got.CelulaIDs) != 0 {
		t.Errorf("deleted member must get the zero permission, got %+v", got)
	}
}

func TestGateAttach_ResolvesForPrincipal(t *testing.T) {
	src := newFakeSource()
	matrixID := primitive.NewObjectID()
	memberID := src.addMember(models.Member{FullName: "Líder"})
	redeID := src.addRede(matrixID, nil)
	discID := src.addDiscipulado(matrixID, redeID, nil)
	celID := src.addCelula(models.Celula{MatrixID: matrixID, DiscipuladoID: discID, LeaderID: memberID})

	gate := permissions.NewGate(permissions.NewResolver(src), zap.NewNop())

	var got permissions.Full
	h := gate.Attach(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = permissions.Current(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/celulas", nil)
	req = auth.WithTestPrincipal(req, auth.Principal{MemberID: memberID, MatrixID: matrixID})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !containsID(got.CelulaIDs, celID) {
		t.Errorf("attached permission missing led célula, got %+v", got)
	}
}
