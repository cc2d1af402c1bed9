package matrixdomain_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/matrixdomain"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeSource struct {
	domains map[string]primitive.ObjectID
	queried []string
}

func (f *fakeSource) MatrixIDForDomain(_ context.Context, domain string) (primitive.ObjectID, bool, error) {
	f.queried = append(f.queried, domain)
	id, ok := f.domains[domain]
	return id, ok, nil
}

func serve(t *testing.T, src matrixdomain.Source, host string, principal *auth.Principal) *httptest.ResponseRecorder {
	t.Helper()

	h := matrixdomain.Middleware(src, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "http://"+host+"/celulas", nil)
	req.Host = host
	if principal != nil {
		req = auth.WithTestPrincipal(req, *principal)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMatchingDomainPasses(t *testing.T) {
	matrixID := primitive.NewObjectID()
	src := &fakeSource{domains: map[string]primitive.ObjectID{"caruaru.videira.app": matrixID}}

	rec := serve(t, src, "caruaru.videira.app", &auth.Principal{
		MemberID: primitive.NewObjectID(),
		MatrixID: matrixID,
	})
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMismatchedDomainForbidden(t *testing.T) {
	src := &fakeSource{domains: map[string]primitive.ObjectID{"caruaru.videira.app": primitive.NewObjectID()}}

	rec := serve(t, src, "caruaru.videira.app", &auth.Principal{
		MemberID: primitive.NewObjectID(),
		MatrixID: primitive.NewObjectID(),
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestHostPortStripped(t *testing.T) {
	matrixID := primitive.NewObjectID()
	src := &fakeSource{domains: map[string]primitive.ObjectID{"caruaru.videira.app": matrixID}}

	rec := serve(t, src, "caruaru.videira.app:8443", &auth.Principal{
		MemberID: primitive.NewObjectID(),
		MatrixID: matrixID,
	})
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestUnclaimedHostSkipsCheck(t *testing.T) {
	src := &fakeSource{domains: map[string]primitive.ObjectID{"caruaru.videira.app": primitive.NewObjectID()}}

	rec := serve(t, src, "staging.example.com", &auth.Principal{
		MemberID: primitive.NewObjectID(),
		MatrixID: primitive.NewObjectID(),
	})
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestLocalhostSkipsCheck(t *testing.T) {
	src := &fakeSource{domains: map[string]primitive.ObjectID{}}
	for _, host := range []string{"localhost", "localhost:8080", "127.0.0.1:3000"} {
		rec := serve(t, src, host, &auth.Principal{
			MemberID: primitive.NewObjectID(),
			MatrixID: primitive.NewObjectID(),
		})
		if rec.Code != http.StatusOK {
			t.Errorf("host %s: status = %d, want 200", host, rec.Code)
		}
	}
}

func TestLoopbackIPv6SkipsWithoutLookup(t *testing.T) {
	src := &fakeSource{domains: map[string]primitive.ObjectID{}}
	for _, host := range []string{"[::1]:8080", "[::1]"} {
		rec := serve(t, src, host, &auth.Principal{
			MemberID: primitive.NewObjectID(),
			MatrixID: primitive.NewObjectID(),
		})
		if rec.Code != http.StatusOK {
			t.Errorf("host %s: status = %d, want 200", host, rec.Code)
		}
	}
	if len(src.queried) != 0 {
		t.Errorf("source queried for %v, want loopback hosts skipped before lookup", src.queried)
	}
}

func TestNoPrincipalPassesThrough(t *testing.T) {
	src := &fakeSource{domains: map[string]primitive.ObjectID{"caruaru.videira.app": primitive.NewObjectID()}}

	rec := serve(t, src, "caruaru.videira.app", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
