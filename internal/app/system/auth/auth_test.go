package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const testSecret = "test-secret-0123456789-0123456789-ab"

func newIssuer(t *testing.T) *auth.TokenIssuer {
	t.Helper()
	ti, err := auth.NewTokenIssuer(testSecret, "videira-api", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	return ti
}

func TestNewTokenIssuer_EmptySecret(t *testing.T) {
	if _, err := auth.NewTokenIssuer("", "videira-api", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestSessionToken_RoundTrip(t *testing.T) {
	ti := newIssuer(t)
	memberID := primitive.NewObjectID().Hex()
	matrixID := primitive.NewObjectID().Hex()

	tok, err := ti.SignSession(memberID, matrixID)
	if err != nil {
		t.Fatalf("SignSession: %v", err)
	}

	claims, err := ti.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != memberID {
		t.Errorf("subject = %q, want %q", claims.Subject, memberID)
	}
	if claims.MatrixID != matrixID {
		t.Errorf("matrix_id = %q, want %q", claims.MatrixID, matrixID)
	}
	if claims.Purpose != auth.PurposeSession {
		t.Errorf("purpose = %q, want %q", claims.Purpose, auth.PurposeSession)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	ti := newIssuer(t)
	other, _ := auth.NewTokenIssuer("another-secret-0123456789-0123456789", "videira-api", time.Hour)

	tok, _ := other.SignSession(primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex())
	if _, err := ti.Verify(tok); apperr.KindOf(err) != apperr.Unauthenticated {
		t.Errorf("expected Unauthenticated for wrong secret, got %v", err)
	}
}

func TestVerify_WrongIssuer(t *testing.T) {
	ti := newIssuer(t)
	other, _ := auth.NewTokenIssuer(testSecret, "someone-else", time.Hour)

	tok, _ := other.SignSession(primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex())
	if _, err := ti.Verify(tok); apperr.KindOf(err) != apperr.Unauthenticated {
		t.Errorf("expected Unauthenticated for wrong issuer, got %v", err)
	}
}

func TestVerifyPurpose_Mismatch(t *testing.T) {
	ti := newIssuer(t)
	memberID := primitive.NewObjectID().Hex()

	// A set-password token must never be honored as a session token.
	tok, err := ti.SignPurpose(memberID, auth.PurposeSetPassword, 10*time.Minute)
	if err != nil {
		t.Fatalf("SignPurpose: %v", err)
	}
	if _, err := ti.VerifyPurpose(tok, auth.PurposeSession); apperr.KindOf(err) != apperr.Unauthenticated {
		t.Errorf("expected Unauthenticated for purpose mismatch, got %v", err)
	}
	if _, err := ti.VerifyPurpose(tok, auth.PurposeSetPassword); err != nil {
		t.Errorf("expected matching purpose to verify, got %v", err)
	}
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireToken_MissingHeader(t *testing.T) {
	gate := auth.NewTokenGate(newIssuer(t), zap.NewNop())
	called := false

	req := httptest.NewRequest("GET", "/celulas", nil)
	rec := httptest.NewRecorder()
	gate.RequireToken(okHandler(&called)).ServeHTTP(rec, req)

	if called {
		t.Error("handler must not run without a token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireToken_MalformedHeader(t *testing.T) {
	gate := auth.NewTokenGate(newIssuer(t), zap.NewNop())
	called := false

	req := httptest.NewRequest("GET", "/celulas", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rec := httptest.NewRecorder()
	gate.RequireToken(okHandler(&called)).ServeHTTP(rec, req)

	if called || rec.Code != http.StatusUnauthorized {
		t.Errorf("called=%v status=%d, want handler skipped with 401", called, rec.Code)
	}
}

func TestRequireToken_ValidToken_AttachesPrincipal(t *testing.T) {
	ti := newIssuer(t)
	gate := auth.NewTokenGate(ti, zap.NewNop())

	memberID := primitive.NewObjectID()
	matrixID := primitive.NewObjectID()
	tok, _ := ti.SignSession(memberID.Hex(), matrixID.Hex())

	var got auth.Principal
	var ok bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = auth.CurrentPrincipal(r)
	})

	req := httptest.NewRequest("GET", "/celulas", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	gate.RequireToken(next).ServeHTTP(rec, req)

	if !ok {
		t.Fatal("principal not attached")
	}
	if got.MemberID != memberID || got.MatrixID != matrixID {
		t.Errorf("principal = %+v, want member %s matrix %s", got, memberID.Hex(), matrixID.Hex())
	}
}

func TestRequireToken_RejectsPurposeToken(t *testing.T) {
	ti := newIssuer(t)
	gate := auth.NewTokenGate(ti, zap.NewNop())
	called := false

	tok, _ := ti.SignPurpose(primitive.NewObjectID().Hex(), auth.PurposeMatrixSelection, time.Hour)
	req := httptest.NewRequest("GET", "/celulas", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	gate.RequireToken(okHandler(&called)).ServeHTTP(rec, req)

	if called || rec.Code != http.StatusUnauthorized {
		t.Errorf("matrix-selection token must not open a session: called=%v status=%d", called, rec.Code)
	}
}

func TestRequireTokenRole(t *testing.T) {
	ti := newIssuer(t)
	gate := auth.NewTokenGate(ti, zap.NewNop())

	memberID := primitive.NewObjectID().Hex()
	matrixID := primitive.NewObjectID().Hex()

	withRole, _ := ti.SignSessionWithRole(memberID, matrixID, "secretaria")
	withoutRole, _ := ti.SignSession(memberID, matrixID)

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{"matching role claim", withRole, http.StatusOK},
		{"missing role claim", withoutRole, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			req := httptest.NewRequest("GET", "/legacy", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()
			gate.RequireTokenRole("secretaria")(okHandler(&called)).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
