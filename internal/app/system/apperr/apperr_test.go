package apperr_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"go.uber.org/zap"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"forbidden", apperr.Forbiddenf("no"), apperr.Forbidden},
		{"not found", apperr.NotFoundf("missing"), apperr.NotFound},
		{"wrapped forbidden", fmt.Errorf("update célula: %w", apperr.Forbiddenf("no")), apperr.Forbidden},
		{"precondition", apperr.Preconditionf("has members"), apperr.PreconditionFailed},
		{"plain error", errors.New("boom"), apperr.Internal},
		{"nil cause wrap", apperr.Wrap(apperr.Invalid, "bad id", errors.New("hex")), apperr.Invalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apperr.KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRender_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unauthenticated", apperr.Unauthenticatedf("no token"), http.StatusUnauthorized},
		{"forbidden", apperr.Forbiddenf("wrong matrix"), http.StatusForbidden},
		{"not found", apperr.NotFoundf("célula not found"), http.StatusNotFound},
		{"precondition", apperr.Preconditionf("célula has members"), http.StatusPreconditionFailed},
		{"invalid", apperr.Invalidf("bad id"), http.StatusBadRequest},
		{"internal", errors.New("mongo: connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			apperr.Render(rec, tt.err, zap.NewNop())
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type = %q, want application/json", ct)
			}
		})
	}
}

func TestRender_MasksInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	apperr.Render(rec, errors.New("mongo: server selection timeout host=10.0.0.5"), zap.NewNop())

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "internal error" {
		t.Errorf("internal errors must be masked, got %q", body.Error)
	}
}

func TestRender_KeepsDenialMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	apperr.Render(rec, apperr.Forbiddenf("célula belongs to another matrix"), zap.NewNop())

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "célula belongs to another matrix" {
		t.Errorf("denial message lost, got %q", body.Error)
	}
}
