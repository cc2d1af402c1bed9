package httpjson

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
)

type decodePayload struct {
	Name string `json:"name"`
}

func TestDecode(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ana"}`))

	var dst decodePayload
	if err := Decode(httptest.NewRecorder(), req, &dst); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dst.Name != "Ana" {
		t.Fatalf("name = %q, want %q", dst.Name, "Ana")
	}
}

func TestDecode_RejectsBadBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown field", body: `{"name":"Ana","extra":1}`},
		{name: "malformed json", body: `{"name":`},
		{name: "wrong type", body: `{"name":7}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var dst decodePayload
			err := Decode(httptest.NewRecorder(), req, &dst)
			if apperr.KindOf(err) != apperr.Invalid {
				t.Fatalf("kind = %v, want Invalid", apperr.KindOf(err))
			}
		})
	}
}
