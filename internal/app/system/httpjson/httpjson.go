// Package httpjson has the request/response helpers shared by the API
// features.
package httpjson

import (
	"encoding/json"
	"net/http"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
)

// maxBodyBytes caps request bodies; the API only carries small
// documents.
const maxBodyBytes = 1 << 20

// Decode parses the request body into dst. Unknown fields and
// malformed bodies become Invalid denials.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(apperr.Invalid, "invalid request body", err)
	}
	return nil
}

// Write serializes v with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NoContent writes an empty 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
