// internal/app/system/auth/context.go
package auth

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Principal is the authenticated identity attached to the request
// context by the token gate: one member acting inside one matrix.
type Principal struct {
	MemberID primitive.ObjectID
	MatrixID primitive.ObjectID
}

type ctxKey string

const principalKey ctxKey = "principal"

// CurrentPrincipal returns the principal and a found flag. ok=false
// means the token gate has not run (or rejected the request), so no
// handler behind the gate should ever see it.
func CurrentPrincipal(r *http.Request) (Principal, bool) {
	p, ok := r.Context().Value(principalKey).(Principal)
	return p, ok
}

func withPrincipal(r *http.Request, p Principal) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), principalKey, p))
}

// WithTestPrincipal injects a principal directly, bypassing token
// verification. Tests only.
func WithTestPrincipal(r *http.Request, p Principal) *http.Request {
	return withPrincipal(r, p)
}
