// internal/app/system/permissions/middleware.go
package permissions

import (
	"net/http"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"go.uber.org/zap"
)

// Gate is the second gate of the guard chain. It must be registered
// AFTER auth.TokenGate.RequireToken: it reads the principal the token
// gate attached and resolves the member's permission for this request.
//
// The gate itself never denies on an empty permission; a member with
// no authority just gets the zero Full value and individual handlers
// decide whether that is fatal for their operation.
type Gate struct {
	Resolver *Resolver
	Log      *zap.Logger
}

// NewGate builds the permission gate.
func NewGate(resolver *Resolver, logger *zap.Logger) *Gate {
	return &Gate{Resolver: resolver, Log: logger}
}

// Attach resolves and attaches the permission for the authenticated
// principal.
func (g *Gate) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.CurrentPrincipal(r)
		if !ok {
			// Registration-order bug: this gate ran without the token
			// gate. Fail closed rather than serve with no identity.
			g.Log.Error("permission gate ran without a principal", zap.String("path", r.URL.Path))
			apperr.Render(w, apperr.Unauthenticatedf("not authenticated"), g.Log)
			return
		}

		perm, err := g.Resolver.Load(r.Context(), p.MemberID, p.MatrixID)
		if err != nil {
			if apperr.IsNotFound(err) {
				// Member deleted after the token was issued: proceed
				// with the empty permission, handlers deny by default.
				next.ServeHTTP(w, withPermission(r, Full{}))
				return
			}
			apperr.Render(w, err, g.Log)
			return
		}
		next.ServeHTTP(w, withPermission(r, perm))
	})
}
