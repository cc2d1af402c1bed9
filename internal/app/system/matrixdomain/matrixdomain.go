// Package matrixdomain cross-checks the request host against the
// matrix a session token was issued for.
//
// Each matrix may carry a list of domain aliases. When a request
// arrives on a host that maps to a known matrix and the token in the
// request was issued for another matrix, the request is rejected. The
// check runs after the token gate; hosts that resolve to no matrix
// (localhost, direct IP access, internal health probes) skip it.
package matrixdomain

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Source resolves a domain alias to the owning matrix. found is false
// when no matrix claims the domain.
type Source interface {
	MatrixIDForDomain(ctx context.Context, domain string) (id primitive.ObjectID, found bool, err error)
}

// Middleware builds the cross-check. It must be registered after
// auth.TokenGate.RequireToken so a principal is present.
func Middleware(src Source, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := hostOnly(r.Host)
			if skipHost(host) {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
			defer cancel()

			matrixID, found, err := src.MatrixIDForDomain(ctx, host)
			if err != nil {
				apperr.Render(w, err, logger)
				return
			}
			if !found {
				// Host not claimed by any matrix: nothing to check.
				next.ServeHTTP(w, r)
				return
			}

			principal, ok := auth.CurrentPrincipal(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			if principal.MatrixID != matrixID {
				logger.Warn("token matrix does not match request domain",
					zap.String("host", host),
					zap.String("domain_matrix", matrixID.Hex()),
					zap.String("token_matrix", principal.MatrixID.Hex()))
				apperr.Render(w, apperr.Forbiddenf("token was not issued for this matrix"), logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// hostOnly strips an optional port. Bracketed IPv6 hosts keep their
// full address so literals like [::1]:8080 reach skipHost intact.
func hostOnly(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(strings.Trim(host, "[]"))
}

func skipHost(host string) bool {
	return host == "" || host == "localhost" || host == "127.0.0.1" || host == "::1"
}
