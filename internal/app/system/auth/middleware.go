// internal/app/system/auth/middleware.go
package auth

import (
	"net/http"
	"strings"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TokenGate is the first gate of the guard chain: it verifies the
// bearer token and attaches the Principal. Requests it rejects never
// reach permission resolution or any handler.
type TokenGate struct {
	Issuer *TokenIssuer
	Log    *zap.Logger
}

// NewTokenGate builds the gate.
func NewTokenGate(issuer *TokenIssuer, logger *zap.Logger) *TokenGate {
	return &TokenGate{Issuer: issuer, Log: logger}
}

// RequireToken rejects requests without a valid session token and
// attaches the decoded principal for everything downstream.
func (g *TokenGate) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := g.principalFrom(r)
		if err != nil {
			g.Log.Warn("auth: token rejected",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			apperr.Render(w, err, g.Log)
			return
		}
		next.ServeHTTP(w, withPrincipal(r, p))
	})
}

// RequireTokenRole is the stricter legacy variant: besides a valid
// session token it demands a specific role claim embedded in the token
// itself. Kept for older clients whose tokens carry it.
func (g *TokenGate) RequireTokenRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := g.claimsFrom(r)
			if err != nil {
				apperr.Render(w, err, g.Log)
				return
			}
			if !strings.EqualFold(claims.Role, role) {
				apperr.Render(w, apperr.Forbiddenf("token lacks required role"), g.Log)
				return
			}
			p, err := principalFromClaims(claims)
			if err != nil {
				apperr.Render(w, err, g.Log)
				return
			}
			next.ServeHTTP(w, withPrincipal(r, p))
		})
	}
}

func (g *TokenGate) principalFrom(r *http.Request) (Principal, error) {
	claims, err := g.claimsFrom(r)
	if err != nil {
		return Principal{}, err
	}
	return principalFromClaims(claims)
}

func (g *TokenGate) claimsFrom(r *http.Request) (*Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, apperr.Unauthenticatedf("missing bearer token")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, apperr.Unauthenticatedf("malformed authorization header")
	}
	return g.Issuer.VerifyPurpose(parts[1], PurposeSession)
}

func principalFromClaims(claims *Claims) (Principal, error) {
	memberID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		// Malformed subject in a signed token indicates corruption;
		// fail closed.
		return Principal{}, apperr.Unauthenticatedf("invalid token subject")
	}
	matrixID, err := primitive.ObjectIDFromHex(claims.MatrixID)
	if err != nil {
		return Principal{}, apperr.Unauthenticatedf("token not bound to a matrix")
	}
	return Principal{MemberID: memberID, MatrixID: matrixID}, nil
}
