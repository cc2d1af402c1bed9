// internal/app/system/auth/tokens.go
package auth

import (
	"fmt"
	"time"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/golang-jwt/jwt/v5"
)

// Token purposes. A token is only honored for the purpose baked into
// its claims: a matrix-selection token cannot be used as a session
// token and vice versa.
const (
	PurposeSession         = "session"
	PurposeMatrixSelection = "matrix-selection"
	PurposeSetPassword     = "set-password"
)

// Claims carried by every token this service issues. MemberID rides in
// the registered Subject; MatrixID is present only on session tokens
// (matrix-selection tokens are issued before the member picks one).
type Claims struct {
	MatrixID string `json:"matrix_id,omitempty"`
	Purpose  string `json:"purpose"`
	// Role is the legacy role claim some older clients still send;
	// only RequireTokenRole checks it.
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies the service's HS256 tokens.
type TokenIssuer struct {
	secret     []byte
	issuer     string
	sessionTTL time.Duration
}

// NewTokenIssuer builds an issuer. The secret must be non-empty.
func NewTokenIssuer(secret, issuer string, sessionTTL time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is empty; provide ≥32 random chars")
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, sessionTTL: sessionTTL}, nil
}

// SignSession issues a session token bound to one member and one matrix.
func (ti *TokenIssuer) SignSession(memberID, matrixID string) (string, error) {
	return ti.sign(memberID, matrixID, PurposeSession, "", ti.sessionTTL)
}

// SignSessionWithRole issues a session token that also carries the
// legacy role claim for clients still gated by RequireTokenRole.
func (ti *TokenIssuer) SignSessionWithRole(memberID, matrixID, role string) (string, error) {
	return ti.sign(memberID, matrixID, PurposeSession, role, ti.sessionTTL)
}

// SignPurpose issues a special-purpose token (matrix-selection,
// set-password) with its own lifetime and no matrix binding.
func (ti *TokenIssuer) SignPurpose(memberID, purpose string, ttl time.Duration) (string, error) {
	return ti.sign(memberID, "", purpose, "", ttl)
}

func (ti *TokenIssuer) sign(memberID, matrixID, purpose, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		MatrixID: matrixID,
		Purpose:  purpose,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   memberID,
			Issuer:    ti.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

// Verify parses and validates a token string: signature, expiry and
// issuer. It does NOT check purpose; callers must compare
// claims.Purpose against the use they are about to put the token to.
func (ti *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ti.secret, nil
	}, jwt.WithIssuer(ti.issuer))
	if err != nil {
		return nil, apperr.Wrap(apperr.Unauthenticated, "invalid or expired token", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperr.Unauthenticatedf("invalid token")
	}
	return claims, nil
}

// VerifyPurpose validates the token and additionally requires the
// given purpose, so a set-password token can never open a session.
func (ti *TokenIssuer) VerifyPurpose(tokenString, purpose string) (*Claims, error) {
	claims, err := ti.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purpose {
		return nil, apperr.Unauthenticatedf("token not valid for this use")
	}
	return claims, nil
}
