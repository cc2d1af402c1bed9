// internal/app/features/authapi/login.go
package authapi

import (
	"context"
	"net/http"
	"time"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/httpjson"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/normalize"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/permissions"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// selectionTTL bounds how long a matrix-selection token stays usable.
const selectionTTL = 10 * time.Minute

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type matrixChoice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type sessionResponse struct {
	Token      string                  `json:"token"`
	MemberID   string                  `json:"member_id"`
	MatrixID   string                  `json:"matrix_id"`
	FullName   string                  `json:"full_name"`
	Permission *permissions.Simplified `json:"permission"`
}

type selectionResponse struct {
	RequiresMatrixSelection bool           `json:"requires_matrix_selection"`
	SelectionToken          string         `json:"selection_token"`
	Matrices                []matrixChoice `json:"matrices"`
}

// HandleLogin authenticates by email and password. Members belonging
// to a single matrix get a session token immediately; members with
// several memberships get a short-lived matrix-selection token plus
// the list of choices.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	email := normalize.Email(req.Email)
	if h.Limiter != nil && !h.Limiter.Check(r, email) {
		h.Audit.LoginRateLimited(ctx, r, email)
		apperr.Render(w, apperr.RateLimitedf("too many login attempts, try again later"), h.Log)
		return
	}

	member, err := h.Members.GetByEmail(ctx, email)
	if err == mongo.ErrNoDocuments {
		// Same denial as a wrong password so login probes cannot
		// enumerate emails.
		h.Audit.LoginFailed(ctx, r, email, "unknown email")
		apperr.Render(w, apperr.Unauthenticatedf("invalid credentials"), h.Log)
		return
	}
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if !member.HasSystemAccess || member.PasswordHash == "" {
		h.Audit.LoginFailed(ctx, r, email, "no system access")
		apperr.Render(w, apperr.Unauthenticatedf("invalid credentials"), h.Log)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(req.Password)); err != nil {
		h.Audit.LoginFailed(ctx, r, email, "wrong password")
		apperr.Render(w, apperr.Unauthenticatedf("invalid credentials"), h.Log)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}

	matrixIDs, err := h.Memberships.MatrixIDsForMember(ctx, member.ID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	switch len(matrixIDs) {
	case 0:
		apperr.Render(w, apperr.Forbiddenf("member does not belong to any matrix"), h.Log)
	case 1:
		h.openSession(ctx, w, r, member.ID, matrixIDs[0], member.FullName, sessionViaLogin)
	default:
		token, err := h.Issuer.SignPurpose(member.ID.Hex(), auth.PurposeMatrixSelection, selectionTTL)
		if err != nil {
			apperr.Render(w, err, h.Log)
			return
		}
		matrices, err := h.Matrices.ListByIDs(ctx, matrixIDs)
		if err != nil {
			apperr.Render(w, err, h.Log)
			return
		}
		choices := make([]matrixChoice, 0, len(matrices))
		for _, m := range matrices {
			choices = append(choices, matrixChoice{ID: m.ID.Hex(), Name: m.Name})
		}
		httpjson.Write(w, http.StatusOK, selectionResponse{
			RequiresMatrixSelection: true,
			SelectionToken:          token,
			Matrices:                choices,
		})
	}
}

type selectMatrixRequest struct {
	SelectionToken string `json:"selection_token"`
	MatrixID       string `json:"matrix_id"`
}

// HandleSelectMatrix exchanges a matrix-selection token plus a chosen
// matrix for a session token. The membership is re-checked so a stale
// token cannot open a session in a matrix the member has left.
func (h *Handler) HandleSelectMatrix(w http.ResponseWriter, r *http.Request) {
	var req selectMatrixRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	claims, err := h.Issuer.VerifyPurpose(req.SelectionToken, auth.PurposeMatrixSelection)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	memberID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		apperr.Render(w, apperr.Unauthenticatedf("invalid token"), h.Log)
		return
	}
	matrixID, err := primitive.ObjectIDFromHex(req.MatrixID)
	if err != nil {
		apperr.Render(w, apperr.Invalidf("invalid matrix id"), h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ok, err := h.Memberships.Exists(ctx, memberID, matrixID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if !ok {
		apperr.Render(w, apperr.Forbiddenf("member does not belong to this matrix"), h.Log)
		return
	}

	member, err := h.Members.GetByID(ctx, memberID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	h.openSession(ctx, w, r, memberID, matrixID, member.FullName, sessionViaSelection)
}

// sessionVia tells openSession which audit event the new session maps
// to; refresh re-issues are not audited.
type sessionVia int

const (
	sessionViaRefresh sessionVia = iota
	sessionViaLogin
	sessionViaSelection
)

// openSession issues the session token and answers with the member's
// simplified permission for the chosen matrix.
func (h *Handler) openSession(ctx context.Context, w http.ResponseWriter, r *http.Request, memberID, matrixID primitive.ObjectID, fullName string, via sessionVia) {
	token, err := h.Issuer.SignSession(memberID.Hex(), matrixID.Hex())
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	simplified, err := h.Resolver.LoadSimplified(ctx, memberID, matrixID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	switch via {
	case sessionViaLogin:
		h.Audit.LoginSuccess(ctx, r, memberID, matrixID)
	case sessionViaSelection:
		h.Audit.MatrixSelected(ctx, r, memberID, matrixID)
	}
	h.Log.Info("session opened",
		zap.String("member_id", memberID.Hex()),
		zap.String("matrix_id", matrixID.Hex()))
	httpjson.Write(w, http.StatusOK, sessionResponse{
		Token:      token,
		MemberID:   memberID.Hex(),
		MatrixID:   matrixID.Hex(),
		FullName:   fullName,
		Permission: &simplified,
	})
}
