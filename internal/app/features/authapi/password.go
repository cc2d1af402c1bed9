// internal/app/features/authapi/password.go
package authapi

import (
	"context"
	"net/http"
	"time"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/httpjson"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/notify"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/permissions"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// setPasswordTTL is how long a set-password invite stays valid.
const setPasswordTTL = 48 * time.Hour

const minPasswordLen = 8

type inviteRequest struct {
	MemberID string `json:"member_id"`
}

type inviteResponse struct {
	SetPasswordToken string `json:"set_password_token"`
}

// HandleInvite issues a set-password token for a member and sends it
// through the notifier. Admin only; the target must belong to the
// admin's matrix.
func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	perm, ok := permissions.Current(r)
	if !ok {
		apperr.Render(w, apperr.Unauthenticatedf("not authenticated"), h.Log)
		return
	}
	if err := permissions.RequireAdmin(perm); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	principal, _ := auth.CurrentPrincipal(r)

	var req inviteRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	memberID, err := primitive.ObjectIDFromHex(req.MemberID)
	if err != nil {
		apperr.Render(w, apperr.Invalidf("invalid member id"), h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ok, err = h.Memberships.Exists(ctx, memberID, principal.MatrixID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if !ok {
		apperr.Render(w, apperr.NotFoundf("member not found in this matrix"), h.Log)
		return
	}
	member, err := h.Members.GetByID(ctx, memberID)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	token, err := h.Issuer.SignPurpose(memberID.Hex(), auth.PurposeSetPassword, setPasswordTTL)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	// Delivery is best effort; the token is also returned so admins
	// can hand it over directly when no channel is configured.
	if member.Email != "" {
		_ = h.Notify.Send(ctx, notify.Message{
			To:      member.Email,
			Subject: "Acesso ao sistema",
			Body:    "Use este código para definir sua senha: " + token,
		})
	}

	h.Audit.InviteIssued(ctx, r, memberID, principal.MemberID)
	httpjson.Write(w, http.StatusOK, inviteResponse{SetPasswordToken: token})
}

type setPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// HandleSetPassword redeems a set-password token and stores the bcrypt
// hash, granting system access.
func (h *Handler) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
	var req setPasswordRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if len(req.Password) < minPasswordLen {
		apperr.Render(w, apperr.Invalidf("password must have at least 8 characters"), h.Log)
		return
	}

	claims, err := h.Issuer.VerifyPurpose(req.Token, auth.PurposeSetPassword)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	memberID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		apperr.Render(w, apperr.Unauthenticatedf("invalid token"), h.Log)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Members.SetPassword(ctx, memberID, string(hash)); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	h.Audit.PasswordSet(ctx, r, memberID)
	h.Log.Info("password set", zap.String("member_id", memberID.Hex()))
	httpjson.NoContent(w)
}
