// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/Pelezi/videira-caruaru-api/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off".
	Auth string
}

// Logger records audit events to MongoDB (via audit.Store) and to
// structured logs. A nil *Logger is a valid no-op, so handlers never
// need to guard their audit calls.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.MemberID != nil {
		fields = append(fields, zap.String("member_id", event.MemberID.Hex()))
	}
	if event.MatrixID != nil {
		fields = append(fields, zap.String("matrix_id", event.MatrixID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event according to configuration. A failed
// database write is logged but never surfaces to the caller; auditing
// must not break the operation it observes.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	setting := l.config.Auth
	if setting == "off" {
		return
	}
	if setting == "all" || setting == "log" || setting == "" {
		l.logToZap(event)
	}
	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

// LoginSuccess records a session being opened.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, memberID, matrixID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		Success:   true,
		MemberID:  &memberID,
		MatrixID:  &matrixID,
		IP:        clientIP(r),
	})
}

// LoginFailed records a rejected credential check. The attempted email
// goes in Details, never a member id, since the account may not exist.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, email, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailed,
		Success:       false,
		IP:            clientIP(r),
		FailureReason: reason,
		Details:       map[string]string{"email": email},
	})
}

// LoginRateLimited records a login attempt blocked by the limiter.
func (l *Logger) LoginRateLimited(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginRateLimited,
		Success:       false,
		IP:            clientIP(r),
		FailureReason: "rate limited",
		Details:       map[string]string{"email": email},
	})
}

// MatrixSelected records a multi-matrix member exchanging a selection
// token for a session.
func (l *Logger) MatrixSelected(ctx context.Context, r *http.Request, memberID, matrixID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventMatrixSelected,
		Success:   true,
		MemberID:  &memberID,
		MatrixID:  &matrixID,
		IP:        clientIP(r),
	})
}

// PasswordSet records a redeemed set-password invite.
func (l *Logger) PasswordSet(ctx context.Context, r *http.Request, memberID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventPasswordSet,
		Success:   true,
		MemberID:  &memberID,
		IP:        clientIP(r),
	})
}

// InviteIssued records an admin issuing a set-password invite. actorID
// goes in Details so MemberID stays the subject of the event.
func (l *Logger) InviteIssued(ctx context.Context, r *http.Request, memberID, actorID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventInviteIssued,
		Success:   true,
		MemberID:  &memberID,
		IP:        clientIP(r),
		Details:   map[string]string{"actor_id": actorID.Hex()},
	})
}
