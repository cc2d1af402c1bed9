package auditlog

import (
	"context"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNilLoggerIsNoOp(t *testing.T) {
	var l *Logger
	r := httptest.NewRequest("POST", "/auth/login", nil)

	// None of these may panic on a nil receiver.
	l.LoginFailed(context.Background(), r, "a@b.com", "wrong password")
	l.LoginSuccess(context.Background(), r, primitive.NewObjectID(), primitive.NewObjectID())
	l.PasswordSet(context.Background(), r, primitive.NewObjectID())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:    "x-forwarded-for wins",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.9", "X-Real-IP": "198.51.100.1"},
			remote:  "10.0.0.1:1234",
			want:    "203.0.113.9",
		},
		{
			name:    "x-real-ip fallback",
			headers: map[string]string{"X-Real-IP": "198.51.100.1"},
			remote:  "10.0.0.1:1234",
			want:    "198.51.100.1",
		},
		{
			name:   "remote addr fallback",
			remote: "10.0.0.1:1234",
			want:   "10.0.0.1:1234",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := clientIP(r); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
