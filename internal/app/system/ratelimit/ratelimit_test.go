package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowWithinWindow(t *testing.T) {
	l := New(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("attempt %d blocked, want allowed", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("attempt 4 allowed, want blocked")
	}
	if !l.Allow("other") {
		t.Error("unrelated key blocked")
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Hour)

	if !l.Allow("k") {
		t.Fatal("first attempt blocked")
	}
	if l.Allow("k") {
		t.Fatal("second attempt allowed, want blocked")
	}
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("attempt after reset blocked")
	}
}

func TestLimiter_WindowExpiry(t *testing.T) {
	l := New(1, 10*time.Millisecond)

	if !l.Allow("k") {
		t.Fatal("first attempt blocked")
	}
	if l.Allow("k") {
		t.Fatal("second attempt allowed inside window")
	}
	time.Sleep(20 * time.Millisecond)
	if !l.Allow("k") {
		t.Error("attempt after window expiry blocked")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"forwarded-for first entry", "203.0.113.9, 10.0.0.2", "", "10.0.0.1:80", "203.0.113.9"},
		{"real-ip fallback", "", "198.51.100.1", "10.0.0.1:80", "198.51.100.1"},
		{"remote addr strips port", "", "", "10.0.0.1:80", "10.0.0.1"},
		{"remote addr without port", "", "", "10.0.0.1", "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/auth/login", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter_EmailWindow(t *testing.T) {
	ll := NewLoginLimiterWithConfig(100, time.Hour, 2, time.Hour)
	r := httptest.NewRequest("POST", "/auth/login", nil)
	r.RemoteAddr = "10.0.0.1:1234"

	if !ll.Check(r, "A@Example.com") {
		t.Fatal("first attempt blocked")
	}
	if !ll.Check(r, "a@example.com ") {
		t.Fatal("second attempt blocked, want same key as first")
	}
	if ll.Check(r, "a@example.com") {
		t.Fatal("third attempt allowed, want email window exhausted")
	}

	ll.ResetEmail("A@EXAMPLE.COM")
	if !ll.Check(r, "a@example.com") {
		t.Error("attempt after reset blocked")
	}
}
