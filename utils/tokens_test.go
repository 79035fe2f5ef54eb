package utils

import (
	"testing"
	"time"

	"investBack/internal/models"
)

func TestManagerRoundTrip(t *testing.T) {
	m, err := NewManager("test-signing-key")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	in := models.Claims{UserID: "u1", SessionID: "s1", PinConfigured: true}
	token, err := m.NewJWT(in, time.Minute)
	if err != nil {
		t.Fatalf("NewJWT: %v", err)
	}

	out, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if out.UserID != "u1" || out.SessionID != "s1" || !out.PinConfigured {
		t.Fatalf("claims not preserved: %+v", out)
	}
}

func TestManagerRejectsExpiredToken(t *testing.T) {
	m, _ := NewManager("test-signing-key")
	token, err := m.NewJWT(models.Claims{UserID: "u1"}, -time.Minute)
	if err != nil {
		t.Fatalf("NewJWT: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expired token must not parse")
	}
}

func TestManagerRejectsForeignSignature(t *testing.T) {
	a, _ := NewManager("key-a")
	b, _ := NewManager("key-b")
	token, err := a.NewJWT(models.Claims{UserID: "u1"}, time.Minute)
	if err != nil {
		t.Fatalf("NewJWT: %v", err)
	}
	if _, err := b.Parse(token); err == nil {
		t.Fatal("token signed with another key must not parse")
	}
}

func TestNewRefreshTokenUnique(t *testing.T) {
	m, _ := NewManager("test-signing-key")
	a, err := m.NewRefreshToken()
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	b, _ := m.NewRefreshToken()
	if a == b || len(a) != 64 {
		t.Fatalf("tokens must be 32 random bytes hex encoded, got %q %q", a, b)
	}
}
