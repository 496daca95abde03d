package service

import (
	"errors"
	"testing"
	"time"

	"github.com/launchdeck-platform/market-engine/internal/domain"
)

func TestAccessToken_Roundtrip(t *testing.T) {
	svc := NewTokenService("secret")
	token, err := svc.IssueAccessToken(42, 30*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := svc.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id != 42 {
		t.Errorf("userID = %d, want 42", id)
	}
}

func TestAccessToken_WrongSecret(t *testing.T) {
	token, err := NewTokenService("secret-a").IssueAccessToken(42, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, err = NewTokenService("secret-b").ParseAccessToken(token)
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestLaunchToken_ExpiresAfter60Seconds(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService("secret")
	svc.now = func() time.Time { return base }

	token, err := svc.IssueLaunchToken(7, 3)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	svc.now = func() time.Time { return base.Add(59 * time.Second) }
	userID, appID, err := svc.ParseLaunchToken(token)
	if err != nil {
		t.Fatalf("token should still be valid at 59s: %v", err)
	}
	if userID != 7 || appID != 3 {
		t.Errorf("claims = %d/%d, want 7/3", userID, appID)
	}

	svc.now = func() time.Time { return base.Add(61 * time.Second) }
	if _, _, err := svc.ParseLaunchToken(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestLaunchToken_NotAcceptedAsAccessToken(t *testing.T) {
	svc := NewTokenService("secret")
	token, err := svc.IssueLaunchToken(7, 3)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.ParseAccessToken(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("launch token parsed as access token: %v", err)
	}
}
