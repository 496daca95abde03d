package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/launchdeck-platform/market-engine/internal/domain"
)

func userFixture() (*UserService, *fakeUserRepo) {
	userRepo := newFakeUserRepo()
	tokens := NewTokenService("test-secret")
	return NewUserService(userRepo, tokens, 30*time.Minute), userRepo
}

func TestSignup_DefaultsToUserRole(t *testing.T) {
	svc, _ := userFixture()
	user, err := svc.Signup(context.Background(), SignupRequest{
		Email:    "someone@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Errorf("role = %q, want %q", user.Role, domain.RoleUser)
	}
	if user.PasswordHash == "password123" {
		t.Error("password stored in cleartext")
	}
}

func TestSignup_AdminRejected(t *testing.T) {
	svc, _ := userFixture()
	_, err := svc.Signup(context.Background(), SignupRequest{
		Email:    "mallory@example.com",
		Password: "password123",
		Role:     domain.RoleAdmin,
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSignup_ShortPassword(t *testing.T) {
	svc, _ := userFixture()
	_, err := svc.Signup(context.Background(), SignupRequest{
		Email:    "short@example.com",
		Password: "1234567",
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc, _ := userFixture()
	req := SignupRequest{Email: "dup@example.com", Password: "password123", Role: domain.RoleDeveloper}
	if _, err := svc.Signup(context.Background(), req); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	if _, err := svc.Signup(context.Background(), req); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := userFixture()
	if _, err := svc.Signup(context.Background(), SignupRequest{
		Email: "dev@example.com", Password: "password123",
	}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	_, err := svc.Login(context.Background(), "dev@example.com", "wrong-password")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLogin_UnknownEmailSameError(t *testing.T) {
	svc, _ := userFixture()
	// 不存在的邮箱和错误密码返回同一种错误，不泄露账号是否存在。
	_, err := svc.Login(context.Background(), "nobody@example.com", "password123")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLogin_ThenAuthenticate(t *testing.T) {
	svc, _ := userFixture()
	created, err := svc.Signup(context.Background(), SignupRequest{
		Email: "dev@example.com", Password: "password123", Role: domain.RoleDeveloper,
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	result, err := svc.Login(context.Background(), "dev@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.TokenType != "bearer" {
		t.Errorf("TokenType = %q, want bearer", result.TokenType)
	}

	user, err := svc.Authenticate(context.Background(), result.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != created.ID {
		t.Errorf("user ID = %d, want %d", user.ID, created.ID)
	}
}

func TestAuthenticate_InactiveUser(t *testing.T) {
	svc, userRepo := userFixture()
	created, err := svc.Signup(context.Background(), SignupRequest{
		Email: "gone@example.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	result, err := svc.Login(context.Background(), "gone@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	created.IsActive = false
	_ = userRepo.Update(context.Background(), created)

	if _, err := svc.Authenticate(context.Background(), result.AccessToken); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
