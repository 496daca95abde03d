package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/launchdeck-platform/market-engine/internal/domain"
	"github.com/launchdeck-platform/market-engine/internal/service"
)

type stubUserRepo struct {
	user *domain.User
}

func (s *stubUserRepo) Save(_ context.Context, _ *domain.User) error { return nil }
func (s *stubUserRepo) FindByID(_ context.Context, id uint) (*domain.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, domain.ErrUserNotFound
	}
	return s.user, nil
}
func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, domain.ErrUserNotFound
	}
	return s.user, nil
}
func (s *stubUserRepo) Update(_ context.Context, _ *domain.User) error { return nil }

func TestAuthMiddleware(t *testing.T) {
	tokens := service.NewTokenService("test-secret")
	alice := &domain.User{ID: 1, Email: "alice@example.com", Role: domain.RoleDeveloper, IsActive: true}
	users := service.NewUserService(&stubUserRepo{user: alice}, tokens, 30*time.Minute)

	validToken, err := tokens.IssueAccessToken(alice.ID, 30*time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	expiredToken, err := tokens.IssueAccessToken(alice.ID, -time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r) == nil {
			t.Error("currentUser missing inside protected handler")
		}
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid bearer token", "Bearer " + validToken, http.StatusOK},
		{"no header", "", http.StatusUnauthorized},
		{"missing bearer prefix", validToken, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"expired token", "Bearer " + expiredToken, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := authMiddleware(users)(okHandler)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("got status %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestBodySizeLimitMiddleware(t *testing.T) {
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	handler := bodySizeLimitMiddleware(echo)

	oversized := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(make([]byte, maxRequestBodySize+1)))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := oversized("/api/v1/apps"); code != http.StatusRequestEntityTooLarge {
		t.Errorf("got status %d, want 413", code)
	}
	// 同样大小的请求走上传路由要能通过，ZIP 用的是放大的上限。
	if code := oversized("/api/v1/apps/1/upload"); code != http.StatusOK {
		t.Errorf("got status %d, want 200 on upload route", code)
	}
}
