package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/launchdeck-platform/market-engine/internal/domain"
	"github.com/launchdeck-platform/market-engine/internal/service"
)

const maxRequestBodySize = 1 << 20 // 1MB

// 源码 ZIP 上传走更高的上限。
const maxUploadBodySize = 50 << 20 // 50MB

type contextKey string

const userContextKey contextKey = "current_user"

// currentUser 取出 auth 中间件放进 context 的用户。
// 只在挂了 authMiddleware 的路由下调用。
func currentUser(r *http.Request) *domain.User {
	user, _ := r.Context().Value(userContextKey).(*domain.User)
	return user
}

func authMiddleware(users *service.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, domain.ErrInvalidToken)
				return
			}
			user, err := users.Authenticate(r.Context(), token)
			if err != nil {
				writeError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration", time.Since(start).String(),
		)
	})
}

func bodySizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := int64(maxRequestBodySize)
		if strings.HasSuffix(r.URL.Path, "/upload") {
			limit = maxUploadBodySize
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}
