package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/launchdeck-platform/market-engine/internal/domain"
)

// LaunchTokenTTL 是 launch token 的有效期。token 只用于一次跳转握手，
// 60 秒足够浏览器完成 redirect + 对端回验。
const LaunchTokenTTL = 60 * time.Second

// TokenService 签发与校验两类 HMAC-SHA256 JWT：
// 登录态 access token（subject 为 user id）和
// launch token（subject 为 "user_id:app_id"，60 秒过期，无状态不落库）。
type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret), now: time.Now}
}

func (s *TokenService) issue(subject string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *TokenService) parse(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

// IssueAccessToken 签发登录态 token。
func (s *TokenService) IssueAccessToken(userID uint, ttl time.Duration) (string, error) {
	return s.issue(strconv.FormatUint(uint64(userID), 10), ttl)
}

// ParseAccessToken 解析登录态 token，返回 user id。
func (s *TokenService) ParseAccessToken(tokenString string) (uint, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, domain.ErrInvalidToken
	}
	return uint(id), nil
}

// IssueLaunchToken 签发 60 秒过期的 launch token，绑定用户与 App。
func (s *TokenService) IssueLaunchToken(userID, appID uint) (string, error) {
	return s.issue(fmt.Sprintf("%d:%d", userID, appID), LaunchTokenTTL)
}

// ParseLaunchToken 解析 launch token，返回其绑定的用户与 App。
func (s *TokenService) ParseLaunchToken(tokenString string) (userID, appID uint, err error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return 0, 0, err
	}
	parts := strings.SplitN(claims.Subject, ":", 2)
	if len(parts) != 2 {
		return 0, 0, domain.ErrInvalidToken
	}
	uid, err1 := strconv.ParseUint(parts[0], 10, 64)
	aid, err2 := strconv.ParseUint(parts[1], 10, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, domain.ErrInvalidToken
	}
	return uint(uid), uint(aid), nil
}
