package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/launchdeck-platform/market-engine/internal/domain"
	"github.com/launchdeck-platform/market-engine/internal/port"
)

type UserService struct {
	userRepo       port.UserRepository
	tokens         *TokenService
	accessTokenTTL time.Duration
}

func NewUserService(userRepo port.UserRepository, tokens *TokenService, accessTokenTTL time.Duration) *UserService {
	return &UserService{
		userRepo:       userRepo,
		tokens:         tokens,
		accessTokenTTL: accessTokenTTL,
	}
}

type SignupRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
	FullName string      `json:"full_name"`
	Company  string      `json:"company"`
}

func (s *UserService) Signup(ctx context.Context, req SignupRequest) (*domain.User, error) {
	if err := domain.ValidateEmail(req.Email); err != nil {
		return nil, err
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrInvalidInput)
	}

	role := req.Role
	switch role {
	case domain.RoleDeveloper, domain.RoleUser:
	case "":
		role = domain.RoleUser
	default:
		// admin 不能自助注册。
		return nil, fmt.Errorf("%w: role %q not allowed", domain.ErrInvalidInput, role)
	}

	hash, err := domain.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		FullName:     req.FullName,
		Company:      req.Company,
		CreatedAt:    time.Now(),
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, fmt.Errorf("user with this email %w", domain.ErrAlreadyExists)
		}
		return nil, err
	}
	return user, nil
}

type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: incorrect email or password", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, fmt.Errorf("%w: incorrect email or password", domain.ErrUnauthorized)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: inactive user", domain.ErrForbidden)
	}

	token, err := s.tokens.IssueAccessToken(user.ID, s.accessTokenTTL)
	if err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: token, TokenType: "bearer"}, nil
}

// Authenticate 从 bearer token 解析出当前用户，供 HTTP 中间件调用。
func (s *UserService) Authenticate(ctx context.Context, tokenString string) (*domain.User, error) {
	userID, err := s.tokens.ParseAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: inactive user", domain.ErrForbidden)
	}
	return user, nil
}

type OnboardingRequest struct {
	FullName string `json:"full_name"`
	Company  string `json:"company"`
	Bio      string `json:"bio"`
}

func (s *UserService) CompleteOnboarding(ctx context.Context, user *domain.User, req OnboardingRequest) (*domain.User, error) {
	user.FullName = req.FullName
	user.Company = req.Company
	user.Bio = req.Bio
	user.OnboardingCompleted = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
