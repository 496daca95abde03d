package service

import (
	"context"
	"strings"

	"github.com/launchdeck-platform/market-engine/internal/domain"
	"github.com/launchdeck-platform/market-engine/internal/port"
)

// AccessService 负责订阅校验后的应用跳转：
// 签发一次性短时 launch token，供已部署应用回调验证。
type AccessService struct {
	appRepo  port.AppRepository
	subRepo  port.SubscriptionRepository
	userRepo port.UserRepository
	tokens   *TokenService
}

func NewAccessService(
	appRepo port.AppRepository,
	subRepo port.SubscriptionRepository,
	userRepo port.UserRepository,
	tokens *TokenService,
) *AccessService {
	return &AccessService{
		appRepo:  appRepo,
		subRepo:  subRepo,
		userRepo: userRepo,
		tokens:   tokens,
	}
}

type LaunchResult struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	UserID uint   `json:"user_id"`
	AppID  uint   `json:"app_id"`
}

// Launch 换取应用入口。普通用户要求 App 已发布且有 active 订阅；
// 开发者和管理员访问自己管理的 App 时免订阅。
func (s *AccessService) Launch(ctx context.Context, user *domain.User, appID uint) (*LaunchResult, error) {
	app, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		return nil, err
	}

	if !user.CanManageApp(app) {
		if app.Status != domain.AppStatusPublished {
			return nil, domain.ErrAppNotPublished
		}
		if _, err := s.subRepo.FindActive(ctx, user.ID, app.ID); err != nil {
			return nil, domain.ErrSubscriptionRequired
		}
	}

	if app.ProductionURL == "" {
		return nil, domain.ErrAppNotPublished
	}

	token, err := s.tokens.IssueLaunchToken(user.ID, app.ID)
	if err != nil {
		return nil, err
	}

	return &LaunchResult{
		URL:    strings.TrimRight(app.ProductionURL, "/"),
		Token:  token,
		UserID: user.ID,
		AppID:  app.ID,
	}, nil
}

type TokenVerification struct {
	Valid bool       `json:"valid"`
	User  *TokenUser `json:"user,omitempty"`
	AppID uint       `json:"app_id,omitempty"`
}

type TokenUser struct {
	ID    uint        `json:"id"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// VerifyToken 供被托管的应用回调：校验 launch token 并返回访问者身份。
// 无效或过期的 token 返回 valid=false，不报错，方便应用侧统一处理。
func (s *AccessService) VerifyToken(ctx context.Context, token string) (*TokenVerification, error) {
	userID, appID, err := s.tokens.ParseLaunchToken(token)
	if err != nil {
		return &TokenVerification{Valid: false}, nil
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return &TokenVerification{Valid: false}, nil
	}

	return &TokenVerification{
		Valid: true,
		AppID: appID,
		User: &TokenUser{
			ID:    user.ID,
			Email: user.Email,
			Role:  user.Role,
		},
	}, nil
}
