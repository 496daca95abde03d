package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/launchdeck-platform/market-engine/internal/domain"
	"github.com/launchdeck-platform/market-engine/internal/port"
)

type AppService struct {
	appRepo   port.AppRepository
	subRepo   port.SubscriptionRepository
	artifacts port.ArtifactStore
	logStore  port.LogStore
}

func NewAppService(
	appRepo port.AppRepository,
	subRepo port.SubscriptionRepository,
	artifacts port.ArtifactStore,
	logStore port.LogStore,
) *AppService {
	return &AppService{
		appRepo:   appRepo,
		subRepo:   subRepo,
		artifacts: artifacts,
		logStore:  logStore,
	}
}

type CreateAppRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    domain.Category `json:"category"`
	Price       float64         `json:"price"`
}

// CreateApp 完成创建流程第一步（基本信息），只有开发者和管理员可用。
func (s *AppService) CreateApp(ctx context.Context, user *domain.User, req CreateAppRequest) (*domain.App, error) {
	if user.Role != domain.RoleDeveloper && user.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	if err := domain.ValidateAppName(req.Name); err != nil {
		return nil, err
	}
	if err := domain.ValidatePrice(req.Price); err != nil {
		return nil, err
	}

	category := req.Category
	if category == "" {
		category = domain.CategoryOther
	}

	now := time.Now()
	app := &domain.App{
		Name:          req.Name,
		Description:   req.Description,
		Category:      category,
		Price:         req.Price,
		DeveloperID:   user.ID,
		Framework:     domain.FrameworkUnknown,
		Provider:      domain.ProviderNone,
		Status:        domain.AppStatusDraft,
		StepCompleted: domain.StepInfo,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.appRepo.Save(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// GetApp 返回单个 App。未发布的 App 只有所有者和管理员可见。
func (s *AppService) GetApp(ctx context.Context, user *domain.User, id uint) (*domain.App, error) {
	app, err := s.appRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Status != domain.AppStatusPublished && !user.CanManageApp(app) {
		return nil, domain.ErrAppNotFound
	}
	return app, nil
}

// ListApps 按角色过滤：开发者看自己的，管理员看全部，普通用户只看已发布的。
func (s *AppService) ListApps(ctx context.Context, user *domain.User, offset, limit int) ([]*domain.App, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	switch user.Role {
	case domain.RoleDeveloper:
		return s.appRepo.FindByDeveloper(ctx, user.ID, offset, limit)
	case domain.RoleAdmin:
		return s.appRepo.FindAll(ctx, offset, limit)
	default:
		return s.appRepo.FindByStatus(ctx, domain.AppStatusPublished, offset, limit)
	}
}

type UpdateAppRequest struct {
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	Category     *domain.Category `json:"category"`
	Price        *float64         `json:"price"`
	Images       []string         `json:"images"`
	LogoURL      *string          `json:"logo_url"`
	Tags         []string         `json:"tags"`
	Features     []string         `json:"features"`
	DemoURL      *string          `json:"demo_url"`
	SupportEmail *string          `json:"support_email"`
	WebsiteURL   *string          `json:"website_url"`
}

func (s *AppService) UpdateApp(ctx context.Context, user *domain.User, id uint, req UpdateAppRequest) (*domain.App, error) {
	app, err := s.ownedApp(ctx, user, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := domain.ValidateAppName(*req.Name); err != nil {
			return nil, err
		}
		app.Name = *req.Name
	}
	if req.Description != nil {
		app.Description = *req.Description
	}
	if req.Category != nil {
		app.Category = *req.Category
	}
	if req.Price != nil {
		if err := domain.ValidatePrice(*req.Price); err != nil {
			return nil, err
		}
		app.Price = *req.Price
	}
	if req.Images != nil {
		app.Images = req.Images
	}
	if req.LogoURL != nil {
		app.LogoURL = *req.LogoURL
	}
	if req.Tags != nil {
		app.Tags = req.Tags
	}
	if req.Features != nil {
		app.Features = req.Features
	}
	if req.DemoURL != nil {
		app.DemoURL = *req.DemoURL
	}
	if req.SupportEmail != nil {
		app.SupportEmail = *req.SupportEmail
	}
	if req.WebsiteURL != nil {
		app.WebsiteURL = *req.WebsiteURL
	}

	app.UpdatedAt = time.Now()
	if err := s.appRepo.Update(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

type PricingRequest struct {
	Price       *float64         `json:"price"`
	Category    *domain.Category `json:"category"`
	Description *string          `json:"description"`
}

// UpdatePricing 完成创建流程第二步（定价）。
func (s *AppService) UpdatePricing(ctx context.Context, user *domain.User, id uint, req PricingRequest) (*domain.App, error) {
	app, err := s.ownedApp(ctx, user, id)
	if err != nil {
		return nil, err
	}

	if req.Price != nil {
		if err := domain.ValidatePrice(*req.Price); err != nil {
			return nil, err
		}
		app.Price = *req.Price
	}
	if req.Category != nil {
		app.Category = *req.Category
	}
	if req.Description != nil {
		app.Description = *req.Description
	}

	app.CompleteStep(domain.StepPricing)
	app.UpdatedAt = time.Now()
	if err := s.appRepo.Update(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// UpdateStep 直接抬高步骤进度（前端向导用）。步骤只增不减。
func (s *AppService) UpdateStep(ctx context.Context, user *domain.User, id uint, step int) (*domain.App, error) {
	if step < 0 || step > domain.StepDeploy {
		return nil, domain.ErrInvalidInput
	}
	app, err := s.ownedApp(ctx, user, id)
	if err != nil {
		return nil, err
	}
	app.CompleteStep(step)
	app.UpdatedAt = time.Now()
	if err := s.appRepo.Update(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

type UploadResult struct {
	Framework     domain.Framework `json:"framework"`
	StepCompleted int              `json:"step_completed"`
}

// UploadSource 完成创建流程第三步：保存 ZIP、解压、探测框架。
func (s *AppService) UploadSource(ctx context.Context, user *domain.User, id uint, archive io.Reader) (*UploadResult, error) {
	app, err := s.ownedApp(ctx, user, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.artifacts.SaveArchive(ctx, app.ID, archive); err != nil {
		return nil, err
	}
	sourceDir, err := s.artifacts.ExtractArchive(ctx, app.ID)
	if err != nil {
		return nil, err
	}

	detection := s.artifacts.Detect(sourceDir)

	app.SourcePath = sourceDir
	app.Framework = detection.Framework
	app.CompleteStep(domain.StepUpload)
	app.UpdatedAt = time.Now()
	if err := s.appRepo.Update(ctx, app); err != nil {
		return nil, err
	}

	return &UploadResult{Framework: app.Framework, StepCompleted: app.StepCompleted}, nil
}

// DeleteApp 删除 App 及全部关联数据：订阅、部署日志、制品文件。
func (s *AppService) DeleteApp(ctx context.Context, user *domain.User, id uint) error {
	app, err := s.ownedApp(ctx, user, id)
	if err != nil {
		return err
	}

	if err := s.logStore.Clear(ctx, app.ID); err != nil {
		slog.Warn("failed to clear deployment logs", "app_id", app.ID, "error", err)
	}
	if err := s.subRepo.DeleteByApp(ctx, app.ID); err != nil {
		return err
	}
	if err := s.appRepo.Delete(ctx, app.ID); err != nil {
		return err
	}
	if err := s.artifacts.Remove(ctx, app.ID); err != nil {
		slog.Warn("failed to remove artifact files", "app_id", app.ID, "error", err)
	}
	return nil
}

// ownedApp 取 App 并校验操作权限（所有者或管理员）。
func (s *AppService) ownedApp(ctx context.Context, user *domain.User, id uint) (*domain.App, error) {
	app, err := s.appRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.CanManageApp(app) {
		return nil, domain.ErrForbidden
	}
	return app, nil
}
