package repository

import (
	"context"
	"errors"
	"time"

	"github.com/launchdeck-platform/market-engine/internal/domain"
	"github.com/launchdeck-platform/market-engine/internal/port"
	"gorm.io/gorm"
)

var _ port.AppRepository = (*AppRepo)(nil)

type AppRepo struct {
	db *gorm.DB
}

func NewAppRepo(db *gorm.DB) *AppRepo {
	return &AppRepo{db: db}
}

func (r *AppRepo) Save(ctx context.Context, app *domain.App) error {
	m, err := appToModel(app)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Create(m)
	if result.Error != nil {
		if isUniqueConstraintError(result.Error) {
			return domain.ErrAlreadyExists
		}
		return result.Error
	}
	app.ID = m.ID
	return nil
}

func (r *AppRepo) FindByID(ctx context.Context, id uint) (*domain.App, error) {
	var m AppModel
	result := r.db.WithContext(ctx).First(&m, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAppNotFound
		}
		return nil, result.Error
	}
	return modelToApp(&m)
}

func (r *AppRepo) FindByDeveloper(ctx context.Context, developerID uint, offset, limit int) ([]*domain.App, error) {
	var models []AppModel
	err := r.db.WithContext(ctx).
		Where("developer_id = ?", developerID).
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return modelsToApps(models)
}

func (r *AppRepo) FindByStatus(ctx context.Context, status domain.AppStatus, offset, limit int) ([]*domain.App, error) {
	var models []AppModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return modelsToApps(models)
}

func (r *AppRepo) FindAll(ctx context.Context, offset, limit int) ([]*domain.App, error) {
	var models []AppModel
	err := r.db.WithContext(ctx).
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return modelsToApps(models)
}

func (r *AppRepo) FindDeployingBefore(ctx context.Context, cutoff time.Time) ([]*domain.App, error) {
	var models []AppModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND deploy_deadline IS NOT NULL AND deploy_deadline < ?",
			string(domain.AppStatusDeploying), cutoff).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return modelsToApps(models)
}

func (r *AppRepo) Update(ctx context.Context, app *domain.App) error {
	m, err := appToModel(app)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *AppRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&AppModel{}, "id = ?", id).Error
}

func modelsToApps(models []AppModel) ([]*domain.App, error) {
	apps := make([]*domain.App, 0, len(models))
	for i := range models {
		a, err := modelToApp(&models[i])
		if err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, nil
}

func appToModel(a *domain.App) (*AppModel, error) {
	images, err := marshalStrings(a.Images)
	if err != nil {
		return nil, err
	}
	tags, err := marshalStrings(a.Tags)
	if err != nil {
		return nil, err
	}
	features, err := marshalStrings(a.Features)
	if err != nil {
		return nil, err
	}
	return &AppModel{
		ID:              a.ID,
		Name:            a.Name,
		Description:     a.Description,
		Category:        string(a.Category),
		Price:           a.Price,
		DeveloperID:     a.DeveloperID,
		Framework:       string(a.Framework),
		Provider:        string(a.Provider),
		Status:          string(a.Status),
		StepCompleted:   a.StepCompleted,
		SourcePath:      a.SourcePath,
		ProductionURL:   a.ProductionURL,
		DeployAttemptID: a.DeployAttemptID,
		DeployDeadline:  a.DeployDeadline,
		Images:          images,
		LogoURL:         a.LogoURL,
		Tags:            tags,
		Features:        features,
		DemoURL:         a.DemoURL,
		SupportEmail:    a.SupportEmail,
		WebsiteURL:      a.WebsiteURL,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}, nil
}

func modelToApp(m *AppModel) (*domain.App, error) {
	images, err := unmarshalStrings(m.Images)
	if err != nil {
		return nil, err
	}
	tags, err := unmarshalStrings(m.Tags)
	if err != nil {
		return nil, err
	}
	features, err := unmarshalStrings(m.Features)
	if err != nil {
		return nil, err
	}
	return &domain.App{
		ID:              m.ID,
		Name:            m.Name,
		Description:     m.Description,
		Category:        domain.Category(m.Category),
		Price:           m.Price,
		DeveloperID:     m.DeveloperID,
		Framework:       domain.Framework(m.Framework),
		Provider:        domain.Provider(m.Provider),
		Status:          domain.AppStatus(m.Status),
		StepCompleted:   m.StepCompleted,
		SourcePath:      m.SourcePath,
		ProductionURL:   m.ProductionURL,
		DeployAttemptID: m.DeployAttemptID,
		DeployDeadline:  m.DeployDeadline,
		Images:          images,
		LogoURL:         m.LogoURL,
		Tags:            tags,
		Features:        features,
		DemoURL:         m.DemoURL,
		SupportEmail:    m.SupportEmail,
		WebsiteURL:      m.WebsiteURL,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}, nil
}
