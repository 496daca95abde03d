package repository

import (
	"context"
	"errors"

	"github.com/launchdeck-platform/market-engine/internal/domain"
	"github.com/launchdeck-platform/market-engine/internal/port"
	"gorm.io/gorm"
)

var _ port.SubscriptionRepository = (*SubscriptionRepo)(nil)

type SubscriptionRepo struct {
	db *gorm.DB
}

func NewSubscriptionRepo(db *gorm.DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

func (r *SubscriptionRepo) Save(ctx context.Context, sub *domain.Subscription) error {
	m := subscriptionToModel(sub)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	sub.ID = m.ID
	return nil
}

func (r *SubscriptionRepo) FindByID(ctx context.Context, id uint) (*domain.Subscription, error) {
	var m SubscriptionModel
	result := r.db.WithContext(ctx).First(&m, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, result.Error
	}
	return modelToSubscription(&m), nil
}

func (r *SubscriptionRepo) FindActive(ctx context.Context, userID, appID uint) (*domain.Subscription, error) {
	var m SubscriptionModel
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND app_id = ? AND status = ?", userID, appID, string(domain.SubscriptionActive)).
		First(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, result.Error
	}
	return modelToSubscription(&m), nil
}

func (r *SubscriptionRepo) FindByUser(ctx context.Context, userID uint) ([]*domain.Subscription, error) {
	var models []SubscriptionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	subs := make([]*domain.Subscription, 0, len(models))
	for i := range models {
		subs = append(subs, modelToSubscription(&models[i]))
	}
	return subs, nil
}

func (r *SubscriptionRepo) Update(ctx context.Context, sub *domain.Subscription) error {
	return r.db.WithContext(ctx).Save(subscriptionToModel(sub)).Error
}

func (r *SubscriptionRepo) DeleteByApp(ctx context.Context, appID uint) error {
	return r.db.WithContext(ctx).Delete(&SubscriptionModel{}, "app_id = ?", appID).Error
}

func subscriptionToModel(s *domain.Subscription) *SubscriptionModel {
	return &SubscriptionModel{
		ID:            s.ID,
		UserID:        s.UserID,
		AppID:         s.AppID,
		Status:        string(s.Status),
		RazorpaySubID: s.RazorpaySubID,
		CreatedAt:     s.CreatedAt,
		CanceledAt:    s.CanceledAt,
	}
}

func modelToSubscription(m *SubscriptionModel) *domain.Subscription {
	return &domain.Subscription{
		ID:            m.ID,
		UserID:        m.UserID,
		AppID:         m.AppID,
		Status:        domain.SubscriptionStatus(m.Status),
		RazorpaySubID: m.RazorpaySubID,
		CreatedAt:     m.CreatedAt,
		CanceledAt:    m.CanceledAt,
	}
}
