package port

import (
	"context"
	"time"

	"github.com/launchdeck-platform/market-engine/internal/domain"
)

type UserRepository interface {
	Save(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uint) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type AppRepository interface {
	Save(ctx context.Context, app *domain.App) error
	FindByID(ctx context.Context, id uint) (*domain.App, error)
	FindByDeveloper(ctx context.Context, developerID uint, offset, limit int) ([]*domain.App, error)
	FindByStatus(ctx context.Context, status domain.AppStatus, offset, limit int) ([]*domain.App, error)
	FindAll(ctx context.Context, offset, limit int) ([]*domain.App, error)
	// FindDeployingBefore 返回 deploy_deadline 早于 cutoff 且仍处于 deploying 的 App，
	// 供超时回收器扫描。
	FindDeployingBefore(ctx context.Context, cutoff time.Time) ([]*domain.App, error)
	Update(ctx context.Context, app *domain.App) error
	Delete(ctx context.Context, id uint) error
}

type SubscriptionRepository interface {
	Save(ctx context.Context, sub *domain.Subscription) error
	FindByID(ctx context.Context, id uint) (*domain.Subscription, error)
	FindActive(ctx context.Context, userID, appID uint) (*domain.Subscription, error)
	FindByUser(ctx context.Context, userID uint) ([]*domain.Subscription, error)
	Update(ctx context.Context, sub *domain.Subscription) error
	DeleteByApp(ctx context.Context, appID uint) error
}

type TransactionRepository interface {
	Save(ctx context.Context, txn *domain.Transaction) error
	FindByOrderID(ctx context.Context, orderID string) (*domain.Transaction, error)
	Update(ctx context.Context, txn *domain.Transaction) error
}
