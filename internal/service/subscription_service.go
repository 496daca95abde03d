package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/launchdeck-platform/market-engine/internal/domain"
	"github.com/launchdeck-platform/market-engine/internal/port"
)

// SubscriptionService 管理付费订阅：下单 → 前端拉起收银台 →
// 验签 → 激活订阅。金额一律以 paise（最小货币单位）计。
type SubscriptionService struct {
	appRepo port.AppRepository
	subRepo port.SubscriptionRepository
	txnRepo port.TransactionRepository
	gateway port.PaymentGateway
	now     func() time.Time
}

func NewSubscriptionService(
	appRepo port.AppRepository,
	subRepo port.SubscriptionRepository,
	txnRepo port.TransactionRepository,
	gateway port.PaymentGateway,
) *SubscriptionService {
	return &SubscriptionService{
		appRepo: appRepo,
		subRepo: subRepo,
		txnRepo: txnRepo,
		gateway: gateway,
		now:     time.Now,
	}
}

type OrderResult struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
	AppID    uint   `json:"app_id"`
	AppName  string `json:"app_name"`
}

// CreateOrder 为某个已发布 App 创建支付订单。
// 重复订阅直接拒绝；免费 App 不走支付网关，原地激活。
func (s *SubscriptionService) CreateOrder(ctx context.Context, user *domain.User, appID uint) (*OrderResult, error) {
	app, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app.Status != domain.AppStatusPublished {
		return nil, domain.ErrAppNotPublished
	}
	if existing, err := s.subRepo.FindActive(ctx, user.ID, app.ID); err == nil && existing != nil {
		return nil, fmt.Errorf("subscription %w", domain.ErrAlreadyExists)
	}

	if app.Price <= 0 {
		if err := s.activate(ctx, user.ID, app.ID); err != nil {
			return nil, err
		}
		return &OrderResult{Amount: 0, Currency: "INR", AppID: app.ID, AppName: app.Name}, nil
	}

	amountPaise := int64(math.Round(app.Price * 100))
	receipt := fmt.Sprintf("sub_%d_%d_%s", user.ID, app.ID, uuid.New().String()[:8])

	order, err := s.gateway.CreateOrder(ctx, amountPaise, "INR", receipt)
	if err != nil {
		return nil, fmt.Errorf("create payment order: %w", err)
	}

	txn := &domain.Transaction{
		UserID:          user.ID,
		AppID:           app.ID,
		RazorpayOrderID: order.ID,
		Amount:          order.Amount,
		Currency:        order.Currency,
		Status:          domain.TxnCreated,
		CreatedAt:       s.now(),
	}
	if err := s.txnRepo.Save(ctx, txn); err != nil {
		return nil, err
	}

	return &OrderResult{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyID:    s.gateway.KeyID(),
		AppID:    app.ID,
		AppName:  app.Name,
	}, nil
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// VerifyPayment 校验收银台回传的签名并激活订阅。
// 签名不对时交易记为 failed，不产生订阅。
func (s *SubscriptionService) VerifyPayment(ctx context.Context, user *domain.User, req VerifyPaymentRequest) (*domain.Subscription, error) {
	txn, err := s.txnRepo.FindByOrderID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if txn.UserID != user.ID {
		return nil, domain.ErrForbidden
	}

	if !s.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		txn.Status = domain.TxnFailed
		txn.RazorpayPaymentID = req.PaymentID
		if err := s.txnRepo.Update(ctx, txn); err != nil {
			slog.Warn("failed to record failed transaction", "order_id", req.OrderID, "error", err)
		}
		return nil, domain.ErrInvalidSignature
	}

	txn.Status = domain.TxnSuccess
	txn.RazorpayPaymentID = req.PaymentID
	if err := s.txnRepo.Update(ctx, txn); err != nil {
		return nil, err
	}

	if err := s.activate(ctx, txn.UserID, txn.AppID); err != nil {
		return nil, err
	}
	return s.subRepo.FindActive(ctx, txn.UserID, txn.AppID)
}

// activate 幂等激活订阅：已有 active 订阅时不重复建行。
func (s *SubscriptionService) activate(ctx context.Context, userID, appID uint) error {
	if existing, err := s.subRepo.FindActive(ctx, userID, appID); err == nil && existing != nil {
		return nil
	}
	sub := &domain.Subscription{
		UserID:    userID,
		AppID:     appID,
		Status:    domain.SubscriptionActive,
		CreatedAt: s.now(),
	}
	return s.subRepo.Save(ctx, sub)
}

// ListByUser 返回用户全部订阅，附带对应 App 的概要信息。
func (s *SubscriptionService) ListByUser(ctx context.Context, user *domain.User) ([]*SubscriptionView, error) {
	subs, err := s.subRepo.FindByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	views := make([]*SubscriptionView, 0, len(subs))
	for _, sub := range subs {
		view := &SubscriptionView{Subscription: sub}
		if app, err := s.appRepo.FindByID(ctx, sub.AppID); err == nil {
			view.AppName = app.Name
			view.AppLogoURL = app.LogoURL
			view.ProductionURL = app.ProductionURL
		}
		views = append(views, view)
	}
	return views, nil
}

type SubscriptionView struct {
	*domain.Subscription
	AppName       string `json:"app_name"`
	AppLogoURL    string `json:"app_logo_url,omitempty"`
	ProductionURL string `json:"production_url,omitempty"`
}

// Cancel 取消一份订阅。本人或管理员可取消。
func (s *SubscriptionService) Cancel(ctx context.Context, user *domain.User, subID uint) error {
	sub, err := s.subRepo.FindByID(ctx, subID)
	if err != nil {
		return err
	}
	if sub.UserID != user.ID && user.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	now := s.now()
	sub.Status = domain.SubscriptionCanceled
	sub.CanceledAt = &now
	return s.subRepo.Update(ctx, sub)
}
