package repository

import (
	"context"
	"errors"

	"github.com/launchdeck-platform/market-engine/internal/domain"
	"github.com/launchdeck-platform/market-engine/internal/port"
	"gorm.io/gorm"
)

var _ port.TransactionRepository = (*TransactionRepo)(nil)

type TransactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

func (r *TransactionRepo) Save(ctx context.Context, txn *domain.Transaction) error {
	m := transactionToModel(txn)
	result := r.db.WithContext(ctx).Create(m)
	if result.Error != nil {
		if isUniqueConstraintError(result.Error) {
			return domain.ErrAlreadyExists
		}
		return result.Error
	}
	txn.ID = m.ID
	return nil
}

func (r *TransactionRepo) FindByOrderID(ctx context.Context, orderID string) (*domain.Transaction, error) {
	var m TransactionModel
	result := r.db.WithContext(ctx).First(&m, "razorpay_order_id = ?", orderID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, result.Error
	}
	return modelToTransaction(&m), nil
}

func (r *TransactionRepo) Update(ctx context.Context, txn *domain.Transaction) error {
	return r.db.WithContext(ctx).Save(transactionToModel(txn)).Error
}

func transactionToModel(t *domain.Transaction) *TransactionModel {
	return &TransactionModel{
		ID:                t.ID,
		UserID:            t.UserID,
		AppID:             t.AppID,
		Amount:            t.Amount,
		Currency:          t.Currency,
		RazorpayOrderID:   t.RazorpayOrderID,
		RazorpayPaymentID: t.RazorpayPaymentID,
		Status:            t.Status,
		CreatedAt:         t.CreatedAt,
	}
}

func modelToTransaction(m *TransactionModel) *domain.Transaction {
	return &domain.Transaction{
		ID:                m.ID,
		UserID:            m.UserID,
		AppID:             m.AppID,
		Amount:            m.Amount,
		Currency:          m.Currency,
		RazorpayOrderID:   m.RazorpayOrderID,
		RazorpayPaymentID: m.RazorpayPaymentID,
		Status:            m.Status,
		CreatedAt:         m.CreatedAt,
	}
}
