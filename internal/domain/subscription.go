package domain

import "time"

// SubscriptionStatus 是订阅状态。只有 active 的订阅能换取 launch token。
type SubscriptionStatus string

const (
	SubscriptionPending  SubscriptionStatus = "pending"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// 支付流水状态。
const (
	TxnCreated = "created"
	TxnSuccess = "success"
	TxnFailed  = "failed"
)

// Subscription 关联用户与 App（多对多中间行）。
// 只在支付签名验证通过后创建，创建即 active。
type Subscription struct {
	ID            uint               `json:"id"`
	UserID        uint               `json:"user_id"`
	AppID         uint               `json:"app_id"`
	Status        SubscriptionStatus `json:"status"`
	RazorpaySubID string             `json:"razorpay_sub_id,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	CanceledAt    *time.Time         `json:"canceled_at,omitempty"`
}

// Transaction 是支付流水。OrderID 在下单时生成，PaymentID 在验签时回填。
// Amount 以 paise（最小货币单位）计。
type Transaction struct {
	ID                uint      `json:"id"`
	UserID            uint      `json:"user_id"`
	AppID             uint      `json:"app_id"`
	Amount            int64     `json:"amount"`
	Currency          string    `json:"currency"`
	RazorpayOrderID   string    `json:"razorpay_order_id"`
	RazorpayPaymentID string    `json:"razorpay_payment_id,omitempty"`
	Status            string    `json:"status"` // created / success / failed
	CreatedAt         time.Time `json:"created_at"`
}
