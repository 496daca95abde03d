package port

import "context"

// PaymentOrder 是支付网关返回的订单。金额单位是最小货币单位（paise）。
type PaymentOrder struct {
	ID       string
	Amount   int64
	Currency string
}

// PaymentGateway 封装支付网关的两个窄契约：下单与验签。
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (*PaymentOrder, error)
	// VerifySignature 校验回调签名 HMAC_SHA256(order_id + "|" + payment_id)。
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}
