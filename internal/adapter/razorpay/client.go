// Package razorpay 封装 Razorpay 的下单与回调验签。
// 未配置密钥时进入 dummy 模式：下单返回假订单、验签恒通过，
// 仅用于本地联调，生产环境必须配置密钥。
package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/launchdeck-platform/market-engine/internal/port"
)

var _ port.PaymentGateway = (*Client)(nil)

const defaultBaseURL = "https://api.razorpay.com"

type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

func NewClient(keyID, keySecret string) *Client {
	return &Client{
		baseURL:   defaultBaseURL,
		keyID:     keyID,
		keySecret: keySecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) KeyID() string {
	if c.keyID == "" {
		return "dummy_key"
	}
	return c.keyID
}

func (c *Client) dummy() bool { return c.keyID == "" }

type orderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (c *Client) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (*port.PaymentOrder, error) {
	if c.dummy() {
		return &port.PaymentOrder{
			ID:       "order_dummy_" + receipt,
			Amount:   amountPaise,
			Currency: currency,
		}, nil
	}

	b, err := json.Marshal(orderRequest{Amount: amountPaise, Currency: currency, Receipt: receipt})
	if err != nil {
		return nil, fmt.Errorf("razorpay: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("razorpay: build request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("razorpay: create order: unexpected status %d", resp.StatusCode)
	}

	var result orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("razorpay: decode response: %w", err)
	}

	return &port.PaymentOrder{ID: result.ID, Amount: result.Amount, Currency: result.Currency}, nil
}

// VerifySignature 按 Razorpay 约定校验回调签名：
// HMAC_SHA256(order_id + "|" + payment_id, key_secret) 的十六进制串。
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	if c.dummy() {
		return true
	}
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
