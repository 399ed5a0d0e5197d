package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicRenewed       = "subscription.renewed"
	TopicPaymentFailed = "subscription.payment_failed"
)

// RenewedEvent 续订成功
type RenewedEvent struct {
	SubscriptionID uint            `json:"subscription_id"`
	UserID         uint            `json:"user_id"`
	OrderNo        string          `json:"order_no"`
	Total          decimal.Decimal `json:"total"`
	NextBillingAt  time.Time       `json:"next_billing_at"`
	Timestamp      time.Time       `json:"timestamp"`
}

// PaymentFailedEvent 续订扣款失败
type PaymentFailedEvent struct {
	SubscriptionID uint      `json:"subscription_id"`
	UserID         uint      `json:"user_id"`
	Attempts       int       `json:"attempts"`
	Paused         bool      `json:"paused"`
	Reason         string    `json:"reason"`
	Timestamp      time.Time `json:"timestamp"`
}
