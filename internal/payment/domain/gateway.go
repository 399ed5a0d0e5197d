// Package domain 支付网关抽象：支付意图、退款、离线扣款与 webhook 事件
package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/aromastore/pkg/apperr"
)

// IntentStatus 支付意图状态，取值与托管支付服务一致
type IntentStatus string

const (
	StatusRequiresPaymentMethod IntentStatus = "requires_payment_method"
	StatusRequiresConfirmation  IntentStatus = "requires_confirmation"
	StatusRequiresAction        IntentStatus = "requires_action"
	StatusProcessing            IntentStatus = "processing"
	StatusSucceeded             IntentStatus = "succeeded"
	StatusCanceled              IntentStatus = "canceled"
)

// Webhook 事件类型
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

var (
	ErrIntentNotFound     = apperr.NotFound("payment_intent_not_found", "payment intent not found")
	ErrPaymentDeclined    = apperr.BadRequest("payment_declined", "payment was declined")
	ErrPaymentIncomplete  = apperr.BadRequest("payment_incomplete", "payment has not succeeded")
	ErrInvalidSignature   = apperr.BadRequest("invalid_signature", "invalid webhook signature")
	ErrGatewayUnavailable = &apperr.Error{Kind: apperr.KindInternal, Code: "payment_unavailable", Message: "payment provider unavailable"}
)

// Intent 支付意图
type Intent struct {
	ID              string            `json:"id"`
	ClientSecret    string            `json:"client_secret,omitempty"`
	AmountMinor     int64             `json:"amount"`
	Currency        string            `json:"currency"`
	Status          IntentStatus      `json:"status"`
	CustomerID      string            `json:"customer,omitempty"`
	PaymentMethodID string            `json:"payment_method,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// Succeeded 是否已成功扣款
func (i *Intent) Succeeded() bool { return i.Status == StatusSucceeded }

// Amount 以元为单位的金额
func (i *Intent) Amount() decimal.Decimal { return FromMinor(i.AmountMinor) }

// CreateIntentRequest 创建支付意图
type CreateIntentRequest struct {
	Amount         decimal.Decimal
	Currency       string
	CustomerID     string
	IdempotencyKey string
	Metadata       map[string]string
}

// ChargeRequest 使用已保存的支付方式离线扣款
type ChargeRequest struct {
	Amount          decimal.Decimal
	Currency        string
	CustomerID      string
	PaymentMethodID string
	IdempotencyKey  string
	Metadata        map[string]string
}

// Refund 退款结果
type Refund struct {
	ID          string `json:"id"`
	IntentID    string `json:"payment_intent"`
	AmountMinor int64  `json:"amount"`
	Status      string `json:"status"`
}

// Gateway 托管支付服务
type Gateway interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	// Refund 全额退款
	Refund(ctx context.Context, intentID, idempotencyKey string) (*Refund, error)
	ChargeOffSession(ctx context.Context, req ChargeRequest) (*Intent, error)
}

// WebhookEvent 已验签的 webhook 事件
type WebhookEvent struct {
	ID          string
	Type        string
	IntentID    string
	Status      IntentStatus
	AmountMinor int64
	Metadata    map[string]string
	// FailureMessage 扣款失败原因
	FailureMessage string
}

var hundred = decimal.NewFromInt(100)

// ToMinor 元转为分
func ToMinor(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// FromMinor 分转为元
func FromMinor(v int64) decimal.Decimal {
	return decimal.New(v, -2)
}
