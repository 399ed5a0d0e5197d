package domain

import (
	"strconv"
	"time"

	pricing "github.com/wyfcoding/aromastore/internal/pricing/domain"
)

// CheckoutStatus 结算会话状态
type CheckoutStatus string

// 卡被拒不改变状态，会话仍为 PENDING，可换卡重试；FAILED 只表示已退款补偿
const (
	CheckoutPending   CheckoutStatus = "PENDING"
	CheckoutCompleted CheckoutStatus = "COMPLETED"
	CheckoutFailed    CheckoutStatus = "FAILED"
)

// CheckoutSession 一次支付意图对应的结算快照，确认支付时据此生成订单。
// 同一购物车指纹的多次结算以 Attempt 区分，已结束的会话不会复用支付意图。
type CheckoutSession struct {
	ID              uint           `gorm:"primaryKey"`
	PaymentIntentID string         `gorm:"column:payment_intent_id;type:varchar(64);uniqueIndex;not null"`
	UserID          uint           `gorm:"column:user_id;index;not null"`
	IdempotencyKey  string         `gorm:"column:idempotency_key;type:varchar(64);index;not null"`
	Attempt         int            `gorm:"column:attempt;not null;default:1"`
	Quote           pricing.Quote  `gorm:"column:quote;type:json;serializer:json"`
	CouponCode      string         `gorm:"column:coupon_code;type:varchar(32)"`
	Categories      []string       `gorm:"column:categories;type:json;serializer:json"`
	FirstOrder      bool           `gorm:"column:first_order;not null"`
	RedeemPoints    int            `gorm:"column:redeem_points;not null;default:0"`
	ShippingAddress Address        `gorm:"column:shipping_address;type:json;serializer:json"`
	Status          CheckoutStatus `gorm:"column:status;type:varchar(16);index;not null"`
	FailureReason   string         `gorm:"column:failure_reason;type:varchar(255)"`
	LastFailure     string         `gorm:"column:last_failure;type:varchar(255)"`
	OrderID         *uint          `gorm:"column:order_id"`
	CreatedAt       time.Time      `gorm:"column:created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at"`
}

func (CheckoutSession) TableName() string { return "checkout_sessions" }

// Open 会话仍可支付
func (s *CheckoutSession) Open() bool { return s.Status == CheckoutPending }

// GatewayKey 本次尝试提交给支付网关的幂等键
func (s *CheckoutSession) GatewayKey() string { return AttemptKey(s.IdempotencyKey, s.Attempt) }

// AttemptKey 购物车指纹加尝试序号
func AttemptKey(fingerprint string, attempt int) string {
	return fingerprint + "-" + strconv.Itoa(attempt)
}
