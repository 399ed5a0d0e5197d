// Package domain 定期配送订阅
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	orderdomain "github.com/wyfcoding/aromastore/internal/order/domain"
	"github.com/wyfcoding/aromastore/pkg/apperr"
)

// MaxFailedAttempts 连续扣款失败达到该次数后自动暂停
const MaxFailedAttempts = 3

// RetryDelay 扣款失败后的重试间隔
const RetryDelay = 24 * time.Hour

// Interval 配送周期
type Interval string

const (
	IntervalMonthly   Interval = "MONTHLY"
	IntervalBimonthly Interval = "BIMONTHLY"
	IntervalQuarterly Interval = "QUARTERLY"
)

// Months 周期月数，未知周期返回 0
func (i Interval) Months() int {
	switch i {
	case IntervalMonthly:
		return 1
	case IntervalBimonthly:
		return 2
	case IntervalQuarterly:
		return 3
	}
	return 0
}

// Next 下一个周期的时间点
func (i Interval) Next(t time.Time) time.Time {
	return t.AddDate(0, i.Months(), 0)
}

// Status 订阅状态
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusPaused    Status = "PAUSED"
	StatusCancelled Status = "CANCELLED"
)

var (
	ErrSubscriptionNotFound = apperr.NotFound("subscription_not_found", "subscription not found")
	ErrInvalidInterval      = apperr.BadRequest("invalid_interval", "interval must be MONTHLY, BIMONTHLY or QUARTERLY")
	ErrInvalidState         = apperr.Conflict("invalid_subscription_state", "subscription cannot change from its current status")
)

// Subscription 订阅
type Subscription struct {
	ID              uint                `gorm:"primaryKey" json:"id"`
	UserID          uint                `gorm:"column:user_id;index;not null" json:"user_id"`
	VariantID       uint                `gorm:"column:variant_id;not null" json:"variant_id"`
	Quantity        int                 `gorm:"column:quantity;not null" json:"quantity"`
	Interval        Interval            `gorm:"column:interval_unit;type:varchar(16);not null" json:"interval"`
	Status          Status              `gorm:"column:status;type:varchar(16);not null;index:idx_sub_due,priority:1" json:"status"`
	NextBillingAt   time.Time           `gorm:"column:next_billing_at;not null;index:idx_sub_due,priority:2" json:"next_billing_at"`
	PaymentMethodID string              `gorm:"column:payment_method_id;type:varchar(64);not null" json:"-"`
	CustomerID      string              `gorm:"column:customer_id;type:varchar(64)" json:"-"`
	FailedAttempts  int                 `gorm:"column:failed_attempts;not null;default:0" json:"failed_attempts"`
	DiscountPercent decimal.Decimal     `gorm:"column:discount_percent;type:decimal(5,2);not null" json:"discount_percent"`
	ShippingAddress orderdomain.Address `gorm:"column:shipping_address;type:json;serializer:json" json:"shipping_address"`
	LastOrderID     *uint               `gorm:"column:last_order_id" json:"last_order_id,omitempty"`
	LastRenewedAt   *time.Time          `gorm:"column:last_renewed_at" json:"last_renewed_at,omitempty"`
	CreatedAt       time.Time           `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"column:updated_at" json:"updated_at"`
}

func (Subscription) TableName() string { return "subscriptions" }

// Pause 暂停
func (s *Subscription) Pause() error {
	if s.Status != StatusActive {
		return ErrInvalidState.WithMessage("only active subscriptions can be paused")
	}
	s.Status = StatusPaused
	return nil
}

// Resume 恢复；下次扣款时间已过期时顺延一个周期
func (s *Subscription) Resume(now time.Time) error {
	if s.Status != StatusPaused {
		return ErrInvalidState.WithMessage("only paused subscriptions can be resumed")
	}
	s.Status = StatusActive
	s.FailedAttempts = 0
	if s.NextBillingAt.Before(now) {
		s.NextBillingAt = s.Interval.Next(now)
	}
	return nil
}

// Cancel 取消，不可恢复
func (s *Subscription) Cancel() error {
	if s.Status == StatusCancelled {
		return ErrInvalidState.WithMessage("subscription is already cancelled")
	}
	s.Status = StatusCancelled
	return nil
}

// Skip 跳过下一次配送
func (s *Subscription) Skip() error {
	if s.Status != StatusActive {
		return ErrInvalidState.WithMessage("only active subscriptions can skip a delivery")
	}
	s.NextBillingAt = s.Interval.Next(s.NextBillingAt)
	return nil
}

// Renewed 续订成功：清零失败次数并推进到晚于 now 的下一个周期
func (s *Subscription) Renewed(orderID uint, now time.Time) {
	next := s.Interval.Next(s.NextBillingAt)
	if !next.After(now) {
		next = s.Interval.Next(now)
	}
	s.NextBillingAt = next
	s.FailedAttempts = 0
	s.LastOrderID = &orderID
	s.LastRenewedAt = &now
}

// Failed 记录一次扣款失败，返回是否因此暂停
func (s *Subscription) Failed(now time.Time) bool {
	s.FailedAttempts++
	if s.FailedAttempts >= MaxFailedAttempts {
		s.Status = StatusPaused
		return true
	}
	s.NextBillingAt = now.Add(RetryDelay)
	return false
}

// SubscriptionRepository 订阅仓储
type SubscriptionRepository interface {
	Create(ctx context.Context, s *Subscription) error
	GetByID(ctx context.Context, id uint) (*Subscription, error)
	ListByUser(ctx context.Context, userID uint) ([]*Subscription, error)
	Save(ctx context.Context, s *Subscription) error
	// ListDue 到期待续订的活跃订阅，按到期时间升序
	ListDue(ctx context.Context, now time.Time, limit int) ([]*Subscription, error)
}

// EventPublisher 事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}
