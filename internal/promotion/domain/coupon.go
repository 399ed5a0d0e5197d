package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/aromastore/pkg/apperr"
)

// CouponType 优惠类型
type CouponType string

const (
	TypePercent      CouponType = "PERCENT"
	TypeFixed        CouponType = "FIXED"
	TypeFreeShipping CouponType = "FREE_SHIPPING"
)

// Valid 是否受支持的类型
func (t CouponType) Valid() bool {
	return t == TypePercent || t == TypeFixed || t == TypeFreeShipping
}

var (
	ErrCouponNotFound   = apperr.NotFound("coupon_not_found", "coupon not found")
	ErrCouponInactive   = apperr.BadRequest("coupon_inactive", "coupon is not active")
	ErrCouponExpired    = apperr.BadRequest("coupon_expired", "coupon has expired")
	ErrCouponNotStarted = apperr.BadRequest("coupon_not_started", "coupon is not valid yet")
	ErrCouponExhausted  = apperr.BadRequest("coupon_exhausted", "coupon usage limit reached")
	ErrBelowMinimum     = apperr.BadRequest("coupon_below_minimum", "order subtotal is below the coupon minimum")
	ErrConditionNotMet  = apperr.BadRequest("coupon_condition_not_met", "order does not meet the coupon conditions")
	ErrCodeTaken        = apperr.Conflict("coupon_code_taken", "coupon code already exists")
	ErrInvalidCoupon    = apperr.BadRequest("invalid_coupon", "invalid coupon definition")
)

// Coupon 优惠券
type Coupon struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Code        string          `gorm:"column:code;type:varchar(32);uniqueIndex;not null" json:"code"`
	Description string          `gorm:"column:description;type:varchar(255)" json:"description"`
	Type        CouponType      `gorm:"column:type;type:varchar(16);not null" json:"type"`
	Value       decimal.Decimal `gorm:"column:value;type:decimal(12,2);not null" json:"value"`
	MinSubtotal decimal.Decimal `gorm:"column:min_subtotal;type:decimal(12,2);not null;default:0" json:"min_subtotal"`
	StartsAt    *time.Time      `gorm:"column:starts_at" json:"starts_at,omitempty"`
	EndsAt      *time.Time      `gorm:"column:ends_at" json:"ends_at,omitempty"`
	// UsageLimit 为 0 表示不限次数
	UsageLimit int `gorm:"column:usage_limit;not null;default:0" json:"usage_limit"`
	UsedCount  int `gorm:"column:used_count;not null;default:0" json:"used_count"`
	// Condition 可选的 expr 表达式，见 ConditionEnv
	Condition string    `gorm:"column:condition_expr;type:text" json:"condition,omitempty"`
	Active    bool      `gorm:"column:active;not null" json:"active"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Coupon) TableName() string { return "coupons" }

// NormalizeCode 券码统一为大写并去除空白
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CouponContext 评估优惠券时的订单上下文
type CouponContext struct {
	UserID     uint
	Subtotal   decimal.Decimal
	ItemCount  int
	Categories []string
	FirstOrder bool
	Now        time.Time
}

// Discount 评估结果
type Discount struct {
	Code         string          `json:"code"`
	Type         CouponType      `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	FreeShipping bool            `json:"free_shipping"`
}

// CheckWindow 校验启用状态、有效期与次数
func (c *Coupon) CheckWindow(now time.Time) error {
	if !c.Active {
		return ErrCouponInactive
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return ErrCouponNotStarted
	}
	if c.EndsAt != nil && !now.Before(*c.EndsAt) {
		return ErrCouponExpired
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return ErrCouponExhausted
	}
	return nil
}

// Apply 计算优惠金额，不超过小计
func (c *Coupon) Apply(subtotal decimal.Decimal) Discount {
	d := Discount{Code: c.Code, Type: c.Type, Amount: decimal.Zero}
	switch c.Type {
	case TypePercent:
		d.Amount = subtotal.Mul(c.Value).Div(decimal.NewFromInt(100)).Round(2)
	case TypeFixed:
		d.Amount = c.Value
	case TypeFreeShipping:
		d.FreeShipping = true
	}
	if d.Amount.GreaterThan(subtotal) {
		d.Amount = subtotal
	}
	return d
}

// Validate 校验优惠券定义本身
func (c *Coupon) Validate() error {
	if c.Code == "" || len(c.Code) > 32 {
		return ErrInvalidCoupon.WithMessage("coupon code must be 1-32 characters")
	}
	if !c.Type.Valid() {
		return ErrInvalidCoupon.WithMessage("unsupported coupon type %q", c.Type)
	}
	if c.Value.IsNegative() || c.MinSubtotal.IsNegative() {
		return ErrInvalidCoupon.WithMessage("coupon amounts must not be negative")
	}
	if c.Type == TypePercent && (c.Value.LessThanOrEqual(decimal.Zero) || c.Value.GreaterThan(decimal.NewFromInt(100))) {
		return ErrInvalidCoupon.WithMessage("percent value must be in (0, 100]")
	}
	if c.Type == TypeFixed && !c.Value.IsPositive() {
		return ErrInvalidCoupon.WithMessage("fixed value must be positive")
	}
	if c.StartsAt != nil && c.EndsAt != nil && !c.EndsAt.After(*c.StartsAt) {
		return ErrInvalidCoupon.WithMessage("ends_at must be after starts_at")
	}
	if c.UsageLimit < 0 {
		return ErrInvalidCoupon.WithMessage("usage_limit must not be negative")
	}
	return nil
}

// CouponRepository 优惠券仓储
type CouponRepository interface {
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	GetByID(ctx context.Context, id uint) (*Coupon, error)
	List(ctx context.Context, offset, limit int) ([]*Coupon, int64, error)
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, id uint) error
	// IncrementUsage 在未达上限时使用次数加一，返回是否成功
	IncrementUsage(ctx context.Context, id uint) (bool, error)
	DecrementUsage(ctx context.Context, code string) error
}
