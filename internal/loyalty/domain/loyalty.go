package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/aromastore/pkg/apperr"
)

// Tier 会员等级，按累计积分划分
type Tier string

const (
	TierBronze Tier = "BRONZE"
	TierSilver Tier = "SILVER"
	TierGold   Tier = "GOLD"
)

const (
	silverThreshold = 500
	goldThreshold   = 2000
)

// Reason 积分变动原因
type Reason string

const (
	ReasonEarn     Reason = "EARN"
	ReasonRedeem   Reason = "REDEEM"
	ReasonReversal Reason = "REVERSAL"
	ReasonAdjust   Reason = "ADJUST"
)

var (
	ErrInsufficientPoints = apperr.BadRequest("insufficient_points", "not enough loyalty points")
	ErrBelowMinimumRedeem = apperr.BadRequest("below_minimum_redeem", "points below the minimum redemption")
	ErrInvalidPoints      = apperr.BadRequest("invalid_points", "points must be non-zero")
)

// TierFor 根据累计积分计算等级
func TierFor(lifetime int) Tier {
	switch {
	case lifetime >= goldThreshold:
		return TierGold
	case lifetime >= silverThreshold:
		return TierSilver
	default:
		return TierBronze
	}
}

// Multiplier 等级积分倍率
func (t Tier) Multiplier() decimal.Decimal {
	switch t {
	case TierGold:
		return decimal.RequireFromString("1.5")
	case TierSilver:
		return decimal.RequireFromString("1.25")
	default:
		return decimal.NewFromInt(1)
	}
}

// Next 下一等级及其门槛；已是最高等级时返回空
func (t Tier) Next() (Tier, int) {
	switch t {
	case TierBronze:
		return TierSilver, silverThreshold
	case TierSilver:
		return TierGold, goldThreshold
	default:
		return "", 0
	}
}

// Account 积分账户
type Account struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    uint      `gorm:"column:user_id;uniqueIndex;not null" json:"user_id"`
	Balance   int       `gorm:"column:balance;not null;default:0" json:"balance"`
	Lifetime  int       `gorm:"column:lifetime;not null;default:0" json:"lifetime"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Account) TableName() string { return "loyalty_accounts" }

// Tier 当前等级
func (a *Account) Tier() Tier { return TierFor(a.Lifetime) }

// PointLog 积分流水
type PointLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"column:user_id;index;not null" json:"user_id"`
	Delta        int       `gorm:"column:delta;not null" json:"delta"`
	Reason       Reason    `gorm:"column:reason;type:varchar(16);not null" json:"reason"`
	OrderID      *uint     `gorm:"column:order_id;index" json:"order_id,omitempty"`
	BalanceAfter int       `gorm:"column:balance_after;not null" json:"balance_after"`
	Note         string    `gorm:"column:note;type:varchar(255)" json:"note,omitempty"`
	ActorID      uint      `gorm:"column:actor_id" json:"actor_id,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at;index" json:"created_at"`
}

func (PointLog) TableName() string { return "loyalty_point_logs" }

// Rules 积分规则
type Rules struct {
	// PointsPerUnit 每消费 1 元获得的基础积分
	PointsPerUnit decimal.Decimal
	// PointsPerCurrencyUnit 兑换 1 元所需积分
	PointsPerCurrencyUnit int
	MinRedeem             int
}

// EarnedPoints floor(金额 × 基础积分 × 等级倍率)
func (r Rules) EarnedPoints(amount decimal.Decimal, tier Tier) int {
	if !amount.IsPositive() {
		return 0
	}
	return int(amount.Mul(r.PointsPerUnit).Mul(tier.Multiplier()).Floor().IntPart())
}

// Value 积分可抵扣的金额
func (r Rules) Value(points int) decimal.Decimal {
	return decimal.NewFromInt(int64(points)).Div(decimal.NewFromInt(int64(r.PointsPerCurrencyUnit))).Round(2)
}

// PointsFor 抵扣 amount 最多需要的积分
func (r Rules) PointsFor(amount decimal.Decimal) int {
	return int(amount.Mul(decimal.NewFromInt(int64(r.PointsPerCurrencyUnit))).Floor().IntPart())
}

// AccountRepository 积分仓储
type AccountRepository interface {
	// Find 查询账户，不存在时返回 nil
	Find(ctx context.Context, userID uint) (*Account, error)
	GetOrCreate(ctx context.Context, userID uint) (*Account, error)
	// AddPoints 余额不为负时变更余额与累计积分，返回变更后的余额
	AddPoints(ctx context.Context, userID uint, delta, lifetimeDelta int) (int, error)
	CreateLog(ctx context.Context, log *PointLog) error
	ListLogs(ctx context.Context, userID uint, offset, limit int) ([]*PointLog, int64, error)
	LogsForOrder(ctx context.Context, orderID uint) ([]*PointLog, error)
}
