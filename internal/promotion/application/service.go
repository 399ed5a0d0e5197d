package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/aromastore/internal/promotion/domain"
	"github.com/wyfcoding/aromastore/pkg/db"
	"github.com/wyfcoding/aromastore/pkg/logger"
)

// CouponInput 创建或更新优惠券的参数
type CouponInput struct {
	Code        string            `json:"code" binding:"required,max=32"`
	Description string            `json:"description"`
	Type        domain.CouponType `json:"type" binding:"required,oneof=PERCENT FIXED FREE_SHIPPING"`
	Value       decimal.Decimal   `json:"value"`
	MinSubtotal decimal.Decimal   `json:"min_subtotal"`
	StartsAt    *time.Time        `json:"starts_at"`
	EndsAt      *time.Time        `json:"ends_at"`
	UsageLimit  int               `json:"usage_limit" binding:"min=0"`
	Condition   string            `json:"condition"`
	Active      *bool             `json:"active"`
}

func (in CouponInput) applyTo(c *domain.Coupon) {
	c.Code = domain.NormalizeCode(in.Code)
	c.Description = in.Description
	c.Type = in.Type
	c.Value = in.Value
	c.MinSubtotal = in.MinSubtotal
	c.StartsAt = in.StartsAt
	c.EndsAt = in.EndsAt
	c.UsageLimit = in.UsageLimit
	c.Condition = in.Condition
	c.Active = in.Active == nil || *in.Active
}

// PromotionApplicationService 优惠券应用服务
type PromotionApplicationService struct {
	repo domain.CouponRepository
	now  func() time.Time
}

// NewPromotionApplicationService 创建优惠券应用服务
func NewPromotionApplicationService(repo domain.CouponRepository) *PromotionApplicationService {
	return &PromotionApplicationService{repo: repo, now: time.Now}
}

// Evaluate 校验券码并计算优惠，不占用次数
func (s *PromotionApplicationService) Evaluate(ctx context.Context, code string, cctx domain.CouponContext) (*domain.Discount, *domain.Coupon, error) {
	if cctx.Now.IsZero() {
		cctx.Now = s.now()
	}
	c, err := s.repo.GetByCode(ctx, domain.NormalizeCode(code))
	if err != nil {
		return nil, nil, err
	}
	if err := c.CheckWindow(cctx.Now); err != nil {
		return nil, nil, err
	}
	if cctx.Subtotal.LessThan(c.MinSubtotal) {
		return nil, nil, domain.ErrBelowMinimum.WithMessage("order subtotal must be at least %s", c.MinSubtotal.StringFixed(2))
	}
	ok, err := domain.EvalCondition(ctx, c.Condition, cctx)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, domain.ErrConditionNotMet
	}
	discount := c.Apply(cctx.Subtotal)
	return &discount, c, nil
}

// Redeem 评估并占用一次使用次数，需在下单事务内调用
func (s *PromotionApplicationService) Redeem(ctx context.Context, code string, cctx domain.CouponContext) (*domain.Discount, error) {
	discount, c, err := s.Evaluate(ctx, code, cctx)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.IncrementUsage(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrCouponExhausted
	}
	logger.Info(ctx, "coupon redeemed", "code", c.Code, "amount", discount.Amount.String())
	return discount, nil
}

// Release 归还一次使用次数（订单取消）
func (s *PromotionApplicationService) Release(ctx context.Context, code string) error {
	if code == "" {
		return nil
	}
	return s.repo.DecrementUsage(ctx, domain.NormalizeCode(code))
}

// CreateCoupon 创建优惠券
func (s *PromotionApplicationService) CreateCoupon(ctx context.Context, in CouponInput) (*domain.Coupon, error) {
	c := &domain.Coupon{}
	in.applyTo(c)
	if err := s.validate(c); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	logger.Info(ctx, "coupon created", "code", c.Code, "type", c.Type)
	return c, nil
}

// UpdateCoupon 更新优惠券，已用次数保持不变
func (s *PromotionApplicationService) UpdateCoupon(ctx context.Context, id uint, in CouponInput) (*domain.Coupon, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.applyTo(c)
	if err := s.validate(c); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCoupon 删除优惠券
func (s *PromotionApplicationService) DeleteCoupon(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

// GetCoupon 查询优惠券
func (s *PromotionApplicationService) GetCoupon(ctx context.Context, id uint) (*domain.Coupon, error) {
	return s.repo.GetByID(ctx, id)
}

// ListCoupons 优惠券分页
func (s *PromotionApplicationService) ListCoupons(ctx context.Context, page, size int) ([]*domain.Coupon, int64, error) {
	offset, limit := db.Paginate(page, size, 100)
	return s.repo.List(ctx, offset, limit)
}

func (s *PromotionApplicationService) validate(c *domain.Coupon) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return domain.CompileCondition(c.Condition)
}
