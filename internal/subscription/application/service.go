package application

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	catalogdomain "github.com/wyfcoding/aromastore/internal/catalog/domain"
	orderapp "github.com/wyfcoding/aromastore/internal/order/application"
	orderdomain "github.com/wyfcoding/aromastore/internal/order/domain"
	paydomain "github.com/wyfcoding/aromastore/internal/payment/domain"
	pricing "github.com/wyfcoding/aromastore/internal/pricing/domain"
	"github.com/wyfcoding/aromastore/internal/subscription/domain"
	"github.com/wyfcoding/aromastore/pkg/apperr"
	"github.com/wyfcoding/aromastore/pkg/logger"
	"github.com/wyfcoding/aromastore/pkg/metrics"
)

// dueBatch 每次任务处理的订阅上限
const dueBatch = 100

// Orders 续订报价与下单
type Orders interface {
	QuoteSubscription(ctx context.Context, cmd orderapp.SubscriptionOrderCommand) (*pricing.Quote, error)
	PlaceSubscriptionOrder(ctx context.Context, cmd orderapp.SubscriptionOrderCommand, intentID string, quote *pricing.Quote) (*orderdomain.Order, error)
}

// Variants 创建订阅时校验规格
type Variants interface {
	GetVariant(ctx context.Context, id uint) (*catalogdomain.ProductVariant, error)
}

// Transactor 事务执行器
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CreateCommand 创建订阅
type CreateCommand struct {
	UserID          uint                `json:"-"`
	VariantID       uint                `json:"variant_id" binding:"required"`
	Quantity        int                 `json:"quantity" binding:"required,min=1,max=10"`
	Interval        domain.Interval     `json:"interval" binding:"required"`
	PaymentMethodID string              `json:"payment_method_id" binding:"required,max=64"`
	CustomerID      string              `json:"customer_id" binding:"max=64"`
	ShippingAddress orderdomain.Address `json:"shipping_address" binding:"required"`
	// StartAt 首次扣款时间，缺省为立即
	StartAt *time.Time `json:"start_at"`
}

// RenewalReport 一次续订任务的结果
type RenewalReport struct {
	Processed int `json:"processed"`
	Renewed   int `json:"renewed"`
	Failed    int `json:"failed"`
	Deferred  int `json:"deferred"`
}

// SubscriptionApplicationService 订阅应用服务
type SubscriptionApplicationService struct {
	repo      domain.SubscriptionRepository
	variants  Variants
	orders    Orders
	gateway   paydomain.Gateway
	tx        Transactor
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
	discount  decimal.Decimal
	currency  string
	now       func() time.Time
}

// NewSubscriptionApplicationService 创建订阅应用服务；discountPercent 为订阅折扣百分比
func NewSubscriptionApplicationService(
	repo domain.SubscriptionRepository,
	variants Variants,
	orders Orders,
	gateway paydomain.Gateway,
	tx Transactor,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	discountPercent decimal.Decimal,
	currency string,
) *SubscriptionApplicationService {
	return &SubscriptionApplicationService{
		repo:      repo,
		variants:  variants,
		orders:    orders,
		gateway:   gateway,
		tx:        tx,
		publisher: publisher,
		metrics:   m,
		discount:  discountPercent,
		currency:  currency,
		now:       time.Now,
	}
}

// Create 创建订阅
func (s *SubscriptionApplicationService) Create(ctx context.Context, cmd CreateCommand) (*domain.Subscription, error) {
	if cmd.Interval.Months() == 0 {
		return nil, domain.ErrInvalidInterval
	}
	if cmd.ShippingAddress.Empty() {
		return nil, orderdomain.ErrAddressRequired
	}
	v, err := s.variants.GetVariant(ctx, cmd.VariantID)
	if err != nil {
		return nil, err
	}
	if !v.IsActive {
		return nil, orderdomain.ErrItemUnavailable
	}

	start := s.now()
	if cmd.StartAt != nil && cmd.StartAt.After(start) {
		start = *cmd.StartAt
	}
	sub := &domain.Subscription{
		UserID:          cmd.UserID,
		VariantID:       cmd.VariantID,
		Quantity:        cmd.Quantity,
		Interval:        cmd.Interval,
		Status:          domain.StatusActive,
		NextBillingAt:   start,
		PaymentMethodID: cmd.PaymentMethodID,
		CustomerID:      cmd.CustomerID,
		DiscountPercent: s.discount,
		ShippingAddress: cmd.ShippingAddress,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}
	logger.Info(ctx, "subscription created", "subscription_id", sub.ID, "user_id", sub.UserID, "interval", sub.Interval)
	return sub, nil
}

// owned 读取订阅并校验归属
func (s *SubscriptionApplicationService) owned(ctx context.Context, userID, id uint) (*domain.Subscription, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, domain.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (s *SubscriptionApplicationService) mutate(ctx context.Context, userID, id uint, action string, fn func(*domain.Subscription) error) (*domain.Subscription, error) {
	sub, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sub); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, sub); err != nil {
		return nil, err
	}
	logger.Info(ctx, "subscription "+action, "subscription_id", sub.ID, "status", sub.Status, "next_billing_at", sub.NextBillingAt)
	return sub, nil
}

// Get 订阅详情
func (s *SubscriptionApplicationService) Get(ctx context.Context, userID, id uint) (*domain.Subscription, error) {
	return s.owned(ctx, userID, id)
}

// ListMine 当前用户的订阅
func (s *SubscriptionApplicationService) ListMine(ctx context.Context, userID uint) ([]*domain.Subscription, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Pause 暂停
func (s *SubscriptionApplicationService) Pause(ctx context.Context, userID, id uint) (*domain.Subscription, error) {
	return s.mutate(ctx, userID, id, "paused", (*domain.Subscription).Pause)
}

// Resume 恢复
func (s *SubscriptionApplicationService) Resume(ctx context.Context, userID, id uint) (*domain.Subscription, error) {
	now := s.now()
	return s.mutate(ctx, userID, id, "resumed", func(sub *domain.Subscription) error { return sub.Resume(now) })
}

// Cancel 取消
func (s *SubscriptionApplicationService) Cancel(ctx context.Context, userID, id uint) (*domain.Subscription, error) {
	return s.mutate(ctx, userID, id, "cancelled", (*domain.Subscription).Cancel)
}

// Skip 跳过下一次配送
func (s *SubscriptionApplicationService) Skip(ctx context.Context, userID, id uint) (*domain.Subscription, error) {
	return s.mutate(ctx, userID, id, "skipped", (*domain.Subscription).Skip)
}

// UpdatePaymentMethod 更换扣款方式，并清零失败次数
func (s *SubscriptionApplicationService) UpdatePaymentMethod(ctx context.Context, userID, id uint, paymentMethodID string) (*domain.Subscription, error) {
	return s.mutate(ctx, userID, id, "payment method updated", func(sub *domain.Subscription) error {
		if sub.Status == domain.StatusCancelled {
			return domain.ErrInvalidState.WithMessage("subscription is cancelled")
		}
		sub.PaymentMethodID = paymentMethodID
		sub.FailedAttempts = 0
		return nil
	})
}

// RenewDue 处理所有到期订阅：离线扣款、下单、推进下次扣款时间
func (s *SubscriptionApplicationService) RenewDue(ctx context.Context, now time.Time) (*RenewalReport, error) {
	defer logger.LogDuration(ctx, "subscription renewal run finished")()

	subs, err := s.repo.ListDue(ctx, now, dueBatch)
	if err != nil {
		return nil, err
	}
	report := &RenewalReport{}
	for _, sub := range subs {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Processed++
		switch result := s.renew(ctx, sub, now); result {
		case "success":
			report.Renewed++
		case "failed":
			report.Failed++
		default:
			report.Deferred++
		}
	}
	return report, nil
}

// renew 续订单个订阅。返回 success、failed 或 deferred（系统错误，下次任务重试）
func (s *SubscriptionApplicationService) renew(ctx context.Context, sub *domain.Subscription, now time.Time) string {
	cmd := orderapp.SubscriptionOrderCommand{
		UserID:          sub.UserID,
		SubscriptionID:  sub.ID,
		VariantID:       sub.VariantID,
		Quantity:        sub.Quantity,
		DiscountPercent: sub.DiscountPercent,
		ShippingAddress: sub.ShippingAddress,
	}

	quote, err := s.orders.QuoteSubscription(ctx, cmd)
	if err != nil {
		return s.handleFailure(ctx, sub, now, err)
	}

	intent, err := s.gateway.ChargeOffSession(ctx, paydomain.ChargeRequest{
		Amount:          quote.Total,
		Currency:        s.currency,
		CustomerID:      sub.CustomerID,
		PaymentMethodID: sub.PaymentMethodID,
		IdempotencyKey:  fmt.Sprintf("sub-%d-%d", sub.ID, sub.NextBillingAt.Unix()),
		Metadata: map[string]string{
			"source":          "subscription",
			"subscription_id": strconv.FormatUint(uint64(sub.ID), 10),
		},
	})
	if err != nil {
		return s.handleFailure(ctx, sub, now, err)
	}

	order, err := s.orders.PlaceSubscriptionOrder(ctx, cmd, intent.ID, quote)
	if err != nil {
		return s.handleFailure(ctx, sub, now, err)
	}

	sub.Renewed(order.ID, now)
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Save(ctx, sub); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, domain.TopicRenewed, subKey(sub.ID), domain.RenewedEvent{
			SubscriptionID: sub.ID,
			UserID:         sub.UserID,
			OrderNo:        order.OrderNo,
			Total:          order.Total,
			NextBillingAt:  sub.NextBillingAt,
			Timestamp:      now.UTC(),
		})
	})
	if err != nil {
		// 订单已落地，下次任务会通过幂等键拿到同一订单
		logger.Error(ctx, "failed to advance renewed subscription", "subscription_id", sub.ID, "order_no", order.OrderNo, "error", err)
		return "deferred"
	}
	s.metrics.RecordRenewal("success")
	logger.Info(ctx, "subscription renewed", "subscription_id", sub.ID, "order_no", order.OrderNo, "next_billing_at", sub.NextBillingAt)
	return "success"
}

func (s *SubscriptionApplicationService) handleFailure(ctx context.Context, sub *domain.Subscription, now time.Time, cause error) string {
	if apperr.KindOf(cause) == apperr.KindInternal {
		logger.Warn(ctx, "subscription renewal deferred", "subscription_id", sub.ID, "error", cause)
		s.metrics.RecordRenewal("deferred")
		return "deferred"
	}

	paused := sub.Failed(now)
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Save(ctx, sub); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, domain.TopicPaymentFailed, subKey(sub.ID), domain.PaymentFailedEvent{
			SubscriptionID: sub.ID,
			UserID:         sub.UserID,
			Attempts:       sub.FailedAttempts,
			Paused:         paused,
			Reason:         apperr.PublicMessage(cause),
			Timestamp:      now.UTC(),
		})
	})
	if err != nil {
		logger.Error(ctx, "failed to record subscription failure", "subscription_id", sub.ID, "error", err)
		return "deferred"
	}
	s.metrics.RecordRenewal("failed")
	logger.Warn(ctx, "subscription renewal failed", "subscription_id", sub.ID, "attempts", sub.FailedAttempts, "paused", paused, "error", cause)
	return "failed"
}

func subKey(id uint) string { return "subscription-" + strconv.FormatUint(uint64(id), 10) }
