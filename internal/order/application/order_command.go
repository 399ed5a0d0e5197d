package application

import (
	"context"
	"time"

	rbac "github.com/wyfcoding/aromastore/internal/admin/domain"
	catalogdomain "github.com/wyfcoding/aromastore/internal/catalog/domain"
	"github.com/wyfcoding/aromastore/internal/order/domain"
	paydomain "github.com/wyfcoding/aromastore/internal/payment/domain"
	"github.com/wyfcoding/aromastore/pkg/logger"
)

// UpdateStatusCommand 后台修改订单状态
type UpdateStatusCommand struct {
	OrderNo        string        `json:"-"`
	Status         domain.Status `json:"status" binding:"required"`
	TrackingNumber string        `json:"tracking_number" binding:"max=64"`
	Reason         string        `json:"reason" binding:"max=255"`
	ActorID        uint          `json:"-"`
	ActorRole      string        `json:"-"`
}

// CancelOrderCommand 取消订单
type CancelOrderCommand struct {
	OrderNo string `json:"-"`
	Reason  string `json:"reason" binding:"max=255"`
	UserID  uint   `json:"-"`
	Role    string `json:"-"`
}

// OrderCommandService 订单状态流转、取消与退款
type OrderCommandService struct {
	repo      domain.OrderRepository
	stock     StockKeeper
	promos    Promotions
	loyalty   Loyalty
	gateway   paydomain.Gateway
	tx        Transactor
	publisher domain.EventPublisher
}

// NewOrderCommandService 创建订单命令服务
func NewOrderCommandService(
	repo domain.OrderRepository,
	stock StockKeeper,
	promos Promotions,
	loyalty Loyalty,
	gateway paydomain.Gateway,
	tx Transactor,
	publisher domain.EventPublisher,
) *OrderCommandService {
	return &OrderCommandService{
		repo:      repo,
		stock:     stock,
		promos:    promos,
		loyalty:   loyalty,
		gateway:   gateway,
		tx:        tx,
		publisher: publisher,
	}
}

// UpdateStatus 按状态表流转订单；退款状态会发起全额退款并撤销积分
func (s *OrderCommandService) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (*domain.Order, error) {
	if !cmd.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if cmd.Status == domain.StatusCancelled {
		return s.CancelOrder(ctx, CancelOrderCommand{OrderNo: cmd.OrderNo, Reason: cmd.Reason, UserID: cmd.ActorID, Role: cmd.ActorRole})
	}

	o, err := s.repo.GetByNo(ctx, cmd.OrderNo)
	if err != nil {
		return nil, err
	}
	from := o.Status
	if !from.CanTransition(cmd.Status) {
		return nil, domain.ErrInvalidTransition.WithMessage("cannot move order from %s to %s", from, cmd.Status)
	}

	fields := map[string]any{}
	if cmd.Status == domain.StatusShipped && cmd.TrackingNumber != "" {
		fields["tracking_number"] = cmd.TrackingNumber
	}
	if cmd.Status == domain.StatusRefunded {
		if err := s.refund(ctx, o); err != nil {
			return nil, err
		}
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		ok, err := s.repo.UpdateStatus(ctx, o.ID, from, cmd.Status, fields)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidTransition.WithMessage("order %s was modified concurrently", o.OrderNo)
		}
		if cmd.Status == domain.StatusRefunded {
			if err := s.loyalty.Reverse(ctx, o.UserID, o.ID); err != nil {
				return err
			}
		}
		return s.publishStatus(ctx, o, from, cmd.Status, cmd.TrackingNumber, cmd.Reason)
	})
	if err != nil {
		return nil, err
	}

	o.Status = cmd.Status
	if v, ok := fields["tracking_number"]; ok {
		o.TrackingNumber = v.(string)
	}
	logger.Info(ctx, "order status updated", "order_no", o.OrderNo, "from", from, "to", cmd.Status, "actor_id", cmd.ActorID)
	return o, nil
}

// CancelOrder 取消订单：本人仅可取消已支付未处理的订单，员工可取消处理中的订单。
// 先退款，再在事务内回补库存、撤销积分并归还优惠券。
func (s *OrderCommandService) CancelOrder(ctx context.Context, cmd CancelOrderCommand) (*domain.Order, error) {
	o, err := s.repo.GetByNo(ctx, cmd.OrderNo)
	if err != nil {
		return nil, err
	}
	staff := rbac.Can(cmd.Role, rbac.PermOrdersWrite)
	if !staff && o.UserID != cmd.UserID {
		return nil, domain.ErrOrderNotFound
	}
	if !o.Cancellable(staff) {
		return nil, domain.ErrNotCancellable.WithMessage("order in status %s cannot be cancelled", o.Status)
	}

	if err := s.refund(ctx, o); err != nil {
		return nil, err
	}

	from := o.Status
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		ok, err := s.repo.UpdateStatus(ctx, o.ID, from, domain.StatusCancelled, map[string]any{"cancel_reason": cmd.Reason})
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotCancellable.WithMessage("order %s was modified concurrently", o.OrderNo)
		}
		for _, it := range o.Items {
			if err := s.stock.RestoreStock(ctx, it.VariantID, it.Quantity, catalogdomain.ReasonCancel); err != nil {
				return err
			}
		}
		if err := s.loyalty.Reverse(ctx, o.UserID, o.ID); err != nil {
			return err
		}
		if err := s.promos.Release(ctx, o.CouponCode); err != nil {
			return err
		}
		return s.publishStatus(ctx, o, from, domain.StatusCancelled, "", cmd.Reason)
	})
	if err != nil {
		logger.Error(ctx, "order refunded but cancellation failed", "order_no", o.OrderNo, "error", err)
		return nil, err
	}

	o.Status = domain.StatusCancelled
	o.CancelReason = cmd.Reason
	logger.Info(ctx, "order cancelled", "order_no", o.OrderNo, "by_staff", staff)
	return o, nil
}

func (s *OrderCommandService) refund(ctx context.Context, o *domain.Order) error {
	if !o.Total.IsPositive() {
		return nil
	}
	r, err := s.gateway.Refund(ctx, o.PaymentIntentID, refundKey(o.PaymentIntentID))
	if err != nil {
		return err
	}
	logger.Info(ctx, "order refunded", "order_no", o.OrderNo, "refund_id", r.ID)
	return nil
}

func (s *OrderCommandService) publishStatus(ctx context.Context, o *domain.Order, from, to domain.Status, tracking, reason string) error {
	return s.publisher.Publish(ctx, domain.TopicOrderStatusChanged, o.OrderNo, domain.OrderStatusChangedEvent{
		OrderID:        o.ID,
		OrderNo:        o.OrderNo,
		UserID:         o.UserID,
		From:           from,
		To:             to,
		TrackingNumber: tracking,
		Reason:         reason,
		Timestamp:      time.Now().UTC(),
	})
}
