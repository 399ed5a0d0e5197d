package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	cartapp "github.com/wyfcoding/aromastore/internal/cart/application"
	catalogdomain "github.com/wyfcoding/aromastore/internal/catalog/domain"
	loyaltydomain "github.com/wyfcoding/aromastore/internal/loyalty/domain"
	"github.com/wyfcoding/aromastore/internal/order/domain"
	paydomain "github.com/wyfcoding/aromastore/internal/payment/domain"
	pricing "github.com/wyfcoding/aromastore/internal/pricing/domain"
	promodomain "github.com/wyfcoding/aromastore/internal/promotion/domain"
	"github.com/wyfcoding/aromastore/pkg/apperr"
	"github.com/wyfcoding/aromastore/pkg/db"
	"github.com/wyfcoding/aromastore/pkg/logger"
	"github.com/wyfcoding/aromastore/pkg/metrics"
	widgen "github.com/wyfcoding/pkg/idgen"
)

// 结算失败原因，用作指标标签
const (
	failureStockLost      = "stock_lost"
	failurePointsLost     = "points_lost"
	failureAmountMismatch = "amount_mismatch"
	failurePaymentFailed  = "payment_failed"
)

// QuoteCommand 报价参数
type QuoteCommand struct {
	UserID       uint
	CouponCode   string `json:"coupon_code" binding:"max=32"`
	RedeemPoints int    `json:"redeem_points" binding:"min=0"`
}

// StartCheckoutCommand 发起结算
type StartCheckoutCommand struct {
	QuoteCommand
	ShippingAddress domain.Address `json:"shipping_address" binding:"required"`
}

// CheckoutResult 发起结算的返回，客户端用 client_secret 完成支付
type CheckoutResult struct {
	PaymentIntentID string         `json:"payment_intent_id"`
	ClientSecret    string         `json:"client_secret"`
	Quote           *pricing.Quote `json:"quote"`
	LastFailure     string         `json:"last_failure,omitempty"`
}

// CheckoutDeps 结算服务依赖
type CheckoutDeps struct {
	Orders    domain.OrderRepository
	Sessions  domain.CheckoutRepository
	Carts     CartReader
	Stock     StockKeeper
	Variants  VariantLookup
	Promos    Promotions
	Loyalty   Loyalty
	Pricer    Pricer
	Gateway   paydomain.Gateway
	Verifier  WebhookVerifier
	Tx        Transactor
	Publisher domain.EventPublisher
	Metrics   *metrics.Metrics
	Currency  string
}

// CheckoutService 结算编排：报价、创建支付意图、确认支付后落单
type CheckoutService struct {
	CheckoutDeps
	now func() time.Time
}

// NewCheckoutService 创建结算服务
func NewCheckoutService(deps CheckoutDeps) *CheckoutService {
	if deps.Currency == "" {
		deps.Currency = "usd"
	}
	return &CheckoutService{CheckoutDeps: deps, now: time.Now}
}

// checkedCart 校验购物车非空、全部在售且库存充足
func checkedCart(view *cartapp.CartView) error {
	if view == nil || view.Empty() {
		return pricing.ErrEmptyCart
	}
	for _, l := range view.Items {
		if !l.Available {
			return domain.ErrItemUnavailable.WithMessage("%s is no longer available", l.ProductName)
		}
		if !l.InStock() {
			return catalogdomain.ErrInsufficientStock.WithMessage("only %d of %s %s left in stock", l.Stock, l.ProductName, l.VariantName)
		}
	}
	return nil
}

func pricingLines(view *cartapp.CartView) []pricing.Line {
	lines := make([]pricing.Line, 0, len(view.Items))
	for _, l := range view.Items {
		lines = append(lines, pricing.Line{
			VariantID:   l.VariantID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			VariantName: l.VariantName,
			SKU:         l.SKU,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
		})
	}
	return lines
}

func categories(view *cartapp.CartView) []string {
	seen := make(map[string]struct{}, len(view.Items))
	out := make([]string, 0, len(view.Items))
	for _, l := range view.Items {
		if l.Category == "" {
			continue
		}
		if _, ok := seen[l.Category]; ok {
			continue
		}
		seen[l.Category] = struct{}{}
		out = append(out, l.Category)
	}
	return out
}

type checkoutDraft struct {
	quote      *pricing.Quote
	cart       *cartapp.CartView
	categories []string
	firstOrder bool
}

// draft 读取购物车并按券码与积分计算报价
func (s *CheckoutService) draft(ctx context.Context, cmd QuoteCommand) (*checkoutDraft, error) {
	view, err := s.Carts.GetCart(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if err := checkedCart(view); err != nil {
		return nil, err
	}

	d := &checkoutDraft{cart: view, categories: categories(view)}
	var opts pricing.QuoteOptions

	if code := promodomain.NormalizeCode(cmd.CouponCode); code != "" {
		n, err := s.Orders.CountByUser(ctx, cmd.UserID)
		if err != nil {
			return nil, err
		}
		d.firstOrder = n == 0
		discount, _, err := s.Promos.Evaluate(ctx, code, s.couponContext(cmd.UserID, view.Subtotal, view.ItemCount, d.categories, d.firstOrder))
		if err != nil {
			return nil, err
		}
		opts.CouponCode = discount.Code
		opts.CouponDiscount = discount.Amount
		opts.FreeShipping = discount.FreeShipping
	}

	if cmd.RedeemPoints > 0 {
		remaining := view.Subtotal.Sub(opts.CouponDiscount)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		r, err := s.Loyalty.QuoteRedemption(ctx, cmd.UserID, cmd.RedeemPoints, remaining)
		if err != nil {
			return nil, err
		}
		opts.LoyaltyDiscount = r.Value
		opts.PointsRedeemed = r.Points
	}

	d.quote, err = s.Pricer.Quote(pricingLines(view), opts)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *CheckoutService) couponContext(userID uint, subtotal decimal.Decimal, items int, cats []string, first bool) promodomain.CouponContext {
	return promodomain.CouponContext{
		UserID:     userID,
		Subtotal:   subtotal,
		ItemCount:  items,
		Categories: cats,
		FirstOrder: first,
		Now:        s.now(),
	}
}

// PreviewQuote 试算当前购物车的应付金额
func (s *CheckoutService) PreviewQuote(ctx context.Context, cmd QuoteCommand) (*pricing.Quote, error) {
	d, err := s.draft(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return d.quote, nil
}

// fingerprint 同一用户同一购物车内容与金额生成相同的幂等键
func fingerprint(userID uint, q *pricing.Quote) string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(uint64(userID), 10))
	b.WriteByte('|')
	b.WriteString(q.CouponCode)
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(q.PointsRedeemed))
	b.WriteByte('|')
	b.WriteString(q.Total.StringFixed(2))
	for _, l := range q.Lines {
		fmt.Fprintf(&b, "|%d:%d:%s", l.VariantID, l.Quantity, l.UnitPrice.StringFixed(2))
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(b.String())).String()
}

// StartCheckout 校验购物车、报价并创建支付意图
func (s *CheckoutService) StartCheckout(ctx context.Context, cmd StartCheckoutCommand) (*CheckoutResult, error) {
	defer logger.LogDuration(ctx, "checkout started", "user_id", cmd.UserID)()

	if cmd.ShippingAddress.Empty() {
		return nil, domain.ErrAddressRequired
	}
	d, err := s.draft(ctx, cmd.QuoteCommand)
	if err != nil {
		return nil, err
	}

	key := fingerprint(cmd.UserID, d.quote)
	attempt, err := s.nextAttempt(ctx, key)
	if err != nil {
		return nil, err
	}
	intent, err := s.Gateway.CreateIntent(ctx, paydomain.CreateIntentRequest{
		Amount:         d.quote.Total,
		Currency:       s.Currency,
		IdempotencyKey: domain.AttemptKey(key, attempt),
		Metadata: map[string]string{
			"user_id": strconv.FormatUint(uint64(cmd.UserID), 10),
			"source":  "checkout",
		},
	})
	if err != nil {
		return nil, err
	}

	session := &domain.CheckoutSession{
		PaymentIntentID: intent.ID,
		UserID:          cmd.UserID,
		IdempotencyKey:  key,
		Attempt:         attempt,
		Quote:           *d.quote,
		CouponCode:      d.quote.CouponCode,
		Categories:      d.categories,
		FirstOrder:      d.firstOrder,
		RedeemPoints:    d.quote.PointsRedeemed,
		ShippingAddress: cmd.ShippingAddress,
		Status:          domain.CheckoutPending,
	}
	if err := s.Sessions.Create(ctx, session); err != nil {
		if !db.IsDuplicateKey(err) {
			return nil, err
		}
		// 幂等键命中了已有的支付意图
		existing, err := s.Sessions.GetByIntent(ctx, intent.ID)
		if err != nil {
			return nil, err
		}
		if !existing.Open() {
			return nil, domain.ErrCheckoutFailed.WithMessage("checkout already closed; please retry")
		}
		session = existing
	}
	if session.LastFailure != "" {
		logger.Info(ctx, "checkout resumed after decline", "payment_intent_id", intent.ID, "last_failure", session.LastFailure)
	}

	return &CheckoutResult{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Quote:           d.quote,
		LastFailure:     session.LastFailure,
	}, nil
}

// nextAttempt 指纹下最近会话仍可支付则沿用，已完成或已补偿则开启新一轮尝试
func (s *CheckoutService) nextAttempt(ctx context.Context, key string) (int, error) {
	latest, err := s.Sessions.LatestByKey(ctx, key)
	if err != nil {
		return 0, err
	}
	switch {
	case latest == nil:
		return 1, nil
	case latest.Open():
		return max(latest.Attempt, 1), nil
	default:
		return latest.Attempt + 1, nil
	}
}

// ConfirmPayment 支付成功后落单；同一支付意图重复确认返回已有订单。
// userID 为 0 表示来自 webhook，不做归属校验。
func (s *CheckoutService) ConfirmPayment(ctx context.Context, intentID string, userID uint) (*domain.Order, error) {
	existing, err := s.Orders.FindByPaymentIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if userID != 0 && existing.UserID != userID {
			return nil, domain.ErrOrderNotFound
		}
		return existing, nil
	}

	session, err := s.Sessions.GetByIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if userID != 0 && session.UserID != userID {
		return nil, domain.ErrSessionNotFound
	}

	intent, err := s.Gateway.GetIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if session.Status == domain.CheckoutFailed {
		// 已补偿的会话不再落单；扣款成功则再次发起幂等退款，覆盖补偿时退款失败的情况
		if intent.Succeeded() {
			if _, err := s.Gateway.Refund(ctx, intentID, refundKey(intentID)); err != nil {
				logger.Error(ctx, "refund of closed checkout failed", "payment_intent_id", intentID, "error", err)
				return nil, err
			}
		}
		return nil, domain.ErrCheckoutFailed.WithMessage("checkout failed: %s", session.FailureReason)
	}
	if !intent.Succeeded() {
		return nil, paydomain.ErrPaymentIncomplete.WithMessage("payment is %s", intent.Status)
	}
	if intent.AmountMinor != paydomain.ToMinor(session.Quote.Total) {
		s.compensate(ctx, intentID, failureAmountMismatch)
		return nil, domain.ErrAmountMismatch
	}

	quote := session.Quote
	order, err := s.place(ctx, placement{
		userID:     session.UserID,
		intentID:   intentID,
		quote:      &quote,
		address:    session.ShippingAddress,
		session:    session,
		categories: session.Categories,
		firstOrder: session.FirstOrder,
	})
	switch {
	case err == nil:
		return order, nil
	case db.IsDuplicateKey(err):
		// webhook 与客户端确认并发，另一方已落单
		return s.Orders.FindByPaymentIntent(ctx, intentID)
	case errors.Is(err, catalogdomain.ErrInsufficientStock):
		s.compensate(ctx, intentID, failureStockLost)
		return nil, domain.ErrStockLost
	case errors.Is(err, loyaltydomain.ErrInsufficientPoints):
		s.compensate(ctx, intentID, failurePointsLost)
		return nil, domain.ErrStockLost.WithMessage("loyalty balance changed while paying; the payment has been refunded")
	default:
		return nil, err
	}
}

// compensate 退款并将会话标记为失败
func (s *CheckoutService) compensate(ctx context.Context, intentID, reason string) {
	logger.Warn(ctx, "checkout compensation", "payment_intent_id", intentID, "reason", reason)
	if _, err := s.Gateway.Refund(ctx, intentID, refundKey(intentID)); err != nil {
		logger.Error(ctx, "compensation refund failed", "payment_intent_id", intentID, "error", err)
	}
	if err := s.Sessions.MarkFailed(ctx, intentID, reason); err != nil {
		logger.Error(ctx, "failed to mark checkout session failed", "payment_intent_id", intentID, "error", err)
	}
	s.Metrics.RecordCheckoutFailure(reason)
}

func refundKey(intentID string) string { return "refund-" + intentID }

type placement struct {
	userID         uint
	intentID       string
	quote          *pricing.Quote
	address        domain.Address
	subscriptionID *uint
	session        *domain.CheckoutSession
	categories     []string
	firstOrder     bool
}

func newOrder(p placement, now time.Time) *domain.Order {
	q := p.quote
	items := make([]domain.OrderItem, 0, len(q.Lines))
	for _, l := range q.Lines {
		items = append(items, domain.OrderItem{
			ProductID:   l.ProductID,
			VariantID:   l.VariantID,
			ProductName: l.ProductName,
			VariantName: l.VariantName,
			SKU:         l.SKU,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
			LineTotal:   pricing.Round2(l.Total()),
		})
	}
	return &domain.Order{
		OrderNo:         widgen.GenOrderNo(),
		UserID:          p.userID,
		PaymentIntentID: p.intentID,
		Status:          domain.StatusPaid,
		Subtotal:        q.Subtotal,
		Discount:        q.Discount,
		Shipping:        q.Shipping,
		Tax:             q.Tax,
		Total:           q.Total,
		CouponCode:      q.CouponCode,
		PointsRedeemed:  q.PointsRedeemed,
		ShippingAddress: p.address,
		SubscriptionID:  p.subscriptionID,
		Items:           items,
		PaidAt:          now,
	}
}

// place 单事务落单：建单、扣库存、占用优惠券、积分扣减与发放、完成会话、清空购物车、写事件
func (s *CheckoutService) place(ctx context.Context, p placement) (*domain.Order, error) {
	order := newOrder(p, s.now())
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.Orders.Create(ctx, order); err != nil {
			return err
		}
		for _, it := range order.Items {
			if err := s.Stock.DecrementStock(ctx, it.VariantID, it.Quantity); err != nil {
				return err
			}
		}
		if order.CouponCode != "" {
			cctx := s.couponContext(order.UserID, order.Subtotal, itemCount(order), p.categories, p.firstOrder)
			if _, err := s.Promos.Redeem(ctx, order.CouponCode, cctx); err != nil {
				if apperr.KindOf(err) == apperr.KindInternal {
					return err
				}
				// 顾客已按优惠后金额付款，券状态变化不影响本单
				logger.Warn(ctx, "coupon could not be redeemed at confirmation", "order_no", order.OrderNo, "code", order.CouponCode, "error", err)
			}
		}
		if err := s.Loyalty.Redeem(ctx, order.UserID, order.ID, order.PointsRedeemed); err != nil {
			return err
		}
		earned, err := s.Loyalty.Earn(ctx, order.UserID, order.ID, order.Subtotal.Sub(order.Discount))
		if err != nil {
			return err
		}
		if earned > 0 {
			order.PointsEarned = earned
			if err := s.Orders.SetPointsEarned(ctx, order.ID, earned); err != nil {
				return err
			}
		}
		if p.session != nil {
			if err := s.Sessions.MarkCompleted(ctx, p.session.ID, order.ID); err != nil {
				return err
			}
			if err := s.Carts.ClearCart(ctx, order.UserID); err != nil {
				return err
			}
		}
		return s.Publisher.Publish(ctx, domain.TopicOrderPlaced, order.OrderNo, domain.NewOrderPlacedEvent(order))
	})
	if err != nil {
		return nil, err
	}

	total, _ := order.Total.Float64()
	s.Metrics.RecordOrder(total)
	logger.Info(ctx, "order placed", "order_no", order.OrderNo, "user_id", order.UserID, "total", order.Total.String(), "points_earned", order.PointsEarned)
	return order, nil
}

func itemCount(o *domain.Order) int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// HandleWebhook 处理支付回调；业务错误只记录日志，避免支付服务反复重投
func (s *CheckoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.Verifier.Verify(payload, signature)
	if err != nil {
		return err
	}

	switch ev.Type {
	case paydomain.EventIntentSucceeded:
		if ev.Metadata["source"] == "subscription" {
			return nil
		}
		_, err := s.ConfirmPayment(ctx, ev.IntentID, 0)
		if err != nil && apperr.KindOf(err) != apperr.KindInternal {
			logger.Warn(ctx, "webhook confirmation skipped", "event_id", ev.ID, "payment_intent_id", ev.IntentID, "error", err)
			return nil
		}
		return err
	case paydomain.EventIntentFailed:
		reason := ev.FailureMessage
		if reason == "" {
			reason = failurePaymentFailed
		}
		// 支付意图回到 requires_payment_method，顾客可换卡重试
		if err := s.Sessions.RecordDecline(ctx, ev.IntentID, reason); err != nil {
			return err
		}
		s.Metrics.RecordCheckoutFailure(failurePaymentFailed)
		logger.Info(ctx, "payment declined", "payment_intent_id", ev.IntentID, "reason", reason)
		return nil
	default:
		logger.Debug(ctx, "webhook event ignored", "event_id", ev.ID, "type", ev.Type)
		return nil
	}
}

// SubscriptionOrderCommand 订阅续订下单参数
type SubscriptionOrderCommand struct {
	UserID          uint
	SubscriptionID  uint
	VariantID       uint
	Quantity        int
	DiscountPercent decimal.Decimal
	ShippingAddress domain.Address
}

// QuoteSubscription 订阅续订报价：订阅折扣按优惠计入，校验规格在售与库存
func (s *CheckoutService) QuoteSubscription(ctx context.Context, cmd SubscriptionOrderCommand) (*pricing.Quote, error) {
	v, err := s.Variants.GetVariant(ctx, cmd.VariantID)
	if err != nil {
		return nil, err
	}
	products, err := s.Variants.GetProductsByIDs(ctx, []uint{v.ProductID})
	if err != nil {
		return nil, err
	}
	if !v.IsActive || len(products) == 0 {
		return nil, domain.ErrItemUnavailable
	}
	if v.Stock < cmd.Quantity {
		return nil, catalogdomain.ErrInsufficientStock.WithMessage("only %d left in stock", v.Stock)
	}

	line := pricing.Line{
		VariantID:   v.ID,
		ProductID:   v.ProductID,
		ProductName: products[0].Name,
		VariantName: v.Name,
		SKU:         v.SKU,
		UnitPrice:   v.Price,
		Quantity:    cmd.Quantity,
	}
	discount := pricing.Round2(line.Total().Mul(cmd.DiscountPercent).Div(decimal.NewFromInt(100)))
	return s.Pricer.Quote([]pricing.Line{line}, pricing.QuoteOptions{CouponDiscount: discount})
}

// PlaceSubscriptionOrder 为已扣款的续订支付意图落单，重复调用返回已有订单；库存不足时退款
func (s *CheckoutService) PlaceSubscriptionOrder(ctx context.Context, cmd SubscriptionOrderCommand, intentID string, quote *pricing.Quote) (*domain.Order, error) {
	existing, err := s.Orders.FindByPaymentIntent(ctx, intentID)
	if err != nil || existing != nil {
		return existing, err
	}
	subID := cmd.SubscriptionID
	order, err := s.place(ctx, placement{
		userID:         cmd.UserID,
		intentID:       intentID,
		quote:          quote,
		address:        cmd.ShippingAddress,
		subscriptionID: &subID,
	})
	switch {
	case err == nil:
		return order, nil
	case db.IsDuplicateKey(err):
		return s.Orders.FindByPaymentIntent(ctx, intentID)
	case errors.Is(err, catalogdomain.ErrInsufficientStock):
		if _, rerr := s.Gateway.Refund(ctx, intentID, refundKey(intentID)); rerr != nil {
			logger.Error(ctx, "subscription refund failed", "payment_intent_id", intentID, "error", rerr)
		}
		s.Metrics.RecordCheckoutFailure(failureStockLost)
		return nil, domain.ErrStockLost
	default:
		return nil, err
	}
}
