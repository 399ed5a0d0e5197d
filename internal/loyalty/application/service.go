package application

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/aromastore/internal/loyalty/domain"
	"github.com/wyfcoding/aromastore/pkg/config"
	"github.com/wyfcoding/aromastore/pkg/db"
	"github.com/wyfcoding/aromastore/pkg/logger"
)

// AccountView 积分账户视图
type AccountView struct {
	UserID           uint            `json:"user_id"`
	Balance          int             `json:"balance"`
	Lifetime         int             `json:"lifetime"`
	Tier             domain.Tier     `json:"tier"`
	Multiplier       decimal.Decimal `json:"multiplier"`
	NextTier         domain.Tier     `json:"next_tier,omitempty"`
	PointsToNextTier int             `json:"points_to_next_tier,omitempty"`
	RedeemableValue  decimal.Decimal `json:"redeemable_value"`
}

// Redemption 积分抵扣试算结果
type Redemption struct {
	Points int             `json:"points"`
	Value  decimal.Decimal `json:"value"`
}

// Transactor 事务执行器
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// LoyaltyApplicationService 积分应用服务
type LoyaltyApplicationService struct {
	repo  domain.AccountRepository
	tx    Transactor
	rules domain.Rules
}

// NewLoyaltyApplicationService 创建积分应用服务
func NewLoyaltyApplicationService(repo domain.AccountRepository, tx Transactor, rules domain.Rules) *LoyaltyApplicationService {
	return &LoyaltyApplicationService{repo: repo, tx: tx, rules: rules}
}

// RulesFromConfig 从配置构造积分规则
func RulesFromConfig(cfg config.LoyaltyConfig) domain.Rules {
	return domain.Rules{
		PointsPerUnit:         decimal.NewFromFloat(cfg.PointsPerUnit),
		PointsPerCurrencyUnit: cfg.PointsPerCurrencyUnit,
		MinRedeem:             cfg.MinRedeem,
	}
}

// GetAccount 账户概览，没有账户时返回零值视图
func (s *LoyaltyApplicationService) GetAccount(ctx context.Context, userID uint) (*AccountView, error) {
	a, err := s.repo.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		a = &domain.Account{UserID: userID}
	}
	tier := a.Tier()
	view := &AccountView{
		UserID:          userID,
		Balance:         a.Balance,
		Lifetime:        a.Lifetime,
		Tier:            tier,
		Multiplier:      tier.Multiplier(),
		RedeemableValue: decimal.Zero,
	}
	if next, at := tier.Next(); next != "" {
		view.NextTier = next
		view.PointsToNextTier = at - a.Lifetime
	}
	if a.Balance >= s.rules.MinRedeem {
		view.RedeemableValue = s.rules.Value(a.Balance)
	}
	return view, nil
}

// History 积分流水
func (s *LoyaltyApplicationService) History(ctx context.Context, userID uint, page, size int) ([]*domain.PointLog, int64, error) {
	offset, limit := db.Paginate(page, size, 100)
	return s.repo.ListLogs(ctx, userID, offset, limit)
}

// QuoteRedemption 试算抵扣；抵扣额超过 maxValue 时按 maxValue 折算积分，
// 折算后仍须满足最低兑换门槛
func (s *LoyaltyApplicationService) QuoteRedemption(ctx context.Context, userID uint, points int, maxValue decimal.Decimal) (*Redemption, error) {
	if points <= 0 {
		return &Redemption{Value: decimal.Zero}, nil
	}
	if points < s.rules.MinRedeem {
		return nil, domain.ErrBelowMinimumRedeem.WithMessage("at least %d points are required to redeem", s.rules.MinRedeem)
	}
	a, err := s.repo.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if a == nil || a.Balance < points {
		return nil, domain.ErrInsufficientPoints
	}
	if limit := s.rules.PointsFor(maxValue); points > limit {
		points = limit
	}
	if points < s.rules.MinRedeem {
		return nil, domain.ErrBelowMinimumRedeem.WithMessage("order total is too small to redeem the minimum of %d points", s.rules.MinRedeem)
	}
	return &Redemption{Points: points, Value: s.rules.Value(points)}, nil
}

// PreviewEarn 按当前等级试算可得积分
func (s *LoyaltyApplicationService) PreviewEarn(ctx context.Context, userID uint, amount decimal.Decimal) (int, error) {
	a, err := s.repo.Find(ctx, userID)
	if err != nil {
		return 0, err
	}
	tier := domain.TierBronze
	if a != nil {
		tier = a.Tier()
	}
	return s.rules.EarnedPoints(amount, tier), nil
}

func (s *LoyaltyApplicationService) apply(ctx context.Context, log *domain.PointLog, lifetimeDelta int) error {
	if _, err := s.repo.GetOrCreate(ctx, log.UserID); err != nil {
		return err
	}
	balance, err := s.repo.AddPoints(ctx, log.UserID, log.Delta, lifetimeDelta)
	if err != nil {
		return err
	}
	log.BalanceAfter = balance
	return s.repo.CreateLog(ctx, log)
}

// Earn 订单完成后发放积分，需在下单事务内调用
func (s *LoyaltyApplicationService) Earn(ctx context.Context, userID, orderID uint, amount decimal.Decimal) (int, error) {
	points, err := s.PreviewEarn(ctx, userID, amount)
	if err != nil || points == 0 {
		return 0, err
	}
	if err := s.apply(ctx, &domain.PointLog{UserID: userID, Delta: points, Reason: domain.ReasonEarn, OrderID: &orderID}, points); err != nil {
		return 0, err
	}
	logger.Info(ctx, "loyalty points earned", "user_id", userID, "order_id", orderID, "points", points)
	return points, nil
}

// Redeem 扣减积分，需在下单事务内调用
func (s *LoyaltyApplicationService) Redeem(ctx context.Context, userID, orderID uint, points int) error {
	if points <= 0 {
		return nil
	}
	return s.apply(ctx, &domain.PointLog{UserID: userID, Delta: -points, Reason: domain.ReasonRedeem, OrderID: &orderID}, 0)
}

// Reverse 撤销订单相关的积分变动：收回发放的积分，退回抵扣的积分；重复调用无副作用
func (s *LoyaltyApplicationService) Reverse(ctx context.Context, userID, orderID uint) error {
	logs, err := s.repo.LogsForOrder(ctx, orderID)
	if err != nil {
		return err
	}
	net := 0
	lifetime := 0
	for _, l := range logs {
		switch l.Reason {
		case domain.ReasonReversal:
			return nil
		case domain.ReasonEarn:
			net -= l.Delta
			lifetime -= l.Delta
		case domain.ReasonRedeem:
			net -= l.Delta
		}
	}
	if net == 0 && lifetime == 0 {
		return nil
	}

	if net < 0 {
		// 已发放的积分可能已被花掉，最多收回到余额为零
		a, err := s.repo.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		if a.Balance+net < 0 {
			net = -a.Balance
		}
	}
	if err := s.apply(ctx, &domain.PointLog{UserID: userID, Delta: net, Reason: domain.ReasonReversal, OrderID: &orderID}, lifetime); err != nil {
		return err
	}
	logger.Info(ctx, "loyalty points reversed", "user_id", userID, "order_id", orderID, "delta", net)
	return nil
}

// AdjustCommand 人工调整积分
type AdjustCommand struct {
	UserID  uint   `json:"user_id" binding:"required"`
	Delta   int    `json:"delta" binding:"required"`
	Note    string `json:"note" binding:"required,max=255"`
	ActorID uint   `json:"-"`
}

// Adjust 后台人工调整积分，不影响累计积分
func (s *LoyaltyApplicationService) Adjust(ctx context.Context, cmd AdjustCommand) (*AccountView, error) {
	if cmd.Delta == 0 {
		return nil, domain.ErrInvalidPoints
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.apply(ctx, &domain.PointLog{
			UserID:  cmd.UserID,
			Delta:   cmd.Delta,
			Reason:  domain.ReasonAdjust,
			Note:    cmd.Note,
			ActorID: cmd.ActorID,
		}, 0)
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "loyalty points adjusted", "user_id", cmd.UserID, "delta", cmd.Delta, "actor_id", cmd.ActorID)
	return s.GetAccount(ctx, cmd.UserID)
}
