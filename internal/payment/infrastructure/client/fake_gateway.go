package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/wyfcoding/aromastore/internal/payment/domain"
	widgen "github.com/wyfcoding/pkg/idgen"
)

// DeclinedPaymentMethod 离线扣款时总是失败的支付方式
const DeclinedPaymentMethod = "pm_card_declined"

// FakeGateway 内存支付网关，用于开发环境与测试
type FakeGateway struct {
	mu          sync.Mutex
	intents     map[string]*domain.Intent
	byKey       map[string]string
	refunds     map[string]*domain.Refund
	autoSucceed bool
}

// NewFakeGateway 创建内存网关；autoSucceed 为 true 时新建的意图直接成功
func NewFakeGateway(autoSucceed bool) *FakeGateway {
	return &FakeGateway{
		intents:     make(map[string]*domain.Intent),
		byKey:       make(map[string]string),
		refunds:     make(map[string]*domain.Refund),
		autoSucceed: autoSucceed,
	}
}

func (g *FakeGateway) store(key string, intent *domain.Intent) *domain.Intent {
	g.intents[intent.ID] = intent
	if key != "" {
		g.byKey[key] = intent.ID
	}
	cp := *intent
	return &cp
}

func (g *FakeGateway) replay(key string) (*domain.Intent, bool) {
	if key == "" {
		return nil, false
	}
	id, ok := g.byKey[key]
	if !ok {
		return nil, false
	}
	cp := *g.intents[id]
	return &cp, true
}

func (g *FakeGateway) CreateIntent(_ context.Context, req domain.CreateIntentRequest) (*domain.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if intent, ok := g.replay(req.IdempotencyKey); ok {
		return intent, nil
	}
	id := fmt.Sprintf("pi_fake_%d", widgen.GenID())
	status := domain.StatusRequiresPaymentMethod
	if g.autoSucceed {
		status = domain.StatusSucceeded
	}
	return g.store(req.IdempotencyKey, &domain.Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		AmountMinor:  domain.ToMinor(req.Amount),
		Currency:     req.Currency,
		Status:       status,
		CustomerID:   req.CustomerID,
		Metadata:     req.Metadata,
	}), nil
}

func (g *FakeGateway) GetIntent(_ context.Context, id string) (*domain.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[id]
	if !ok {
		return nil, domain.ErrIntentNotFound
	}
	cp := *intent
	return &cp, nil
}

func (g *FakeGateway) Refund(_ context.Context, intentID, _ string) (*domain.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[intentID]
	if !ok {
		return nil, domain.ErrIntentNotFound
	}
	if r, ok := g.refunds[intentID]; ok {
		return r, nil
	}
	r := &domain.Refund{ID: "re_" + intentID, IntentID: intentID, AmountMinor: intent.AmountMinor, Status: "succeeded"}
	g.refunds[intentID] = r
	return r, nil
}

func (g *FakeGateway) ChargeOffSession(_ context.Context, req domain.ChargeRequest) (*domain.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if intent, ok := g.replay(req.IdempotencyKey); ok {
		return intent, nil
	}
	id := fmt.Sprintf("pi_fake_%d", widgen.GenID())
	intent := &domain.Intent{
		ID:              id,
		AmountMinor:     domain.ToMinor(req.Amount),
		Currency:        req.Currency,
		Status:          domain.StatusSucceeded,
		CustomerID:      req.CustomerID,
		PaymentMethodID: req.PaymentMethodID,
		Metadata:        req.Metadata,
	}
	if req.PaymentMethodID == DeclinedPaymentMethod || req.PaymentMethodID == "" {
		intent.Status = domain.StatusRequiresPaymentMethod
		g.store(req.IdempotencyKey, intent)
		return nil, domain.ErrPaymentDeclined
	}
	return g.store(req.IdempotencyKey, intent), nil
}

// Succeed 将意图置为成功，模拟客户端完成支付
func (g *FakeGateway) Succeed(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if intent, ok := g.intents[id]; ok {
		intent.Status = domain.StatusSucceeded
	}
}

// Refunded 是否已退款
func (g *FakeGateway) Refunded(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.refunds[id]
	return ok
}
