package domain

import (
	"context"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/wyfcoding/aromastore/pkg/logger"
	"github.com/wyfcoding/pkg/ruleengine"
)

// ConditionEnv 优惠券条件表达式可引用的变量
//
//	subtotal >= 80 && "diffusers" in categories
//	first_order || item_count >= 3
type ConditionEnv struct {
	Subtotal   float64  `expr:"subtotal"`
	ItemCount  int      `expr:"item_count"`
	Categories []string `expr:"categories"`
	FirstOrder bool     `expr:"first_order"`
	Weekday    string   `expr:"weekday"`
}

func (e ConditionEnv) facts() map[string]any {
	return map[string]any{
		"subtotal":    e.Subtotal,
		"item_count":  e.ItemCount,
		"categories":  e.Categories,
		"first_order": e.FirstOrder,
		"weekday":     e.Weekday,
	}
}

// 规则以表达式原文为 ID 注册，同一表达式只编译一次
var (
	engine     *ruleengine.Engine
	engineOnce sync.Once
	registered sync.Map
)

func rules() *ruleengine.Engine {
	engineOnce.Do(func() {
		engine = ruleengine.NewEngine(logger.Get())
	})
	return engine
}

// register 先按 ConditionEnv 做类型检查，再交给规则引擎
func register(condition string) error {
	if _, ok := registered.Load(condition); ok {
		return nil
	}
	if _, err := expr.Compile(condition, expr.Env(ConditionEnv{}), expr.AsBool()); err != nil {
		return err
	}
	if err := rules().AddRule(ruleengine.Rule{ID: condition, Name: "coupon condition", Expression: condition}); err != nil {
		return err
	}
	registered.Store(condition, struct{}{})
	return nil
}

// CompileCondition 校验表达式能否编译
func CompileCondition(condition string) error {
	if condition == "" {
		return nil
	}
	if err := register(condition); err != nil {
		return ErrInvalidCoupon.WithMessage("invalid condition: %v", err)
	}
	return nil
}

// EvalCondition 执行表达式；空表达式视为满足
func EvalCondition(ctx context.Context, condition string, cctx CouponContext) (bool, error) {
	if condition == "" {
		return true, nil
	}
	if err := register(condition); err != nil {
		return false, fmt.Errorf("compile coupon condition: %w", err)
	}
	subtotal, _ := cctx.Subtotal.Float64()
	env := ConditionEnv{
		Subtotal:   subtotal,
		ItemCount:  cctx.ItemCount,
		Categories: cctx.Categories,
		FirstOrder: cctx.FirstOrder,
		Weekday:    cctx.Now.Weekday().String(),
	}
	res, err := rules().Execute(ctx, condition, env.facts())
	if err != nil {
		return false, fmt.Errorf("run coupon condition: %w", err)
	}
	return res.Passed, nil
}
