package application

import (
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/aromastore/internal/pricing/domain"
	"github.com/wyfcoding/aromastore/pkg/config"
)

// PricingService 基于配置费率计算报价
type PricingService struct {
	rates domain.Rates
}

// NewPricingService 创建报价服务
func NewPricingService(rates domain.Rates) *PricingService {
	return &PricingService{rates: rates}
}

// RatesFromConfig 从结算配置构造费率
func RatesFromConfig(cfg config.CheckoutConfig) domain.Rates {
	return domain.Rates{
		TaxRate:               decimal.NewFromFloat(cfg.TaxRate),
		FlatShipping:          decimal.NewFromFloat(cfg.FlatShipping),
		FreeShippingThreshold: decimal.NewFromFloat(cfg.FreeShippingThreshold),
	}
}

// Rates 当前费率
func (s *PricingService) Rates() domain.Rates { return s.rates }

// Quote 按当前费率报价，opts 中的费率被忽略
func (s *PricingService) Quote(lines []domain.Line, opts domain.QuoteOptions) (*domain.Quote, error) {
	opts.Rates = s.rates
	return domain.Compute(lines, opts)
}
