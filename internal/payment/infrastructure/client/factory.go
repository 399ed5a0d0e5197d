package client

import (
	"time"

	"github.com/wyfcoding/aromastore/internal/payment/domain"
	"github.com/wyfcoding/aromastore/pkg/config"
	"github.com/wyfcoding/aromastore/pkg/metrics"
)

// NewGateway 按配置选择网关实现
func NewGateway(cfg config.PaymentConfig, m *metrics.Metrics) domain.Gateway {
	if cfg.Provider == "stripe" {
		return NewStripeClient(StripeConfig{
			BaseURL:   cfg.BaseURL,
			SecretKey: cfg.SecretKey,
			Timeout:   time.Duration(cfg.Timeout) * time.Second,
		}, m)
	}
	return NewFakeGateway(true)
}
