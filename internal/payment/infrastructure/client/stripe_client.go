// Package client 托管支付服务的 HTTP 客户端实现
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"github.com/wyfcoding/aromastore/internal/payment/domain"
	"github.com/wyfcoding/aromastore/pkg/metrics"
	wbreaker "github.com/wyfcoding/pkg/breaker"
	wconfig "github.com/wyfcoding/pkg/config"
	wmetrics "github.com/wyfcoding/pkg/metrics"
)

// StripeConfig 客户端配置
type StripeConfig struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// breakerSettings 一分钟窗口内至少 5 次请求且六成失败时熔断，30 秒后半开试探
var breakerSettings = wbreaker.Settings{
	Name: "payment-gateway",
	Config: wconfig.CircuitBreakerConfig{
		Enabled:     true,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
	},
	FailureRatio: 0.6,
	MinRequests:  5,
}

// StripeClient 兼容 Stripe PaymentIntents 接口的客户端，请求经熔断器保护
type StripeClient struct {
	http    *resty.Client
	breaker *wbreaker.Breaker
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// permanentError 请求本身被拒绝（4xx），作为结果值返回给熔断器，不计入失败
type permanentError struct{ err error }

// NewStripeClient 创建客户端；熔断状态登记在 m 的 registry 中
func NewStripeClient(cfg StripeConfig, m *metrics.Metrics) *StripeClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.SecretKey).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError || r.StatusCode() == http.StatusTooManyRequests
		})

	var base *wmetrics.Metrics
	if m != nil {
		base = m.Metrics
	} else {
		base = wmetrics.NewMetrics(breakerSettings.Name)
	}
	return &StripeClient{http: httpClient, breaker: wbreaker.NewBreaker(breakerSettings, base)}
}

func (c *StripeClient) do(ctx context.Context, method, path, idempotencyKey string, form map[string]string, out any) error {
	res, err := c.breaker.Execute(func() (any, error) {
		var apiErr apiError
		req := c.http.R().SetContext(ctx).SetResult(out).SetError(&apiErr)
		if idempotencyKey != "" {
			req.SetHeader("Idempotency-Key", idempotencyKey)
		}
		if form != nil {
			req.SetFormData(form)
		}
		resp, err := req.Execute(method, path)
		if err != nil {
			return nil, fmt.Errorf("payment request %s %s: %w", method, path, err)
		}
		if !resp.IsError() {
			return nil, nil
		}

		status := resp.StatusCode()
		switch {
		case status == http.StatusNotFound:
			return permanentError{domain.ErrIntentNotFound}, nil
		case status == http.StatusPaymentRequired || apiErr.Error.Type == "card_error":
			return permanentError{domain.ErrPaymentDeclined.WithMessage("payment was declined: %s", apiErr.Error.Message)}, nil
		case status < http.StatusInternalServerError && status != http.StatusTooManyRequests:
			return permanentError{fmt.Errorf("payment provider rejected request (%d %s): %s", status, apiErr.Error.Code, apiErr.Error.Message)}, nil
		default:
			return nil, fmt.Errorf("payment provider error %d: %s", status, apiErr.Error.Message)
		}
	})
	if errors.Is(err, wbreaker.ErrServiceUnavailable) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.ErrGatewayUnavailable.Wrap(err)
	}
	if err != nil {
		return err
	}
	if perm, ok := res.(permanentError); ok {
		return perm.err
	}
	return nil
}

func withMetadata(form map[string]string, md map[string]string) map[string]string {
	for k, v := range md {
		form["metadata["+k+"]"] = v
	}
	return form
}

// CreateIntent 创建支付意图
func (c *StripeClient) CreateIntent(ctx context.Context, req domain.CreateIntentRequest) (*domain.Intent, error) {
	form := withMetadata(map[string]string{
		"amount":                             strconv.FormatInt(domain.ToMinor(req.Amount), 10),
		"currency":                           req.Currency,
		"automatic_payment_methods[enabled]": "true",
	}, req.Metadata)
	if req.CustomerID != "" {
		form["customer"] = req.CustomerID
		form["setup_future_usage"] = "off_session"
	}
	var intent domain.Intent
	if err := c.do(ctx, resty.MethodPost, "/v1/payment_intents", req.IdempotencyKey, form, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// GetIntent 查询支付意图
func (c *StripeClient) GetIntent(ctx context.Context, id string) (*domain.Intent, error) {
	var intent domain.Intent
	if err := c.do(ctx, resty.MethodGet, "/v1/payment_intents/"+id, "", nil, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// Refund 全额退款
func (c *StripeClient) Refund(ctx context.Context, intentID, idempotencyKey string) (*domain.Refund, error) {
	var refund domain.Refund
	if err := c.do(ctx, resty.MethodPost, "/v1/refunds", idempotencyKey, map[string]string{"payment_intent": intentID}, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}

// ChargeOffSession 使用保存的支付方式立即扣款
func (c *StripeClient) ChargeOffSession(ctx context.Context, req domain.ChargeRequest) (*domain.Intent, error) {
	form := withMetadata(map[string]string{
		"amount":         strconv.FormatInt(domain.ToMinor(req.Amount), 10),
		"currency":       req.Currency,
		"customer":       req.CustomerID,
		"payment_method": req.PaymentMethodID,
		"off_session":    "true",
		"confirm":        "true",
	}, req.Metadata)
	var intent domain.Intent
	if err := c.do(ctx, resty.MethodPost, "/v1/payment_intents", req.IdempotencyKey, form, &intent); err != nil {
		return nil, err
	}
	if !intent.Succeeded() {
		return &intent, domain.ErrPaymentDeclined.WithMessage("off-session charge ended in status %s", intent.Status)
	}
	return &intent, nil
}
