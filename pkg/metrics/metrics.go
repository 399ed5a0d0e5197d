// Package metrics 在 wyfcoding/pkg 的统一 registry 之上定义业务指标与 HTTP 采集中间件
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/wyfcoding/aromastore/pkg/logger"
	wmetrics "github.com/wyfcoding/pkg/metrics"
)

const namespace = "aromastore"

// Metrics 指标集合；HTTP/gRPC 标准指标与 Go 运行时采集来自内嵌的 wmetrics.Metrics
type Metrics struct {
	*wmetrics.Metrics

	// 缓存命中
	CacheLookups *prometheus.CounterVec

	// 业务指标
	OrdersPlaced          prometheus.Counter
	OrderRevenue          prometheus.Counter
	CheckoutFailures      *prometheus.CounterVec
	SubscriptionRenewals  *prometheus.CounterVec
	OutboxRelayed         *prometheus.CounterVec
	NotificationsSent     *prometheus.CounterVec
	RecommendationsServed *prometheus.CounterVec
}

// New 创建指标实例；每个实例持有独立 registry，重复创建不会冲突
func New(serviceName string) *Metrics {
	base := wmetrics.NewMetrics(serviceName)
	labels := prometheus.Labels{"service": serviceName}
	counter := func(name, help string, labelNames ...string) *prometheus.CounterVec {
		return base.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, labelNames)
	}

	return &Metrics{
		Metrics:               base,
		CacheLookups:          counter("cache_lookups_total", "Catalog cache lookups by result", "result"),
		OrdersPlaced:          counter("orders_placed_total", "Total orders created from confirmed payments").WithLabelValues(),
		OrderRevenue:          counter("revenue_total", "Sum of order totals in store currency").WithLabelValues(),
		CheckoutFailures:      counter("checkout_failures_total", "Checkout confirmations that did not produce an order", "reason"),
		SubscriptionRenewals:  counter("subscription_renewals_total", "Subscription renewal attempts by result", "result"),
		OutboxRelayed:         counter("outbox_relayed_total", "Outbox events relayed to Kafka by result", "result"),
		NotificationsSent:     counter("notifications_sent_total", "Notification emails by template and result", "template", "result"),
		RecommendationsServed: counter("recommendations_served_total", "Recommendation lists served by source", "source"),
	}
}

// StartHTTPServer 在独立端口上暴露指标
func (m *Metrics) StartHTTPServer(port int, path string) *http.Server {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "Prometheus HTTP server stopped", "error", err)
		}
	}()
	return srv
}

// GinMiddleware 记录 HTTP 请求计数与耗时，路由按模板聚合
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HttpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HttpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordCache 记录缓存命中情况
func (m *Metrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

// RecordOrder 记录新订单
func (m *Metrics) RecordOrder(total float64) {
	if m == nil {
		return
	}
	m.OrdersPlaced.Inc()
	m.OrderRevenue.Add(total)
}

// RecordCheckoutFailure 记录结算失败
func (m *Metrics) RecordCheckoutFailure(reason string) {
	if m == nil {
		return
	}
	m.CheckoutFailures.WithLabelValues(reason).Inc()
}

// RecordRenewal 记录订阅续订结果
func (m *Metrics) RecordRenewal(result string) {
	if m == nil {
		return
	}
	m.SubscriptionRenewals.WithLabelValues(result).Inc()
}

// RecordRelay 记录 outbox 中继结果
func (m *Metrics) RecordRelay(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.OutboxRelayed.WithLabelValues("sent").Inc()
		return
	}
	m.OutboxRelayed.WithLabelValues("failed").Inc()
}

// RecordNotification 记录通知发送结果
func (m *Metrics) RecordNotification(template string, err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.NotificationsSent.WithLabelValues(template, result).Inc()
}

// RecordRecommendation 记录推荐请求来源：quiz、personalized、fallback、similar
func (m *Metrics) RecordRecommendation(source string) {
	if m == nil {
		return
	}
	m.RecommendationsServed.WithLabelValues(source).Inc()
}
