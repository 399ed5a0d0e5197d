// Storefront 主程序
// 功能：香薰商城前台与后台 API，包含商品、购物车、结算、订阅、积分、推荐与运营后台
// 架构：DDD 分层 + Gin HTTP + gRPC 只读接口 + 事务发件箱投递 Kafka
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	adminhttp "github.com/wyfcoding/aromastore/internal/admin/interfaces/http"
	authhttp "github.com/wyfcoding/aromastore/internal/auth/interfaces/http"
	carthttp "github.com/wyfcoding/aromastore/internal/cart/interfaces/http"
	cataloggrpc "github.com/wyfcoding/aromastore/internal/catalog/interfaces/grpc"
	cataloghttp "github.com/wyfcoding/aromastore/internal/catalog/interfaces/http"
	loyaltyhttp "github.com/wyfcoding/aromastore/internal/loyalty/interfaces/http"
	notificationhttp "github.com/wyfcoding/aromastore/internal/notification/interfaces/http"
	orderhttp "github.com/wyfcoding/aromastore/internal/order/interfaces/http"
	promohttp "github.com/wyfcoding/aromastore/internal/promotion/interfaces/http"
	rechttp "github.com/wyfcoding/aromastore/internal/recommendation/interfaces/http"
	reviewhttp "github.com/wyfcoding/aromastore/internal/review/interfaces/http"
	subhttp "github.com/wyfcoding/aromastore/internal/subscription/interfaces/http"
	wishlisthttp "github.com/wyfcoding/aromastore/internal/wishlist/interfaces/http"
	"github.com/wyfcoding/aromastore/pkg/cache"
	"github.com/wyfcoding/aromastore/pkg/config"
	"github.com/wyfcoding/aromastore/pkg/db"
	"github.com/wyfcoding/aromastore/pkg/logger"
	"github.com/wyfcoding/aromastore/pkg/metrics"
	"github.com/wyfcoding/aromastore/pkg/middleware"
	"github.com/wyfcoding/aromastore/pkg/mq"
	"github.com/wyfcoding/aromastore/pkg/ratelimit"
	"github.com/wyfcoding/aromastore/pkg/trace"
	wconfig "github.com/wyfcoding/pkg/config"
	widgen "github.com/wyfcoding/pkg/idgen"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. 加载配置
	configPath := config.GetEnv("STOREFRONT_CONFIG", "configs/storefront/config.toml")
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	loggerCfg := logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}
	if err := logger.Init(loggerCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger.Info(ctx, "Starting Storefront",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	// 3. 初始化追踪
	shutdownTracer, err := trace.Init(ctx, trace.Config{
		Enabled:           cfg.Tracing.Enabled,
		ServiceName:       cfg.ServiceName,
		ServiceVersion:    cfg.Version,
		Environment:       cfg.Environment,
		CollectorEndpoint: cfg.Tracing.CollectorEndpoint,
		SamplingRate:      cfg.Tracing.SamplingRate,
	})
	if err != nil {
		logger.Error(ctx, "Failed to initialize tracer", "error", err)
	} else {
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				logger.Error(ctx, "Failed to shutdown tracer", "error", err)
			}
		}()
	}

	// 4. 初始化数据库
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
		Tracing:            cfg.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize database", "error", err)
	}
	defer database.Close()

	// 5. 初始化 Redis 与两级缓存
	redisCache, err := cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize Redis", "error", err)
	}
	defer redisCache.Close()

	localCache, err := cache.NewLocal(ctx, time.Duration(cfg.Redis.LocalCacheTTL)*time.Second)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize local cache", "error", err)
	}
	defer localCache.Close()
	tiered := cache.NewTiered(localCache, redisCache)

	// 6. 初始化限流器，Redis 不可用时退回进程内令牌桶
	rateLimiter := ratelimit.Fallback{
		Primary:   ratelimit.NewRedisRateLimiter(redisCache.GetClient()),
		Secondary: ratelimit.NewLocalRateLimiter(),
	}

	// 7. 初始化 ID 生成器
	nodeID, _ := strconv.ParseInt(config.GetEnv("NODE_ID", "1"), 10, 64)
	if err := widgen.Init(wconfig.SnowflakeConfig{MachineID: nodeID}); err != nil {
		logger.Fatal(ctx, "Failed to initialize id generator", "error", err)
	}

	// 8. 初始化指标
	metricsInstance := metrics.New(cfg.ServiceName)
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = metricsInstance.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	// 9. 初始化 Kafka 生产者与应用服务
	producer := mq.NewProducer(mq.KafkaConfig{
		Brokers:      cfg.Kafka.Brokers,
		MaxRetries:   cfg.Kafka.MaxRetries,
		RetryBackoff: cfg.Kafka.RetryBackoff,
	})
	defer producer.Close()

	if err := middleware.RegisterValidators(); err != nil {
		logger.Fatal(ctx, "Failed to register validators", "error", err)
	}
	svc := buildServices(ctx, cfg, database.DB, redisCache.GetClient(), tiered, producer, metricsInstance)

	// 10. 启动定时任务
	scheduler, err := newScheduler(cfg.Jobs, svc)
	if err != nil {
		logger.Fatal(ctx, "Failed to schedule jobs", "error", err)
	}
	scheduler.Start()
	svc.outbox.Start()

	// 11. 创建 HTTP 与 gRPC 服务器
	httpServer := createHTTPServer(cfg, svc, rateLimiter, metricsInstance)
	grpcServer, healthServer := createGRPCServer(cfg, svc, rateLimiter)

	// 12. 启动 HTTP 服务器
	go func() {
		logger.Info(ctx, "Starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "HTTP server error", "error", err)
		}
	}()

	// 13. 启动 gRPC 服务器
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Fatal(ctx, "Failed to listen on gRPC address", "error", err)
		}
		logger.Info(ctx, "Starting gRPC server", "addr", addr)
		if err := grpcServer.Serve(listener); err != nil {
			logger.Fatal(ctx, "gRPC server error", "error", err)
		}
	}()

	// 14. 优雅关停
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info(ctx, "Shutting down Storefront")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "HTTP server shutdown error", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "Metrics server shutdown error", "error", err)
		}
	}
	grpcServer.GracefulStop()

	svc.outbox.Stop()
	// 等待正在执行的任务结束
	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn(ctx, "Scheduled jobs did not finish before shutdown timeout")
	}

	logger.Info(ctx, "Storefront stopped")
}

// createHTTPServer 创建 HTTP 服务器并注册三组路由：公开、需登录、后台
func createHTTPServer(cfg *config.Config, svc *services, rateLimiter ratelimit.RateLimiter, m *metrics.Metrics) *http.Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.GinRequestIDMiddleware())
	router.Use(middleware.GinLoggingMiddleware())
	router.Use(middleware.GinRecoveryMiddleware())
	router.Use(middleware.GinCORSMiddleware(cfg.HTTP.AllowedOrigins))
	router.Use(m.GinMiddleware())
	if cfg.RateLimit.Enabled {
		router.Use(middleware.GinRateLimitMiddleware(rateLimiter, cfg.RateLimit.QPS, cfg.RateLimit.Burst))
	}

	catalogHandler := cataloghttp.NewCatalogHandler(svc.catalog)
	reviewHandler := reviewhttp.NewReviewHandler(svc.review)
	wishlistHandler := wishlisthttp.NewWishlistHandler(svc.wishlist)
	cartHandler := carthttp.NewCartHandler(svc.cart)
	promoHandler := promohttp.NewPromotionHandler(svc.promotion)
	loyaltyHandler := loyaltyhttp.NewLoyaltyHandler(svc.loyalty)
	orderHandler := orderhttp.NewOrderHandler(svc.order)
	subHandler := subhttp.NewSubscriptionHandler(svc.subscription)
	recHandler := rechttp.NewRecommendationHandler(svc.recommendation)
	authHandler := authhttp.NewAuthHandler(svc.auth)
	adminHandler := adminhttp.NewAdminHandler(svc.analytics, svc.users)
	notificationHandler := notificationhttp.NewNotificationHandler(svc.notifications)

	api := router.Group("/api/v1")

	// 公开路由，带令牌时识别用户
	public := api.Group("", authhttp.OptionalAuth(svc.auth))
	catalogHandler.RegisterRoutes(public)
	recHandler.RegisterPublicRoutes(public)
	authHandler.RegisterPublicRoutes(public)
	orderHandler.RegisterWebhookRoutes(api)

	// 需登录路由
	authed := api.Group("", authhttp.RequireAuth(svc.auth))
	reviewHandler.RegisterRoutes(public, authed)
	wishlistHandler.RegisterRoutes(authed)
	cartHandler.RegisterRoutes(authed)
	promoHandler.RegisterRoutes(authed)
	loyaltyHandler.RegisterRoutes(authed)
	orderHandler.RegisterRoutes(authed)
	subHandler.RegisterRoutes(authed)
	recHandler.RegisterRoutes(authed)
	authHandler.RegisterRoutes(authed)

	// 后台路由：员工角色 + 细粒度权限
	admin := api.Group("/admin", authhttp.RequireAuth(svc.auth), adminhttp.RequireStaff())
	guard := adminhttp.RequirePermission
	adminHandler.RegisterRoutes(admin)
	catalogHandler.RegisterAdminRoutes(admin, guard)
	reviewHandler.RegisterAdminRoutes(admin, guard)
	promoHandler.RegisterAdminRoutes(admin, guard)
	loyaltyHandler.RegisterAdminRoutes(admin, guard)
	orderHandler.RegisterAdminRoutes(admin, guard)
	subHandler.RegisterAdminRoutes(admin, guard)
	recHandler.RegisterAdminRoutes(admin, guard)
	notificationHandler.RegisterAdminRoutes(admin, guard)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   cfg.ServiceName,
			"timestamp": time.Now().Unix(),
		})
	})

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
}

// createGRPCServer 创建 gRPC 服务器，暴露商品只读接口与健康检查
func createGRPCServer(cfg *config.Config, svc *services, rateLimiter ratelimit.RateLimiter) (*grpc.Server, *health.Server) {
	interceptors := []grpc.UnaryServerInterceptor{
		middleware.GRPCLoggingInterceptor(),
		middleware.GRPCRecoveryInterceptor(),
	}
	if cfg.RateLimit.Enabled {
		interceptors = append(interceptors, middleware.GRPCRateLimitInterceptor(rateLimiter, cfg.RateLimit.QPS, cfg.RateLimit.Burst))
	}
	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors...),
		grpc.MaxConcurrentStreams(uint32(cfg.GRPC.MaxConcurrentStreams)),
	)

	cataloggrpc.RegisterStorefrontServer(server, cataloggrpc.NewServer(svc.catalog.CatalogQueryService, svc.recommendation))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(cataloggrpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)
	if !cfg.IsProduction() {
		reflection.Register(server)
	}
	return server, healthServer
}
