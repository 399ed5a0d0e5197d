// Notification 主程序
// 功能：消费订单、订阅与注册事件，渲染模板并发送邮件；处理失败的消息重试后进入死信队列
// 架构：Kafka 消费组 + MySQL 幂等记录 + SMTP
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	authmysql "github.com/wyfcoding/aromastore/internal/auth/infrastructure/persistence/mysql"
	"github.com/wyfcoding/aromastore/internal/notification/application"
	notificationmysql "github.com/wyfcoding/aromastore/internal/notification/infrastructure/persistence/mysql"
	"github.com/wyfcoding/aromastore/internal/notification/infrastructure/sender"
	"github.com/wyfcoding/aromastore/pkg/config"
	"github.com/wyfcoding/aromastore/pkg/db"
	"github.com/wyfcoding/aromastore/pkg/logger"
	"github.com/wyfcoding/aromastore/pkg/metrics"
	"github.com/wyfcoding/aromastore/pkg/middleware"
	"github.com/wyfcoding/aromastore/pkg/mq"
	"github.com/wyfcoding/aromastore/pkg/trace"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. 加载配置
	configPath := config.GetEnv("NOTIFICATION_CONFIG", "configs/notification/config.toml")
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	logger.Info(ctx, "Starting NotificationService", "service", cfg.ServiceName, "version", cfg.Version)

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
		defer func() { _ = shutdownTracer(context.Background()) }()
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

	// 5. 初始化指标
	metricsInstance := metrics.New(cfg.ServiceName)

	// 6. 初始化应用服务
	emailSender := sender.NewSMTPSender(sender.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		DryRun:   cfg.SMTP.DryRun,
	})
	appService := application.NewNotificationService(
		notificationmysql.NewNotificationRepository(database.DB),
		emailSender,
		authmysql.NewUserRepository(database.DB),
		metricsInstance,
	)

	// 7. 初始化 Kafka 消费者与死信队列
	kafkaCfg := mq.KafkaConfig{
		Brokers:         cfg.Kafka.Brokers,
		GroupID:         cfg.Kafka.GroupID,
		SessionTimeout:  cfg.Kafka.SessionTimeout,
		MaxRetries:      cfg.Kafka.MaxRetries,
		RetryBackoff:    cfg.Kafka.RetryBackoff,
		DeadLetterTopic: cfg.Kafka.DeadLetterTopic,
	}
	producer := mq.NewProducer(kafkaCfg)
	defer producer.Close()
	consumer := mq.NewConsumer(kafkaCfg, application.Topics(), mq.NewDeadLetterQueue(producer, cfg.Kafka.DeadLetterTopic))
	defer consumer.Close()

	// 8. 健康检查与指标端点
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.GinRequestIDMiddleware(), middleware.GinRecoveryMiddleware())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": cfg.ServiceName, "timestamp": time.Now().Unix()})
	})
	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(metricsInstance.Handler()))
	}
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// 9. 运行消费循环与 HTTP 服务，任一退出即整体关停
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(gctx, "Consuming topics", "topics", application.Topics())
		return consumer.Run(gctx, appService.Handle)
	})
	g.Go(func() error {
		logger.Info(gctx, "Starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(ctx, "NotificationService exited with error", "error", err)
	}
	logger.Info(ctx, "NotificationService stopped")
}
