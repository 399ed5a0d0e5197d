package main

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/wyfcoding/aromastore/pkg/config"
	"github.com/wyfcoding/aromastore/pkg/logger"
	"github.com/wyfcoding/aromastore/pkg/outbox"
)

// outboxRetention 已投递发件箱记录的保留时长
const outboxRetention = 7 * 24 * time.Hour

// cronLogger 将 cron 内部日志接入 slog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	logger.Debug(context.Background(), "cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logger.Error(context.Background(), "cron: "+msg, append(keysAndValues, "error", err)...)
}

// newScheduler 注册续订与发件箱清理任务，发件箱投递由 outbox 处理器自行轮询；同一任务上一轮未结束时跳过本轮
func newScheduler(cfg config.JobsConfig, svc *services) (*cron.Cron, error) {
	l := cronLogger{}
	c := cron.New(cron.WithLogger(l), cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)))

	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) error
	}{
		{"subscription_renewal", cfg.SubscriptionSpec, func(ctx context.Context) error {
			report, err := svc.subscription.RenewDue(ctx, time.Now())
			if err != nil {
				return err
			}
			if report.Processed > 0 {
				logger.Info(ctx, "subscription renewal finished",
					"processed", report.Processed,
					"renewed", report.Renewed,
					"failed", report.Failed,
					"deferred", report.Deferred,
				)
			}
			return nil
		}},
		{"outbox_cleanup", cfg.OutboxCleanupSpec, func(ctx context.Context) error {
			n, err := outbox.Cleanup(ctx, svc.db, time.Now().Add(-outboxRetention))
			if err == nil && n > 0 {
				logger.Info(ctx, "outbox cleaned", "deleted", n)
			}
			return err
		}},
	}

	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		if _, err := c.AddFunc(j.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if err := j.run(ctx); err != nil {
				logger.Error(ctx, "scheduled job failed", "job", j.name, "error", err)
			}
		}); err != nil {
			return nil, err
		}
	}
	return c, nil
}
