// Package outbox 实现事务性发件箱：业务事务内写入事件，后台处理器投递到 Kafka。
// 存储与投递由 wyfcoding/pkg 的 messagequeue/outbox 完成，这里补充事件信封、指标与清理。
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/aromastore/pkg/db"
	"github.com/wyfcoding/aromastore/pkg/logger"
	"github.com/wyfcoding/aromastore/pkg/metrics"
	"github.com/wyfcoding/aromastore/pkg/mq"
	woutbox "github.com/wyfcoding/pkg/messagequeue/outbox"
	"gorm.io/gorm"
)

// Message 发件箱记录，随 schema 一起迁移
type Message = woutbox.OutboxMessage

// Envelope 投递到 Kafka 的消息体，EventID 供消费端去重
type Envelope struct {
	EventID    string          `json:"event_id"`
	Topic      string          `json:"topic"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// NewEnvelope 包装业务事件
func NewEnvelope(topic string, event any) (*Envelope, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event %s: %w", topic, err)
	}
	return &Envelope{EventID: uuid.NewString(), Topic: topic, OccurredAt: time.Now().UTC(), Data: data}, nil
}

// Publisher 事件发布接口，业务模块依赖此接口
type Publisher interface {
	// Publish 写入发件箱；ctx 中存在事务时与业务数据同事务提交
	Publish(ctx context.Context, topic, key string, event any) error
	// PublishInTx 在显式传入的事务中写入发件箱
	PublishInTx(ctx context.Context, tx *gorm.DB, topic, key string, event any) error
}

// GormPublisher 基于 GORM 的发件箱写入
type GormPublisher struct {
	db  *gorm.DB
	mgr *woutbox.Manager
}

// NewPublisher 创建发布器
func NewPublisher(gdb *gorm.DB) *GormPublisher {
	return &GormPublisher{db: gdb, mgr: woutbox.NewManager(gdb, logger.Get())}
}

// Manager 供投递处理器复用的底层管理器
func (p *GormPublisher) Manager() *woutbox.Manager { return p.mgr }

// Publish 写入发件箱
func (p *GormPublisher) Publish(ctx context.Context, topic, key string, event any) error {
	return p.PublishInTx(ctx, db.Conn(ctx, p.db), topic, key, event)
}

// PublishInTx 在事务中写入发件箱
func (p *GormPublisher) PublishInTx(ctx context.Context, tx *gorm.DB, topic, key string, event any) error {
	env, err := NewEnvelope(topic, event)
	if err != nil {
		return err
	}
	if err := p.mgr.PublishInTx(tx.WithContext(ctx), topic, key, env); err != nil {
		return fmt.Errorf("failed to write outbox message: %w", err)
	}
	return nil
}

// Pusher 把发件箱记录交给 Kafka 生产者并记录投递结果
func Pusher(producer mq.Producer, m *metrics.Metrics) func(ctx context.Context, topic, key string, payload []byte) error {
	return func(ctx context.Context, topic, key string, payload []byte) error {
		err := producer.Send(ctx, topic, key, payload)
		m.RecordRelay(err == nil)
		return err
	}
}

// NewProcessor 创建后台投递处理器，失败的记录按指数退避重试
func NewProcessor(pub *GormPublisher, producer mq.Producer, m *metrics.Metrics, batch int, interval time.Duration) *woutbox.Processor {
	return woutbox.NewProcessor(pub.Manager(), Pusher(producer, m), batch, interval)
}

// Cleanup 物理删除指定时间之前已投递的记录
func Cleanup(ctx context.Context, gdb *gorm.DB, before time.Time) (int64, error) {
	res := gdb.WithContext(ctx).Unscoped().
		Where("status = ? AND updated_at < ?", woutbox.StatusSent, before).
		Delete(&Message{})
	return res.RowsAffected, res.Error
}
