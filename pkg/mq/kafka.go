// Package mq 提供 Kafka 生产者与消费者封装，消费端支持重试与死信队列
package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/tidwall/gjson"
	"github.com/wyfcoding/aromastore/pkg/logger"
)

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Brokers        []string
	GroupID        string
	SessionTimeout int
	MaxRetries     int
	// 重试退避（毫秒）
	RetryBackoff    int
	DeadLetterTopic string
}

// Producer 消息发送接口，outbox 中继与死信队列依赖此接口
type Producer interface {
	Send(ctx context.Context, topic, key string, value []byte) error
}

// KafkaProducer Kafka 生产者
type KafkaProducer struct {
	writer *kafka.Writer
}

// NewProducer 创建 Kafka 生产者
func NewProducer(cfg KafkaConfig) *KafkaProducer {
	backoff := time.Duration(cfg.RetryBackoff) * time.Millisecond
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		Compression:            kafka.Gzip,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            cfg.MaxRetries,
		WriteBackoffMin:        backoff,
		WriteBackoffMax:        backoff * 10,
	}

	logger.Info(context.Background(), "Kafka producer created successfully", "brokers", cfg.Brokers)
	return &KafkaProducer{writer: writer}
}

// Send 发送原始字节消息，同一 key 落在同一分区
func (kp *KafkaProducer) Send(ctx context.Context, topic, key string, value []byte) error {
	err := kp.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		logger.Error(ctx, "Failed to send Kafka message", "topic", topic, "key", key, "error", err)
		return err
	}
	logger.Debug(ctx, "Kafka message sent", "topic", topic, "key", key)
	return nil
}

// SendJSON 序列化后发送
func (kp *KafkaProducer) SendJSON(ctx context.Context, topic, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return kp.Send(ctx, topic, key, data)
}

// Close 关闭生产者
func (kp *KafkaProducer) Close() error {
	return kp.writer.Close()
}

// Message Kafka 消息结构
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       string
	Value     []byte
	Time      time.Time
}

// UnmarshalPayload 将消息值解析为 JSON；发件箱信封会先取出 data 字段
func (m *Message) UnmarshalPayload(dest any) error {
	if data := m.envelopeData(); data.Exists() {
		return json.Unmarshal([]byte(data.Raw), dest)
	}
	return json.Unmarshal(m.Value, dest)
}

// EventID 返回信封中的事件 ID，非信封消息返回空串
func (m *Message) EventID() string {
	if !m.envelopeData().Exists() {
		return ""
	}
	return gjson.GetBytes(m.Value, "event_id").String()
}

func (m *Message) envelopeData() gjson.Result {
	if !gjson.ValidBytes(m.Value) {
		return gjson.Result{}
	}
	res := gjson.GetManyBytes(m.Value, "event_id", "data")
	if res[0].Type != gjson.String || !res[1].IsObject() {
		return gjson.Result{}
	}
	return res[1]
}

// Handler 消息处理函数
type Handler func(ctx context.Context, msg *Message) error

// KafkaConsumer Kafka 消费者，处理成功或进入死信后才提交位点
type KafkaConsumer struct {
	reader  *kafka.Reader
	dlq     *DeadLetterQueue
	retries int
	backoff time.Duration
}

// NewConsumer 创建订阅多个主题的消费者
func NewConsumer(cfg KafkaConfig, topics []string, dlq *DeadLetterQueue) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupTopics:    topics,
		GroupID:        cfg.GroupID,
		SessionTimeout: time.Duration(cfg.SessionTimeout) * time.Second,
		StartOffset:    kafka.FirstOffset,
		MaxBytes:       10e6,
	})

	logger.Info(context.Background(), "Kafka consumer created successfully",
		"brokers", cfg.Brokers,
		"topics", topics,
		"group_id", cfg.GroupID,
	)
	return &KafkaConsumer{
		reader:  reader,
		dlq:     dlq,
		retries: cfg.MaxRetries,
		backoff: time.Duration(cfg.RetryBackoff) * time.Millisecond,
	}
}

// Run 循环拉取并处理消息，直到 ctx 取消
func (kc *KafkaConsumer) Run(ctx context.Context, handler Handler) error {
	for {
		km, err := kc.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			logger.Error(ctx, "Failed to fetch Kafka message", "error", err)
			return err
		}

		msg := &Message{
			Topic:     km.Topic,
			Partition: km.Partition,
			Offset:    km.Offset,
			Key:       string(km.Key),
			Value:     km.Value,
			Time:      km.Time,
		}
		if err := Process(ctx, msg, handler, kc.retries, kc.backoff, kc.dlq); err != nil {
			// 死信也失败时不提交，等待重新投递
			logger.Error(ctx, "message left uncommitted", "topic", msg.Topic, "offset", msg.Offset, "error", err)
			continue
		}
		if err := kc.reader.CommitMessages(ctx, km); err != nil {
			logger.Error(ctx, "Failed to commit Kafka message", "topic", km.Topic, "offset", km.Offset, "error", err)
		}
	}
}

// Close 关闭消费者
func (kc *KafkaConsumer) Close() error {
	return kc.reader.Close()
}

// Process 以有限次重试执行 handler，全部失败后投递死信队列；返回非 nil 表示消息不应提交
func Process(ctx context.Context, msg *Message, handler Handler, retries int, backoff time.Duration, dlq *DeadLetterQueue) error {
	if retries < 1 {
		retries = 1
	}
	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if lastErr = handler(ctx, msg); lastErr == nil {
			return nil
		}
		logger.Warn(ctx, "message handler failed",
			"topic", msg.Topic,
			"key", msg.Key,
			"attempt", attempt,
			"error", lastErr,
		)
		if attempt < retries && backoff > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff * time.Duration(attempt)):
			}
		}
	}
	if dlq == nil {
		return nil
	}
	return dlq.Send(ctx, msg, "handler exhausted retries", lastErr)
}

// DeadLetterQueue 死信队列处理
type DeadLetterQueue struct {
	producer Producer
	topic    string
}

// NewDeadLetterQueue 创建死信队列
func NewDeadLetterQueue(producer Producer, topic string) *DeadLetterQueue {
	return &DeadLetterQueue{producer: producer, topic: topic}
}

// DeadLetter 死信消息体
type DeadLetter struct {
	OriginalTopic  string    `json:"original_topic"`
	OriginalKey    string    `json:"original_key"`
	OriginalValue  string    `json:"original_value"`
	OriginalOffset int64     `json:"original_offset"`
	FailureReason  string    `json:"failure_reason"`
	FailureError   string    `json:"failure_error"`
	FailedAt       time.Time `json:"failed_at"`
}

// Send 发送消息到死信队列
func (dlq *DeadLetterQueue) Send(ctx context.Context, original *Message, reason string, cause error) error {
	dl := DeadLetter{
		OriginalTopic:  original.Topic,
		OriginalKey:    original.Key,
		OriginalValue:  string(original.Value),
		OriginalOffset: original.Offset,
		FailureReason:  reason,
		FailedAt:       time.Now().UTC(),
	}
	if cause != nil {
		dl.FailureError = cause.Error()
	}
	data, err := json.Marshal(dl)
	if err != nil {
		return err
	}
	return dlq.producer.Send(ctx, dlq.topic, original.Key, data)
}
