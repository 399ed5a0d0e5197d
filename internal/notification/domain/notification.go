// Package domain 通知记录与发送通道
package domain

import (
	"context"
	"errors"
	"time"
)

// Channel 通知通道
type Channel string

const ChannelEmail Channel = "EMAIL"

// Status 通知状态
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
)

// ErrDuplicateEvent 同一事件已生成过通知
var ErrDuplicateEvent = errors.New("notification already exists for event")

// Notification 通知记录，EventKey 唯一保证同一事件只发送一次
type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"column:user_id;index" json:"user_id"`
	Channel   Channel    `gorm:"column:channel;type:varchar(16);not null" json:"channel"`
	Template  string     `gorm:"column:template;type:varchar(64);not null" json:"template"`
	Recipient string     `gorm:"column:recipient;type:varchar(255);not null" json:"recipient"`
	Subject   string     `gorm:"column:subject;type:varchar(255)" json:"subject"`
	Content   string     `gorm:"column:content;type:text" json:"content"`
	Status    Status     `gorm:"column:status;type:varchar(16);index;not null" json:"status"`
	Error     string     `gorm:"column:error;type:text" json:"error,omitempty"`
	Attempts  int        `gorm:"column:attempts;not null;default:0" json:"attempts"`
	EventKey  string     `gorm:"column:event_key;type:varchar(191);uniqueIndex;not null" json:"event_key"`
	SentAt    *time.Time `gorm:"column:sent_at" json:"sent_at,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Notification) TableName() string { return "notifications" }

// NotificationRepository 通知仓储
type NotificationRepository interface {
	// Create 事件键冲突时返回 ErrDuplicateEvent
	Create(ctx context.Context, n *Notification) error
	GetByEventKey(ctx context.Context, key string) (*Notification, error)
	MarkSent(ctx context.Context, id uint, at time.Time) error
	MarkFailed(ctx context.Context, id uint, reason string) error
	ListByUser(ctx context.Context, userID uint, offset, limit int) ([]*Notification, int64, error)
}

// Sender 邮件发送
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}
