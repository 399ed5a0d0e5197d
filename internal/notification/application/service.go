// Package application 领域事件到邮件通知的转换与投递
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	authdomain "github.com/wyfcoding/aromastore/internal/auth/domain"
	"github.com/wyfcoding/aromastore/internal/notification/domain"
	orderdomain "github.com/wyfcoding/aromastore/internal/order/domain"
	subdomain "github.com/wyfcoding/aromastore/internal/subscription/domain"
	"github.com/wyfcoding/aromastore/pkg/db"
	"github.com/wyfcoding/aromastore/pkg/logger"
	"github.com/wyfcoding/aromastore/pkg/metrics"
	"github.com/wyfcoding/aromastore/pkg/mq"
)

const maxPageSize = 100

// Recipients 收件人查询
type Recipients interface {
	GetByID(ctx context.Context, id uint) (*authdomain.User, error)
}

type job struct {
	userID   uint
	email    string
	template string
	data     any
	eventKey string
}

// NotificationService 消费领域事件并发送邮件
type NotificationService struct {
	repo    domain.NotificationRepository
	sender  domain.Sender
	users   Recipients
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewNotificationService 创建通知服务
func NewNotificationService(repo domain.NotificationRepository, sender domain.Sender, users Recipients, m *metrics.Metrics) *NotificationService {
	return &NotificationService{repo: repo, sender: sender, users: users, metrics: m, now: time.Now}
}

// Topics 订阅的主题
func Topics() []string {
	return []string{
		orderdomain.TopicOrderPlaced,
		orderdomain.TopicOrderStatusChanged,
		subdomain.TopicRenewed,
		subdomain.TopicPaymentFailed,
		authdomain.TopicUserRegistered,
	}
}

// Handle 处理一条事件；返回错误时由消费者重试并最终进入死信队列
func (s *NotificationService) Handle(ctx context.Context, msg *mq.Message) error {
	j, err := s.route(ctx, msg)
	if err != nil {
		return err
	}
	if j == nil {
		return nil
	}
	return s.deliver(ctx, j)
}

type orderPlacedView struct {
	orderdomain.OrderPlacedEvent
	Name string
}

type statusView struct {
	Name           string
	OrderNo        string
	From           orderdomain.Status
	Status         orderdomain.Status
	TrackingNumber string
	Reason         string
}

type renewedView struct {
	subdomain.RenewedEvent
	Name string
}

type renewalFailedView struct {
	subdomain.PaymentFailedEvent
	Name string
}

type welcomeView struct {
	Name string
}

func (s *NotificationService) route(ctx context.Context, msg *mq.Message) (*job, error) {
	switch msg.Topic {
	case orderdomain.TopicOrderPlaced:
		var e orderdomain.OrderPlacedEvent
		if err := msg.UnmarshalPayload(&e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", msg.Topic, err)
		}
		return s.forUser(ctx, e.UserID, TplOrderPlaced, msg.Topic+":"+e.OrderNo, func(name string) any {
			return orderPlacedView{OrderPlacedEvent: e, Name: name}
		})

	case orderdomain.TopicOrderStatusChanged:
		var e orderdomain.OrderStatusChangedEvent
		if err := msg.UnmarshalPayload(&e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", msg.Topic, err)
		}
		key := fmt.Sprintf("%s:%s:%s", msg.Topic, e.OrderNo, e.To)
		return s.forUser(ctx, e.UserID, TplOrderStatusChanged, key, func(name string) any {
			return statusView{Name: name, OrderNo: e.OrderNo, From: e.From, Status: e.To, TrackingNumber: e.TrackingNumber, Reason: e.Reason}
		})

	case subdomain.TopicRenewed:
		var e subdomain.RenewedEvent
		if err := msg.UnmarshalPayload(&e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", msg.Topic, err)
		}
		key := fmt.Sprintf("%s:%d:%s", msg.Topic, e.SubscriptionID, e.OrderNo)
		return s.forUser(ctx, e.UserID, TplSubscriptionRenewed, key, func(name string) any {
			return renewedView{RenewedEvent: e, Name: name}
		})

	case subdomain.TopicPaymentFailed:
		var e subdomain.PaymentFailedEvent
		if err := msg.UnmarshalPayload(&e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", msg.Topic, err)
		}
		key := fmt.Sprintf("%s:%d:%d", msg.Topic, e.SubscriptionID, e.Timestamp.Unix())
		return s.forUser(ctx, e.UserID, TplRenewalFailed, key, func(name string) any {
			return renewalFailedView{PaymentFailedEvent: e, Name: name}
		})

	case authdomain.TopicUserRegistered:
		var e authdomain.UserRegisteredEvent
		if err := msg.UnmarshalPayload(&e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", msg.Topic, err)
		}
		return &job{
			userID:   e.UserID,
			email:    e.Email,
			template: TplWelcome,
			data:     welcomeView{Name: displayName(e.Name)},
			eventKey: fmt.Sprintf("%s:%d", msg.Topic, e.UserID),
		}, nil

	default:
		logger.Debug(ctx, "ignoring event", "topic", msg.Topic)
		return nil, nil
	}
}

func displayName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}

func (s *NotificationService) forUser(ctx context.Context, userID uint, tpl, key string, view func(name string) any) (*job, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, authdomain.ErrUserNotFound) {
		logger.Warn(ctx, "notification recipient not found", "user_id", userID, "event_key", key)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job{userID: userID, email: u.Email, template: tpl, data: view(displayName(u.Name)), eventKey: key}, nil
}

func (s *NotificationService) deliver(ctx context.Context, j *job) error {
	n, err := s.repo.GetByEventKey(ctx, j.eventKey)
	if err != nil {
		return err
	}
	if n == nil {
		subject, body, err := Render(j.template, j.data)
		if err != nil {
			return err
		}
		n = &domain.Notification{
			UserID:    j.userID,
			Channel:   domain.ChannelEmail,
			Template:  j.template,
			Recipient: j.email,
			Subject:   subject,
			Content:   body,
			Status:    domain.StatusPending,
			EventKey:  j.eventKey,
		}
		if err := s.repo.Create(ctx, n); err != nil {
			if !errors.Is(err, domain.ErrDuplicateEvent) {
				return err
			}
			existing, err := s.repo.GetByEventKey(ctx, j.eventKey)
			if err != nil {
				return err
			}
			if existing == nil {
				return fmt.Errorf("notification %s missing after key conflict", j.eventKey)
			}
			n = existing
		}
	}
	if n.Status == domain.StatusSent {
		logger.Debug(ctx, "duplicate event skipped", "event_key", j.eventKey)
		return nil
	}

	sendErr := s.sender.Send(ctx, n.Recipient, n.Subject, n.Content)
	s.metrics.RecordNotification(n.Template, sendErr)
	if sendErr != nil {
		if err := s.repo.MarkFailed(ctx, n.ID, sendErr.Error()); err != nil {
			logger.Error(ctx, "mark notification failed", "id", n.ID, "error", err)
		}
		return sendErr
	}
	if err := s.repo.MarkSent(ctx, n.ID, s.now()); err != nil {
		return err
	}
	logger.Info(ctx, "notification sent", "id", n.ID, "template", n.Template, "user_id", n.UserID)
	return nil
}

// ListByUser 用户的通知记录
func (s *NotificationService) ListByUser(ctx context.Context, userID uint, page, size int) ([]*domain.Notification, int64, error) {
	offset, limit := db.Paginate(page, size, maxPageSize)
	return s.repo.ListByUser(ctx, userID, offset, limit)
}
