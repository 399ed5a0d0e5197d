// Package sender SMTP 邮件发送
package sender

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/wyfcoding/aromastore/internal/notification/domain"
	"github.com/wyfcoding/aromastore/pkg/logger"
)

// SMTPConfig 邮件服务器配置
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	DryRun   bool
}

// SMTPSender 通过 SMTP 发送纯文本邮件；DryRun 时只记录日志
type SMTPSender struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

var _ domain.Sender = (*SMTPSender)(nil)

// NewSMTPSender 创建发送器
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, send: smtp.SendMail}
}

// Send 发送邮件
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg := BuildMessage(s.cfg.From, to, subject, body, time.Now())
	if s.cfg.DryRun {
		logger.Info(ctx, "email dry run", "to", to, "subject", subject)
		logger.Debug(ctx, "email message", "raw", string(msg))
		return nil
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	done := make(chan error, 1)
	go func() { done <- s.send(addr, auth, s.cfg.From, []string{to}, msg) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BuildMessage 组装 RFC 5322 邮件，主题按 RFC 2047 编码
func BuildMessage(from, to, subject, body string, now time.Time) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return b.Bytes()
}
