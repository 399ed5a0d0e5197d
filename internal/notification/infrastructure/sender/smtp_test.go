package sender

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessageEncodesSubject(t *testing.T) {
	msg := string(BuildMessage("shop@aroma.test", "ada@example.com", "Your order — AR1", "Hello", time.Unix(0, 0).UTC()))

	assert.True(t, strings.HasPrefix(msg, "From: shop@aroma.test\r\nTo: ada@example.com\r\n"))
	assert.Contains(t, msg, "Subject: =?utf-8?q?")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=UTF-8\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nHello\r\n"))
}

func TestSendUsesConfiguredServer(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "mail.local", Port: 2525, Username: "u", Password: "p", From: "shop@aroma.test"})
	var gotAddr string
	var gotTo []string
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo = addr, to
		assert.NotNil(t, a)
		assert.Equal(t, "shop@aroma.test", from)
		return nil
	}

	require.NoError(t, s.Send(context.Background(), "ada@example.com", "Hi", "Body"))
	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, []string{"ada@example.com"}, gotTo)

	s.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("421 try later") }
	assert.ErrorContains(t, s.Send(context.Background(), "ada@example.com", "Hi", "Body"), "421")
}

func TestDryRunSkipsServer(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{DryRun: true, From: "shop@aroma.test"})
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("dry run must not contact the server")
		return nil
	}
	assert.NoError(t, s.Send(context.Background(), "ada@example.com", "Hi", "Body"))
}
