package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/aromastore/pkg/db"
	"github.com/wyfcoding/aromastore/pkg/db/dbtest"
	"github.com/wyfcoding/aromastore/pkg/metrics"
)

type stubProducer struct {
	sent []string
	err  error
}

func (s *stubProducer) Send(_ context.Context, topic, _ string, _ []byte) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, topic)
	return nil
}

func TestNewEnvelopeWrapsEvent(t *testing.T) {
	env, err := NewEnvelope("order.placed", map[string]any{"order_no": "AR1"})
	require.NoError(t, err)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, "order.placed", env.Topic)
	assert.JSONEq(t, `{"order_no":"AR1"}`, string(env.Data))

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"event_id"`)
}

func TestPublishUsesTransactionFromContext(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `sys_outbox_messages`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	pub := NewPublisher(gdb)
	err := db.NewTransactor(gdb).InTx(context.Background(), func(ctx context.Context) error {
		return pub.Publish(ctx, "user.registered", "1", map[string]any{"user_id": 1})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishRollsBackWithBusinessTx(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `sys_outbox_messages`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	pub := NewPublisher(gdb)
	err := db.NewTransactor(gdb).InTx(context.Background(), func(ctx context.Context) error {
		if err := pub.Publish(ctx, "order.placed", "AR1", map[string]any{}); err != nil {
			return err
		}
		return errors.New("stock gone")
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPusherRecordsRelayResult(t *testing.T) {
	m := metrics.New("outbox-test")

	ok := &stubProducer{}
	require.NoError(t, Pusher(ok, m)(context.Background(), "order.placed", "AR1", []byte("{}")))
	assert.Equal(t, []string{"order.placed"}, ok.sent)

	down := &stubProducer{err: errors.New("broker down")}
	assert.Error(t, Pusher(down, m)(context.Background(), "order.placed", "AR2", []byte("{}")))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxRelayed.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxRelayed.WithLabelValues("failed")))
}

func TestCleanupDeletesSentRows(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `sys_outbox_messages` WHERE status = \\? AND updated_at < \\?").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	n, err := Cleanup(context.Background(), gdb, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
