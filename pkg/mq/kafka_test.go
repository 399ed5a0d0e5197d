package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProducer struct {
	topics []string
	values [][]byte
	err    error
}

func (p *recordingProducer) Send(_ context.Context, topic, _ string, value []byte) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.values = append(p.values, value)
	return nil
}

func TestProcessSucceedsAfterRetry(t *testing.T) {
	calls := 0
	handler := func(context.Context, *Message) error {
		calls++
		if calls < 2 {
			return errors.New("smtp timeout")
		}
		return nil
	}
	prod := &recordingProducer{}
	err := Process(context.Background(), &Message{Topic: "order.paid"}, handler, 3, 0, NewDeadLetterQueue(prod, "dlq"))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Empty(t, prod.topics)
}

func TestProcessSendsToDeadLetter(t *testing.T) {
	handler := func(context.Context, *Message) error { return errors.New("bad template") }
	prod := &recordingProducer{}
	msg := &Message{Topic: "order.paid", Key: "evt-1", Value: []byte(`{"order_id":1}`), Offset: 7}

	require.NoError(t, Process(context.Background(), msg, handler, 2, 0, NewDeadLetterQueue(prod, "aromastore.dlq")))
	require.Len(t, prod.values, 1)
	assert.Equal(t, "aromastore.dlq", prod.topics[0])

	var dl DeadLetter
	require.NoError(t, json.Unmarshal(prod.values[0], &dl))
	assert.Equal(t, "order.paid", dl.OriginalTopic)
	assert.Equal(t, "bad template", dl.FailureError)
	assert.Equal(t, int64(7), dl.OriginalOffset)
}

func TestProcessReportsDeadLetterFailure(t *testing.T) {
	handler := func(context.Context, *Message) error { return errors.New("fail") }
	prod := &recordingProducer{err: errors.New("broker down")}
	err := Process(context.Background(), &Message{}, handler, 1, 0, NewDeadLetterQueue(prod, "dlq"))
	assert.Error(t, err)
}

func TestUnmarshalPayloadUnwrapsEnvelope(t *testing.T) {
	type event struct {
		OrderNo string `json:"order_no"`
	}

	wrapped := &Message{Value: []byte(`{"event_id":"e-1","topic":"order.placed","occurred_at":"2026-01-02T00:00:00Z","data":{"order_no":"A1"}}`)}
	var got event
	require.NoError(t, wrapped.UnmarshalPayload(&got))
	assert.Equal(t, "A1", got.OrderNo)
	assert.Equal(t, "e-1", wrapped.EventID())

	plain := &Message{Value: []byte(`{"order_no":"B2"}`)}
	got = event{}
	require.NoError(t, plain.UnmarshalPayload(&got))
	assert.Equal(t, "B2", got.OrderNo)
	assert.Empty(t, plain.EventID())

	assert.Error(t, (&Message{Value: []byte(`nope`)}).UnmarshalPayload(&got))
}
