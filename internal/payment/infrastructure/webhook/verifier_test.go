package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/aromastore/internal/payment/domain"
)

const payload = `{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123","status":"succeeded","amount":3299,"metadata":{"user_id":"7","cart":"abc"}}}}`

func TestVerifyValidSignature(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := NewVerifier("whsec_test", 5*time.Minute)
	v.now = func() time.Time { return now }

	evt, err := v.Verify([]byte(payload), Sign("whsec_test", []byte(payload), now.Add(-time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, domain.EventIntentSucceeded, evt.Type)
	assert.Equal(t, "pi_123", evt.IntentID)
	assert.Equal(t, domain.StatusSucceeded, evt.Status)
	assert.Equal(t, int64(3299), evt.AmountMinor)
	assert.Equal(t, "7", evt.Metadata["user_id"])
}

func TestVerifyRejects(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := NewVerifier("whsec_test", 5*time.Minute)
	v.now = func() time.Time { return now }

	cases := map[string]string{
		"wrong secret": Sign("other", []byte(payload), now),
		"too old":      Sign("whsec_test", []byte(payload), now.Add(-10*time.Minute)),
		"no v1":        "t=1700000000",
		"garbage":      "nonsense",
	}
	for name, header := range cases {
		_, err := v.Verify([]byte(payload), header)
		assert.ErrorIs(t, err, domain.ErrInvalidSignature, name)
	}

	tampered := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_999"}}}`)
	_, err := v.Verify(tampered, Sign("whsec_test", []byte(payload), now))
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestVerifyAcceptsAnyOfSeveralSignatures(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := NewVerifier("whsec_test", 0)
	good := Sign("whsec_test", []byte(payload), now)
	header := "t=1700000000,v1=deadbeef," + good[len("t=1700000000,"):]

	_, err := v.Verify([]byte(payload), header)
	assert.NoError(t, err)
}
