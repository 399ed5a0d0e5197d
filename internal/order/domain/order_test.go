package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	allowed := [][2]Status{
		{StatusPaid, StatusProcessing},
		{StatusPaid, StatusCancelled},
		{StatusProcessing, StatusShipped},
		{StatusProcessing, StatusCancelled},
		{StatusShipped, StatusDelivered},
		{StatusDelivered, StatusRefunded},
	}
	for _, tr := range allowed {
		assert.True(t, tr[0].CanTransition(tr[1]), "%s -> %s", tr[0], tr[1])
	}

	denied := [][2]Status{
		{StatusPaid, StatusShipped},
		{StatusShipped, StatusCancelled},
		{StatusCancelled, StatusPaid},
		{StatusRefunded, StatusDelivered},
		{StatusDelivered, StatusCancelled},
	}
	for _, tr := range denied {
		assert.False(t, tr[0].CanTransition(tr[1]), "%s -> %s", tr[0], tr[1])
	}
}

func TestCancellable(t *testing.T) {
	assert.True(t, (&Order{Status: StatusPaid}).Cancellable(false))
	assert.False(t, (&Order{Status: StatusProcessing}).Cancellable(false))
	assert.True(t, (&Order{Status: StatusProcessing}).Cancellable(true))
	assert.False(t, (&Order{Status: StatusShipped}).Cancellable(true))
}

func TestAddressEmpty(t *testing.T) {
	assert.True(t, Address{}.Empty())
	assert.False(t, Address{Name: "A", Line1: "1 Main", City: "X", PostalCode: "1", Country: "US"}.Empty())
}
