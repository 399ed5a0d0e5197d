package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/aromastore/internal/order/domain"
)

func placedOrder(t *testing.T, f *fixture, coupon string) *domain.Order {
	t.Helper()
	res := f.start(t, coupon, 0)
	f.gateway.Succeed(res.PaymentIntentID)
	o, err := f.svc.ConfirmPayment(context.Background(), res.PaymentIntentID, 1)
	require.NoError(t, err)
	f.publisher.topics = nil
	return o
}

func TestCustomerCancelsPaidOrder(t *testing.T) {
	f := newFixture(t)
	o := placedOrder(t, f, "SAVE10")

	cancelled, err := f.svc.CancelOrder(context.Background(), CancelOrderCommand{OrderNo: o.OrderNo, Reason: "changed my mind", UserID: 1, Role: "CUSTOMER"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.True(t, f.gateway.Refunded(o.PaymentIntentID))
	assert.Equal(t, 5, f.stock.stock[100])
	assert.Equal(t, 3, f.stock.stock[200])
	assert.Equal(t, []uint{o.ID}, f.loyalty.reversed)
	assert.Equal(t, []string{"SAVE10"}, f.promos.released)
	assert.Equal(t, []string{domain.TopicOrderStatusChanged}, f.publisher.topics)

	stored, err := f.orders.GetByNo(context.Background(), o.OrderNo)
	require.NoError(t, err)
	assert.Equal(t, "changed my mind", stored.CancelReason)
}

func TestCancelPermissions(t *testing.T) {
	f := newFixture(t)
	o := placedOrder(t, f, "")

	_, err := f.svc.CancelOrder(context.Background(), CancelOrderCommand{OrderNo: o.OrderNo, UserID: 2, Role: "CUSTOMER"})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = f.svc.UpdateStatus(context.Background(), UpdateStatusCommand{OrderNo: o.OrderNo, Status: domain.StatusProcessing, ActorID: 9, ActorRole: "MANAGER"})
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(context.Background(), CancelOrderCommand{OrderNo: o.OrderNo, UserID: 1, Role: "CUSTOMER"})
	assert.ErrorIs(t, err, domain.ErrNotCancellable)
	assert.False(t, f.gateway.Refunded(o.PaymentIntentID))

	staff, err := f.svc.CancelOrder(context.Background(), CancelOrderCommand{OrderNo: o.OrderNo, UserID: 9, Role: "MANAGER"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, staff.Status)
}

func TestUpdateStatusFollowsTransitions(t *testing.T) {
	f := newFixture(t)
	o := placedOrder(t, f, "")
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, UpdateStatusCommand{OrderNo: o.OrderNo, Status: domain.StatusShipped})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.UpdateStatus(ctx, UpdateStatusCommand{OrderNo: o.OrderNo, Status: "LOST"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	for _, st := range []domain.Status{domain.StatusProcessing, domain.StatusShipped, domain.StatusDelivered} {
		cmd := UpdateStatusCommand{OrderNo: o.OrderNo, Status: st}
		if st == domain.StatusShipped {
			cmd.TrackingNumber = "1Z999"
		}
		_, err := f.svc.UpdateStatus(ctx, cmd)
		require.NoError(t, err, st)
	}
	stored, _ := f.orders.GetByNo(ctx, o.OrderNo)
	assert.Equal(t, "1Z999", stored.TrackingNumber)
	assert.Len(t, f.publisher.topics, 3)

	refunded, err := f.svc.UpdateStatus(ctx, UpdateStatusCommand{OrderNo: o.OrderNo, Status: domain.StatusRefunded, Reason: "damaged"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefunded, refunded.Status)
	assert.True(t, f.gateway.Refunded(o.PaymentIntentID))
	assert.Equal(t, []uint{o.ID}, f.loyalty.reversed)
	assert.Empty(t, f.stock.restored, "refund after delivery does not restock")
}

func TestGetOrderVisibility(t *testing.T) {
	f := newFixture(t)
	o := placedOrder(t, f, "")
	ctx := context.Background()

	_, err := f.svc.GetOrder(ctx, o.OrderNo, Viewer{UserID: 1, Role: "CUSTOMER"})
	require.NoError(t, err)

	_, err = f.svc.GetOrder(ctx, o.OrderNo, Viewer{UserID: 2, Role: "CUSTOMER"})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = f.svc.GetOrder(ctx, o.OrderNo, Viewer{UserID: 3, Role: "SUPPORT"})
	require.NoError(t, err)

	mine, total, err := f.svc.ListMyOrders(ctx, 1, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, mine, 1)

	_, _, err = f.svc.ListOrders(ctx, ListOrdersQuery{Status: "BOGUS"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}
