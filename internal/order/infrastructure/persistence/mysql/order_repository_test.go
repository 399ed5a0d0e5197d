package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/aromastore/internal/order/domain"
	"github.com/wyfcoding/aromastore/pkg/db/dbtest"
)

func TestGetByNoNotFound(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectQuery("SELECT \\* FROM `orders` WHERE order_no = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewOrderRepository(gdb).GetByNo(context.Background(), "AR1")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByPaymentIntentMissingReturnsNil(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectQuery("SELECT \\* FROM `orders` WHERE payment_intent_id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	o, err := NewOrderRepository(gdb).FindByPaymentIntent(context.Background(), "pi_1")
	require.NoError(t, err)
	assert.Nil(t, o)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusIsConditional(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `orders` SET .* WHERE \\(id = \\? AND status = \\?\\)").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ok, err := NewOrderRepository(gdb).UpdateStatus(context.Background(), 7, domain.StatusPaid, domain.StatusProcessing, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSkipsFetchWhenEmpty(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `orders` WHERE status = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	orders, total, err := NewOrderRepository(gdb).List(context.Background(), domain.OrderFilter{Status: domain.StatusShipped, Limit: 20})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryWithoutOrders(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectQuery("SELECT SUM\\(total\\) AS revenue, COUNT\\(\\*\\) AS orders FROM `orders`").
		WillReturnRows(sqlmock.NewRows([]string{"revenue", "orders"}).AddRow(nil, 0))

	now := time.Now()
	s, err := NewOrderRepository(gdb).Summary(context.Background(), now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	assert.True(t, s.Revenue.IsZero())
	assert.Zero(t, s.Orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSalesByDayFormatsDay(t *testing.T) {
	gdb, mock := dbtest.New(t)
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT DATE\\(created_at\\) AS day").
		WillReturnRows(sqlmock.NewRows([]string{"day", "revenue", "orders"}).AddRow(day, "120.50", 3))

	now := time.Now()
	rows, err := NewOrderRepository(gdb).SalesByDay(context.Background(), now.Add(-72*time.Hour), now)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-03-04", rows[0].Day)
	assert.Equal(t, "120.5", rows[0].Revenue.String())
	assert.Equal(t, int64(3), rows[0].Orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkFailedOnlyTouchesPending(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `checkout_sessions` SET .* WHERE \\(payment_intent_id = \\? AND status = \\?\\)").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewCheckoutRepository(gdb).MarkFailed(context.Background(), "pi_1", "stock_lost")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
