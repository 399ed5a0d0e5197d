package mysql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/aromastore/internal/cart/domain"
	"github.com/wyfcoding/aromastore/pkg/db/dbtest"
)

func TestFindMissingCartReturnsNil(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectQuery("SELECT \\* FROM `carts` WHERE user_id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}))

	cart, err := NewCartRepository(gdb).Find(context.Background(), 3)
	require.NoError(t, err)
	assert.Nil(t, cart)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveItemUpserts(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `cart_items` .* ON DUPLICATE KEY UPDATE `quantity`=VALUES\\(`quantity`\\)").
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectCommit()

	err := NewCartRepository(gdb).SaveItem(context.Background(), &domain.CartItem{CartID: 1, VariantID: 2, ProductID: 3, Quantity: 2})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteItemReportsMissing(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `cart_items` WHERE cart_id = \\? AND variant_id = \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	found, err := NewCartRepository(gdb).DeleteItem(context.Background(), 1, 9)
	require.NoError(t, err)
	assert.False(t, found)
}
