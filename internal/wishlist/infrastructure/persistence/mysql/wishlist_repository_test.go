package mysql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/aromastore/internal/wishlist/domain"
	"github.com/wyfcoding/aromastore/pkg/db/dbtest"
)

func TestCreateDuplicateReturnsExisting(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `wishlist_items`").
		WillReturnError(&gomysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()
	mock.ExpectQuery("SELECT \\* FROM `wishlist_items` WHERE user_id = \\? AND product_id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "product_id"}).AddRow(11, 7, 3))

	item, err := NewWishlistRepository(gdb).Create(context.Background(), &domain.WishlistItem{UserID: 7, ProductID: 3})
	require.NoError(t, err)
	assert.Equal(t, uint(11), item.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindMissingReturnsNil(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectQuery("SELECT \\* FROM `wishlist_items`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	item, err := NewWishlistRepository(gdb).Find(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Nil(t, item)
}
