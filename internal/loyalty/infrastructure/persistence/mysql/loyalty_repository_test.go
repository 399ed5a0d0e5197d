package mysql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/aromastore/internal/loyalty/domain"
	"github.com/wyfcoding/aromastore/pkg/db/dbtest"
)

func TestAddPointsInsufficientBalance(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `loyalty_accounts` SET .* WHERE \\(user_id = \\? AND balance \\+ \\? >= 0\\)").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := NewAccountRepository(gdb).AddPoints(context.Background(), 1, -500, 0)
	assert.ErrorIs(t, err, domain.ErrInsufficientPoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddPointsReturnsBalance(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `loyalty_accounts` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT `balance` FROM `loyalty_accounts` WHERE user_id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(340))

	balance, err := NewAccountRepository(gdb).AddPoints(context.Background(), 1, 40, 40)
	require.NoError(t, err)
	assert.Equal(t, 340, balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}
