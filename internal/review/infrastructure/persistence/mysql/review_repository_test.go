package mysql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/aromastore/internal/review/domain"
	"github.com/wyfcoding/aromastore/pkg/db/dbtest"
)

func TestCreateDuplicateIsConflict(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `reviews`").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	err := NewReviewRepository(gdb).Create(context.Background(), &domain.Review{ProductID: 1, UserID: 2, Rating: 5, Status: domain.StatusVisible})
	assert.ErrorIs(t, err, domain.ErrAlreadyReviewed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistogram(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectQuery("SELECT rating, COUNT\\(\\*\\) AS count FROM `reviews` WHERE .*product_id = \\? AND status = \\?.* GROUP BY `rating`").
		WillReturnRows(sqlmock.NewRows([]string{"rating", "count"}).AddRow(5, 3).AddRow(2, 1))

	h, err := NewReviewRepository(gdb).Histogram(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{5: 3, 2: 1}, h)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusMissing(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `reviews` SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := NewReviewRepository(gdb).UpdateStatus(context.Background(), 5, domain.StatusHidden)
	assert.ErrorIs(t, err, domain.ErrReviewNotFound)
}
