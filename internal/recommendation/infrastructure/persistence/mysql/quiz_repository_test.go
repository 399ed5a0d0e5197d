package mysql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/aromastore/pkg/db/dbtest"
)

func TestListQuestionsPreloadsOptions(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectQuery("SELECT \\* FROM `quiz_questions` ORDER BY position ASC, id ASC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "prompt", "position"}).
			AddRow(1, "Which mood?", 1).
			AddRow(2, "Which format?", 2))
	mock.ExpectQuery("SELECT \\* FROM `quiz_options` WHERE `quiz_options`.`question_id` IN").
		WillReturnRows(sqlmock.NewRows([]string{"id", "question_id", "label", "tags", "categories", "weight", "position"}).
			AddRow(10, 1, "Relaxed", "lavender,calming", "", 2, 1).
			AddRow(20, 2, "Candle", "", "candles", 1, 1))

	questions, err := NewQuizRepository(gdb).ListQuestions(context.Background())
	require.NoError(t, err)
	require.Len(t, questions, 2)
	require.Len(t, questions[0].Options, 1)
	assert.Equal(t, []string{"lavender", "calming"}, questions[0].Options[0].TagList())
	assert.Equal(t, []string{"candles"}, questions[1].Options[0].CategoryList())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestResultNone(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectQuery("SELECT \\* FROM `quiz_results` WHERE user_id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	res, err := NewQuizRepository(gdb).LatestResult(context.Background(), 9)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}
