package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/aromastore/internal/recommendation/domain"
	"github.com/wyfcoding/aromastore/pkg/db"
	"gorm.io/gorm"
)

type quizRepository struct{ db *gorm.DB }

// NewQuizRepository 创建测验仓储
func NewQuizRepository(gdb *gorm.DB) domain.QuizRepository {
	return &quizRepository{db: gdb}
}

func (r *quizRepository) ListQuestions(ctx context.Context) ([]*domain.QuizQuestion, error) {
	var questions []*domain.QuizQuestion
	err := db.Conn(ctx, r.db).
		Preload("Options", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC, id ASC") }).
		Order("position ASC, id ASC").
		Find(&questions).Error
	return questions, err
}

func (r *quizRepository) CreateQuestion(ctx context.Context, q *domain.QuizQuestion) error {
	return db.Conn(ctx, r.db).Create(q).Error
}

func (r *quizRepository) SaveResult(ctx context.Context, res *domain.QuizResult) error {
	return db.Conn(ctx, r.db).Create(res).Error
}

func (r *quizRepository) LatestResult(ctx context.Context, userID uint) (*domain.QuizResult, error) {
	var res domain.QuizResult
	err := db.Conn(ctx, r.db).Where("user_id = ?", userID).Order("id DESC").First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}
