// Package domain 香型测验与推荐打分
package domain

import (
	"context"
	"strings"
	"time"

	"github.com/wyfcoding/aromastore/pkg/apperr"
)

var (
	ErrNoAnswers       = apperr.BadRequest("quiz_no_answers", "at least one answer is required")
	ErrUnknownQuestion = apperr.BadRequest("quiz_unknown_question", "unknown quiz question")
	ErrUnknownOption   = apperr.BadRequest("quiz_unknown_option", "option does not belong to the question")
	ErrSingleChoice    = apperr.BadRequest("quiz_single_choice", "question accepts a single option")
)

// QuizQuestion 测验题目
type QuizQuestion struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Prompt    string       `gorm:"column:prompt;type:varchar(255);not null" json:"prompt"`
	Position  int          `gorm:"column:position;not null;index" json:"position"`
	Multiple  bool         `gorm:"column:multiple;not null" json:"multiple"`
	Options   []QuizOption `gorm:"foreignKey:QuestionID" json:"options"`
	CreatedAt time.Time    `gorm:"column:created_at" json:"-"`
}

func (QuizQuestion) TableName() string { return "quiz_questions" }

// Option 按 ID 查找选项
func (q *QuizQuestion) Option(id uint) (*QuizOption, bool) {
	for i := range q.Options {
		if q.Options[i].ID == id {
			return &q.Options[i], true
		}
	}
	return nil, false
}

// QuizOption 选项，选中后为标签与分类累加权重
type QuizOption struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	QuestionID uint    `gorm:"column:question_id;index;not null" json:"-"`
	Label      string  `gorm:"column:label;type:varchar(255);not null" json:"label"`
	Tags       string  `gorm:"column:tags;type:varchar(255)" json:"-"`
	Categories string  `gorm:"column:categories;type:varchar(255)" json:"-"`
	Weight     float64 `gorm:"column:weight;not null;default:1" json:"-"`
	Position   int     `gorm:"column:position;not null" json:"position"`
}

func (QuizOption) TableName() string { return "quiz_options" }

// TagList 逗号分隔的标签
func (o *QuizOption) TagList() []string { return splitCSV(o.Tags) }

// CategoryList 逗号分隔的分类
func (o *QuizOption) CategoryList() []string { return splitCSV(o.Categories) }

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Answer 一道题的作答
type Answer struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	OptionIDs  []uint `json:"option_ids"`
}

// QuizResult 测验结果，匿名用户 UserID 为空
type QuizResult struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        *uint     `gorm:"column:user_id;index" json:"user_id,omitempty"`
	Answers       []Answer  `gorm:"column:answers;type:json;serializer:json" json:"answers"`
	TopTags       []string  `gorm:"column:top_tags;type:json;serializer:json" json:"top_tags"`
	TopCategories []string  `gorm:"column:top_categories;type:json;serializer:json" json:"top_categories"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
}

func (QuizResult) TableName() string { return "quiz_results" }

// QuizRepository 测验仓储
type QuizRepository interface {
	// ListQuestions 全部题目与选项，按位置排序
	ListQuestions(ctx context.Context) ([]*QuizQuestion, error)
	CreateQuestion(ctx context.Context, q *QuizQuestion) error
	SaveResult(ctx context.Context, r *QuizResult) error
	// LatestResult 用户最近一次测验结果，没有时返回 nil
	LatestResult(ctx context.Context, userID uint) (*QuizResult, error)
}
