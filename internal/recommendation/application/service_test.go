package application

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	catalogdomain "github.com/wyfcoding/aromastore/internal/catalog/domain"
	orderdomain "github.com/wyfcoding/aromastore/internal/order/domain"
	"github.com/wyfcoding/aromastore/internal/recommendation/domain"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func product(id uint, slug, category string, avg float64, reviews int, tags ...string) *catalogdomain.Product {
	p := &catalogdomain.Product{
		ID:          id,
		Slug:        slug,
		Name:        slug,
		Category:    &catalogdomain.Category{Slug: category},
		IsActive:    true,
		AvgRating:   avg,
		ReviewCount: reviews,
	}
	for _, t := range tags {
		p.Tags = append(p.Tags, catalogdomain.Tag{Slug: t})
	}
	return p
}

type fakeCatalog struct {
	products []*catalogdomain.Product
	pages    int
}

// FindCandidates 按 id 升序游标分页，products 需按 id 升序排列
func (f *fakeCatalog) FindCandidates(_ context.Context, filter catalogdomain.CandidateFilter) ([]*catalogdomain.Product, error) {
	f.pages++
	want := map[string]bool{}
	for _, t := range filter.TagSlugs {
		want["t:"+t] = true
	}
	for _, c := range filter.CategorySlugs {
		want["c:"+c] = true
	}
	skip := map[uint]bool{}
	for _, id := range filter.ExcludeIDs {
		skip[id] = true
	}
	var out []*catalogdomain.Product
	for _, p := range f.products {
		if !p.IsActive || p.ID <= filter.AfterID || skip[p.ID] {
			continue
		}
		hit := want["c:"+p.CategorySlug()]
		for _, t := range p.TagSlugs() {
			hit = hit || want["t:"+t]
		}
		if hit {
			out = append(out, p)
		}
	}
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeCatalog) TopRated(_ context.Context, exclude []uint, limit int) ([]*catalogdomain.Product, error) {
	skip := map[uint]bool{}
	for _, id := range exclude {
		skip[id] = true
	}
	var out []*catalogdomain.Product
	for _, p := range f.products {
		if p.IsActive && !skip[p.ID] {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AvgRating != out[j].AvgRating {
			return out[i].AvgRating > out[j].AvgRating
		}
		return out[i].ReviewCount > out[j].ReviewCount
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCatalog) GetProductsByIDs(_ context.Context, ids []uint) ([]*catalogdomain.Product, error) {
	var out []*catalogdomain.Product
	for _, id := range ids {
		for _, p := range f.products {
			if p.ID == id && p.IsActive {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetProductEntityBySlug(_ context.Context, slug string) (*catalogdomain.Product, error) {
	for _, p := range f.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, catalogdomain.ErrProductNotFound
}

type fakeHistory map[uint][]orderdomain.PurchasedItem

func (f fakeHistory) PurchasedItems(_ context.Context, userID uint, _ int) ([]orderdomain.PurchasedItem, error) {
	return f[userID], nil
}

type fakeWishlist map[uint][]uint

func (f fakeWishlist) ProductIDs(_ context.Context, userID uint) ([]uint, error) {
	return f[userID], nil
}

type memQuiz struct {
	questions []*domain.QuizQuestion
	results   []*domain.QuizResult
}

func (m *memQuiz) ListQuestions(context.Context) ([]*domain.QuizQuestion, error) {
	return m.questions, nil
}

func (m *memQuiz) CreateQuestion(_ context.Context, q *domain.QuizQuestion) error {
	q.ID = uint(len(m.questions) + 1)
	m.questions = append(m.questions, q)
	return nil
}

func (m *memQuiz) SaveResult(_ context.Context, r *domain.QuizResult) error {
	r.ID = uint(len(m.results) + 1)
	m.results = append(m.results, r)
	return nil
}

func (m *memQuiz) LatestResult(_ context.Context, userID uint) (*domain.QuizResult, error) {
	for i := len(m.results) - 1; i >= 0; i-- {
		if r := m.results[i]; r.UserID != nil && *r.UserID == userID {
			return r, nil
		}
	}
	return nil, nil
}

func newService() (*RecommendationApplicationService, *memQuiz) {
	catalog := &fakeCatalog{products: []*catalogdomain.Product{
		product(1, "lavender-oil", "essential-oils", 4.0, 10, "lavender", "calming"),
		product(2, "sweet-orange-oil", "essential-oils", 4.5, 3, "citrus", "uplifting"),
		product(3, "lavender-candle", "candles", 5.0, 8, "lavender"),
		product(4, "cedar-candle", "candles", 3.0, 2, "woody"),
		product(5, "chamomile-bath-salts", "bath", 0, 0, "calming"),
		product(6, "eucalyptus-mist", "room-sprays", 4.9, 40, "fresh"),
	}}
	quiz := &memQuiz{questions: []*domain.QuizQuestion{
		{ID: 1, Prompt: "How do you want to feel?", Options: []domain.QuizOption{
			{ID: 11, QuestionID: 1, Label: "Relaxed", Tags: "lavender,calming", Weight: 2},
			{ID: 12, QuestionID: 1, Label: "Energised", Tags: "citrus,uplifting", Weight: 2},
		}},
		{ID: 2, Prompt: "Pick formats", Multiple: true, Options: []domain.QuizOption{
			{ID: 21, QuestionID: 2, Label: "Candles", Categories: "candles", Weight: 1},
			{ID: 22, QuestionID: 2, Label: "Oils", Categories: "essential-oils", Weight: 1},
		}},
	}}
	history := fakeHistory{
		7: {
			{ProductID: 1, Quantity: 2, OrderedAt: fixedNow.Add(-5 * 24 * time.Hour)},
		},
	}
	wishlist := fakeWishlist{8: {4}}
	svc := NewRecommendationApplicationService(quiz, catalog, history, wishlist, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc, quiz
}

func ids(recs []Recommended) []uint {
	out := make([]uint, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func TestSubmitQuizRanksByWeightsAndRating(t *testing.T) {
	svc, quiz := newService()
	user := uint(42)

	out, err := svc.SubmitQuiz(context.Background(), SubmitQuizCommand{
		UserID: &user,
		Answers: []domain.Answer{
			{QuestionID: 1, OptionIDs: []uint{11}},
			{QuestionID: 2, OptionIDs: []uint{21}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"lavender", "calming"}, out.TopTags)
	assert.Equal(t, []string{"candles"}, out.TopCategories)
	// 1: (2+2)×1.4=5.6  3: (2+1)×1.5=4.5  5: 2  4: 1×1.3=1.3
	assert.Equal(t, []uint{1, 3, 5, 4}, ids(out.Products))
	assert.InDelta(t, 5.6, out.Products[0].Score, 1e-9)

	require.Len(t, quiz.results, 1)
	assert.Equal(t, &user, quiz.results[0].UserID)
	assert.Equal(t, out.ResultID, quiz.results[0].ID)
}

func TestSubmitQuizValidation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.SubmitQuiz(ctx, SubmitQuizCommand{})
	assert.ErrorIs(t, err, domain.ErrNoAnswers)

	_, err = svc.SubmitQuiz(ctx, SubmitQuizCommand{Answers: []domain.Answer{{QuestionID: 1}}})
	assert.ErrorIs(t, err, domain.ErrNoAnswers)

	_, err = svc.SubmitQuiz(ctx, SubmitQuizCommand{Answers: []domain.Answer{{QuestionID: 99, OptionIDs: []uint{1}}}})
	assert.ErrorIs(t, err, domain.ErrUnknownQuestion)

	_, err = svc.SubmitQuiz(ctx, SubmitQuizCommand{Answers: []domain.Answer{{QuestionID: 1, OptionIDs: []uint{21}}}})
	assert.ErrorIs(t, err, domain.ErrUnknownOption)

	_, err = svc.SubmitQuiz(ctx, SubmitQuizCommand{Answers: []domain.Answer{{QuestionID: 1, OptionIDs: []uint{11, 12}}}})
	assert.ErrorIs(t, err, domain.ErrSingleChoice)
}

func TestPersonalizedExcludesPurchased(t *testing.T) {
	svc, _ := newService()

	recs, err := svc.Personalized(context.Background(), 7, 3)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.NotContains(t, ids(recs), uint(1))
	// 信号：lavender/calming 各 4，essential-oils 4；3: 4×1.5=6  2: 4×1.45=5.8  5: 4
	assert.Equal(t, []uint{3, 2, 5}, ids(recs))
}

func TestPersonalizedFillsWithTopRated(t *testing.T) {
	svc, _ := newService()

	recs, err := svc.Personalized(context.Background(), 8, 4)
	require.NoError(t, err)
	// 收藏 4 → woody/candles：4 为 2×1.3，3 为 1×1.5，再补高评分
	assert.Equal(t, []uint{4, 3, 6, 2}, ids(recs))
}

func TestPersonalizedWithoutHistoryFallsBack(t *testing.T) {
	svc, _ := newService()

	recs, err := svc.Personalized(context.Background(), 99, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 6}, ids(recs))
	assert.Zero(t, recs[0].Score)
}

func TestSimilarSharesTagsOrCategory(t *testing.T) {
	svc, _ := newService()

	recs, err := svc.Similar(context.Background(), "lavender-candle", 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 4}, ids(recs))

	_, err = svc.Similar(context.Background(), "missing", 0)
	assert.ErrorIs(t, err, catalogdomain.ErrProductNotFound)
}

func TestRankingCoversCandidatesBeyondOnePage(t *testing.T) {
	catalog := &fakeCatalog{}
	for id := uint(1); id <= candidatePage+50; id++ {
		catalog.products = append(catalog.products, product(id, fmt.Sprintf("oil-%d", id), "essential-oils", 0, 0))
	}
	// 最佳匹配的 id 在第一页之外
	best := product(candidatePage+51, "lavender-blend", "essential-oils", 5, 20, "lavender", "calming")
	catalog.products = append(catalog.products, best)
	history := fakeHistory{7: {{ProductID: 1, Quantity: 1, OrderedAt: fixedNow}}}
	catalog.products[0].Tags = []catalogdomain.Tag{{Slug: "lavender"}, {Slug: "calming"}}

	svc := NewRecommendationApplicationService(&memQuiz{}, catalog, history, fakeWishlist{}, nil)
	svc.now = func() time.Time { return fixedNow }

	recs, err := svc.Personalized(context.Background(), 7, 3)
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	assert.Equal(t, best.ID, recs[0].ID)
	assert.NotContains(t, ids(recs), uint(1), "purchased product excluded")
	assert.Equal(t, 2, catalog.pages)
}
