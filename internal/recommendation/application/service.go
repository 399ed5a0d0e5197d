package application

import (
	"context"
	"time"

	catalogapp "github.com/wyfcoding/aromastore/internal/catalog/application"
	catalogdomain "github.com/wyfcoding/aromastore/internal/catalog/domain"
	orderdomain "github.com/wyfcoding/aromastore/internal/order/domain"
	"github.com/wyfcoding/aromastore/internal/recommendation/domain"
	"github.com/wyfcoding/aromastore/pkg/logger"
	"github.com/wyfcoding/aromastore/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

const (
	candidatePage = 200
	maxCandidates = 10000
	historyLimit  = 100
)

// Catalog 推荐所需的商品查询
type Catalog interface {
	FindCandidates(ctx context.Context, f catalogdomain.CandidateFilter) ([]*catalogdomain.Product, error)
	TopRated(ctx context.Context, excludeIDs []uint, limit int) ([]*catalogdomain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []uint) ([]*catalogdomain.Product, error)
	GetProductEntityBySlug(ctx context.Context, slug string) (*catalogdomain.Product, error)
}

// PurchaseHistory 购买记录
type PurchaseHistory interface {
	PurchasedItems(ctx context.Context, userID uint, limit int) ([]orderdomain.PurchasedItem, error)
}

// Wishlist 收藏记录
type Wishlist interface {
	ProductIDs(ctx context.Context, userID uint) ([]uint, error)
}

// Recommended 推荐商品
type Recommended struct {
	catalogapp.ProductSummary
	Score float64 `json:"score"`
}

// QuizOutcome 测验结果与推荐
type QuizOutcome struct {
	ResultID      uint          `json:"result_id"`
	TopTags       []string      `json:"top_tags"`
	TopCategories []string      `json:"top_categories"`
	Products      []Recommended `json:"products"`
}

// SubmitQuizCommand 提交测验
type SubmitQuizCommand struct {
	UserID  *uint           `json:"-"`
	Answers []domain.Answer `json:"answers" binding:"required,dive"`
	Limit   int             `json:"limit"`
}

// RecommendationApplicationService 测验与个性化推荐
type RecommendationApplicationService struct {
	quiz      domain.QuizRepository
	catalog   Catalog
	purchases PurchaseHistory
	wishlist  Wishlist
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewRecommendationApplicationService 创建推荐服务
func NewRecommendationApplicationService(
	quiz domain.QuizRepository,
	catalog Catalog,
	purchases PurchaseHistory,
	wishlist Wishlist,
	m *metrics.Metrics,
) *RecommendationApplicationService {
	return &RecommendationApplicationService{
		quiz:      quiz,
		catalog:   catalog,
		purchases: purchases,
		wishlist:  wishlist,
		metrics:   m,
		now:       time.Now,
	}
}

// Questions 测验题目
func (s *RecommendationApplicationService) Questions(ctx context.Context) ([]*domain.QuizQuestion, error) {
	return s.quiz.ListQuestions(ctx)
}

// CreateQuestion 后台新增题目
func (s *RecommendationApplicationService) CreateQuestion(ctx context.Context, q *domain.QuizQuestion) error {
	return s.quiz.CreateQuestion(ctx, q)
}

// SubmitQuiz 按作答累计偏好权重并推荐商品
func (s *RecommendationApplicationService) SubmitQuiz(ctx context.Context, cmd SubmitQuizCommand) (*QuizOutcome, error) {
	if len(cmd.Answers) == 0 {
		return nil, domain.ErrNoAnswers
	}
	questions, err := s.quiz.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*domain.QuizQuestion, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	sig := domain.NewSignals()
	selected := 0
	for _, a := range cmd.Answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			return nil, domain.ErrUnknownQuestion
		}
		if !q.Multiple && len(a.OptionIDs) > 1 {
			return nil, domain.ErrSingleChoice
		}
		for _, optID := range a.OptionIDs {
			opt, ok := q.Option(optID)
			if !ok {
				return nil, domain.ErrUnknownOption
			}
			for _, tag := range opt.TagList() {
				sig.Tags.Add(tag, opt.Weight)
			}
			for _, cat := range opt.CategoryList() {
				sig.Categories.Add(cat, opt.Weight)
			}
			selected++
		}
	}
	if selected == 0 {
		return nil, domain.ErrNoAnswers
	}

	topTags := sig.Tags.Top(domain.DefaultTopTags)
	topCats := sig.Categories.Top(domain.DefaultTopCategories)
	products, err := s.rank(ctx, sig, topTags, topCats, nil, domain.NormalizeLimit(cmd.Limit))
	if err != nil {
		return nil, err
	}

	result := &domain.QuizResult{
		UserID:        cmd.UserID,
		Answers:       cmd.Answers,
		TopTags:       topTags,
		TopCategories: topCats,
	}
	if err := s.quiz.SaveResult(ctx, result); err != nil {
		return nil, err
	}
	s.metrics.RecordRecommendation("quiz")

	return &QuizOutcome{ResultID: result.ID, TopTags: topTags, TopCategories: topCats, Products: products}, nil
}

// Personalized 基于购买与收藏记录的推荐，已购商品不再推荐；没有记录时退化为高评分商品
func (s *RecommendationApplicationService) Personalized(ctx context.Context, userID uint, limit int) ([]Recommended, error) {
	limit = domain.NormalizeLimit(limit)

	var (
		purchased []orderdomain.PurchasedItem
		wished    []uint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		purchased, err = s.purchases.PurchasedItems(gctx, userID, historyLimit)
		return err
	})
	g.Go(func() error {
		var err error
		wished, err = s.wishlist.ProductIDs(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.now()
	weights := make(map[uint]float64, len(purchased)+len(wished))
	order := make([]uint, 0, len(purchased)+len(wished))
	exclude := make(map[uint]struct{}, len(purchased))
	add := func(id uint, w float64) {
		if _, ok := weights[id]; !ok {
			order = append(order, id)
		}
		weights[id] += w
	}
	for _, p := range purchased {
		add(p.ProductID, float64(p.Quantity)*domain.RecencyMultiplier(p.OrderedAt, now))
		exclude[p.ProductID] = struct{}{}
	}
	for _, id := range wished {
		add(id, 1.0)
	}

	sig := domain.NewSignals()
	if len(order) > 0 {
		products, err := s.catalog.GetProductsByIDs(ctx, order)
		if err != nil {
			return nil, err
		}
		byID := make(map[uint]*catalogdomain.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}
		for _, id := range order {
			if p, ok := byID[id]; ok {
				sig.AddProduct(p.TagSlugs(), p.CategorySlug(), weights[id])
			}
		}
	}

	if sig.Empty() {
		s.metrics.RecordRecommendation("top_rated")
		return s.topRated(ctx, keys(exclude), limit)
	}

	out, err := s.rank(ctx, sig, sig.Tags.Top(domain.DefaultTopTags), sig.Categories.Top(domain.DefaultTopCategories), exclude, limit)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRecommendation("personalized")
	if len(out) >= limit {
		return out, nil
	}

	for _, r := range out {
		exclude[r.ID] = struct{}{}
	}
	fill, err := s.topRated(ctx, keys(exclude), limit-len(out))
	if err != nil {
		logger.Warn(ctx, "top rated fill failed", "user_id", userID, "error", err)
		return out, nil
	}
	return append(out, fill...), nil
}

// Similar 与指定商品共享标签或分类的商品
func (s *RecommendationApplicationService) Similar(ctx context.Context, slug string, limit int) ([]Recommended, error) {
	p, err := s.catalog.GetProductEntityBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	sig := domain.NewSignals()
	sig.AddProduct(p.TagSlugs(), p.CategorySlug(), 1)
	if sig.Empty() {
		return []Recommended{}, nil
	}
	s.metrics.RecordRecommendation("similar")
	return s.rank(ctx, sig, p.TagSlugs(), []string{p.CategorySlug()}, map[uint]struct{}{p.ID: {}}, domain.NormalizeLimit(limit))
}

func (s *RecommendationApplicationService) rank(
	ctx context.Context,
	sig domain.Signals,
	topTags, topCats []string,
	exclude map[uint]struct{},
	limit int,
) ([]Recommended, error) {
	filter := catalogdomain.CandidateFilter{
		TagSlugs:      topTags,
		CategorySlugs: topCats,
		ExcludeIDs:    keys(exclude),
		Limit:         candidatePage,
	}
	// 逐页取完全部匹配商品再打分，候选不受单页窗口限制
	var candidates []domain.Candidate
	for len(candidates) < maxCandidates {
		page, err := s.catalog.FindCandidates(ctx, filter)
		if err != nil {
			return nil, err
		}
		for _, p := range page {
			if _, skip := exclude[p.ID]; skip {
				continue
			}
			candidates = append(candidates, domain.Candidate{
				ProductID:   p.ID,
				Tags:        p.TagSlugs(),
				Category:    p.CategorySlug(),
				AvgRating:   p.AvgRating,
				ReviewCount: p.ReviewCount,
			})
		}
		if len(page) < candidatePage {
			break
		}
		filter.AfterID = page[len(page)-1].ID
	}
	if len(candidates) >= maxCandidates {
		logger.Warn(ctx, "recommendation candidates truncated", "limit", maxCandidates)
	}

	ranked := domain.Rank(candidates, sig, topTags, topCats, limit)
	if len(ranked) == 0 {
		return []Recommended{}, nil
	}
	ids := make([]uint, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.ProductID)
	}
	products, err := s.catalog.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*catalogdomain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	out := make([]Recommended, 0, len(ranked))
	for _, r := range ranked {
		// 打分后下架的商品直接跳过
		if p, ok := byID[r.ProductID]; ok {
			out = append(out, Recommended{ProductSummary: catalogapp.ToSummary(p), Score: r.Score})
		}
	}
	return out, nil
}

func (s *RecommendationApplicationService) topRated(ctx context.Context, exclude []uint, limit int) ([]Recommended, error) {
	products, err := s.catalog.TopRated(ctx, exclude, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Recommended, 0, len(products))
	for _, p := range products {
		out = append(out, Recommended{ProductSummary: catalogapp.ToSummary(p)})
	}
	return out, nil
}

func keys(set map[uint]struct{}) []uint {
	out := make([]uint, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
