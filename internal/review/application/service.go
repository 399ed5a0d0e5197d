package application

import (
	"context"
	"strings"

	catalogdomain "github.com/wyfcoding/aromastore/internal/catalog/domain"
	"github.com/wyfcoding/aromastore/internal/review/domain"
	"github.com/wyfcoding/aromastore/pkg/db"
	"github.com/wyfcoding/aromastore/pkg/logger"
)

// ProductCatalog 评价模块依赖的商品目录能力
type ProductCatalog interface {
	GetProductEntityBySlug(ctx context.Context, slug string) (*catalogdomain.Product, error)
	UpdateRating(ctx context.Context, productID uint, avg float64, count int) error
}

// PurchaseChecker 判断用户是否已购买商品
type PurchaseChecker interface {
	HasPurchased(ctx context.Context, userID, productID uint) (bool, error)
}

// CreateReviewCommand 发表评价命令
type CreateReviewCommand struct {
	UserID      uint
	ProductSlug string
	Rating      int
	Title       string
	Body        string
}

// ReviewApplicationService 评价应用服务
type ReviewApplicationService struct {
	repo      domain.ReviewRepository
	catalog   ProductCatalog
	purchases PurchaseChecker
}

// NewReviewApplicationService 创建评价应用服务
func NewReviewApplicationService(repo domain.ReviewRepository, catalog ProductCatalog, purchases PurchaseChecker) *ReviewApplicationService {
	return &ReviewApplicationService{repo: repo, catalog: catalog, purchases: purchases}
}

// CreateReview 发表评价，已购买用户标记为认证购买
func (s *ReviewApplicationService) CreateReview(ctx context.Context, cmd CreateReviewCommand) (*domain.Review, error) {
	if !domain.ValidRating(cmd.Rating) {
		return nil, domain.ErrInvalidRating
	}
	product, err := s.catalog.GetProductEntityBySlug(ctx, cmd.ProductSlug)
	if err != nil {
		return nil, err
	}
	verified, err := s.purchases.HasPurchased(ctx, cmd.UserID, product.ID)
	if err != nil {
		return nil, err
	}

	rv := &domain.Review{
		ProductID:        product.ID,
		UserID:           cmd.UserID,
		Rating:           cmd.Rating,
		Title:            strings.TrimSpace(cmd.Title),
		Body:             strings.TrimSpace(cmd.Body),
		VerifiedPurchase: verified,
		Status:           domain.StatusVisible,
	}
	if err := s.repo.Create(ctx, rv); err != nil {
		return nil, err
	}
	if err := s.refreshRating(ctx, product.ID); err != nil {
		return nil, err
	}
	logger.Info(ctx, "review created", "review_id", rv.ID, "product_id", product.ID, "verified", verified)
	return rv, nil
}

// ListReviews 商品的可见评价
func (s *ReviewApplicationService) ListReviews(ctx context.Context, slug string, page, size int) ([]*domain.Review, int64, error) {
	product, err := s.catalog.GetProductEntityBySlug(ctx, slug)
	if err != nil {
		return nil, 0, err
	}
	offset, limit := db.Paginate(page, size, 50)
	return s.repo.ListVisible(ctx, product.ID, offset, limit)
}

// Summary 商品评分汇总
func (s *ReviewApplicationService) Summary(ctx context.Context, slug string) (*domain.Summary, error) {
	product, err := s.catalog.GetProductEntityBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	h, err := s.repo.Histogram(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	summary := domain.NewSummary(h)
	return &summary, nil
}

// AdminList 后台评价列表
func (s *ReviewApplicationService) AdminList(ctx context.Context, status string, page, size int) ([]*domain.Review, int64, error) {
	if status != "" && status != domain.StatusVisible && status != domain.StatusHidden {
		return nil, 0, domain.ErrInvalidStatus
	}
	offset, limit := db.Paginate(page, size, 100)
	return s.repo.List(ctx, status, offset, limit)
}

// SetReviewStatus 审核评价并重算商品评分
func (s *ReviewApplicationService) SetReviewStatus(ctx context.Context, id uint, status string) (*domain.Review, error) {
	if status != domain.StatusVisible && status != domain.StatusHidden {
		return nil, domain.ErrInvalidStatus
	}
	rv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rv.Status == status {
		return rv, nil
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	rv.Status = status
	if err := s.refreshRating(ctx, rv.ProductID); err != nil {
		return nil, err
	}
	logger.Info(ctx, "review moderated", "review_id", id, "status", status)
	return rv, nil
}

func (s *ReviewApplicationService) refreshRating(ctx context.Context, productID uint) error {
	h, err := s.repo.Histogram(ctx, productID)
	if err != nil {
		return err
	}
	summary := domain.NewSummary(h)
	return s.catalog.UpdateRating(ctx, productID, summary.Average, summary.Count)
}
