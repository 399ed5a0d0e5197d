package grpc

import (
	"context"
	"encoding/json"

	catalogapp "github.com/wyfcoding/aromastore/internal/catalog/application"
	recapp "github.com/wyfcoding/aromastore/internal/recommendation/application"
	"github.com/wyfcoding/aromastore/pkg/apperr"
	"github.com/wyfcoding/aromastore/pkg/logger"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Catalog 商品查询
type Catalog interface {
	GetProductBySlug(ctx context.Context, slug string) (*catalogapp.ProductDetail, error)
	ListProducts(ctx context.Context, q catalogapp.ListProductsQuery) ([]catalogapp.ProductSummary, int64, error)
}

// QuizRecommender 测验推荐
type QuizRecommender interface {
	SubmitQuiz(ctx context.Context, cmd recapp.SubmitQuizCommand) (*recapp.QuizOutcome, error)
}

// Server storefront.v1.Storefront 实现
type Server struct {
	catalog Catalog
	quiz    QuizRecommender
}

var _ StorefrontServer = (*Server)(nil)

// NewServer 创建服务实现
func NewServer(catalog Catalog, quiz QuizRecommender) *Server {
	return &Server{catalog: catalog, quiz: quiz}
}

var errBadPayload = apperr.BadRequest("invalid_argument", "malformed request payload")

// toStruct 经 JSON 转换为 Struct，字段名与 HTTP 接口一致
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, apperr.ToGRPC(err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, apperr.ToGRPC(err)
	}
	return out, nil
}

func fromStruct(in *structpb.Struct, dest any) error {
	data, err := protojson.Marshal(in)
	if err != nil {
		return errBadPayload
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return errBadPayload.Wrap(err)
	}
	return nil
}

func fail(ctx context.Context, method string, err error) error {
	if apperr.KindOf(err) == apperr.KindInternal {
		logger.Error(ctx, "grpc call failed", "method", method, "error", err)
	}
	return apperr.ToGRPC(err)
}

// GetProduct {slug}
func (s *Server) GetProduct(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	slug := in.GetFields()["slug"].GetStringValue()
	if slug == "" {
		return nil, apperr.ToGRPC(apperr.BadRequest("invalid_argument", "slug is required"))
	}
	detail, err := s.catalog.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, fail(ctx, "GetProduct", err)
	}
	return toStruct(detail)
}

type listRequest struct {
	Category string `json:"category"`
	Tag      string `json:"tag"`
	Q        string `json:"q"`
	Sort     string `json:"sort"`
	Page     int    `json:"page"`
	Size     int    `json:"size"`
}

// ListProducts {category, tag, q, sort, page, size}
func (s *Server) ListProducts(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req listRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, apperr.ToGRPC(err)
	}
	items, total, err := s.catalog.ListProducts(ctx, catalogapp.ListProductsQuery{
		CategorySlug: req.Category,
		TagSlug:      req.Tag,
		Query:        req.Q,
		Sort:         req.Sort,
		Page:         req.Page,
		Size:         req.Size,
	})
	if err != nil {
		return nil, fail(ctx, "ListProducts", err)
	}
	return toStruct(map[string]any{"items": items, "total": total, "page": req.Page, "size": req.Size})
}

// RecommendForQuiz {answers: [{question_id, option_ids}], limit}
func (s *Server) RecommendForQuiz(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var cmd recapp.SubmitQuizCommand
	if err := fromStruct(in, &cmd); err != nil {
		return nil, apperr.ToGRPC(err)
	}
	out, err := s.quiz.SubmitQuiz(ctx, cmd)
	if err != nil {
		return nil, fail(ctx, "RecommendForQuiz", err)
	}
	return toStruct(out)
}
