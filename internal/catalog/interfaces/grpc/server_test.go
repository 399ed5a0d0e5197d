package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	catalogapp "github.com/wyfcoding/aromastore/internal/catalog/application"
	catalogdomain "github.com/wyfcoding/aromastore/internal/catalog/domain"
	recapp "github.com/wyfcoding/aromastore/internal/recommendation/application"
	recdomain "github.com/wyfcoding/aromastore/internal/recommendation/domain"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type stubCatalog struct{ lastQuery catalogapp.ListProductsQuery }

func (s *stubCatalog) GetProductBySlug(_ context.Context, slug string) (*catalogapp.ProductDetail, error) {
	if slug != "lavender-oil" {
		return nil, catalogdomain.ErrProductNotFound
	}
	return &catalogapp.ProductDetail{
		ProductSummary: catalogapp.ProductSummary{ID: 1, Slug: slug, Name: "Lavender Oil", Tags: []string{"lavender"}},
		Description:    "Calming",
	}, nil
}

func (s *stubCatalog) ListProducts(_ context.Context, q catalogapp.ListProductsQuery) ([]catalogapp.ProductSummary, int64, error) {
	s.lastQuery = q
	return []catalogapp.ProductSummary{{ID: 1, Slug: "lavender-oil"}}, 1, nil
}

type stubQuiz struct{ got recapp.SubmitQuizCommand }

func (s *stubQuiz) SubmitQuiz(_ context.Context, cmd recapp.SubmitQuizCommand) (*recapp.QuizOutcome, error) {
	s.got = cmd
	if len(cmd.Answers) == 0 {
		return nil, recdomain.ErrNoAnswers
	}
	return &recapp.QuizOutcome{ResultID: 5, TopTags: []string{"lavender"}}, nil
}

func dial(t *testing.T, srv StorefrontServer) *StorefrontClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	RegisterStorefrontServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewStorefrontClient(conn)
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestGetProduct(t *testing.T) {
	client := dial(t, NewServer(&stubCatalog{}, &stubQuiz{}))
	ctx := context.Background()

	out, err := client.GetProduct(ctx, mustStruct(t, map[string]any{"slug": "lavender-oil"}))
	require.NoError(t, err)
	assert.Equal(t, "Lavender Oil", out.GetFields()["name"].GetStringValue())
	assert.Equal(t, "Calming", out.GetFields()["description"].GetStringValue())

	_, err = client.GetProduct(ctx, mustStruct(t, map[string]any{"slug": "missing"}))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.GetProduct(ctx, mustStruct(t, map[string]any{}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestListProductsMapsFilters(t *testing.T) {
	catalog := &stubCatalog{}
	client := dial(t, NewServer(catalog, &stubQuiz{}))

	out, err := client.ListProducts(context.Background(), mustStruct(t, map[string]any{
		"category": "essential-oils", "tag": "lavender", "page": 2, "size": 10,
	}))
	require.NoError(t, err)
	assert.Equal(t, float64(1), out.GetFields()["total"].GetNumberValue())
	assert.Len(t, out.GetFields()["items"].GetListValue().GetValues(), 1)
	assert.Equal(t, "essential-oils", catalog.lastQuery.CategorySlug)
	assert.Equal(t, "lavender", catalog.lastQuery.TagSlug)
	assert.Equal(t, 2, catalog.lastQuery.Page)
}

func TestRecommendForQuiz(t *testing.T) {
	quiz := &stubQuiz{}
	client := dial(t, NewServer(&stubCatalog{}, quiz))
	ctx := context.Background()

	out, err := client.RecommendForQuiz(ctx, mustStruct(t, map[string]any{
		"answers": []any{map[string]any{"question_id": 1, "option_ids": []any{11, 12}}},
		"limit":   4,
	}))
	require.NoError(t, err)
	assert.Equal(t, float64(5), out.GetFields()["result_id"].GetNumberValue())
	require.Len(t, quiz.got.Answers, 1)
	assert.Equal(t, []uint{11, 12}, quiz.got.Answers[0].OptionIDs)
	assert.Equal(t, 4, quiz.got.Limit)

	_, err = client.RecommendForQuiz(ctx, mustStruct(t, map[string]any{}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
