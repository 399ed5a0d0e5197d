package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	catalogapp "github.com/wyfcoding/aromastore/internal/catalog/application"
	catalogdomain "github.com/wyfcoding/aromastore/internal/catalog/domain"
	catalogmysql "github.com/wyfcoding/aromastore/internal/catalog/infrastructure/persistence/mysql"
	recdomain "github.com/wyfcoding/aromastore/internal/recommendation/domain"
	recmysql "github.com/wyfcoding/aromastore/internal/recommendation/infrastructure/persistence/mysql"
	"github.com/wyfcoding/aromastore/pkg/apperr"
	"github.com/wyfcoding/aromastore/pkg/cache"
	"github.com/wyfcoding/aromastore/pkg/db"
	"github.com/wyfcoding/aromastore/pkg/outbox"
)

type seedProduct struct {
	slug, name, desc, category string
	tags                       []string
	variants                   []seedVariant
}

type seedVariant struct {
	sku, name string
	price     string
	stock     int
}

var (
	seedCategories = [][2]string{
		{"essential-oils", "Essential Oils"},
		{"blends", "Blends"},
		{"diffusers", "Diffusers"},
		{"candles", "Candles"},
	}
	seedTags = [][2]string{
		{"lavender", "Lavender"},
		{"citrus", "Citrus"},
		{"woody", "Woody"},
		{"floral", "Floral"},
		{"calming", "Calming"},
		{"energizing", "Energizing"},
		{"sleep", "Sleep"},
		{"focus", "Focus"},
	}
	seedProducts = []seedProduct{
		{"lavender-oil", "Lavender Essential Oil", "Steam-distilled French lavender.", "essential-oils",
			[]string{"lavender", "floral", "calming", "sleep"},
			[]seedVariant{{"LAV-10", "10 ml", "12.00", 120}, {"LAV-30", "30 ml", "28.00", 60}}},
		{"sweet-orange-oil", "Sweet Orange Essential Oil", "Cold-pressed orange peel.", "essential-oils",
			[]string{"citrus", "energizing"},
			[]seedVariant{{"ORG-10", "10 ml", "9.00", 150}}},
		{"peppermint-oil", "Peppermint Essential Oil", "Cooling and bright.", "essential-oils",
			[]string{"energizing", "focus"},
			[]seedVariant{{"PEP-10", "10 ml", "10.00", 90}}},
		{"cedarwood-oil", "Cedarwood Essential Oil", "Atlas cedarwood, warm and grounding.", "essential-oils",
			[]string{"woody", "calming"},
			[]seedVariant{{"CED-10", "10 ml", "11.00", 70}}},
		{"deep-sleep-blend", "Deep Sleep Blend", "Lavender, cedarwood and chamomile.", "blends",
			[]string{"lavender", "woody", "sleep", "calming"},
			[]seedVariant{{"BLD-SLP-10", "10 ml", "16.00", 80}}},
		{"morning-focus-blend", "Morning Focus Blend", "Peppermint, rosemary and lemon.", "blends",
			[]string{"citrus", "focus", "energizing"},
			[]seedVariant{{"BLD-FOC-10", "10 ml", "16.00", 80}}},
		{"ceramic-diffuser", "Ceramic Ultrasonic Diffuser", "Quiet 200 ml diffuser with timer.", "diffusers",
			[]string{"calming"},
			[]seedVariant{{"DIF-CER-W", "White", "45.00", 25}, {"DIF-CER-B", "Black", "45.00", 20}}},
		{"rose-soy-candle", "Rose Soy Candle", "Hand-poured soy wax with rose absolute.", "candles",
			[]string{"floral", "calming"},
			[]seedVariant{{"CND-ROS", "200 g", "24.00", 40}}},
	}
	seedQuiz = []recdomain.QuizQuestion{
		{Prompt: "How do you want to feel?", Position: 1, Options: []recdomain.QuizOption{
			{Label: "Calm and relaxed", Tags: "calming,lavender", Weight: 1, Position: 1},
			{Label: "Energized", Tags: "energizing,citrus", Weight: 1, Position: 2},
			{Label: "Focused", Tags: "focus", Weight: 1, Position: 3},
		}},
		{Prompt: "Which scents do you enjoy?", Position: 2, Multiple: true, Options: []recdomain.QuizOption{
			{Label: "Floral", Tags: "floral", Weight: 1, Position: 1},
			{Label: "Citrus", Tags: "citrus", Weight: 1, Position: 2},
			{Label: "Woody", Tags: "woody", Weight: 1, Position: 3},
		}},
		{Prompt: "How will you use it?", Position: 3, Options: []recdomain.QuizOption{
			{Label: "Diffusing at home", Categories: "diffusers,essential-oils", Weight: 1, Position: 1},
			{Label: "At bedtime", Tags: "sleep", Categories: "blends", Weight: 1.5, Position: 2},
			{Label: "As ambient decor", Categories: "candles", Weight: 1, Position: 3},
		}},
	}
)

func newSeedCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load sample categories, products and quiz questions; existing rows are kept",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.db.Close()

			local, err := cache.NewLocal(cmd.Context(), time.Minute)
			if err != nil {
				return err
			}
			defer local.Close()

			gdb := e.db.DB
			catalog := catalogapp.NewCatalogCommandService(
				catalogmysql.NewProductRepository(gdb),
				catalogmysql.NewVariantRepository(gdb),
				catalogmysql.NewTaxonomyRepository(gdb),
				db.NewTransactor(gdb),
				outbox.NewPublisher(gdb),
				local,
			)
			return seed(cmd.Context(), cmd.OutOrStdout(), catalog, recmysql.NewQuizRepository(gdb))
		},
	}
}

// catalogWriter 导入数据用到的商品写操作
type catalogWriter interface {
	CreateCategory(ctx context.Context, slug, name string) (*catalogdomain.Category, error)
	CreateTag(ctx context.Context, slug, name string) (*catalogdomain.Tag, error)
	CreateProduct(ctx context.Context, cmd catalogapp.CreateProductCommand) (*catalogapp.ProductDetail, error)
}

// quizWriter 导入测验题目
type quizWriter interface {
	ListQuestions(ctx context.Context) ([]*recdomain.QuizQuestion, error)
	CreateQuestion(ctx context.Context, q *recdomain.QuizQuestion) error
}

// seed 逐条写入示例数据，已存在的记录跳过
func seed(ctx context.Context, out io.Writer, catalog catalogWriter, quiz quizWriter) error {
	created, skipped := 0, 0
	tally := func(err error) error {
		switch {
		case err == nil:
			created++
		case apperr.KindOf(err) == apperr.KindConflict:
			skipped++
		default:
			return err
		}
		return nil
	}

	for _, c := range seedCategories {
		_, err := catalog.CreateCategory(ctx, c[0], c[1])
		if err := tally(err); err != nil {
			return fmt.Errorf("category %s: %w", c[0], err)
		}
	}
	for _, t := range seedTags {
		_, err := catalog.CreateTag(ctx, t[0], t[1])
		if err := tally(err); err != nil {
			return fmt.Errorf("tag %s: %w", t[0], err)
		}
	}
	for _, p := range seedProducts {
		cmd := catalogapp.CreateProductCommand{
			Slug:         p.slug,
			Name:         p.name,
			Description:  p.desc,
			CategorySlug: p.category,
			TagSlugs:     p.tags,
			IsActive:     true,
		}
		for _, v := range p.variants {
			cmd.Variants = append(cmd.Variants, catalogapp.VariantInput{
				SKU:      v.sku,
				Name:     v.name,
				Price:    decimal.RequireFromString(v.price),
				Stock:    v.stock,
				IsActive: true,
			})
		}
		_, err := catalog.CreateProduct(ctx, cmd)
		if err := tally(err); err != nil {
			return fmt.Errorf("product %s: %w", p.slug, err)
		}
	}

	existing, err := quiz.ListQuestions(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		skipped += len(seedQuiz)
	} else {
		for i := range seedQuiz {
			q := seedQuiz[i]
			q.Options = append([]recdomain.QuizOption(nil), q.Options...)
			if err := quiz.CreateQuestion(ctx, &q); err != nil {
				return fmt.Errorf("quiz question %d: %w", q.Position, err)
			}
			created++
		}
	}

	fmt.Fprintf(out, "seed finished: %d created, %d already present\n", created, skipped)
	return nil
}
