package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	catalogapp "github.com/wyfcoding/aromastore/internal/catalog/application"
	catalogdomain "github.com/wyfcoding/aromastore/internal/catalog/domain"
	recdomain "github.com/wyfcoding/aromastore/internal/recommendation/domain"
)

type memCatalog struct {
	categories map[string]bool
	tags       map[string]bool
	products   map[string]catalogapp.CreateProductCommand
}

func newMemCatalog() *memCatalog {
	return &memCatalog{categories: map[string]bool{}, tags: map[string]bool{}, products: map[string]catalogapp.CreateProductCommand{}}
}

func (m *memCatalog) CreateCategory(_ context.Context, slug, name string) (*catalogdomain.Category, error) {
	if m.categories[slug] {
		return nil, catalogdomain.ErrSlugTaken
	}
	m.categories[slug] = true
	return &catalogdomain.Category{Slug: slug, Name: name}, nil
}

func (m *memCatalog) CreateTag(_ context.Context, slug, name string) (*catalogdomain.Tag, error) {
	if m.tags[slug] {
		return nil, catalogdomain.ErrSlugTaken
	}
	m.tags[slug] = true
	return &catalogdomain.Tag{Slug: slug, Name: name}, nil
}

func (m *memCatalog) CreateProduct(_ context.Context, cmd catalogapp.CreateProductCommand) (*catalogapp.ProductDetail, error) {
	if _, ok := m.products[cmd.Slug]; ok {
		return nil, catalogdomain.ErrSlugTaken
	}
	if !m.categories[cmd.CategorySlug] {
		return nil, catalogdomain.ErrCategoryNotFound
	}
	m.products[cmd.Slug] = cmd
	return &catalogapp.ProductDetail{}, nil
}

type memQuiz struct{ questions []*recdomain.QuizQuestion }

func (m *memQuiz) ListQuestions(context.Context) ([]*recdomain.QuizQuestion, error) {
	return m.questions, nil
}

func (m *memQuiz) CreateQuestion(_ context.Context, q *recdomain.QuizQuestion) error {
	m.questions = append(m.questions, q)
	return nil
}

func TestSeedIsRepeatable(t *testing.T) {
	ctx := context.Background()
	catalog, quiz := newMemCatalog(), &memQuiz{}

	var out bytes.Buffer
	require.NoError(t, seed(ctx, &out, catalog, quiz))
	assert.Len(t, catalog.products, len(seedProducts))
	assert.Len(t, quiz.questions, len(seedQuiz))
	assert.Contains(t, out.String(), "0 already present")

	for _, p := range catalog.products {
		for _, tag := range p.TagSlugs {
			assert.True(t, catalog.tags[tag], "product %s uses unknown tag %s", p.Slug, tag)
		}
		assert.NotEmpty(t, p.Variants)
	}

	out.Reset()
	require.NoError(t, seed(ctx, &out, catalog, quiz))
	assert.Len(t, quiz.questions, len(seedQuiz))
	assert.Contains(t, out.String(), "0 created")
}

func TestSeedQuizOptionsReferenceKnownTaxonomy(t *testing.T) {
	tags, cats := map[string]bool{}, map[string]bool{}
	for _, tg := range seedTags {
		tags[tg[0]] = true
	}
	for _, c := range seedCategories {
		cats[c[0]] = true
	}
	for _, q := range seedQuiz {
		for _, o := range q.Options {
			for _, tg := range o.TagList() {
				assert.True(t, tags[tg], "option %q tag %s", o.Label, tg)
			}
			for _, c := range o.CategoryList() {
				assert.True(t, cats[c], "option %q category %s", o.Label, c)
			}
		}
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["migrate"])
	assert.True(t, names["seed"])
	assert.True(t, names["create-staff"])
}
