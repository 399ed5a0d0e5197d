package application

import (
	"context"
	"sync"
	"time"

	"github.com/wyfcoding/aromastore/internal/catalog/domain"
	"github.com/wyfcoding/aromastore/pkg/cache"
)

type passTx struct{}

func (passTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type published struct {
	topic string
	event any
}

type recordingPublisher struct{ events []published }

func (p *recordingPublisher) Publish(_ context.Context, topic, _ string, event any) error {
	p.events = append(p.events, published{topic: topic, event: event})
	return nil
}

type memStore struct {
	mu         sync.Mutex
	products   map[uint]*domain.Product
	variants   map[uint]*domain.ProductVariant
	categories map[string]*domain.Category
	tags       map[string]domain.Tag
	logs       []*domain.InventoryLog
	lastFilter domain.ProductFilter
	slugReads  int
	nextID     uint
}

func newMemStore() *memStore {
	return &memStore{
		products:   map[uint]*domain.Product{},
		variants:   map[uint]*domain.ProductVariant{},
		categories: map[string]*domain.Category{},
		tags:       map[string]domain.Tag{},
	}
}

func (m *memStore) id() uint {
	m.nextID++
	return m.nextID
}

// seed 写入一个带规格的在售商品
func (m *memStore) seed(slug string, stock int) (*domain.Product, *domain.ProductVariant) {
	cat := &domain.Category{ID: m.id(), Slug: "oils", Name: "Oils"}
	m.categories[cat.Slug] = cat
	p := &domain.Product{ID: m.id(), Slug: slug, Name: slug, CategoryID: cat.ID, Category: cat, IsActive: true}
	v := &domain.ProductVariant{ID: m.id(), ProductID: p.ID, SKU: "SKU-" + slug, Stock: stock, IsActive: true}
	p.Variants = []domain.ProductVariant{*v}
	m.products[p.ID] = p
	m.variants[v.ID] = v
	return p, v
}

// ProductRepository

func (m *memStore) List(_ context.Context, f domain.ProductFilter) ([]*domain.Product, int64, error) {
	m.lastFilter = f
	var out []*domain.Product
	for _, p := range m.products {
		if p.IsActive || f.IncludeInactive {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memStore) GetBySlug(_ context.Context, slug string, includeInactive bool) (*domain.Product, error) {
	m.slugReads++
	for _, p := range m.products {
		if p.Slug == slug && (p.IsActive || includeInactive) {
			return p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (m *memStore) GetByID(_ context.Context, id uint) (*domain.Product, error) {
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, domain.ErrProductNotFound
}

func (m *memStore) GetByIDs(_ context.Context, ids []uint) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) Create(_ context.Context, p *domain.Product) error {
	for _, existing := range m.products {
		if existing.Slug == p.Slug {
			return domain.ErrSlugTaken
		}
	}
	p.ID = m.id()
	p.CreatedAt = time.Now()
	for i := range p.Variants {
		p.Variants[i].ID = m.id()
		p.Variants[i].ProductID = p.ID
		v := p.Variants[i]
		m.variants[v.ID] = &v
	}
	m.products[p.ID] = p
	return nil
}

func (m *memStore) Update(_ context.Context, p *domain.Product) error {
	m.products[p.ID] = p
	return nil
}

func (m *memStore) Delete(_ context.Context, id uint) error {
	if _, ok := m.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *memStore) ReplaceTags(_ context.Context, p *domain.Product, tags []domain.Tag) error {
	p.Tags = tags
	return nil
}

func (m *memStore) UpdateRating(_ context.Context, productID uint, avg float64, count int) error {
	p, ok := m.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.AvgRating, p.ReviewCount = avg, count
	return nil
}

func (m *memStore) FindByTagsOrCategories(context.Context, domain.CandidateFilter) ([]*domain.Product, error) {
	return nil, nil
}

func (m *memStore) TopRated(context.Context, []uint, int) ([]*domain.Product, error) {
	return nil, nil
}

// VariantRepository

func (m *memStore) GetVariant(_ context.Context, id uint) (*domain.ProductVariant, error) {
	if v, ok := m.variants[id]; ok {
		return v, nil
	}
	return nil, domain.ErrVariantNotFound
}

func (m *memStore) GetVariants(_ context.Context, ids []uint) ([]*domain.ProductVariant, error) {
	var out []*domain.ProductVariant
	for _, id := range ids {
		if v, ok := m.variants[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memStore) SaveVariant(_ context.Context, v *domain.ProductVariant) error {
	if v.ID == 0 {
		v.ID = m.id()
	}
	m.variants[v.ID] = v
	return nil
}

func (m *memStore) AddStock(_ context.Context, variantID uint, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.variants[variantID]
	if !ok {
		return 0, domain.ErrVariantNotFound
	}
	if v.Stock+delta < 0 {
		return 0, domain.ErrInsufficientStock
	}
	v.Stock += delta
	return v.Stock, nil
}

func (m *memStore) CreateInventoryLog(_ context.Context, log *domain.InventoryLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func (m *memStore) ListInventoryLogs(context.Context, uint, int) ([]*domain.InventoryLog, error) {
	return m.logs, nil
}

func (m *memStore) ListLowStock(_ context.Context, threshold int) ([]*domain.LowStockItem, error) {
	var out []*domain.LowStockItem
	for _, v := range m.variants {
		if v.Stock <= threshold {
			out = append(out, &domain.LowStockItem{VariantID: v.ID, SKU: v.SKU, Stock: v.Stock})
		}
	}
	return out, nil
}

func (m *memStore) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	items, _ := m.ListLowStock(ctx, threshold)
	return int64(len(items)), nil
}

// TaxonomyRepository

func (m *memStore) ListCategories(context.Context) ([]*domain.Category, error) {
	var out []*domain.Category
	for _, c := range m.categories {
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) CreateCategory(_ context.Context, c *domain.Category) error {
	if _, ok := m.categories[c.Slug]; ok {
		return domain.ErrSlugTaken
	}
	c.ID = m.id()
	m.categories[c.Slug] = c
	return nil
}

func (m *memStore) GetCategoryBySlug(_ context.Context, slug string) (*domain.Category, error) {
	if c, ok := m.categories[slug]; ok {
		return c, nil
	}
	return nil, domain.ErrCategoryNotFound
}

func (m *memStore) ListTags(context.Context) ([]*domain.Tag, error) { return nil, nil }

func (m *memStore) CreateTag(_ context.Context, t *domain.Tag) error {
	t.ID = m.id()
	m.tags[t.Slug] = *t
	return nil
}

func (m *memStore) GetTagsBySlugs(_ context.Context, slugs []string) ([]domain.Tag, error) {
	var out []domain.Tag
	for _, s := range slugs {
		t, ok := m.tags[s]
		if !ok {
			return nil, domain.ErrTagNotFound
		}
		out = append(out, t)
	}
	return out, nil
}

type fixture struct {
	store *memStore
	pub   *recordingPublisher
	cache *cache.Tiered
	query *CatalogQueryService
	cmd   *CatalogCommandService
}
