package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/aromastore/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/aromastore/internal/catalog/domain"
)

type memCarts struct {
	carts map[uint]*domain.Cart
	next  uint
}

func newMemCarts() *memCarts { return &memCarts{carts: map[uint]*domain.Cart{}} }

func (m *memCarts) Find(_ context.Context, userID uint) (*domain.Cart, error) {
	c, ok := m.carts[userID]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.Items = append([]domain.CartItem(nil), c.Items...)
	return &cp, nil
}

func (m *memCarts) GetOrCreate(ctx context.Context, userID uint) (*domain.Cart, error) {
	if _, ok := m.carts[userID]; !ok {
		m.next++
		m.carts[userID] = &domain.Cart{ID: m.next, UserID: userID}
	}
	return m.Find(ctx, userID)
}

func (m *memCarts) byID(cartID uint) *domain.Cart {
	for _, c := range m.carts {
		if c.ID == cartID {
			return c
		}
	}
	return nil
}

func (m *memCarts) SaveItem(_ context.Context, item *domain.CartItem) error {
	c := m.byID(item.CartID)
	if existing := c.Find(item.VariantID); existing != nil {
		existing.Quantity = item.Quantity
		return nil
	}
	c.Items = append(c.Items, *item)
	return nil
}

func (m *memCarts) DeleteItem(_ context.Context, cartID, variantID uint) (bool, error) {
	c := m.byID(cartID)
	for i, it := range c.Items {
		if it.VariantID == variantID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memCarts) Clear(_ context.Context, cartID uint) (int64, error) {
	c := m.byID(cartID)
	n := int64(len(c.Items))
	c.Items = nil
	return n, nil
}

type stubCatalog struct {
	products map[uint]*catalogdomain.Product
	variants map[uint]*catalogdomain.ProductVariant
}

func (s *stubCatalog) GetVariant(_ context.Context, id uint) (*catalogdomain.ProductVariant, error) {
	v, ok := s.variants[id]
	if !ok {
		return nil, catalogdomain.ErrVariantNotFound
	}
	return v, nil
}

func (s *stubCatalog) GetVariants(_ context.Context, ids []uint) ([]*catalogdomain.ProductVariant, error) {
	var out []*catalogdomain.ProductVariant
	for _, id := range ids {
		if v, ok := s.variants[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *stubCatalog) GetProductsByIDs(_ context.Context, ids []uint) ([]*catalogdomain.Product, error) {
	var out []*catalogdomain.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

type countingPublisher struct{ topics []string }

func (p *countingPublisher) Publish(_ context.Context, topic, _ string, _ any) error {
	p.topics = append(p.topics, topic)
	return nil
}

func newCartFixture() (*CartApplicationService, *stubCatalog, *countingPublisher) {
	catalog := &stubCatalog{
		products: map[uint]*catalogdomain.Product{
			1: {ID: 1, Slug: "lavender-oil", Name: "Lavender Oil", IsActive: true},
		},
		variants: map[uint]*catalogdomain.ProductVariant{
			10: {ID: 10, ProductID: 1, SKU: "LAV-10", Name: "10ml", Price: decimal.RequireFromString("12.50"), Stock: 5, IsActive: true},
			11: {ID: 11, ProductID: 1, SKU: "LAV-30", Name: "30ml", Price: decimal.RequireFromString("29.99"), Stock: 0, IsActive: true},
		},
	}
	pub := &countingPublisher{}
	return NewCartApplicationService(newMemCarts(), catalog, pub), catalog, pub
}

func TestAddItemMergesQuantities(t *testing.T) {
	svc, _, pub := newCartFixture()
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, AddItemCommand{UserID: 1, VariantID: 10, Quantity: 2}))
	require.NoError(t, svc.AddItem(ctx, AddItemCommand{UserID: 1, VariantID: 10, Quantity: 1}))

	view, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.Equal(t, "37.5", view.Subtotal.String())
	assert.Equal(t, 3, view.ItemCount)
	assert.Equal(t, []string{domain.TopicItemAdded, domain.TopicItemAdded}, pub.topics)
}

func TestAddItemChecksMergedStock(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, AddItemCommand{UserID: 1, VariantID: 10, Quantity: 4}))
	err := svc.AddItem(ctx, AddItemCommand{UserID: 1, VariantID: 10, Quantity: 2})
	assert.ErrorIs(t, err, catalogdomain.ErrInsufficientStock)

	err = svc.AddItem(ctx, AddItemCommand{UserID: 1, VariantID: 11, Quantity: 1})
	assert.ErrorIs(t, err, catalogdomain.ErrInsufficientStock)
}

func TestAddItemRejectsBadQuantityAndInactiveProduct(t *testing.T) {
	svc, catalog, _ := newCartFixture()
	ctx := context.Background()

	assert.ErrorIs(t, svc.AddItem(ctx, AddItemCommand{UserID: 1, VariantID: 10, Quantity: 0}), domain.ErrInvalidQuantity)
	assert.ErrorIs(t, svc.AddItem(ctx, AddItemCommand{UserID: 1, VariantID: 10, Quantity: 100}), domain.ErrInvalidQuantity)
	assert.ErrorIs(t, svc.AddItem(ctx, AddItemCommand{UserID: 1, VariantID: 99, Quantity: 1}), catalogdomain.ErrVariantNotFound)

	catalog.products[1].IsActive = false
	assert.ErrorIs(t, svc.AddItem(ctx, AddItemCommand{UserID: 1, VariantID: 10, Quantity: 1}), domain.ErrVariantUnavailable)
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	svc, _, pub := newCartFixture()
	ctx := context.Background()
	require.NoError(t, svc.AddItem(ctx, AddItemCommand{UserID: 1, VariantID: 10, Quantity: 2}))

	require.NoError(t, svc.UpdateQuantity(ctx, UpdateQuantityCommand{UserID: 1, VariantID: 10, Quantity: 4}))
	view, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Items[0].Quantity)

	require.NoError(t, svc.UpdateQuantity(ctx, UpdateQuantityCommand{UserID: 1, VariantID: 10, Quantity: 0}))
	view, err = svc.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.True(t, view.Empty())
	assert.Contains(t, pub.topics, domain.TopicItemRemoved)

	assert.ErrorIs(t, svc.RemoveItem(ctx, 1, 10), domain.ErrItemNotFound)
}

func TestGetCartExcludesUnavailableLinesFromSubtotal(t *testing.T) {
	svc, catalog, _ := newCartFixture()
	ctx := context.Background()
	require.NoError(t, svc.AddItem(ctx, AddItemCommand{UserID: 1, VariantID: 10, Quantity: 2}))

	catalog.variants[10].IsActive = false
	view, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.False(t, view.Items[0].Available)
	assert.True(t, view.Subtotal.IsZero())
}

func TestClearCart(t *testing.T) {
	svc, _, pub := newCartFixture()
	ctx := context.Background()

	require.NoError(t, svc.ClearCart(ctx, 42))
	assert.Empty(t, pub.topics)

	require.NoError(t, svc.AddItem(ctx, AddItemCommand{UserID: 1, VariantID: 10, Quantity: 1}))
	require.NoError(t, svc.ClearCart(ctx, 1))
	assert.Equal(t, domain.TopicCleared, pub.topics[len(pub.topics)-1])
}
