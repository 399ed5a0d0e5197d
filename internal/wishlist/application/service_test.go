package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	catalogdomain "github.com/wyfcoding/aromastore/internal/catalog/domain"
	"github.com/wyfcoding/aromastore/internal/wishlist/domain"
)

type memWishlist struct {
	items []*domain.WishlistItem
}

func (m *memWishlist) Find(_ context.Context, userID, productID uint) (*domain.WishlistItem, error) {
	for _, it := range m.items {
		if it.UserID == userID && it.ProductID == productID {
			return it, nil
		}
	}
	return nil, nil
}

func (m *memWishlist) Create(_ context.Context, item *domain.WishlistItem) (*domain.WishlistItem, error) {
	item.ID = uint(len(m.items) + 1)
	item.CreatedAt = time.Now()
	m.items = append(m.items, item)
	return item, nil
}

func (m *memWishlist) Delete(_ context.Context, userID, productID uint) error {
	for i, it := range m.items {
		if it.UserID == userID && it.ProductID == productID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memWishlist) ListByUser(_ context.Context, userID uint) ([]*domain.WishlistItem, error) {
	var out []*domain.WishlistItem
	for _, it := range m.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

type activeProducts map[uint]*catalogdomain.Product

func (a activeProducts) GetProductsByIDs(_ context.Context, ids []uint) ([]*catalogdomain.Product, error) {
	var out []*catalogdomain.Product
	for _, id := range ids {
		if p, ok := a[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func newWishlist() (*WishlistApplicationService, *memWishlist, activeProducts) {
	repo := &memWishlist{}
	products := activeProducts{
		1: {ID: 1, Slug: "lavender", Name: "Lavender", IsActive: true},
		2: {ID: 2, Slug: "rose", Name: "Rose", IsActive: true},
	}
	return NewWishlistApplicationService(repo, products), repo, products
}

func TestAddDuplicateIsNoop(t *testing.T) {
	svc, repo, _ := newWishlist()
	ctx := context.Background()

	first, err := svc.Add(ctx, 7, 1)
	require.NoError(t, err)
	second, err := svc.Add(ctx, 7, 1)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.items, 1)
}

func TestAddUnknownProduct(t *testing.T) {
	svc, repo, _ := newWishlist()
	_, err := svc.Add(context.Background(), 7, 99)
	assert.ErrorIs(t, err, catalogdomain.ErrProductNotFound)
	assert.Empty(t, repo.items)
}

func TestListSkipsInactiveProducts(t *testing.T) {
	svc, _, products := newWishlist()
	ctx := context.Background()
	_, err := svc.Add(ctx, 7, 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, 7, 2)
	require.NoError(t, err)

	delete(products, 2)
	entries, err := svc.List(ctx, 7)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "lavender", entries[0].Product.Slug)

	ok, err := svc.Contains(ctx, 7, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.Remove(ctx, 7, 2))
	ids, err := svc.ProductIDs(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, ids)
}
