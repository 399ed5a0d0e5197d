package mysql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/aromastore/internal/catalog/domain"
	"github.com/wyfcoding/aromastore/pkg/db/dbtest"
)

func TestGetBySlugNotFound(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectQuery("SELECT \\* FROM `products` WHERE slug = \\? AND is_active = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewProductRepository(gdb).GetBySlug(context.Background(), "missing", false)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddStockReturnsStockAfter(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `product_variants` SET `stock`=stock \\+ \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT `stock` FROM `product_variants` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(7))

	stock, err := NewVariantRepository(gdb).AddStock(context.Background(), 3, -2)
	require.NoError(t, err)
	assert.Equal(t, 7, stock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddStockRejectsNegativeResult(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `product_variants` SET `stock`=stock \\+ \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `product_variants` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := NewVariantRepository(gdb).AddStock(context.Background(), 3, -50)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddStockUnknownVariant(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `product_variants`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `product_variants`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err := NewVariantRepository(gdb).AddStock(context.Background(), 99, -1)
	assert.ErrorIs(t, err, domain.ErrVariantNotFound)
}

func TestGetCategoryBySlugNotFound(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectQuery("SELECT \\* FROM `categories` WHERE slug = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewTaxonomyRepository(gdb).GetCategoryBySlug(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestFindCandidatesPagesAfterCursorAndExcludes(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectQuery("SELECT \\* FROM `products` WHERE products.is_active = \\? AND .*products.id > \\? AND products.id NOT IN \\(\\?,\\?\\) ORDER BY products.id ASC LIMIT").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	products, err := NewProductRepository(gdb).FindByTagsOrCategories(context.Background(), domain.CandidateFilter{
		TagSlugs:   []string{"lavender"},
		ExcludeIDs: []uint{3, 9},
		AfterID:    200,
		Limit:      200,
	})
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.NoError(t, mock.ExpectationsWereMet())
}
