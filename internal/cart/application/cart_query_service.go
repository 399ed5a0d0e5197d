package application

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/aromastore/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/aromastore/internal/catalog/domain"
)

// ProductCatalog 购物车依赖的商品查询能力
type ProductCatalog interface {
	GetVariant(ctx context.Context, id uint) (*catalogdomain.ProductVariant, error)
	GetVariants(ctx context.Context, ids []uint) ([]*catalogdomain.ProductVariant, error)
	// GetProductsByIDs 只返回在售商品
	GetProductsByIDs(ctx context.Context, ids []uint) ([]*catalogdomain.Product, error)
}

// CartLine 按当前价格计价的购物车行
type CartLine struct {
	VariantID   uint            `json:"variant_id"`
	ProductID   uint            `json:"product_id"`
	ProductSlug string          `json:"product_slug"`
	ProductName string          `json:"product_name"`
	Category    string          `json:"category"`
	VariantName string          `json:"variant_name"`
	SKU         string          `json:"sku"`
	ImageURL    string          `json:"image_url"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Stock       int             `json:"stock"`
	// Available 规格与商品均在售
	Available bool `json:"available"`
}

// InStock 库存足够当前数量
func (l CartLine) InStock() bool {
	return l.Available && l.Stock >= l.Quantity
}

// CartView 购物车视图
type CartView struct {
	CartID    uint            `json:"cart_id"`
	UserID    uint            `json:"user_id"`
	Items     []CartLine      `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Empty 是否没有任何行
func (v *CartView) Empty() bool { return len(v.Items) == 0 }

// CartQueryService 购物车查询服务
type CartQueryService struct {
	repo    domain.CartRepository
	catalog ProductCatalog
}

// NewCartQueryService 创建购物车查询服务
func NewCartQueryService(repo domain.CartRepository, catalog ProductCatalog) *CartQueryService {
	return &CartQueryService{repo: repo, catalog: catalog}
}

// GetCart 购物车详情，不可售的行保留但不计入小计
func (s *CartQueryService) GetCart(ctx context.Context, userID uint) (*CartView, error) {
	cart, err := s.repo.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := &CartView{UserID: userID, Items: []CartLine{}, Subtotal: decimal.Zero}
	if cart == nil || len(cart.Items) == 0 {
		if cart != nil {
			view.CartID = cart.ID
		}
		return view, nil
	}
	view.CartID = cart.ID

	variantIDs := make([]uint, 0, len(cart.Items))
	productIDs := make([]uint, 0, len(cart.Items))
	for _, it := range cart.Items {
		variantIDs = append(variantIDs, it.VariantID)
		productIDs = append(productIDs, it.ProductID)
	}
	variants, err := s.catalog.GetVariants(ctx, variantIDs)
	if err != nil {
		return nil, err
	}
	products, err := s.catalog.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	variantByID := make(map[uint]*catalogdomain.ProductVariant, len(variants))
	for _, v := range variants {
		variantByID[v.ID] = v
	}
	productByID := make(map[uint]*catalogdomain.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	for _, it := range cart.Items {
		line := CartLine{VariantID: it.VariantID, ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: decimal.Zero, LineTotal: decimal.Zero}
		v, vok := variantByID[it.VariantID]
		p, pok := productByID[it.ProductID]
		if vok {
			line.VariantName = v.Name
			line.SKU = v.SKU
			line.Stock = v.Stock
			line.UnitPrice = v.Price
		}
		if pok {
			line.ProductSlug = p.Slug
			line.ProductName = p.Name
			line.Category = p.CategorySlug()
			line.ImageURL = p.ImageURL
		}
		line.Available = vok && pok && v.IsActive
		if line.Available {
			line.LineTotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
			view.Subtotal = view.Subtotal.Add(line.LineTotal)
			view.ItemCount += it.Quantity
		}
		view.Items = append(view.Items, line)
	}
	return view, nil
}
