package application

import (
	"context"

	"github.com/shopspring/decimal"
	cartapp "github.com/wyfcoding/aromastore/internal/cart/application"
	catalogdomain "github.com/wyfcoding/aromastore/internal/catalog/domain"
	loyaltyapp "github.com/wyfcoding/aromastore/internal/loyalty/application"
	paydomain "github.com/wyfcoding/aromastore/internal/payment/domain"
	pricing "github.com/wyfcoding/aromastore/internal/pricing/domain"
	promodomain "github.com/wyfcoding/aromastore/internal/promotion/domain"
)

// CartReader 结算读取并清空购物车
type CartReader interface {
	GetCart(ctx context.Context, userID uint) (*cartapp.CartView, error)
	ClearCart(ctx context.Context, userID uint) error
}

// StockKeeper 库存扣减与回补，需在订单事务内调用
type StockKeeper interface {
	DecrementStock(ctx context.Context, variantID uint, qty int) error
	RestoreStock(ctx context.Context, variantID uint, qty int, reason string) error
}

// VariantLookup 订阅下单时查询规格与商品
type VariantLookup interface {
	GetVariant(ctx context.Context, id uint) (*catalogdomain.ProductVariant, error)
	GetProductsByIDs(ctx context.Context, ids []uint) ([]*catalogdomain.Product, error)
}

// Promotions 优惠券评估、占用与归还
type Promotions interface {
	Evaluate(ctx context.Context, code string, cctx promodomain.CouponContext) (*promodomain.Discount, *promodomain.Coupon, error)
	Redeem(ctx context.Context, code string, cctx promodomain.CouponContext) (*promodomain.Discount, error)
	Release(ctx context.Context, code string) error
}

// Loyalty 积分抵扣与发放
type Loyalty interface {
	QuoteRedemption(ctx context.Context, userID uint, points int, maxValue decimal.Decimal) (*loyaltyapp.Redemption, error)
	Redeem(ctx context.Context, userID, orderID uint, points int) error
	Earn(ctx context.Context, userID, orderID uint, amount decimal.Decimal) (int, error)
	Reverse(ctx context.Context, userID, orderID uint) error
}

// Pricer 报价
type Pricer interface {
	Quote(lines []pricing.Line, opts pricing.QuoteOptions) (*pricing.Quote, error)
}

// WebhookVerifier 支付 webhook 验签与解析
type WebhookVerifier interface {
	Verify(payload []byte, header string) (*paydomain.WebhookEvent, error)
}

// Transactor 事务执行器
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
