// Package domain 结算金额计算：小计、优惠、运费、税费与应付总额
package domain

import (
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/aromastore/pkg/apperr"
)

// ErrEmptyCart 没有可结算的商品
var ErrEmptyCart = apperr.BadRequest("empty_cart", "cart is empty")

// Line 待结算的商品行
type Line struct {
	VariantID   uint            `json:"variant_id"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	VariantName string          `json:"variant_name"`
	SKU         string          `json:"sku"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

// Total 行金额
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Rates 费率配置
type Rates struct {
	TaxRate               decimal.Decimal
	FlatShipping          decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

// QuoteOptions 结算选项
type QuoteOptions struct {
	Rates
	CouponCode      string
	CouponDiscount  decimal.Decimal
	FreeShipping    bool
	LoyaltyDiscount decimal.Decimal
	PointsRedeemed  int
}

// Quote 报价结果
type Quote struct {
	Lines           []Line          `json:"lines"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	CouponDiscount  decimal.Decimal `json:"coupon_discount"`
	LoyaltyDiscount decimal.Decimal `json:"loyalty_discount"`
	PointsRedeemed  int             `json:"points_redeemed"`
	Discount        decimal.Decimal `json:"discount"`
	Shipping        decimal.Decimal `json:"shipping"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
}

// Taxable 计税基数：小计减优惠
func (q *Quote) Taxable() decimal.Decimal {
	return q.Subtotal.Sub(q.Discount)
}

// Round2 保留两位小数，正数四舍五入
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}

// Compute 计算报价；优惠合计不超过小计，运费不计税
func Compute(lines []Line, opts QuoteOptions) (*Quote, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Total())
	}
	subtotal = Round2(subtotal)

	coupon := clamp(Round2(opts.CouponDiscount), decimal.Zero, subtotal)
	loyalty := clamp(Round2(opts.LoyaltyDiscount), decimal.Zero, subtotal.Sub(coupon))
	discount := coupon.Add(loyalty)
	taxable := subtotal.Sub(discount)

	shipping := Round2(opts.FlatShipping)
	if opts.FreeShipping || taxable.GreaterThanOrEqual(opts.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := Round2(taxable.Mul(opts.TaxRate))

	points := opts.PointsRedeemed
	if loyalty.IsZero() {
		points = 0
	}

	return &Quote{
		Lines:           lines,
		Subtotal:        subtotal,
		CouponCode:      opts.CouponCode,
		CouponDiscount:  coupon,
		LoyaltyDiscount: loyalty,
		PointsRedeemed:  points,
		Discount:        discount,
		Shipping:        shipping,
		Tax:             tax,
		Total:           taxable.Add(shipping).Add(tax),
	}, nil
}
