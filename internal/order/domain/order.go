// Package domain 订单与结算会话的领域模型
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/aromastore/pkg/apperr"
)

// Status 订单状态
type Status string

const (
	StatusPaid       Status = "PAID"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
	StatusRefunded   Status = "REFUNDED"
)

var transitions = map[Status][]Status{
	StatusPaid:       {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {StatusRefunded},
}

// CanTransition 是否允许流转到目标状态
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Valid 是否已知状态
func (s Status) Valid() bool {
	switch s {
	case StatusPaid, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

var (
	ErrOrderNotFound       = apperr.NotFound("order_not_found", "order not found")
	ErrInvalidTransition   = apperr.Conflict("invalid_status_transition", "order status transition not allowed")
	ErrNotCancellable      = apperr.Conflict("order_not_cancellable", "order can no longer be cancelled")
	ErrInvalidStatus       = apperr.BadRequest("invalid_status", "unknown order status")
	ErrSessionNotFound     = apperr.NotFound("checkout_session_not_found", "checkout session not found")
	ErrCheckoutFailed      = apperr.Conflict("checkout_failed", "checkout has already failed")
	ErrItemUnavailable     = apperr.BadRequest("item_unavailable", "an item in the cart is no longer available")
	ErrStockLost           = apperr.Conflict("stock_lost", "items sold out while paying; the payment has been refunded")
	ErrAmountMismatch      = apperr.Conflict("amount_mismatch", "paid amount does not match the checkout total; the payment has been refunded")
	ErrAddressRequired     = apperr.BadRequest("address_required", "a shipping address is required")
	ErrPaymentIntentExists = apperr.Conflict("payment_intent_exists", "an order already exists for this payment")
)

// Address 收货地址
type Address struct {
	Name       string `json:"name" binding:"required,max=128"`
	Line1      string `json:"line1" binding:"required,max=255"`
	Line2      string `json:"line2" binding:"max=255"`
	City       string `json:"city" binding:"required,max=128"`
	State      string `json:"state" binding:"max=128"`
	PostalCode string `json:"postal_code" binding:"required,max=32"`
	Country    string `json:"country" binding:"required,len=2"`
	Phone      string `json:"phone" binding:"max=32"`
}

// Empty 是否未填写
func (a Address) Empty() bool {
	return a.Name == "" || a.Line1 == "" || a.City == "" || a.PostalCode == "" || a.Country == ""
}

// Order 订单
type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderNo         string          `gorm:"column:order_no;type:varchar(32);uniqueIndex;not null" json:"order_no"`
	UserID          uint            `gorm:"column:user_id;index;not null" json:"user_id"`
	PaymentIntentID string          `gorm:"column:payment_intent_id;type:varchar(64);uniqueIndex;not null" json:"payment_intent_id"`
	Status          Status          `gorm:"column:status;type:varchar(16);index;not null" json:"status"`
	Subtotal        decimal.Decimal `gorm:"column:subtotal;type:decimal(12,2);not null" json:"subtotal"`
	Discount        decimal.Decimal `gorm:"column:discount;type:decimal(12,2);not null" json:"discount"`
	Shipping        decimal.Decimal `gorm:"column:shipping;type:decimal(12,2);not null" json:"shipping"`
	Tax             decimal.Decimal `gorm:"column:tax;type:decimal(12,2);not null" json:"tax"`
	Total           decimal.Decimal `gorm:"column:total;type:decimal(12,2);not null" json:"total"`
	CouponCode      string          `gorm:"column:coupon_code;type:varchar(32)" json:"coupon_code,omitempty"`
	PointsRedeemed  int             `gorm:"column:points_redeemed;not null;default:0" json:"points_redeemed"`
	PointsEarned    int             `gorm:"column:points_earned;not null;default:0" json:"points_earned"`
	ShippingAddress Address         `gorm:"column:shipping_address;type:json;serializer:json" json:"shipping_address"`
	SubscriptionID  *uint           `gorm:"column:subscription_id;index" json:"subscription_id,omitempty"`
	TrackingNumber  string          `gorm:"column:tracking_number;type:varchar(64)" json:"tracking_number,omitempty"`
	CancelReason    string          `gorm:"column:cancel_reason;type:varchar(255)" json:"cancel_reason,omitempty"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	PaidAt          time.Time       `gorm:"column:paid_at" json:"paid_at"`
	CreatedAt       time.Time       `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

// OrderItem 订单行，保存下单时的商品快照
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"column:order_id;index;not null" json:"-"`
	ProductID   uint            `gorm:"column:product_id;index;not null" json:"product_id"`
	VariantID   uint            `gorm:"column:variant_id;not null" json:"variant_id"`
	ProductName string          `gorm:"column:product_name;type:varchar(255);not null" json:"product_name"`
	VariantName string          `gorm:"column:variant_name;type:varchar(128)" json:"variant_name"`
	SKU         string          `gorm:"column:sku;type:varchar(32)" json:"sku"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:decimal(12,2);not null" json:"unit_price"`
	Quantity    int             `gorm:"column:quantity;not null" json:"quantity"`
	LineTotal   decimal.Decimal `gorm:"column:line_total;type:decimal(12,2);not null" json:"line_total"`
}

func (OrderItem) TableName() string { return "order_items" }

// Cancellable 用户本人只能取消已支付未处理的订单，后台可取消处理中的订单
func (o *Order) Cancellable(staff bool) bool {
	if o.Status == StatusPaid {
		return true
	}
	return staff && o.Status == StatusProcessing
}
