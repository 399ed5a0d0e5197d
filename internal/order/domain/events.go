package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicOrderPlaced        = "order.placed"
	TopicOrderStatusChanged = "order.status_changed"
)

// OrderPlacedItem 事件中的订单行
type OrderPlacedItem struct {
	ProductID   uint            `json:"product_id"`
	VariantID   uint            `json:"variant_id"`
	ProductName string          `json:"product_name"`
	VariantName string          `json:"variant_name"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderPlacedEvent 下单成功事件
type OrderPlacedEvent struct {
	OrderID        uint              `json:"order_id"`
	OrderNo        string            `json:"order_no"`
	UserID         uint              `json:"user_id"`
	Total          decimal.Decimal   `json:"total"`
	PointsEarned   int               `json:"points_earned"`
	SubscriptionID *uint             `json:"subscription_id,omitempty"`
	Items          []OrderPlacedItem `json:"items"`
	Timestamp      time.Time         `json:"timestamp"`
}

// OrderStatusChangedEvent 订单状态变更事件
type OrderStatusChangedEvent struct {
	OrderID        uint      `json:"order_id"`
	OrderNo        string    `json:"order_no"`
	UserID         uint      `json:"user_id"`
	From           Status    `json:"from"`
	To             Status    `json:"to"`
	TrackingNumber string    `json:"tracking_number,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewOrderPlacedEvent 由订单构造事件
func NewOrderPlacedEvent(o *Order) OrderPlacedEvent {
	items := make([]OrderPlacedItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderPlacedItem{
			ProductID:   it.ProductID,
			VariantID:   it.VariantID,
			ProductName: it.ProductName,
			VariantName: it.VariantName,
			Quantity:    it.Quantity,
			LineTotal:   it.LineTotal,
		})
	}
	return OrderPlacedEvent{
		OrderID:        o.ID,
		OrderNo:        o.OrderNo,
		UserID:         o.UserID,
		Total:          o.Total,
		PointsEarned:   o.PointsEarned,
		SubscriptionID: o.SubscriptionID,
		Items:          items,
		Timestamp:      time.Now().UTC(),
	}
}
