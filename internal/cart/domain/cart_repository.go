package domain

import "context"

// CartRepository 购物车仓储
type CartRepository interface {
	// Find 查询用户购物车，不存在时返回 nil
	Find(ctx context.Context, userID uint) (*Cart, error)
	// GetOrCreate 查询用户购物车，不存在时创建空购物车
	GetOrCreate(ctx context.Context, userID uint) (*Cart, error)
	SaveItem(ctx context.Context, item *CartItem) error
	// DeleteItem 删除一行，返回是否存在
	DeleteItem(ctx context.Context, cartID, variantID uint) (bool, error)
	// Clear 删除购物车全部行，返回删除行数
	Clear(ctx context.Context, cartID uint) (int64, error)
}

// EventPublisher 事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}
