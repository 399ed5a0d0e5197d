// Package schema 汇总各模块的 GORM 模型，供迁移命令使用
package schema

import (
	"context"
	"fmt"

	authdomain "github.com/wyfcoding/aromastore/internal/auth/domain"
	cartdomain "github.com/wyfcoding/aromastore/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/aromastore/internal/catalog/domain"
	loyaltydomain "github.com/wyfcoding/aromastore/internal/loyalty/domain"
	notificationdomain "github.com/wyfcoding/aromastore/internal/notification/domain"
	orderdomain "github.com/wyfcoding/aromastore/internal/order/domain"
	promodomain "github.com/wyfcoding/aromastore/internal/promotion/domain"
	recdomain "github.com/wyfcoding/aromastore/internal/recommendation/domain"
	reviewdomain "github.com/wyfcoding/aromastore/internal/review/domain"
	subdomain "github.com/wyfcoding/aromastore/internal/subscription/domain"
	wishlistdomain "github.com/wyfcoding/aromastore/internal/wishlist/domain"
	"github.com/wyfcoding/aromastore/pkg/logger"
	"github.com/wyfcoding/aromastore/pkg/outbox"
	"gorm.io/gorm"
)

// Models 按依赖顺序返回全部表模型
func Models() []any {
	return []any{
		&authdomain.User{},
		&catalogdomain.Category{},
		&catalogdomain.Tag{},
		&catalogdomain.Product{},
		&catalogdomain.ProductVariant{},
		&catalogdomain.InventoryLog{},
		&reviewdomain.Review{},
		&wishlistdomain.WishlistItem{},
		&cartdomain.Cart{},
		&cartdomain.CartItem{},
		&promodomain.Coupon{},
		&loyaltydomain.Account{},
		&loyaltydomain.PointLog{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&orderdomain.CheckoutSession{},
		&subdomain.Subscription{},
		&recdomain.QuizQuestion{},
		&recdomain.QuizOption{},
		&recdomain.QuizResult{},
		&notificationdomain.Notification{},
		&outbox.Message{},
	}
}

// Migrate 自动建表与补齐列，不删除已有列
func Migrate(ctx context.Context, gdb *gorm.DB) error {
	models := Models()
	for _, m := range models {
		if err := gdb.WithContext(ctx).AutoMigrate(m); err != nil {
			return fmt.Errorf("migrate %T: %w", m, err)
		}
	}
	logger.Info(ctx, "schema migrated", "tables", len(models))
	return nil
}
