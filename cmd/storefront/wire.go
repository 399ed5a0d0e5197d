package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	adminapp "github.com/wyfcoding/aromastore/internal/admin/application"
	authapp "github.com/wyfcoding/aromastore/internal/auth/application"
	authdomain "github.com/wyfcoding/aromastore/internal/auth/domain"
	"github.com/wyfcoding/aromastore/internal/auth/infrastructure/oauth"
	authmysql "github.com/wyfcoding/aromastore/internal/auth/infrastructure/persistence/mysql"
	authredis "github.com/wyfcoding/aromastore/internal/auth/infrastructure/persistence/redis"
	cartapp "github.com/wyfcoding/aromastore/internal/cart/application"
	cartmysql "github.com/wyfcoding/aromastore/internal/cart/infrastructure/persistence/mysql"
	catalogapp "github.com/wyfcoding/aromastore/internal/catalog/application"
	catalogmysql "github.com/wyfcoding/aromastore/internal/catalog/infrastructure/persistence/mysql"
	loyaltyapp "github.com/wyfcoding/aromastore/internal/loyalty/application"
	loyaltymysql "github.com/wyfcoding/aromastore/internal/loyalty/infrastructure/persistence/mysql"
	notificationapp "github.com/wyfcoding/aromastore/internal/notification/application"
	notificationmysql "github.com/wyfcoding/aromastore/internal/notification/infrastructure/persistence/mysql"
	"github.com/wyfcoding/aromastore/internal/notification/infrastructure/sender"
	orderapp "github.com/wyfcoding/aromastore/internal/order/application"
	ordermysql "github.com/wyfcoding/aromastore/internal/order/infrastructure/persistence/mysql"
	paymentclient "github.com/wyfcoding/aromastore/internal/payment/infrastructure/client"
	"github.com/wyfcoding/aromastore/internal/payment/infrastructure/webhook"
	pricingapp "github.com/wyfcoding/aromastore/internal/pricing/application"
	promoapp "github.com/wyfcoding/aromastore/internal/promotion/application"
	promomysql "github.com/wyfcoding/aromastore/internal/promotion/infrastructure/persistence/mysql"
	recapp "github.com/wyfcoding/aromastore/internal/recommendation/application"
	recmysql "github.com/wyfcoding/aromastore/internal/recommendation/infrastructure/persistence/mysql"
	reviewapp "github.com/wyfcoding/aromastore/internal/review/application"
	reviewmysql "github.com/wyfcoding/aromastore/internal/review/infrastructure/persistence/mysql"
	subapp "github.com/wyfcoding/aromastore/internal/subscription/application"
	submysql "github.com/wyfcoding/aromastore/internal/subscription/infrastructure/persistence/mysql"
	wishlistapp "github.com/wyfcoding/aromastore/internal/wishlist/application"
	wishlistmysql "github.com/wyfcoding/aromastore/internal/wishlist/infrastructure/persistence/mysql"
	"github.com/wyfcoding/aromastore/pkg/cache"
	"github.com/wyfcoding/aromastore/pkg/config"
	"github.com/wyfcoding/aromastore/pkg/db"
	"github.com/wyfcoding/aromastore/pkg/logger"
	"github.com/wyfcoding/aromastore/pkg/metrics"
	"github.com/wyfcoding/aromastore/pkg/mq"
	"github.com/wyfcoding/aromastore/pkg/outbox"
	woutbox "github.com/wyfcoding/pkg/messagequeue/outbox"
	"gorm.io/gorm"
)

// services 商城全部应用服务
type services struct {
	catalog        *catalogapp.CatalogApplicationService
	cart           *cartapp.CartApplicationService
	promotion      *promoapp.PromotionApplicationService
	loyalty        *loyaltyapp.LoyaltyApplicationService
	order          *orderapp.OrderApplicationService
	review         *reviewapp.ReviewApplicationService
	wishlist       *wishlistapp.WishlistApplicationService
	subscription   *subapp.SubscriptionApplicationService
	recommendation *recapp.RecommendationApplicationService
	auth           *authapp.AuthApplicationService
	analytics      *adminapp.AnalyticsService
	users          *adminapp.UserAdminService
	notifications  *notificationapp.NotificationService
	db             *gorm.DB
	outbox         *woutbox.Processor
}

// buildServices 组装仓储与应用服务，模块之间通过各自声明的端口接口连接
func buildServices(ctx context.Context, cfg *config.Config, gdb *gorm.DB, rdb *redis.Client, c cache.Cache, producer mq.Producer, m *metrics.Metrics) *services {
	tx := db.NewTransactor(gdb)
	publisher := outbox.NewPublisher(gdb)
	gateway := paymentclient.NewGateway(cfg.Payment, m)

	products := catalogmysql.NewProductRepository(gdb)
	variants := catalogmysql.NewVariantRepository(gdb)
	taxonomy := catalogmysql.NewTaxonomyRepository(gdb)
	catalogApp := catalogapp.NewCatalogApplicationService(
		catalogapp.NewCatalogCommandService(products, variants, taxonomy, tx, publisher, c),
		catalogapp.NewCatalogQueryService(products, variants, taxonomy, c, m),
	)
	cartApp := cartapp.NewCartApplicationService(cartmysql.NewCartRepository(gdb), catalogApp.CatalogQueryService, publisher)
	promoApp := promoapp.NewPromotionApplicationService(promomysql.NewCouponRepository(gdb))
	loyaltyApp := loyaltyapp.NewLoyaltyApplicationService(loyaltymysql.NewAccountRepository(gdb), tx, loyaltyapp.RulesFromConfig(cfg.Loyalty))

	orderApp := orderapp.NewOrderApplicationService(orderapp.CheckoutDeps{
		Orders:    ordermysql.NewOrderRepository(gdb),
		Sessions:  ordermysql.NewCheckoutRepository(gdb),
		Carts:     cartApp,
		Stock:     catalogApp.CatalogCommandService,
		Variants:  catalogApp.CatalogQueryService,
		Promos:    promoApp,
		Loyalty:   loyaltyApp,
		Pricer:    pricingapp.NewPricingService(pricingapp.RatesFromConfig(cfg.Checkout)),
		Gateway:   gateway,
		Verifier:  webhook.NewVerifier(cfg.Payment.WebhookSecret, time.Duration(cfg.Payment.WebhookTolerance)*time.Second),
		Tx:        tx,
		Publisher: publisher,
		Metrics:   m,
		Currency:  cfg.Payment.Currency,
	})

	wishlistApp := wishlistapp.NewWishlistApplicationService(wishlistmysql.NewWishlistRepository(gdb), catalogApp.CatalogQueryService)
	reviewApp := reviewapp.NewReviewApplicationService(reviewmysql.NewReviewRepository(gdb), catalogApp, orderApp.OrderQueryService)
	subApp := subapp.NewSubscriptionApplicationService(
		submysql.NewSubscriptionRepository(gdb),
		catalogApp.CatalogQueryService,
		orderApp.CheckoutService,
		gateway, tx, publisher, m,
		decimal.NewFromFloat(cfg.Checkout.SubscriptionDiscount),
		cfg.Payment.Currency,
	)
	recApp := recapp.NewRecommendationApplicationService(
		recmysql.NewQuizRepository(gdb),
		catalogApp.CatalogQueryService,
		orderApp.OrderQueryService,
		wishlistApp,
		m,
	)

	users := authmysql.NewUserRepository(gdb)
	sessions := authredis.NewSessionStore(rdb)
	tokens := authapp.NewTokenIssuer(jwtSecret(ctx, cfg), cfg.Auth.Issuer, time.Duration(cfg.Auth.TokenTTL)*time.Minute)
	authCmd := authapp.NewAuthCommandService(users, sessions, sessions, tokens, googleProvider(cfg.OAuth), tx, publisher, cfg.Auth.BcryptCost)
	authQuery := authapp.NewAuthQueryService(users, sessions, tokens)

	smtpSender := sender.NewSMTPSender(sender.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		DryRun:   cfg.SMTP.DryRun,
	})

	return &services{
		catalog:        catalogApp,
		cart:           cartApp,
		promotion:      promoApp,
		loyalty:        loyaltyApp,
		order:          orderApp,
		review:         reviewApp,
		wishlist:       wishlistApp,
		subscription:   subApp,
		recommendation: recApp,
		auth:           authapp.NewAuthApplicationService(authCmd, authQuery),
		analytics:      adminapp.NewAnalyticsService(orderApp.OrderQueryService, users, catalogApp.CatalogQueryService, adminapp.DefaultLowStockAt),
		users:          adminapp.NewUserAdminService(users, authCmd),
		notifications:  notificationapp.NewNotificationService(notificationmysql.NewNotificationRepository(gdb), smtpSender, users, m),
		db:             gdb,
		outbox:         outbox.NewProcessor(publisher, producer, m, cfg.Jobs.OutboxBatchSize, cfg.Jobs.OutboxRelayInterval),
	}
}

// jwtSecret 开发环境未配置密钥时使用进程内随机密钥，重启后旧令牌失效
func jwtSecret(ctx context.Context, cfg *config.Config) string {
	if cfg.Auth.JWTSecret != "" {
		return cfg.Auth.JWTSecret
	}
	logger.Warn(ctx, "auth.jwt_secret not set, using ephemeral signing key", "environment", cfg.Environment)
	return uuid.NewString()
}

func googleProvider(cfg config.OAuthConfig) authdomain.OAuthProvider {
	if cfg.GoogleClientID == "" {
		return nil
	}
	return oauth.NewGoogleProvider(oauth.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})
}
