package application

import (
	"strconv"

	"github.com/wyfcoding/aromastore/internal/cart/domain"
)

// CartApplicationService 购物车服务门面，整合命令服务和查询服务
type CartApplicationService struct {
	*CartCommandService
	*CartQueryService
}

// NewCartApplicationService 创建购物车服务门面
func NewCartApplicationService(repo domain.CartRepository, catalog ProductCatalog, publisher domain.EventPublisher) *CartApplicationService {
	return &CartApplicationService{
		CartCommandService: NewCartCommandService(repo, catalog, publisher),
		CartQueryService:   NewCartQueryService(repo, catalog),
	}
}

func cartKey(userID uint) string { return "user-" + strconv.FormatUint(uint64(userID), 10) }
