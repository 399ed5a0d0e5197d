package application

// CatalogApplicationService 商品目录门面，组合命令与查询服务
type CatalogApplicationService struct {
	*CatalogCommandService
	*CatalogQueryService
}

// NewCatalogApplicationService 创建商品目录应用服务
func NewCatalogApplicationService(cmd *CatalogCommandService, query *CatalogQueryService) *CatalogApplicationService {
	return &CatalogApplicationService{CatalogCommandService: cmd, CatalogQueryService: query}
}
