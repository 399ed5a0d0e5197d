package application

// OrderApplicationService 订单服务门面，整合结算、命令与查询
type OrderApplicationService struct {
	*CheckoutService
	*OrderCommandService
	*OrderQueryService
}

// NewOrderApplicationService 创建订单服务门面
func NewOrderApplicationService(deps CheckoutDeps) *OrderApplicationService {
	return &OrderApplicationService{
		CheckoutService:     NewCheckoutService(deps),
		OrderCommandService: NewOrderCommandService(deps.Orders, deps.Stock, deps.Promos, deps.Loyalty, deps.Gateway, deps.Tx, deps.Publisher),
		OrderQueryService:   NewOrderQueryService(deps.Orders),
	}
}
