package application

// AuthApplicationService 认证门面
type AuthApplicationService struct {
	*AuthCommandService
	*AuthQueryService
}

// NewAuthApplicationService 组合命令与查询服务
func NewAuthApplicationService(cmd *AuthCommandService, query *AuthQueryService) *AuthApplicationService {
	return &AuthApplicationService{AuthCommandService: cmd, AuthQueryService: query}
}
