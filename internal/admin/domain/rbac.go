// Package domain 后台权限模型：静态角色与权限表
package domain

// Role 用户角色
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleSupport  Role = "SUPPORT"
	RoleManager  Role = "MANAGER"
	RoleAdmin    Role = "ADMIN"
)

// Permission 后台权限
type Permission string

const (
	PermCatalogWrite    Permission = "catalog:write"
	PermInventoryWrite  Permission = "inventory:write"
	PermOrdersRead      Permission = "orders:read"
	PermOrdersWrite     Permission = "orders:write"
	PermPromotionsWrite Permission = "promotions:write"
	PermReviewsModerate Permission = "reviews:moderate"
	PermAnalyticsRead   Permission = "analytics:read"
	PermUsersManage     Permission = "users:manage"
	PermLoyaltyAdjust   Permission = "loyalty:adjust"
)

var rolePermissions = map[Role]map[Permission]struct{}{
	RoleCustomer: {},
	RoleSupport: set(
		PermOrdersRead,
		PermReviewsModerate,
	),
	RoleManager: set(
		PermCatalogWrite,
		PermInventoryWrite,
		PermOrdersRead,
		PermOrdersWrite,
		PermPromotionsWrite,
		PermReviewsModerate,
		PermAnalyticsRead,
		PermLoyaltyAdjust,
	),
	RoleAdmin: set(
		PermCatalogWrite,
		PermInventoryWrite,
		PermOrdersRead,
		PermOrdersWrite,
		PermPromotionsWrite,
		PermReviewsModerate,
		PermAnalyticsRead,
		PermUsersManage,
		PermLoyaltyAdjust,
	),
}

func set(perms ...Permission) map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		m[p] = struct{}{}
	}
	return m
}

// ParseRole 解析角色，未知角色返回 false
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	_, ok := rolePermissions[r]
	return r, ok
}

// Can 判断角色是否拥有权限
func Can(role string, perm Permission) bool {
	perms, ok := rolePermissions[Role(role)]
	if !ok {
		return false
	}
	_, ok = perms[perm]
	return ok
}

// IsStaff 是否后台人员
func IsStaff(role string) bool {
	r, ok := ParseRole(role)
	return ok && r != RoleCustomer
}

// Permissions 角色拥有的全部权限
func Permissions(role string) []Permission {
	var out []Permission
	for _, p := range []Permission{
		PermCatalogWrite, PermInventoryWrite, PermOrdersRead, PermOrdersWrite,
		PermPromotionsWrite, PermReviewsModerate, PermAnalyticsRead, PermUsersManage, PermLoyaltyAdjust,
	} {
		if Can(role, p) {
			out = append(out, p)
		}
	}
	return out
}
