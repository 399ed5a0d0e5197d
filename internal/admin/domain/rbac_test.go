package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCan(t *testing.T) {
	assert.False(t, Can("CUSTOMER", PermOrdersRead))
	assert.True(t, Can("SUPPORT", PermOrdersRead))
	assert.False(t, Can("SUPPORT", PermOrdersWrite))
	assert.True(t, Can("MANAGER", PermCatalogWrite))
	assert.False(t, Can("MANAGER", PermUsersManage))
	assert.True(t, Can("ADMIN", PermUsersManage))
	assert.False(t, Can("ROOT", PermUsersManage))
}

func TestParseRoleAndStaff(t *testing.T) {
	_, ok := ParseRole("GUEST")
	assert.False(t, ok)
	assert.True(t, IsStaff("SUPPORT"))
	assert.False(t, IsStaff("CUSTOMER"))
	assert.Len(t, Permissions("ADMIN"), 9)
	assert.Empty(t, Permissions("CUSTOMER"))
}
