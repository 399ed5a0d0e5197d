package authctx

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndRequire(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)

	_, err := Require(c)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	Set(c, &Principal{UserID: 4, Role: "ADMIN", SessionID: "s"})
	p, err := Require(c)
	require.NoError(t, err)
	assert.Equal(t, uint(4), p.UserID)

	fromCtx, ok := FromContext(c.Request.Context())
	require.True(t, ok)
	assert.Equal(t, "ADMIN", fromCtx.Role)
}
