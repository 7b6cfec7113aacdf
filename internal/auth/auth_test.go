package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T, req *http.Request) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req
	return c
}

func TestTokenFromRequestBearerHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/wallet", nil)
	req.Header.Set("Authorization", "Bearer header-token")

	token, err := tokenFromRequest(testContext(t, req))
	require.NoError(t, err)
	assert.Equal(t, "header-token", token)
}

func TestTokenFromRequestMissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/wallet", nil)

	_, err := tokenFromRequest(testContext(t, req))
	assert.Error(t, err)
}

func TestTokenFromRequestMalformedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/wallet", nil)
	req.Header.Set("Authorization", "header-token")

	_, err := tokenFromRequest(testContext(t, req))
	assert.Error(t, err)
}

// Browser WebSocket clients cannot set an Authorization header; upgrade
// requests must be able to authenticate via the token query parameter.
func TestTokenFromRequestWebSocketUpgrade(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws?token=query-token", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")

	token, err := tokenFromRequest(testContext(t, req))
	require.NoError(t, err)
	assert.Equal(t, "query-token", token)
}

func TestTokenFromRequestWebSocketUpgradeWithoutToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")

	_, err := tokenFromRequest(testContext(t, req))
	assert.Error(t, err)
}
