package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "shpss_test_secret"

func setupVerifyRouter(t *testing.T) (*gin.Engine, *string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var seenBody string
	r := gin.New()
	r.POST("/webhooks/orders/create", ShopifyWebhookVerify(testSecret, zap.NewNop()), func(c *gin.Context) {
		// 中间件必须回填 body 供 handler 读取
		raw, err := io.ReadAll(c.Request.Body)
		require.NoError(t, err)
		seenBody = string(raw)
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return r, &seenBody
}

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestShopifyWebhookVerify_ValidSignature(t *testing.T) {
	r, seenBody := setupVerifyRouter(t)
	body := `{"id":1001,"name":"#1001"}`

	req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create", strings.NewReader(body))
	req.Header.Set("X-Shopify-Hmac-Sha256", sign(testSecret, body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, body, *seenBody)
}

func TestShopifyWebhookVerify_MissingSignature(t *testing.T) {
	r, _ := setupVerifyRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestShopifyWebhookVerify_WrongSecret(t *testing.T) {
	r, _ := setupVerifyRouter(t)
	body := `{"id":1001}`

	req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create", strings.NewReader(body))
	req.Header.Set("X-Shopify-Hmac-Sha256", sign("另一个密钥", body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestShopifyWebhookVerify_TamperedBody(t *testing.T) {
	r, _ := setupVerifyRouter(t)
	body := `{"id":1001}`

	req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create", strings.NewReader(`{"id":9999}`))
	req.Header.Set("X-Shopify-Hmac-Sha256", sign(testSecret, body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
