package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSyncCooldown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ResetSyncCooldown(SyncTypeOrderStatus)
	t.Cleanup(func() { ResetSyncCooldown(SyncTypeOrderStatus) })

	r := gin.New()
	r.POST("/api/sync/orders", SyncCooldown(SyncTypeOrderStatus, time.Hour), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	// 首次触发允许
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sync/orders", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// 冷却期内再次触发被拒绝
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sync/orders", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "retry_after")

	// 重置后恢复
	ResetSyncCooldown(SyncTypeOrderStatus)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sync/orders", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetInterval(t *testing.T) {
	assert.Equal(t, 10*time.Minute, GetInterval(SyncTypeInventoryFull))
	assert.Equal(t, time.Minute, GetInterval(SyncType("未登记类型")))
}
