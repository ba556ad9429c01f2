package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== 同步冷却限流器 ====================

// cooldownLimiter 手动同步冷却限流器
// 防止运营频繁触发手动同步导致 Shopify / Bunjang API 限流
type cooldownLimiter struct {
	locks sync.Map // key -> *lockEntry
}

type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

var globalLimiter = &cooldownLimiter{}

// CheckResult 冷却检查结果
type CheckResult struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Check 检查是否允许执行，允许时顺带更新最后执行时间
func (r *cooldownLimiter) Check(key string, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(entry.lastTime)
	if elapsed < interval {
		return CheckResult{
			Allowed:    false,
			RetryAfter: interval - elapsed,
		}
	}

	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Reset 重置指定 key 的冷却
func (r *cooldownLimiter) Reset(key string) {
	r.locks.Delete(key)
}

// ==================== 同步类型与默认间隔 ====================

// SyncType 手动同步类型
type SyncType string

const (
	SyncTypeOrderStatus   SyncType = "order_status"
	SyncTypeInventoryFull SyncType = "inventory_full"
	SyncTypeInventory     SyncType = "inventory"
)

// defaultIntervals 各同步类型的冷却间隔
var defaultIntervals = map[SyncType]time.Duration{
	SyncTypeOrderStatus:   1 * time.Minute,
	SyncTypeInventoryFull: 10 * time.Minute, // 全量库存同步代价高
	SyncTypeInventory:     5 * time.Second,
}

// GetInterval 获取同步类型的默认冷却间隔
func GetInterval(syncType SyncType) time.Duration {
	if interval, ok := defaultIntervals[syncType]; ok {
		return interval
	}
	return time.Minute
}

func syncKey(syncType SyncType) string {
	return "sync:" + string(syncType)
}

// ResetSyncCooldown 重置指定同步类型的冷却（测试与运维使用）
func ResetSyncCooldown(syncType SyncType) {
	globalLimiter.Reset(syncKey(syncType))
}

// ==================== Gin 中间件 ====================

// SyncCooldown 手动同步冷却中间件
// interval 传 0 表示使用该类型的默认间隔
func SyncCooldown(syncType SyncType, interval time.Duration) gin.HandlerFunc {
	if interval == 0 {
		interval = GetInterval(syncType)
	}

	return func(c *gin.Context) {
		result := globalLimiter.Check(syncKey(syncType), interval)
		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message":     formatRetryMessage(result.RetryAfter),
				"retry_after": retryAfter,
				"sync_type":   syncType,
			})
			return
		}

		c.Next()
	}
}

// formatRetryMessage 格式化冷却提示
func formatRetryMessage(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("同步冷却中，请 %d 秒后重试", seconds)
	}

	minutes := seconds / 60
	remaining := seconds % 60
	if remaining == 0 {
		return fmt.Sprintf("同步冷却中，请 %d 分钟后重试", minutes)
	}
	return fmt.Sprintf("同步冷却中，请 %d 分 %d 秒后重试", minutes, remaining)
}
