package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck 依赖健康检查函数
type HealthCheck func(ctx context.Context) error

// healthTimeout 单项依赖检查超时
const healthTimeout = 2 * time.Second

// HealthHandler 健康检查处理器
type HealthHandler struct {
	checks map[string]HealthCheck
}

// NewHealthHandler 创建 HealthHandler，checks 的键为依赖名（如 db、redis）
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health 返回各依赖状态，任一依赖不可用时返回 503
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))

	for name, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		err := check(ctx)
		cancel()

		if err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "dependencies": deps})
}
