package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookkeeping/internal/api/middleware"
	"bookkeeping/internal/eosreport"
	"bookkeeping/pkg/jwt"
	"bookkeeping/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(middleware.ContextUserID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetClaims 从 Gin 上下文中安全提取 JWT 声明。
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(middleware.ContextClaims)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims == nil {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return claims, true
}

// mustParseReportType 解析已通过 binding 校验的报告类型
func mustParseReportType(c *gin.Context, value string) (eosreport.ReportType, bool) {
	t, err := eosreport.ParseReportType(value)
	if err != nil {
		response.BadRequest(c, 10001, "报告类型无效")
		return "", false
	}
	return t, true
}

// bindJSON 绑定 JSON 请求体，失败时写入 400（超出 BodyLimit 时为 413）
func bindJSON(c *gin.Context, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.PayloadTooLarge(c)
		return false
	}
	response.BadRequest(c, 10001, "参数校验失败")
	return false
}
