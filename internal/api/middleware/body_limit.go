package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bookkeeping/pkg/response"
)

// BodyLimit 全局请求体大小限制中间件
// 声明了 Content-Length 的超限请求直接拒绝；分块上传由 MaxBytesReader 在读取时截断，
// 读取方遇到 *http.MaxBytesError 后自行返回 413
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.PayloadTooLarge(c)
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
