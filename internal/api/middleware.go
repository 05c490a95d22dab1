package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestID 给每个请求注入 X-Request-ID（客户端没带就生成），排查日志用
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}
