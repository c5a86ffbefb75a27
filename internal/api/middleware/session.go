package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionIDKey    = "sessionID"
	SessionHeader   = "X-Session-ID"
	sessionQueryKey = "session_id"
)

// Session 识别匿名会话：优先读取请求头，其次查询参数，缺失或非法时生成新的会话 ID 并回写到响应头
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(SessionHeader)
		if sessionID == "" {
			sessionID = c.Query(sessionQueryKey)
		}
		if _, err := uuid.Parse(sessionID); err != nil {
			sessionID = uuid.NewString()
		}

		c.Set(SessionIDKey, sessionID)
		c.Header(SessionHeader, sessionID)
		c.Next()
	}
}

// GetSessionID 从上下文获取匿名会话 ID
func GetSessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}
