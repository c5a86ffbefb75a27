package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/namebase_server/internal/api/middleware"
	"github.com/qs3c/namebase_server/internal/model/dto"
	"github.com/qs3c/namebase_server/internal/pkg/response"
)

type SessionHandler struct{}

func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// Create 签发匿名会话 ID，已携带合法会话时原样返回
// POST /api/v1/session
func (h *SessionHandler) Create(c *gin.Context) {
	response.Success(c, &dto.SessionResponse{SessionID: middleware.GetSessionID(c)})
}
