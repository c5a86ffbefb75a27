package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/namebase_server/internal/pkg/response"
	"github.com/qs3c/namebase_server/internal/service"
)

type UsageHandler struct {
	quotaService *service.QuotaService
}

func NewUsageHandler(quotaService *service.QuotaService) *UsageHandler {
	return &UsageHandler{
		quotaService: quotaService,
	}
}

// GetUsage 获取当前访问者的名称生成用量
// GET /api/v1/usage
func (h *UsageHandler) GetUsage(c *gin.Context) {
	info, err := h.quotaService.Usage(c.Request.Context(), callerFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, info)
}
