package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/namebase_server/internal/api/middleware"
	"github.com/qs3c/namebase_server/internal/model/dto"
	"github.com/qs3c/namebase_server/internal/pkg/billing"
	"github.com/qs3c/namebase_server/internal/pkg/response"
	"github.com/qs3c/namebase_server/internal/service"
)

// webhook 请求体上限
const maxWebhookBody = 64 << 10

type BillingHandler struct {
	billingService *service.BillingService
}

func NewBillingHandler(billingService *service.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

// Portal 获取计费门户地址
// GET /api/v1/billing/portal
func (h *BillingHandler) Portal(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	url, err := h.billingService.PortalForAccount(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNoBillingAccount) {
			response.NotFoundError(c, err.Error())
			return
		}
		respondError(c, err)
		return
	}

	response.Success(c, &dto.PortalResponse{URL: url})
}

// Plan 按价格 ID 查询套餐名
// GET /api/v1/billing/plan?plan_id=
func (h *BillingHandler) Plan(c *gin.Context) {
	planID := c.Query("plan_id")
	if planID == "" {
		response.ParamError(c, service.ErrPlanIDRequired.Error())
		return
	}

	name, err := h.billingService.PlanName(c.Request.Context(), planID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, &dto.PlanNameResponse{PlanID: planID, PlanName: name})
}

// Webhook Stripe 回调，按 Stripe 约定返回真实 HTTP 状态码
// POST /api/v1/billing/webhook
func (h *BillingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}

	err = h.billingService.Webhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"received": true})
	case errors.Is(err, billing.ErrInvalidSignature), errors.Is(err, billing.ErrNotConfigured):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook handling failed"})
	}
}
