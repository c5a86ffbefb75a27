package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/namebase_server/internal/api/middleware"
	"github.com/qs3c/namebase_server/internal/model/dto"
	"github.com/qs3c/namebase_server/internal/pkg/response"
	"github.com/qs3c/namebase_server/internal/pkg/tasks"
	"github.com/qs3c/namebase_server/internal/service"
)

type NameHandler struct {
	quotaService *service.QuotaService
	nameService  *service.NameService
	tasks        *tasks.Registry
}

func NewNameHandler(quotaService *service.QuotaService, nameService *service.NameService, registry *tasks.Registry) *NameHandler {
	return &NameHandler{
		quotaService: quotaService,
		nameService:  nameService,
		tasks:        registry,
	}
}

// Generate 经过用量校验后保存名称；同一访问者的新请求会取消进行中的旧请求
// POST /api/v1/names/generate
func (h *NameHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	caller := callerFrom(c)
	ctx, done := h.tasks.Start(c.Request.Context(), caller.Identity()+":generate")
	defer done()

	resp, err := h.quotaService.Generate(ctx, caller, req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, resp)
}

// List 获取当前访问者的名称
// GET /api/v1/names?limit=
func (h *NameHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	items, err := h.nameService.List(c.Request.Context(), callerFrom(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"names": items})
}

// Favorites 获取收藏的名称
// GET /api/v1/names/favorites
func (h *NameHandler) Favorites(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	items, err := h.nameService.Favorites(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"names": items})
}

// ToggleFavorite 切换收藏状态
// POST /api/v1/names/:id/favorite
func (h *NameHandler) ToggleFavorite(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	resp, err := h.nameService.ToggleFavorite(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessWithMessage(c, resp.Message, resp)
}
