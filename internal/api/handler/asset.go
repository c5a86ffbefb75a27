package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/namebase_server/internal/model"
	"github.com/qs3c/namebase_server/internal/pkg/response"
	"github.com/qs3c/namebase_server/internal/pkg/tasks"
	"github.com/qs3c/namebase_server/internal/service"
)

type AssetHandler struct {
	assetService *service.AssetService
	tasks        *tasks.Registry
}

func NewAssetHandler(assetService *service.AssetService, registry *tasks.Registry) *AssetHandler {
	return &AssetHandler{
		assetService: assetService,
		tasks:        registry,
	}
}

// Toggle 返回切换某类资源面板的处理函数
// POST /api/v1/names/:id/{domains,npm,logo,one-pager}
func (h *AssetHandler) Toggle(kind model.AssetKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := callerFrom(c)
		nameID := c.Param("id")

		ctx, done := h.tasks.Start(c.Request.Context(), caller.Identity()+":"+string(kind)+":"+nameID)
		defer done()

		view, err := h.assetService.Toggle(ctx, caller, kind, nameID)
		if err != nil {
			respondError(c, err)
			return
		}

		response.Success(c, view)
	}
}
