package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/namebase_server/internal/api/middleware"
	"github.com/qs3c/namebase_server/internal/pkg/response"
	"github.com/qs3c/namebase_server/internal/service"
)

// callerFrom 组装访问者身份：已登录账号和匿名会话
func callerFrom(c *gin.Context) service.Caller {
	userID, _ := middleware.GetUserID(c)
	return service.Caller{
		AccountID: userID,
		SessionID: middleware.GetSessionID(c),
	}
}

// respondError 将业务错误映射为统一响应
func respondError(c *gin.Context, err error) {
	var notice *service.NoticeError
	switch {
	case errors.As(err, &notice):
		response.ErrorWithData(c, response.CodeQuotaExceeded, notice.Description, gin.H{
			"notice": notice.Notice(),
		})
	case errors.Is(err, context.Canceled):
		// 同一访问者发起了新的同类请求
		response.DuplicateError(c, "Request superseded by a newer one")
	case errors.Is(err, service.ErrProviderFailed):
		_ = c.Error(err)
		response.ProviderError(c, "")
	case errors.Is(err, service.ErrNameNotFound), errors.Is(err, service.ErrUserNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrNotNameOwner):
		response.PermissionError(c, err.Error())
	case errors.Is(err, service.ErrSessionMissing),
		errors.Is(err, service.ErrNameRequired),
		errors.Is(err, service.ErrInvalidAsset),
		errors.Is(err, service.ErrNameTooShort):
		response.ParamError(c, err.Error())
	default:
		_ = c.Error(err)
		response.ServerError(c, "")
	}
}
