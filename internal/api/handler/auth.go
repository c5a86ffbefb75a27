package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qs3c/namebase_server/internal/model/dto"
	"github.com/qs3c/namebase_server/internal/pkg/oauth"
	"github.com/qs3c/namebase_server/internal/pkg/response"
	"github.com/qs3c/namebase_server/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register 邮箱注册
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailExists):
			response.DuplicateError(c, err.Error())
		default:
			respondError(c, err)
		}
		return
	}

	if resp.EmailVerified {
		response.SuccessWithMessage(c, "Account created", resp)
		return
	}
	response.SuccessWithMessage(c, "Check your email to confirm your account", resp)
}

// Login 邮箱密码登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.AuthError(c, err.Error())
		case errors.Is(err, service.ErrEmailNotVerified):
			response.AuthError(c, err.Error())
		default:
			respondError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "Signed in", resp)
}

// VerifyEmail 验证邮箱
// POST /api/v1/auth/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.VerifyEmail(c.Request.Context(), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidVerifyCode):
			response.ParamError(c, err.Error())
		default:
			respondError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "Email confirmed", resp)
}

// GithubAuth 跳转到 GitHub 授权页，ids 为登录后待认领的名称
// GET /api/v1/auth/github?redirect_uri=&ids=
func (h *AuthHandler) GithubAuth(c *gin.Context) {
	url, err := h.authService.GithubAuthURL(
		c.Request.Context(),
		c.Query("redirect_uri"),
		parseIDs(c.Query("ids")),
	)
	if err != nil {
		if errors.Is(err, service.ErrOAuthNotConfigured) {
			response.Error(c, response.CodeServerError, err.Error())
			return
		}
		respondError(c, err)
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GithubCallback 处理 GitHub 回调
// GET /api/v1/auth/github/callback?code=&state=
func (h *AuthHandler) GithubCallback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		response.ParamError(c, "missing code or state")
		return
	}

	resp, redirect, err := h.authService.GithubCallback(c.Request.Context(), code, state)
	if err != nil {
		switch {
		case errors.Is(err, oauth.ErrInvalidState):
			response.AuthError(c, err.Error())
		case errors.Is(err, service.ErrOAuthNotConfigured):
			response.Error(c, response.CodeServerError, err.Error())
		default:
			_ = c.Error(err)
			response.AuthError(c, "GitHub sign-in failed")
		}
		return
	}

	response.SuccessWithMessage(c, "Signed in", gin.H{
		"login":        resp,
		"redirect_uri": redirect,
	})
}

// parseIDs 解析逗号分隔的名称 ID，忽略非法值
func parseIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if _, err := uuid.Parse(id); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
