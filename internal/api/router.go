package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/qs3c/namebase_server/config"
	"github.com/qs3c/namebase_server/internal/api/handler"
	"github.com/qs3c/namebase_server/internal/api/middleware"
	"github.com/qs3c/namebase_server/internal/model"
)

// Handlers 路由依赖的全部处理器
type Handlers struct {
	Session *handler.SessionHandler
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Name    *handler.NameHandler
	Asset   *handler.AssetHandler
	Usage   *handler.UsageHandler
	Plan    *handler.PlanHandler
	Billing *handler.BillingHandler
}

type Router struct {
	handlers Handlers
	limiter  *middleware.RateLimiter
	log      zerolog.Logger
	cfg      *config.Config
}

// NewRouter limiter 为空时不限流
func NewRouter(handlers Handlers, limiter *middleware.RateLimiter, log zerolog.Logger, cfg *config.Config) *Router {
	return &Router{
		handlers: handlers,
		limiter:  limiter,
		log:      log,
		cfg:      cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(r.log))
	engine.Use(middleware.CORS(r.cfg.CORS))

	h := r.handlers
	api := engine.Group("/api/v1")

	// Stripe 回调不经过限流与会话
	api.POST("/billing/webhook", h.Billing.Webhook)

	public := api.Group("")
	if r.limiter != nil {
		public.Use(r.limiter.Middleware())
	}
	public.Use(middleware.Session())
	{
		public.POST("/session", h.Session.Create)
		public.GET("/plans", h.Plan.List)

		// 公开接口 - 认证
		auth := public.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/verify-email", h.Auth.VerifyEmail)
			auth.GET("/github", h.Auth.GithubAuth)
			auth.GET("/github/callback", h.Auth.GithubCallback)
		}

		// 匿名与登录均可访问（可选认证）
		visitor := public.Group("")
		visitor.Use(middleware.OptionalAuth(r.cfg.JWT.Secret))
		{
			visitor.POST("/names/generate", h.Name.Generate)
			visitor.GET("/names", h.Name.List)
			visitor.GET("/usage", h.Usage.GetUsage)

			// 匿名访问者会收到注册提示
			assets := visitor.Group("/names/:id")
			{
				assets.POST("/domains", h.Asset.Toggle(model.AssetDomains))
				assets.POST("/npm", h.Asset.Toggle(model.AssetNpm))
				assets.POST("/logo", h.Asset.Toggle(model.AssetLogo))
				assets.POST("/one-pager", h.Asset.Toggle(model.AssetOnePager))
			}
		}

		// 需要认证的接口
		authenticated := public.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			authenticated.GET("/names/favorites", h.Name.Favorites)
			authenticated.POST("/names/:id/favorite", h.Name.ToggleFavorite)

			user := authenticated.Group("/user")
			{
				user.GET("/profile", h.User.GetProfile)
				user.PUT("/profile", h.User.UpdateProfile)
			}

			billing := authenticated.Group("/billing")
			{
				billing.GET("/portal", h.Billing.Portal)
				billing.GET("/plan", h.Billing.Plan)
			}
		}
	}

	return engine
}
