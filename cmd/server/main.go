package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qs3c/namebase_server/config"
	"github.com/qs3c/namebase_server/internal/api"
	"github.com/qs3c/namebase_server/internal/api/handler"
	"github.com/qs3c/namebase_server/internal/api/middleware"
	"github.com/qs3c/namebase_server/internal/database"
	"github.com/qs3c/namebase_server/internal/pkg/billing"
	"github.com/qs3c/namebase_server/internal/pkg/email"
	"github.com/qs3c/namebase_server/internal/pkg/lock"
	"github.com/qs3c/namebase_server/internal/pkg/logger"
	"github.com/qs3c/namebase_server/internal/pkg/oauth"
	"github.com/qs3c/namebase_server/internal/pkg/oss"
	"github.com/qs3c/namebase_server/internal/pkg/provider"
	"github.com/qs3c/namebase_server/internal/pkg/tasks"
	"github.com/qs3c/namebase_server/internal/pkg/viewstate"
	"github.com/qs3c/namebase_server/internal/repository"
	"github.com/qs3c/namebase_server/internal/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "config file path")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)

	// 初始化数据库
	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to connect database")
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("Database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// 初始化外部服务客户端
	timeout := time.Duration(cfg.Providers.TimeoutSeconds) * time.Second
	providers := service.AssetProviders{
		Domains:  provider.NewDomainClient(cfg.Providers.Domain.BaseURL, cfg.Providers.Domain.APIKey, timeout),
		Packages: provider.NewRegistryClient(cfg.Providers.Registry.BaseURL, timeout),
		Text: provider.NewCompletionClient(provider.CompletionConfig{
			BaseURL:     cfg.Providers.Completion.BaseURL,
			APIKey:      cfg.Providers.Completion.APIKey,
			Model:       cfg.Providers.Completion.Model,
			MaxTokens:   cfg.Providers.Completion.MaxTokens,
			Temperature: cfg.Providers.Completion.Temperature,
			Timeout:     timeout,
		}),
		Logos: provider.NewImageClient(provider.ImageConfig{
			BaseURL: cfg.Providers.Image.BaseURL,
			APIKey:  cfg.Providers.Image.APIKey,
			Model:   cfg.Providers.Image.Model,
			Size:    cfg.Providers.Image.Size,
			Timeout: timeout,
		}),
		OnePagers: provider.NewOnePagerClient(cfg.Providers.OnePager.BaseURL, cfg.Providers.OnePager.APIKey, timeout),
	}

	if cfg.OSS.Enabled() {
		ossClient, err := oss.NewClient(&cfg.OSS)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to init OSS client")
		}
		providers.LogoStore = ossClient
		log.Info().Str("bucket", cfg.OSS.BucketName).Msg("Logo storage enabled")
	}

	billingClient := billing.NewClient(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	if !billingClient.Configured() {
		log.Warn().Msg("Stripe secret key not set, billing portal disabled")
	}

	mailer := email.NewService(&cfg.Email)
	github := oauth.NewGithubOAuth(cfg.OAuth.Github.ClientID, cfg.OAuth.Github.ClientSecret, cfg.OAuth.Github.RedirectURI)
	states := oauth.NewStateStore(rdb)
	locker := lock.NewLocker(rdb, time.Duration(cfg.Session.LockTTLSeconds)*time.Second, log)
	views := viewstate.NewStore(rdb, time.Duration(cfg.Session.ViewStateTTLHours)*time.Hour)
	registry := tasks.NewRegistry()

	// 初始化 Repository
	profileRepo := repository.NewProfileRepository(db)
	nameRepo := repository.NewNameRepository(db)
	assetRepo := repository.NewAssetRepository(db)

	// 初始化 Service
	planService := service.NewPlanService(cfg)
	billingService := service.NewBillingService(cfg, profileRepo, billingClient, rdb, log)
	authService := service.NewAuthService(profileRepo, nameRepo, cfg, mailer, github, states, log)
	quotaService := service.NewQuotaService(profileRepo, nameRepo, planService, billingService, billingService, locker, log)
	nameService := service.NewNameService(nameRepo, log)
	assetService := service.NewAssetService(nameRepo, assetRepo, profileRepo, views, providers, log)
	profileService := service.NewProfileService(profileRepo, billingService, billingService, log)

	// 初始化 Handler
	handlers := api.Handlers{
		Session: handler.NewSessionHandler(),
		Auth:    handler.NewAuthHandler(authService),
		User:    handler.NewUserHandler(profileService),
		Name:    handler.NewNameHandler(quotaService, nameService, registry),
		Asset:   handler.NewAssetHandler(assetService, registry),
		Usage:   handler.NewUsageHandler(quotaService),
		Plan:    handler.NewPlanHandler(planService),
		Billing: handler.NewBillingHandler(billingService),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit)
		limiter.StartJanitor(ctx)
	}

	// 初始化 Router
	engine := api.NewRouter(handlers, limiter, log, cfg).Setup()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	// 启动服务器
	log.Info().Str("addr", addr).Str("mode", cfg.Server.Mode).Msg("Server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
	log.Info().Int("in_flight", registry.Running()).Msg("Server stopped")
}
