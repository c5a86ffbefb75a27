package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/qs3c/namebase_server/config"
	"github.com/qs3c/namebase_server/internal/database"
	"github.com/qs3c/namebase_server/internal/pkg/logger"
	"github.com/qs3c/namebase_server/internal/repository"
)

var (
	dryRun      = flag.Bool("dry-run", true, "Dry run mode, don't actually delete accounts")
	expireHours = flag.Int("signup-expire", 72, "Hours past verification expiry before an unverified signup is purged")
	batchSize   = flag.Int("batch", 500, "Max accounts to purge per run")
)

// 清理从未完成邮箱验证的注册，释放被占用的邮箱地址
func main() {
	flag.Parse()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Component(logger.New(cfg.Log), "cleanup")
	log.Info().Bool("dry_run", *dryRun).Int("signup_expire_hours", *expireHours).Msg("Starting cleanup task")

	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	repo := repository.NewProfileRepository(db)
	before := time.Now().Add(-time.Duration(*expireHours) * time.Hour)

	profiles, err := repo.ListAbandonedSignups(ctx, before, *batchSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list abandoned signups")
	}

	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		email := ""
		if p.Email != nil {
			email = *p.Email
		}
		log.Info().Str("account", p.ID).Str("email", email).Time("created_at", p.CreatedAt).Msg("abandoned signup")
		ids = append(ids, p.ID)
	}

	if *dryRun {
		log.Info().Int("found", len(ids)).Msg("DRY RUN MODE - no accounts were deleted, run with -dry-run=false to purge")
		return
	}

	deleted, err := repo.DeleteUnverified(ctx, ids)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to delete abandoned signups")
	}
	log.Info().Int("found", len(ids)).Int64("deleted", deleted).Msg("Cleanup completed")
}
