package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/qs3c/namebase_server/internal/model"
	"github.com/qs3c/namebase_server/internal/model/dto"
	"github.com/qs3c/namebase_server/internal/repository"
)

// 用量统计窗口
const usageWindowDays = 30

var (
	ErrQuotaExceeded  = errors.New("monthly name generation limit reached")
	ErrGenerateFailed = errors.New("failed to save name")
	ErrNameRequired   = errors.New("name is required")

	errLimitReached = errors.New("limit reached")
)

const (
	quotaTitle          = "Uh oh! Out of generations"
	quotaUpgradeMessage = "You've reached the monthly limit for name generations. Upgrade your account to generate more names and enjoy more features."
	quotaSignupMessage  = "You've reached the monthly limit for name generations. Sign up for an account to continue."
)

type QuotaService struct {
	profileRepo *repository.ProfileRepository
	nameRepo    *repository.NameRepository
	plans       *PlanService
	planNames   PlanNameResolver
	portal      PortalResolver
	locker      Locker
	log         zerolog.Logger
	now         clock
}

func NewQuotaService(
	profileRepo *repository.ProfileRepository,
	nameRepo *repository.NameRepository,
	plans *PlanService,
	planNames PlanNameResolver,
	portal PortalResolver,
	locker Locker,
	log zerolog.Logger,
) *QuotaService {
	return &QuotaService{
		profileRepo: profileRepo,
		nameRepo:    nameRepo,
		plans:       plans,
		planNames:   planNames,
		portal:      portal,
		locker:      locker,
		log:         log.With().Str("component", "QuotaService").Logger(),
		now:         time.Now,
	}
}

// Generate 校验用量后为访问者保存一个名称
func (s *QuotaService) Generate(ctx context.Context, caller Caller, nameText, description string) (*dto.GenerateResponse, error) {
	nameText = strings.TrimSpace(nameText)
	if nameText == "" {
		return nil, ErrNameRequired
	}
	if !caller.Authenticated() && caller.SessionID == "" {
		return nil, ErrSessionMissing
	}

	tier, profile := s.resolveTier(ctx, caller)
	limit := s.plans.Entitlements(tier).NameGenerations
	since := s.windowStart()

	release, err := s.acquire(ctx, caller)
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		created *model.Name
		used    int64
	)
	err = s.nameRepo.Transaction(ctx, func(tx *repository.NameRepository) error {
		if caller.Authenticated() {
			if err := tx.LockAccount(ctx, caller.AccountID); err != nil {
				return fmt.Errorf("lock account: %w", err)
			}
		}

		count, err := countNames(ctx, tx, caller, since)
		if err != nil {
			return fmt.Errorf("count names: %w", err)
		}
		used = count
		if count >= int64(limit) {
			return errLimitReached
		}

		name := &model.Name{
			Name:        nameText,
			Description: strings.TrimSpace(description),
			SessionID:   caller.SessionID,
		}
		if caller.Authenticated() {
			name.CreatedBy = &caller.AccountID
		}
		if err := tx.Create(ctx, name); err != nil {
			s.log.Error().Err(err).Str("identity", caller.Identity()).Msg("insert name failed")
			return ErrGenerateFailed
		}
		created = name
		return nil
	})

	switch {
	case errors.Is(err, errLimitReached):
		s.log.Info().Str("identity", caller.Identity()).Str("tier", string(tier)).
			Int64("used", used).Int("limit", limit).Msg("name generation limit reached")
		return nil, s.limitNotice(ctx, caller, profile)
	case err != nil:
		return nil, err
	}

	return &dto.GenerateResponse{
		NameID: created.ID,
		Name:   created.Name,
		Tier:   string(tier),
		Used:   int(used) + 1,
		Limit:  limit,
	}, nil
}

// Usage 获取访问者当前窗口内的用量
func (s *QuotaService) Usage(ctx context.Context, caller Caller) (*dto.UsageInfo, error) {
	if !caller.Authenticated() && caller.SessionID == "" {
		return nil, ErrSessionMissing
	}

	tier, _ := s.resolveTier(ctx, caller)
	limit := s.plans.Entitlements(tier).NameGenerations
	since := s.windowStart()

	count, err := countNames(ctx, s.nameRepo, caller, since)
	if err != nil {
		return nil, err
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return &dto.UsageInfo{
		Tier:        string(tier),
		Limit:       limit,
		Used:        int(count),
		Remaining:   remaining,
		WindowStart: since.Format(time.RFC3339),
	}, nil
}

// resolveTier 查询失败时记录日志并按免费等级处理
func (s *QuotaService) resolveTier(ctx context.Context, caller Caller) (model.Tier, *model.Profile) {
	if !caller.Authenticated() {
		return model.TierUnauthenticated, nil
	}

	profile, err := s.profileRepo.GetByID(ctx, caller.AccountID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn().Err(err).Str("account", caller.AccountID).Msg("profile lookup failed, using free tier")
		}
		return model.TierFree, nil
	}
	if !profile.HasPlan() || s.planNames == nil {
		return model.TierFree, profile
	}

	planName, err := s.planNames.PlanName(ctx, *profile.PlanID)
	if err != nil {
		s.log.Warn().Err(err).Str("plan_id", *profile.PlanID).Msg("plan lookup failed, using free tier")
		return model.TierFree, profile
	}
	return model.TierForPlanName(planName), profile
}

func (s *QuotaService) windowStart() time.Time {
	return s.now().AddDate(0, 0, -usageWindowDays)
}

// acquire 获取身份锁；锁服务不可用时记录日志并继续
func (s *QuotaService) acquire(ctx context.Context, caller Caller) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}

	release, err := s.locker.Acquire(ctx, "names:"+caller.Identity())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log.Warn().Err(err).Str("identity", caller.Identity()).Msg("identity lock unavailable")
		return noop, nil
	}
	return release, nil
}

func (s *QuotaService) limitNotice(ctx context.Context, caller Caller, profile *model.Profile) *NoticeError {
	notice := &NoticeError{
		Title: quotaTitle,
		Err:   ErrQuotaExceeded,
	}

	if !caller.Authenticated() {
		notice.Description = quotaSignupMessage
		notice.Action = &dto.Action{Label: "Sign up", URL: "/signup"}
		return notice
	}

	notice.Description = quotaUpgradeMessage
	notice.Action = &dto.Action{Label: "Upgrade", URL: "/pricing"}

	if profile != nil && profile.HasBillingCustomer() && s.portal != nil {
		url, err := s.portal.PortalURL(ctx, *profile.CustomerID)
		if err != nil {
			s.log.Warn().Err(err).Str("account", caller.AccountID).Msg("portal url lookup failed")
		} else {
			notice.Action.URL = url
		}
	}
	return notice
}

func countNames(ctx context.Context, repo *repository.NameRepository, caller Caller, since time.Time) (int64, error) {
	if caller.Authenticated() {
		return repo.CountByCreatorSince(ctx, caller.AccountID, since)
	}
	return repo.CountBySessionSince(ctx, caller.SessionID, since)
}
