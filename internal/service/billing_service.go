package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/qs3c/namebase_server/config"
	"github.com/qs3c/namebase_server/internal/model"
	"github.com/qs3c/namebase_server/internal/pkg/billing"
	"github.com/qs3c/namebase_server/internal/repository"
)

const (
	portalCachePrefix = "billing:portal:"
	pendingPlanPrefix = "billing:pending_plan:"
	pendingPlanTTL    = 72 * time.Hour
)

var (
	ErrNoBillingAccount = errors.New("no billing account for this profile")
	ErrPlanIDRequired   = errors.New("plan id is required")
)

type BillingService struct {
	profileRepo *repository.ProfileRepository
	provider    BillingProvider
	rdb         *redis.Client
	returnURL   string
	portalTTL   time.Duration
	planNames   sync.Map // planID -> 套餐名
	log         zerolog.Logger
}

func NewBillingService(
	cfg *config.Config,
	profileRepo *repository.ProfileRepository,
	provider BillingProvider,
	rdb *redis.Client,
	log zerolog.Logger,
) *BillingService {
	ttl := time.Duration(cfg.Stripe.PortalCacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 4 * time.Minute
	}
	return &BillingService{
		profileRepo: profileRepo,
		provider:    provider,
		rdb:         rdb,
		returnURL:   strings.TrimRight(cfg.App.FrontendURL, "/") + cfg.Stripe.PortalReturnPath,
		portalTTL:   ttl,
		log:         log.With().Str("component", "BillingService").Logger(),
	}
}

// PortalURL 获取计费门户地址，按客户缓存且有效期短于门户会话
func (s *BillingService) PortalURL(ctx context.Context, customerID string) (string, error) {
	key := portalCachePrefix + customerID

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, key).Result()
		if err == nil && cached != "" {
			return cached, nil
		}
		if err != nil && err != redis.Nil {
			s.log.Warn().Err(err).Str("customer", customerID).Msg("portal cache read failed")
		}
	}

	url, err := s.provider.NewPortalSession(ctx, customerID, s.returnURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, key, url, s.portalTTL).Err(); err != nil {
			s.log.Warn().Err(err).Str("customer", customerID).Msg("portal cache write failed")
		}
	}
	return url, nil
}

// PortalForAccount 获取账号的计费门户地址
func (s *BillingService) PortalForAccount(ctx context.Context, accountID string) (string, error) {
	profile, err := s.profileRepo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	if !profile.HasBillingCustomer() {
		return "", ErrNoBillingAccount
	}
	return s.PortalURL(ctx, *profile.CustomerID)
}

// PlanName 价格 ID 对应的产品名，进程内缓存
func (s *BillingService) PlanName(ctx context.Context, planID string) (string, error) {
	if planID == "" {
		return "", ErrPlanIDRequired
	}
	if name, ok := s.planNames.Load(planID); ok {
		return name.(string), nil
	}

	name, err := s.provider.PriceProductName(ctx, planID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}
	s.planNames.Store(planID, name)
	return name, nil
}

// Webhook 校验并处理 Stripe 事件
func (s *BillingService) Webhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseEvent(payload, signature)
	if err != nil {
		return err
	}

	log := s.log.With().Str("event_id", event.ID).Str("type", event.Type).Logger()

	switch event.Type {
	case billing.EventCheckoutCompleted:
		return s.handleCheckout(ctx, event, log)

	case billing.EventSubscriptionCreated, billing.EventSubscriptionUpdated:
		var planID *string
		if event.Active() && event.PriceID != "" {
			planID = &event.PriceID
		}
		return s.setPlan(ctx, event.CustomerID, planID, log)

	case billing.EventSubscriptionDeleted:
		return s.setPlan(ctx, event.CustomerID, nil, log)

	default:
		log.Debug().Msg("ignored billing event")
		return nil
	}
}

func (s *BillingService) handleCheckout(ctx context.Context, event *billing.Event, log zerolog.Logger) error {
	if event.CustomerID == "" {
		log.Warn().Msg("checkout without customer id")
		return nil
	}

	profile, err := s.matchProfile(ctx, event)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().Str("email", event.Email).Msg("no profile for checkout")
			return nil
		}
		return err
	}

	fields := map[string]interface{}{"customer_id": event.CustomerID}
	if planID := s.checkoutPlan(ctx, event, log); planID != "" {
		fields["plan_id"] = planID
	}
	if err := s.profileRepo.UpdateFields(ctx, profile.ID, fields); err != nil {
		return fmt.Errorf("update profile billing: %w", err)
	}

	s.forgetPortal(ctx, event.CustomerID)
	s.forgetPendingPlan(ctx, event.CustomerID)
	log.Info().Str("account", profile.ID).Str("customer", event.CustomerID).Msg("billing customer linked")
	return nil
}

// checkoutPlan 确定 checkout 对应的套餐：先查订阅当前状态，失败时使用先于 checkout 到达的订阅事件
func (s *BillingService) checkoutPlan(ctx context.Context, event *billing.Event, log zerolog.Logger) string {
	if event.PriceID != "" {
		return event.PriceID
	}

	if event.SubscriptionID != "" {
		sub, err := s.provider.GetSubscription(ctx, event.SubscriptionID)
		if err == nil {
			if sub.Active() {
				return sub.PriceID
			}
			return ""
		}
		log.Warn().Err(err).Str("subscription", event.SubscriptionID).Msg("subscription lookup failed")
	}

	if s.rdb == nil {
		return ""
	}
	planID, err := s.rdb.Get(ctx, pendingPlanPrefix+event.CustomerID).Result()
	if err != nil && err != redis.Nil {
		log.Warn().Err(err).Str("customer", event.CustomerID).Msg("pending plan read failed")
	}
	return planID
}

// matchProfile 优先按 client_reference_id 匹配，其次按邮箱
func (s *BillingService) matchProfile(ctx context.Context, event *billing.Event) (*model.Profile, error) {
	if event.ClientReferenceID != "" {
		profile, err := s.profileRepo.GetByID(ctx, event.ClientReferenceID)
		if err == nil {
			return profile, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if event.Email == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return s.profileRepo.GetByEmail(ctx, strings.ToLower(event.Email))
}

func (s *BillingService) setPlan(ctx context.Context, customerID string, planID *string, log zerolog.Logger) error {
	if customerID == "" {
		log.Warn().Msg("subscription event without customer id")
		return nil
	}

	affected, err := s.profileRepo.SetPlanByCustomer(ctx, customerID, planID)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	if affected > 0 {
		return nil
	}
	// 套餐未变化时 MySQL 也返回 0 行
	if _, err := s.profileRepo.GetByCustomerID(ctx, customerID); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup customer: %w", err)
	}

	// 订阅事件早于 checkout 到达时暂存，由 checkout 关联客户时补上
	log.Warn().Str("customer", customerID).Msg("no profile for subscription event")
	if s.rdb == nil {
		return nil
	}
	if planID == nil {
		s.forgetPendingPlan(ctx, customerID)
		return nil
	}
	if err := s.rdb.Set(ctx, pendingPlanPrefix+customerID, *planID, pendingPlanTTL).Err(); err != nil {
		return fmt.Errorf("store pending plan: %w", err)
	}
	return nil
}

func (s *BillingService) forgetPendingPlan(ctx context.Context, customerID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, pendingPlanPrefix+customerID).Err(); err != nil {
		s.log.Warn().Err(err).Str("customer", customerID).Msg("pending plan delete failed")
	}
}

func (s *BillingService) forgetPortal(ctx context.Context, customerID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, portalCachePrefix+customerID).Err(); err != nil {
		s.log.Warn().Err(err).Str("customer", customerID).Msg("portal cache delete failed")
	}
}
