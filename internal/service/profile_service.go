package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/qs3c/namebase_server/internal/model"
	"github.com/qs3c/namebase_server/internal/model/dto"
	"github.com/qs3c/namebase_server/internal/repository"
)

const freePlanLabel = "Free Plan"

var ErrNameTooShort = errors.New("name must be at least 2 characters")

type ProfileService struct {
	profileRepo *repository.ProfileRepository
	planNames   PlanNameResolver
	portal      PortalResolver
	log         zerolog.Logger
}

func NewProfileService(
	profileRepo *repository.ProfileRepository,
	planNames PlanNameResolver,
	portal PortalResolver,
	log zerolog.Logger,
) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		planNames:   planNames,
		portal:      portal,
		log:         log.With().Str("component", "ProfileService").Logger(),
	}
}

// GetProfile 获取账号详情，包含套餐名与计费门户地址
func (s *ProfileService) GetProfile(ctx context.Context, accountID string) (*dto.ProfileInfo, error) {
	profile, err := s.profileRepo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	info := profileInfo(profile)
	info.PlanName = s.planLabel(ctx, profile)

	if profile.HasBillingCustomer() && s.portal != nil {
		url, err := s.portal.PortalURL(ctx, *profile.CustomerID)
		if err != nil {
			s.log.Warn().Err(err).Str("account", accountID).Msg("portal url lookup failed")
		} else {
			info.ManageURL = url
		}
	}
	return info, nil
}

// UpdateProfile 更新显示名称
func (s *ProfileService) UpdateProfile(ctx context.Context, accountID string, req *dto.UpdateProfileRequest) (*dto.ProfileInfo, error) {
	name := strings.TrimSpace(req.Name)
	if len([]rune(name)) < 2 {
		return nil, ErrNameTooShort
	}

	profile, err := s.profileRepo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := s.profileRepo.UpdateFields(ctx, accountID, map[string]interface{}{"name": name}); err != nil {
		return nil, err
	}
	profile.Name = name

	info := profileInfo(profile)
	info.PlanName = s.planLabel(ctx, profile)
	return info, nil
}

// planLabel 无套餐时为 "Free Plan"，否则为 "<产品名> Plan"；查询失败时留空
func (s *ProfileService) planLabel(ctx context.Context, profile *model.Profile) string {
	if !profile.HasPlan() || s.planNames == nil {
		return freePlanLabel
	}
	name, err := s.planNames.PlanName(ctx, *profile.PlanID)
	if err != nil {
		s.log.Warn().Err(err).Str("plan_id", *profile.PlanID).Msg("plan name lookup failed")
		return ""
	}
	if name == "" {
		return freePlanLabel
	}
	return name + " Plan"
}

func profileInfo(profile *model.Profile) *dto.ProfileInfo {
	info := &dto.ProfileInfo{
		ID:                profile.ID,
		Name:              profile.Name,
		HasBillingAccount: profile.HasBillingCustomer(),
		EmailVerified:     profile.EmailVerified,
		CreatedAt:         profile.CreatedAt.Format(time.RFC3339),
	}
	if profile.Email != nil {
		info.Email = *profile.Email
	}
	return info
}
