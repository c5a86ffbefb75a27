package service

import (
	"fmt"

	"github.com/qs3c/namebase_server/config"
	"github.com/qs3c/namebase_server/internal/model"
	"github.com/qs3c/namebase_server/internal/model/dto"
)

// PlanService 套餐与权益（静态配置）
type PlanService struct {
	plans map[model.Tier]config.PlanConfig
}

func NewPlanService(cfg *config.Config) *PlanService {
	return &PlanService{
		plans: map[model.Tier]config.PlanConfig{
			model.TierUnauthenticated: cfg.Plans.Unauthenticated,
			model.TierFree:            cfg.Plans.Free,
			model.TierPro:             cfg.Plans.Pro,
			model.TierBusiness:        cfg.Plans.Business,
		},
	}
}

// Entitlements 获取套餐权益，未知套餐按免费套餐处理
func (s *PlanService) Entitlements(tier model.Tier) model.Entitlements {
	plan, ok := s.plans[tier]
	if !ok {
		plan = s.plans[model.TierFree]
	}
	return model.Entitlements{
		NameGenerations:     plan.NameGenerations,
		DomainLookups:       plan.DomainLookups,
		NpmNameLookups:      plan.NpmNameLookups,
		OnePagerGenerations: plan.OnePagerGenerations,
		TrademarkChecks:     plan.TrademarkChecks,
		LogoGenerations:     plan.LogoGenerations,
		Link:                plan.Link,
	}
}

// Plans 价格页展示的付费与免费套餐
func (s *PlanService) Plans() []*dto.PlanDetails {
	tiers := []model.Tier{model.TierFree, model.TierPro, model.TierBusiness}

	plans := make([]*dto.PlanDetails, 0, len(tiers))
	for _, tier := range tiers {
		plan := s.plans[tier]
		ent := s.Entitlements(tier)

		features := []string{
			countLabel(ent.NameGenerations, "name generation", "name generations"),
			countLabel(ent.DomainLookups, "domain lookup", "domain lookups"),
			countLabel(ent.NpmNameLookups, "npm name lookup", "npm name lookups"),
			countLabel(ent.OnePagerGenerations, "one-pager generation", "one-pager generations"),
			countLabel(ent.TrademarkChecks, "trademark check", "trademark checks"),
			countLabel(ent.LogoGenerations, "logo generation", "logo generations"),
		}
		if plan.Support != "" {
			features = append(features, plan.Support)
		}

		plans = append(plans, &dto.PlanDetails{
			Tier:         string(tier),
			Title:        plan.Title,
			Price:        plan.Price,
			Description:  plan.Description,
			Badge:        plan.Badge,
			Link:         plan.Link,
			Features:     features,
			Entitlements: ent,
		})
	}
	return plans
}

func countLabel(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
