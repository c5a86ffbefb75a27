package model

// Tier 订阅等级
type Tier string

const (
	TierUnauthenticated Tier = "unauthenticated"
	TierFree            Tier = "free"
	TierPro             Tier = "pro"
	TierBusiness        Tier = "business"
)

// 计费平台上的套餐显示名
const (
	PlanNamePro      = "Pro"
	PlanNameBusiness = "Business"
)

// TierForPlanName 将计费平台返回的套餐名映射为订阅等级
func TierForPlanName(planName string) Tier {
	switch planName {
	case PlanNamePro:
		return TierPro
	case PlanNameBusiness:
		return TierBusiness
	default:
		// 空值或未识别的套餐名统一按免费等级处理
		return TierFree
	}
}

// Entitlements 某个等级的用量上限
type Entitlements struct {
	NameGenerations     int    `json:"name_generations"`
	DomainLookups       int    `json:"domain_lookups"`
	NpmNameLookups      int    `json:"npm_name_lookups"`
	OnePagerGenerations int    `json:"one_pager_generations"`
	TrademarkChecks     int    `json:"trademark_checks"`
	LogoGenerations     int    `json:"logo_generations"`
	Link                string `json:"link"`
}
