package dto

import "github.com/qs3c/namebase_server/internal/model"

// PlanDetails 价格页上的套餐信息
type PlanDetails struct {
	Tier         string             `json:"tier"`
	Title        string             `json:"title"`
	Price        string             `json:"price"`
	Description  string             `json:"description"`
	Badge        string             `json:"badge,omitempty"`
	Link         string             `json:"link"`
	Features     []string           `json:"features"`
	Entitlements model.Entitlements `json:"entitlements"`
}

// PortalResponse 计费门户地址
type PortalResponse struct {
	URL string `json:"url"`
}

// PlanNameResponse 套餐名查询结果
type PlanNameResponse struct {
	PlanID   string `json:"plan_id"`
	PlanName string `json:"plan_name"`
}
