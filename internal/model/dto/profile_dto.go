package dto

// ProfileInfo 账号信息（返回给前端）
type ProfileInfo struct {
	ID                string `json:"id"`
	Email             string `json:"email,omitempty"`
	Name              string `json:"name"`
	PlanName          string `json:"plan_name,omitempty"`
	HasBillingAccount bool   `json:"has_billing_account"`
	ManageURL         string `json:"manage_url,omitempty"`
	EmailVerified     bool   `json:"email_verified"`
	CreatedAt         string `json:"created_at,omitempty"`
}

// UpdateProfileRequest 更新账号信息请求
type UpdateProfileRequest struct {
	Name string `json:"name" binding:"required,min=2,max=100"`
}
