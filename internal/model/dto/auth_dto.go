package dto

// RegisterRequest 注册请求，可携带匿名阶段生成的名称 ID
type RegisterRequest struct {
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=8,max=72"`
	Name     string   `json:"name" binding:"omitempty,max=100"`
	NameIDs  []string `json:"name_ids" binding:"omitempty,max=50,dive,uuid"`
}

// RegisterResponse 注册响应
type RegisterResponse struct {
	UserID        string `json:"user_id"`
	EmailVerified bool   `json:"email_verified"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token          string       `json:"token"`
	User           *ProfileInfo `json:"user"`
	ClaimedNameIDs []string     `json:"claimed_name_ids,omitempty"`
}

// VerifyEmailRequest 邮箱验证请求
type VerifyEmailRequest struct {
	Code string `json:"code" binding:"required"`
}

// SessionResponse 匿名会话
type SessionResponse struct {
	SessionID string `json:"session_id"`
}
