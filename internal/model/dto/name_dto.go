package dto

// GenerateRequest 录入或生成名称请求
type GenerateRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description" binding:"omitempty,max=2000"`
}

// GenerateResponse 名称创建结果
type GenerateResponse struct {
	NameID string `json:"name_id"`
	Name   string `json:"name"`
	Tier   string `json:"tier"`
	Used   int    `json:"used"`
	Limit  int    `json:"limit"`
}

// NameItem 名称列表项
type NameItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Favorited   bool   `json:"favorited"`
	IsOwner     bool   `json:"is_owner"`
	CreatedAt   string `json:"created_at"`
}

// FavoriteResponse 收藏切换结果
type FavoriteResponse struct {
	NameID    string `json:"name_id"`
	Favorited bool   `json:"favorited"`
	Message   string `json:"message"`
}

// UsageInfo 名称生成用量
type UsageInfo struct {
	Tier        string `json:"tier"`
	Limit       int    `json:"limit"`
	Used        int    `json:"used"`
	Remaining   int    `json:"remaining"`
	WindowStart string `json:"window_start"`
}

// Action 提示中的跳转按钮
type Action struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Notice 业务提示（非异常），可附带跳转按钮
type Notice struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description"`
	Action      *Action `json:"action,omitempty"`
}
