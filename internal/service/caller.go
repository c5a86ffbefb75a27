package service

import (
	"errors"

	"github.com/qs3c/namebase_server/internal/model/dto"
)

var (
	ErrProviderFailed = errors.New("external service request failed")
	ErrSessionMissing = errors.New("missing session id")
)

// Caller 发起请求的访问者：已登录账号或匿名会话
type Caller struct {
	AccountID string
	SessionID string
}

// Authenticated 是否为已登录账号
func (c Caller) Authenticated() bool {
	return c.AccountID != ""
}

// Identity 用量统计与加锁使用的身份标识
func (c Caller) Identity() string {
	if c.Authenticated() {
		return "account:" + c.AccountID
	}
	return "session:" + c.SessionID
}

// NoticeError 需要以提示形式展示给用户的业务错误，可附带跳转按钮
type NoticeError struct {
	Title       string
	Description string
	Action      *dto.Action
	Err         error
}

func (e *NoticeError) Error() string {
	if e.Title != "" {
		return e.Title + ": " + e.Description
	}
	return e.Description
}

func (e *NoticeError) Unwrap() error {
	return e.Err
}

// Notice 转为响应中的提示结构
func (e *NoticeError) Notice() *dto.Notice {
	return &dto.Notice{
		Title:       e.Title,
		Description: e.Description,
		Action:      e.Action,
	}
}
