package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qs3c/namebase_server/internal/model"
)

// TestProfile 创建测试账号
func TestProfile(t *testing.T, db *gorm.DB, opts ...func(*model.Profile)) *model.Profile {
	t.Helper()

	email := fmt.Sprintf("test_%d@example.com", time.Now().UnixNano())
	passwordHash := "$2a$10$abcdefghijklmnopqrstuvwxyz123456" // bcrypt hash placeholder
	profile := &model.Profile{
		Email:         &email,
		Name:          fmt.Sprintf("Tester %d", time.Now().UnixNano()%10000),
		PasswordHash:  &passwordHash,
		EmailVerified: true,
	}

	for _, opt := range opts {
		opt(profile)
	}

	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("Failed to create test profile: %v", err)
	}

	return profile
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.Profile) {
	return func(p *model.Profile) {
		p.Email = &email
	}
}

// WithProfileName 设置账号名称
func WithProfileName(name string) func(*model.Profile) {
	return func(p *model.Profile) {
		p.Name = name
	}
}

// WithCustomer 设置计费客户 ID
func WithCustomer(customerID string) func(*model.Profile) {
	return func(p *model.Profile) {
		p.CustomerID = &customerID
	}
}

// WithPlan 设置付费套餐 ID
func WithPlan(planID string) func(*model.Profile) {
	return func(p *model.Profile) {
		p.PlanID = &planID
	}
}

// WithUnverified 设置为未验证邮箱
func WithUnverified(code string, expiresAt time.Time) func(*model.Profile) {
	return func(p *model.Profile) {
		p.EmailVerified = false
		p.VerificationCode = &code
		p.VerificationExpiresAt = &expiresAt
	}
}

// TestName 创建测试名称，默认归属匿名会话
func TestName(t *testing.T, db *gorm.DB, opts ...func(*model.Name)) *model.Name {
	t.Helper()

	name := &model.Name{
		Name:        fmt.Sprintf("Startup%d", time.Now().UnixNano()%100000),
		Description: "A test startup",
		SessionID:   uuid.NewString(),
	}

	for _, opt := range opts {
		opt(name)
	}

	if err := db.Create(name).Error; err != nil {
		t.Fatalf("Failed to create test name: %v", err)
	}

	return name
}

// WithNameText 设置名称文本
func WithNameText(text string) func(*model.Name) {
	return func(n *model.Name) {
		n.Name = text
	}
}

// WithCreator 设置名称所属账号
func WithCreator(accountID string) func(*model.Name) {
	return func(n *model.Name) {
		n.CreatedBy = &accountID
		n.SessionID = ""
	}
}

// WithSession 设置名称所属匿名会话
func WithSession(sessionID string) func(*model.Name) {
	return func(n *model.Name) {
		n.SessionID = sessionID
	}
}

// WithCreatedAt 设置创建时间
func WithCreatedAt(at time.Time) func(*model.Name) {
	return func(n *model.Name) {
		n.CreatedAt = at
	}
}

// WithFavorited 设置收藏状态
func WithFavorited(favorited bool) func(*model.Name) {
	return func(n *model.Name) {
		n.Favorited = favorited
	}
}
