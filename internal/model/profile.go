package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Profile struct {
	ID                    string     `gorm:"primaryKey;size:36" json:"id"`
	Email                 *string    `gorm:"size:255;uniqueIndex" json:"email,omitempty"`
	Name                  string     `gorm:"size:100" json:"name"`
	PasswordHash          *string    `gorm:"size:255" json:"-"`
	GithubID              *string    `gorm:"column:github_id;size:50;uniqueIndex" json:"-"`
	CustomerID            *string    `gorm:"column:customer_id;size:100;index" json:"customer_id,omitempty"`
	PlanID                *string    `gorm:"column:plan_id;size:100" json:"plan_id,omitempty"`
	EmailVerified         bool       `gorm:"default:false" json:"email_verified"`
	VerificationCode      *string    `gorm:"size:100;index" json:"-"`
	VerificationExpiresAt *time.Time `json:"-"`
	PendingNameIDs        string     `gorm:"type:text" json:"-"` // 注册时认领的名称 ID，逗号分隔
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// HasBillingCustomer 是否已关联计费客户
func (p *Profile) HasBillingCustomer() bool {
	return p.CustomerID != nil && *p.CustomerID != ""
}

// HasPlan 是否已关联付费套餐
func (p *Profile) HasPlan() bool {
	return p.PlanID != nil && *p.PlanID != ""
}
