package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Name 生成或手动录入的创业公司名称
type Name struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:255;not null;index" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedBy   *string   `gorm:"size:36;index:idx_names_creator_created,priority:1" json:"created_by,omitempty"`
	SessionID   string    `gorm:"size:36;index:idx_names_session_created,priority:1" json:"session_id,omitempty"`
	Favorited   bool      `gorm:"default:false" json:"favorited"`
	CreatedAt   time.Time `gorm:"index:idx_names_creator_created,priority:2;index:idx_names_session_created,priority:2" json:"created_at"`
}

func (Name) TableName() string {
	return "names"
}

func (n *Name) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// OwnedBy 判断名称是否属于指定账号
func (n *Name) OwnedBy(accountID string) bool {
	return accountID != "" && n.CreatedBy != nil && *n.CreatedBy == accountID
}
