package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssetKind 名称衍生资源类型
type AssetKind string

const (
	AssetDomains  AssetKind = "domains"
	AssetNpm      AssetKind = "npm"
	AssetLogo     AssetKind = "logo"
	AssetOnePager AssetKind = "one_pager"
)

// AssetKinds 全部资源类型
var AssetKinds = []AssetKind{AssetDomains, AssetNpm, AssetLogo, AssetOnePager}

// Valid 是否为已知资源类型
func (k AssetKind) Valid() bool {
	switch k {
	case AssetDomains, AssetNpm, AssetLogo, AssetOnePager:
		return true
	}
	return false
}

// 以下资源行以 name_id 为缓存键，创建后不再更新或删除

type Domain struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	DomainName   string    `gorm:"size:255;not null" json:"domain_name"`
	PurchaseLink string    `gorm:"size:500" json:"purchase_link"`
	NameID       string    `gorm:"size:36;not null;index" json:"name_id"`
	CreatedBy    *string   `gorm:"size:36" json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Domain) TableName() string {
	return "domains"
}

func (d *Domain) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

type NpmName struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	NpmName      string    `gorm:"column:npm_name;size:255;not null" json:"npm_name"`
	PurchaseLink string    `gorm:"size:500" json:"purchase_link"`
	NameID       string    `gorm:"size:36;not null;index" json:"name_id"`
	CreatedBy    *string   `gorm:"size:36" json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (NpmName) TableName() string {
	return "npm_names"
}

func (n *NpmName) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

type Logo struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	LogoURL   string    `gorm:"column:logo_url;size:1000;not null" json:"logo_url"`
	NameID    string    `gorm:"size:36;not null;index" json:"name_id"`
	CreatedBy *string   `gorm:"size:36" json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (Logo) TableName() string {
	return "logos"
}

func (l *Logo) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

type OnePager struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PdfURL    string    `gorm:"column:pdf_url;size:1000;not null" json:"pdf_url"`
	NameID    string    `gorm:"size:36;not null;index" json:"name_id"`
	CreatedBy *string   `gorm:"size:36" json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (OnePager) TableName() string {
	return "one_pagers"
}

func (o *OnePager) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}
