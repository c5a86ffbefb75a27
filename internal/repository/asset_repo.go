package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/qs3c/namebase_server/internal/model"
)

// AssetRepository 名称衍生资源缓存（域名、npm 包名、Logo、一页纸）
type AssetRepository struct {
	db *gorm.DB
}

func NewAssetRepository(db *gorm.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// ListDomains 查询任一名称 ID 下已缓存的可用域名
func (r *AssetRepository) ListDomains(ctx context.Context, nameIDs []string) ([]*model.Domain, error) {
	var domains []*model.Domain
	if len(nameIDs) == 0 {
		return domains, nil
	}
	err := r.db.WithContext(ctx).Where("name_id IN ?", nameIDs).Order("created_at ASC").Find(&domains).Error
	return domains, err
}

func (r *AssetRepository) CreateDomains(ctx context.Context, domains []*model.Domain) error {
	if len(domains) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&domains).Error
}

func (r *AssetRepository) ListNpmNames(ctx context.Context, nameID string) ([]*model.NpmName, error) {
	var names []*model.NpmName
	err := r.db.WithContext(ctx).Where("name_id = ?", nameID).Order("created_at ASC").Find(&names).Error
	return names, err
}

func (r *AssetRepository) CreateNpmNames(ctx context.Context, names []*model.NpmName) error {
	if len(names) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&names).Error
}

// LatestLogo 返回名称最近生成的 Logo，不存在时返回 gorm.ErrRecordNotFound
func (r *AssetRepository) LatestLogo(ctx context.Context, nameID string) (*model.Logo, error) {
	var logo model.Logo
	err := r.db.WithContext(ctx).Where("name_id = ?", nameID).Order("created_at DESC").First(&logo).Error
	if err != nil {
		return nil, err
	}
	return &logo, nil
}

func (r *AssetRepository) CreateLogo(ctx context.Context, logo *model.Logo) error {
	return r.db.WithContext(ctx).Create(logo).Error
}

func (r *AssetRepository) LatestOnePager(ctx context.Context, nameID string) (*model.OnePager, error) {
	var onePager model.OnePager
	err := r.db.WithContext(ctx).Where("name_id = ?", nameID).Order("created_at DESC").First(&onePager).Error
	if err != nil {
		return nil, err
	}
	return &onePager, nil
}

func (r *AssetRepository) CreateOnePager(ctx context.Context, onePager *model.OnePager) error {
	return r.db.WithContext(ctx).Create(onePager).Error
}
