package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/namebase_server/internal/model"
)

type NameRepository struct {
	db *gorm.DB
}

func NewNameRepository(db *gorm.DB) *NameRepository {
	return &NameRepository{db: db}
}

// Transaction 在事务中执行 fn，fn 收到的仓库绑定同一事务
func (r *NameRepository) Transaction(ctx context.Context, fn func(tx *NameRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&NameRepository{db: tx})
	})
}

// LockAccount 锁定账号行，串行化同一账号的并发写入
// SQLite 不支持 FOR UPDATE，gorm 会忽略该子句
func (r *NameRepository) LockAccount(ctx context.Context, accountID string) error {
	var profile model.Profile
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", accountID).
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

func (r *NameRepository) CountByCreatorSince(ctx context.Context, accountID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Name{}).
		Where("created_by = ? AND created_at >= ?", accountID, since).
		Count(&count).Error
	return count, err
}

func (r *NameRepository) CountBySessionSince(ctx context.Context, sessionID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Name{}).
		Where("session_id = ? AND created_by IS NULL AND created_at >= ?", sessionID, since).
		Count(&count).Error
	return count, err
}

func (r *NameRepository) Create(ctx context.Context, name *model.Name) error {
	return r.db.WithContext(ctx).Create(name).Error
}

func (r *NameRepository) GetByID(ctx context.Context, id string) (*model.Name, error) {
	var name model.Name
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&name).Error
	if err != nil {
		return nil, err
	}
	return &name, nil
}

// ListIDsByText 返回与 text 大小写不敏感相同的全部名称 ID
func (r *NameRepository) ListIDsByText(ctx context.Context, text string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Name{}).
		Where("LOWER(name) = ?", strings.ToLower(text)).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *NameRepository) ListByCreator(ctx context.Context, accountID string, favoritedOnly bool, limit int) ([]*model.Name, error) {
	var names []*model.Name
	query := r.db.WithContext(ctx).Where("created_by = ?", accountID)
	if favoritedOnly {
		query = query.Where("favorited = ?", true)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Order("created_at DESC").Find(&names).Error
	return names, err
}

func (r *NameRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]*model.Name, error) {
	var names []*model.Name
	query := r.db.WithContext(ctx).Where("session_id = ? AND created_by IS NULL", sessionID)
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Order("created_at DESC").Find(&names).Error
	return names, err
}

func (r *NameRepository) ListIDsBySession(ctx context.Context, sessionID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Name{}).
		Where("session_id = ? AND created_by IS NULL", sessionID).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *NameRepository) UpdateFavorited(ctx context.Context, id string, favorited bool) error {
	return r.db.WithContext(ctx).Model(&model.Name{}).Where("id = ?", id).
		Update("favorited", favorited).Error
}

// Claim 将尚无归属的名称划归到账号下，已归属的名称不受影响
func (r *NameRepository) Claim(ctx context.Context, ids []string, accountID string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var claimable []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Name{}).
			Where("id IN ? AND created_by IS NULL", ids).
			Pluck("id", &claimable).Error; err != nil {
			return err
		}
		if len(claimable) == 0 {
			return nil
		}
		return tx.Model(&model.Name{}).
			Where("id IN ? AND created_by IS NULL", claimable).
			Update("created_by", accountID).Error
	})
	if err != nil {
		return nil, err
	}
	return claimable, nil
}
