package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/namebase_server/internal/model"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(ctx context.Context, profile *model.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *ProfileRepository) GetByGithubID(ctx context.Context, githubID string) (*model.Profile, error) {
	return r.first(ctx, "github_id = ?", githubID)
}

func (r *ProfileRepository) GetByVerificationCode(ctx context.Context, code string) (*model.Profile, error) {
	return r.first(ctx, "verification_code = ?", code)
}

func (r *ProfileRepository) GetByCustomerID(ctx context.Context, customerID string) (*model.Profile, error) {
	return r.first(ctx, "customer_id = ?", customerID)
}

func (r *ProfileRepository) first(ctx context.Context, query string, args ...interface{}) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).Where(query, args...).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) Update(ctx context.Context, profile *model.Profile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *ProfileRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Profile{}).Where("id = ?", id).Updates(fields).Error
}

// SetPlanByCustomer 按计费客户 ID 更新套餐，planID 为 nil 时清空
func (r *ProfileRepository) SetPlanByCustomer(ctx context.Context, customerID string, planID *string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Profile{}).
		Where("customer_id = ?", customerID).
		Update("plan_id", planID)
	return result.RowsAffected, result.Error
}

func (r *ProfileRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Profile{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// ListAbandonedSignups 验证码在 before 之前过期、从未完成验证的邮箱账号
func (r *ProfileRepository) ListAbandonedSignups(ctx context.Context, before time.Time, limit int) ([]*model.Profile, error) {
	query := r.db.WithContext(ctx).
		Where("email_verified = ? AND github_id IS NULL AND customer_id IS NULL", false).
		Where("verification_expires_at IS NOT NULL AND verification_expires_at < ?", before).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var profiles []*model.Profile
	err := query.Find(&profiles).Error
	return profiles, err
}

// DeleteUnverified 删除指定账号，已完成验证的会被跳过
func (r *ProfileRepository) DeleteUnverified(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("id IN ? AND email_verified = ?", ids, false).
		Delete(&model.Profile{})
	return result.RowsAffected, result.Error
}
