package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dlrntm-png/bangguy/internal/model"
)

// AllowedIPRepository 动态白名单数据访问接口
type AllowedIPRepository interface {
	Create(ctx context.Context, ip *model.AllowedIP) error
	List(ctx context.Context) ([]model.AllowedIP, error)
	Delete(ctx context.Context, id int64) error
}

// allowedIPRepo AllowedIPRepository 的 GORM 实现
type allowedIPRepo struct {
	db *gorm.DB
}

// NewAllowedIPRepo 创建 AllowedIPRepository 实例
func NewAllowedIPRepo(db *gorm.DB) AllowedIPRepository {
	return &allowedIPRepo{db: db}
}

func (r *allowedIPRepo) Create(ctx context.Context, ip *model.AllowedIP) error {
	return r.db.WithContext(ctx).Create(ip).Error
}

func (r *allowedIPRepo) List(ctx context.Context) ([]model.AllowedIP, error) {
	var ips []model.AllowedIP
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&ips).Error
	if err != nil {
		return nil, err
	}
	return ips, nil
}

func (r *allowedIPRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.AllowedIP{}).Error
}
