package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dlrntm-png/bangguy/internal/model"
)

// CleanupJobRepository 清理作业数据访问接口
type CleanupJobRepository interface {
	Create(ctx context.Context, job *model.CleanupJob) error
	GetByID(ctx context.Context, id int64) (*model.CleanupJob, error)
	LatestForPeriod(ctx context.Context, start, end time.Time) (*model.CleanupJob, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) (*model.CleanupJob, error)
}

// cleanupJobRepo CleanupJobRepository 的 GORM 实现
type cleanupJobRepo struct {
	db *gorm.DB
}

// NewCleanupJobRepo 创建 CleanupJobRepository 实例
func NewCleanupJobRepo(db *gorm.DB) CleanupJobRepository {
	return &cleanupJobRepo{db: db}
}

func (r *cleanupJobRepo) Create(ctx context.Context, job *model.CleanupJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *cleanupJobRepo) GetByID(ctx context.Context, id int64) (*model.CleanupJob, error) {
	var job model.CleanupJob
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *cleanupJobRepo) LatestForPeriod(ctx context.Context, start, end time.Time) (*model.CleanupJob, error) {
	var job model.CleanupJob
	err := r.db.WithContext(ctx).
		Where("period_start = ? AND period_end = ?", start, end).
		Order("created_at DESC").
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *cleanupJobRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) (*model.CleanupJob, error) {
	updates["updated_at"] = time.Now()
	err := r.db.WithContext(ctx).
		Model(&model.CleanupJob{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}
