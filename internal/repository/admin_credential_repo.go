package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dlrntm-png/bangguy/internal/model"
)

// AdminCredentialRepository 管理员口令数据访问接口（单行表）
type AdminCredentialRepository interface {
	Get(ctx context.Context) (*model.AdminCredential, error)
	Upsert(ctx context.Context, passwordHash string) error
}

// adminCredentialRepo AdminCredentialRepository 的 GORM 实现
type adminCredentialRepo struct {
	db *gorm.DB
}

// NewAdminCredentialRepo 创建 AdminCredentialRepository 实例
func NewAdminCredentialRepo(db *gorm.DB) AdminCredentialRepository {
	return &adminCredentialRepo{db: db}
}

func (r *adminCredentialRepo) Get(ctx context.Context) (*model.AdminCredential, error) {
	var cred model.AdminCredential
	err := r.db.WithContext(ctx).
		Where("id = 1").
		First(&cred).Error
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

func (r *adminCredentialRepo) Upsert(ctx context.Context, passwordHash string) error {
	cred := model.AdminCredential{
		ID:           1,
		PasswordHash: passwordHash,
		UpdatedAt:    time.Now(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"password_hash", "updated_at"}),
		}).
		Create(&cred).Error
}
