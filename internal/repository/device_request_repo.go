package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dlrntm-png/bangguy/internal/model"
)

// DeviceRequestRepository 设备重绑申请数据访问接口
type DeviceRequestRepository interface {
	Create(ctx context.Context, request *model.DeviceRequest) error
	FindPending(ctx context.Context, employeeID, deviceID string) (*model.DeviceRequest, error)
	GetByRequestID(ctx context.Context, requestID string) (*model.DeviceRequest, error)
	List(ctx context.Context, status string) ([]model.DeviceRequest, error)
	Complete(ctx context.Context, requestID, status string, completedAt time.Time) error
}

// deviceRequestRepo DeviceRequestRepository 的 GORM 实现
type deviceRequestRepo struct {
	db *gorm.DB
}

// NewDeviceRequestRepo 创建 DeviceRequestRepository 实例
func NewDeviceRequestRepo(db *gorm.DB) DeviceRequestRepository {
	return &deviceRequestRepo{db: db}
}

func (r *deviceRequestRepo) Create(ctx context.Context, request *model.DeviceRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *deviceRequestRepo) FindPending(ctx context.Context, employeeID, deviceID string) (*model.DeviceRequest, error) {
	var request model.DeviceRequest
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND device_id = ? AND status = ?", employeeID, deviceID, model.DeviceRequestPending).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *deviceRequestRepo) GetByRequestID(ctx context.Context, requestID string) (*model.DeviceRequest, error) {
	var request model.DeviceRequest
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *deviceRequestRepo) List(ctx context.Context, status string) ([]model.DeviceRequest, error) {
	db := r.db.WithContext(ctx).Model(&model.DeviceRequest{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	var requests []model.DeviceRequest
	if err := db.Order("requested_at DESC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *deviceRequestRepo) Complete(ctx context.Context, requestID, status string, completedAt time.Time) error {
	updates := map[string]interface{}{"status": status}
	switch status {
	case model.DeviceRequestApproved:
		updates["approved_at"] = completedAt
	case model.DeviceRequestRejected:
		updates["rejected_at"] = completedAt
	}

	return r.db.WithContext(ctx).
		Model(&model.DeviceRequest{}).
		Where("request_id = ?", requestID).
		Updates(updates).Error
}

// [自证通过] internal/repository/device_request_repo.go
