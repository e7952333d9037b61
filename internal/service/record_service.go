package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dlrntm-png/bangguy/internal/blob"
	"github.com/dlrntm-png/bangguy/internal/dto"
	"github.com/dlrntm-png/bangguy/internal/model"
	"github.com/dlrntm-png/bangguy/internal/repository"
	"github.com/dlrntm-png/bangguy/pkg/kst"
)

var (
	ErrRecordNotFound     = errors.New("기록을 찾을 수 없습니다.")
	ErrNoRecordsSelected  = errors.New("삭제할 기록을 선택해주세요.")
	ErrConfirmRequired    = errors.New("안전을 위해 confirm 파라미터가 필요합니다.")
	ErrConflictingFilters = errors.New("날짜와 월을 동시에 사용할 수 없습니다.")
)

// 对象存储批量删除参数：每批 50 个、批间歇 100ms，避免触发供应商限流
const (
	blobDeleteBatchSize = 50
	blobDeleteBatchGap  = 100 * time.Millisecond
)

// 全量清空对象存储的确认口令
const deleteAllBlobsConfirm = "DELETE_ALL_BLOBS"

// RecordService 打卡记录管理业务接口
type RecordService interface {
	List(ctx context.Context, req *dto.RecordListRequest) ([]dto.RecordItem, error)
	Delete(ctx context.Context, req *dto.DeleteRecordsRequest) (*dto.DeleteRecordsResponse, error)
	DeletePhoto(ctx context.Context, recordID int64) error
	ExportCSV(ctx context.Context) ([]byte, error)
	StorageUsage(ctx context.Context) (*dto.StorageUsageResponse, error)
	DeleteAllBlobs(ctx context.Context, req *dto.DeleteAllBlobsRequest) (*dto.DeleteAllBlobsResponse, error)
	PhotoContent(ctx context.Context, pathname string) ([]byte, string, error)
}

type recordService struct {
	repo   *repository.Repository
	store  blob.Store
	logger *zap.Logger
}

// NewRecordService 创建 RecordService 实例
func NewRecordService(repo *repository.Repository, store blob.Store, logger *zap.Logger) RecordService {
	return &recordService{repo: repo, store: store, logger: logger}
}

// formatBytes 人类可读的容量文案
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// List 按员工 / KST 日 / KST 月过滤查询，date 与 month 互斥
func (s *recordService) List(ctx context.Context, req *dto.RecordListRequest) ([]dto.RecordItem, error) {
	if req.Date != "" && req.Month != "" {
		return nil, ErrConflictingFilters
	}

	filters := repository.RecordFilters{EmployeeID: req.EmployeeID}
	if req.Date != "" {
		period, err := kst.DayRange(req.Date)
		if err != nil {
			return nil, err
		}
		filters.StartTime, filters.EndTime = period.Start, period.End
	} else if req.Month != "" {
		period, err := kst.MonthRange(req.Month)
		if err != nil {
			return nil, err
		}
		filters.StartTime, filters.EndTime = period.Start, period.End
	}

	records, err := s.repo.Attendance.Query(ctx, filters)
	if err != nil {
		s.logger.Error("记录查询失败", zap.Error(err))
		return nil, err
	}

	items := make([]dto.RecordItem, 0, len(records))
	for _, r := range records {
		items = append(items, dto.RecordItem{
			RecordID:           r.ID,
			ServerTime:         kst.FormatISO(r.ServerTime),
			EmployeeID:         r.EmployeeID,
			Name:               r.Name,
			IP:                 r.IP,
			File:               r.PhotoURL,
			PhotoBlobPath:      r.PhotoBlobPath,
			PhotoContentType:   r.PhotoContentType,
			PhotoSize:          r.PhotoSize,
			PhotoWidth:         r.PhotoWidth,
			PhotoHeight:        r.PhotoHeight,
			Office:             r.Office,
			DeviceID:           r.DeviceID,
			ImageHash:          r.ImageHash,
			CleanupScheduledAt: formatTimePtr(r.CleanupScheduledAt),
			PhotoDeletedAt:     formatTimePtr(r.PhotoDeletedAt),
			BackupBlobPath:     r.BackupBlobPath,
			BackupGeneratedAt:  formatTimePtr(r.BackupGeneratedAt),
		})
	}
	return items, nil
}

// deleteBlobsInBatches 尽力而为地批量删除对象，返回成功/失败计数
func (s *recordService) deleteBlobsInBatches(ctx context.Context, paths []string) (deleted, failed int, failures []dto.BlobDeleteError) {
	for i := 0; i < len(paths); i += blobDeleteBatchSize {
		end := i + blobDeleteBatchSize
		if end > len(paths) {
			end = len(paths)
		}
		for _, p := range paths[i:end] {
			if err := s.store.Delete(ctx, p); err != nil {
				failed++
				failures = append(failures, dto.BlobDeleteError{Pathname: p, Error: err.Error()})
				s.logger.Warn("对象删除失败", zap.String("pathname", p), zap.Error(err))
				continue
			}
			deleted++
		}
		if end < len(paths) {
			time.Sleep(blobDeleteBatchGap)
		}
	}
	return deleted, failed, failures
}

// Delete 删除记录及其照片。记录删除在事务内完成，照片删除为尽力而为。
func (s *recordService) Delete(ctx context.Context, req *dto.DeleteRecordsRequest) (*dto.DeleteRecordsResponse, error) {
	var removed []model.AttendanceRecord
	var err error

	if req.DeleteAll {
		removed, err = s.repo.Attendance.DeleteAll(ctx)
	} else {
		if len(req.RecordIDs) == 0 {
			return nil, ErrNoRecordsSelected
		}
		removed, err = s.repo.Attendance.DeleteByIDs(ctx, req.RecordIDs)
		if err == nil && len(removed) == 0 {
			return nil, ErrRecordNotFound
		}
	}
	if err != nil {
		s.logger.Error("记录删除失败", zap.Error(err))
		return nil, err
	}

	var paths []string
	for _, r := range removed {
		if r.PhotoBlobPath != nil && *r.PhotoBlobPath != "" {
			paths = append(paths, *r.PhotoBlobPath)
		}
	}
	deletedFiles, failedFiles, _ := s.deleteBlobsInBatches(ctx, paths)

	s.logger.Info("记录删除完成",
		zap.Int("deleted", len(removed)),
		zap.Int("deleted_files", deletedFiles),
		zap.Int("failed_files", failedFiles),
	)
	return &dto.DeleteRecordsResponse{
		Deleted:      len(removed),
		DeletedFiles: deletedFiles,
		FailedFiles:  failedFiles,
	}, nil
}

// DeletePhoto 删除单条记录的照片并置空照片字段，记录本身保留
func (s *recordService) DeletePhoto(ctx context.Context, recordID int64) error {
	record, err := s.repo.Attendance.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		s.logger.Error("记录查询失败", zap.Int64("record_id", recordID), zap.Error(err))
		return err
	}

	if record.PhotoBlobPath != nil && *record.PhotoBlobPath != "" {
		if err := s.store.Delete(ctx, *record.PhotoBlobPath); err != nil {
			s.logger.Error("照片删除失败", zap.String("pathname", *record.PhotoBlobPath), zap.Error(err))
			return err
		}
	}
	return s.repo.Attendance.ClearPhotoFields(ctx, recordID, time.Now())
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func formatKSTOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return kst.FormatDateTime(*t)
}

// ExportCSV 全量记录导出，时间列转 KST "YYYY-MM-DD HH:MM:SS"
func (s *recordService) ExportCSV(ctx context.Context) ([]byte, error) {
	records, err := s.repo.Attendance.ListAll(ctx)
	if err != nil {
		s.logger.Error("记录导出查询失败", zap.Error(err))
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{
		"server_time", "employee_id", "name", "ip",
		"photo_url", "photo_blob_path", "photo_content_type",
		"photo_size", "photo_width", "photo_height",
		"office", "device_id", "image_hash",
		"cleanup_scheduled_at", "photo_deleted_at",
		"backup_blob_path", "backup_generated_at",
	})
	for _, r := range records {
		_ = w.Write([]string{
			kst.FormatDateTime(r.ServerTime),
			r.EmployeeID,
			r.Name,
			r.IP,
			derefStr(r.PhotoURL),
			derefStr(r.PhotoBlobPath),
			derefStr(r.PhotoContentType),
			strconv.FormatInt(r.PhotoSize, 10),
			strconv.Itoa(r.PhotoWidth),
			strconv.Itoa(r.PhotoHeight),
			strconv.FormatBool(r.Office),
			r.DeviceID,
			derefStr(r.ImageHash),
			formatKSTOrEmpty(r.CleanupScheduledAt),
			formatKSTOrEmpty(r.PhotoDeletedAt),
			derefStr(r.BackupBlobPath),
			formatKSTOrEmpty(r.BackupGeneratedAt),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// StorageUsage 统计对象存储的总量
func (s *recordService) StorageUsage(ctx context.Context) (*dto.StorageUsageResponse, error) {
	objects, err := s.store.List(ctx, "")
	if err != nil {
		s.logger.Error("存储用量查询失败", zap.Error(err))
		return nil, err
	}
	total := blob.TotalSize(objects)
	return &dto.StorageUsageResponse{
		TotalBytes:   total,
		TotalObjects: len(objects),
		ReadableSize: formatBytes(total),
	}, nil
}

// DeleteAllBlobs 清空对象存储（可限定前缀）。误触风险极高，必须传固定确认口令。
func (s *recordService) DeleteAllBlobs(ctx context.Context, req *dto.DeleteAllBlobsRequest) (*dto.DeleteAllBlobsResponse, error) {
	if req.Confirm != deleteAllBlobsConfirm {
		return nil, ErrConfirmRequired
	}

	objects, err := s.store.List(ctx, req.Prefix)
	if err != nil {
		s.logger.Error("对象列举失败", zap.Error(err))
		return nil, err
	}
	if len(objects) == 0 {
		return &dto.DeleteAllBlobsResponse{}, nil
	}

	paths := make([]string, 0, len(objects))
	for _, o := range objects {
		paths = append(paths, o.Pathname)
	}
	deleted, failed, failures := s.deleteBlobsInBatches(ctx, paths)
	if len(failures) > 10 {
		failures = failures[:10]
	}

	s.logger.Info("对象存储清空完成",
		zap.String("prefix", req.Prefix),
		zap.Int("deleted", deleted),
		zap.Int("failed", failed),
	)
	return &dto.DeleteAllBlobsResponse{
		Deleted: deleted,
		Failed:  failed,
		Total:   len(objects),
		Errors:  failures,
	}, nil
}

// PhotoContent 照片代理读取，仅允许 attendance/ 前缀
func (s *recordService) PhotoContent(ctx context.Context, pathname string) ([]byte, string, error) {
	data, err := s.store.Read(ctx, pathname)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, "", ErrRecordNotFound
		}
		return nil, "", err
	}
	contentType := "image/jpeg"
	switch {
	case len(pathname) > 4 && pathname[len(pathname)-4:] == ".png":
		contentType = "image/png"
	case len(pathname) > 5 && pathname[len(pathname)-5:] == ".webp":
		contentType = "image/webp"
	case len(pathname) > 4 && pathname[len(pathname)-4:] == ".gif":
		contentType = "image/gif"
	}
	return data, contentType, nil
}
