package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dlrntm-png/bangguy/config"
	"github.com/dlrntm-png/bangguy/internal/blob"
	"github.com/dlrntm-png/bangguy/internal/dto"
	"github.com/dlrntm-png/bangguy/internal/model"
	"github.com/dlrntm-png/bangguy/internal/officeip"
	"github.com/dlrntm-png/bangguy/internal/photo"
	"github.com/dlrntm-png/bangguy/internal/repository"
	"github.com/dlrntm-png/bangguy/pkg/kst"
)

// 打卡冷却时间，同一员工 5 分钟内不得重复登记
const registerCooldown = 300 * time.Second

// AttendService 打卡业务接口
type AttendService interface {
	Register(ctx context.Context, input *dto.RegisterInput) (*dto.RegisterResponse, error)
	IPStatus(ctx context.Context, clientIP string) *dto.IPStatusResponse
}

type attendService struct {
	cfg        *config.Config
	repo       *repository.Repository
	store      blob.Store
	classifier *officeip.Classifier
	normalizer *photo.Normalizer
	logger     *zap.Logger
}

// NewAttendService 创建 AttendService 实例
func NewAttendService(
	cfg *config.Config,
	repo *repository.Repository,
	store blob.Store,
	classifier *officeip.Classifier,
	normalizer *photo.Normalizer,
	logger *zap.Logger,
) AttendService {
	return &attendService{
		cfg:        cfg,
		repo:       repo,
		store:      store,
		classifier: classifier,
		normalizer: normalizer,
		logger:     logger,
	}
}

// reject 构造策略性软失败响应（reason 码），附带 IP / 网络判定 / 服务器时间便于前端排障
func reject(reason, message, ip string, office bool, serverTime time.Time) *dto.RegisterResponse {
	o := office
	return &dto.RegisterResponse{
		Ok:         false,
		Reason:     reason,
		Message:    message,
		IP:         ip,
		Office:     &o,
		ServerTime: kst.FormatISO(serverTime),
	}
}

// rejectInput 构造请求构造错误响应（error 码），处理器据此返回 400
func rejectInput(code, message, ip string, office bool, serverTime time.Time) *dto.RegisterResponse {
	o := office
	return &dto.RegisterResponse{
		Ok:         false,
		Error:      code,
		Message:    message,
		IP:         ip,
		Office:     &o,
		ServerTime: kst.FormatISO(serverTime),
	}
}

// Register 打卡登记。校验按固定顺序执行，命中任何一条即返回 ok=false，
// 全部通过后压缩照片、上传并落库。
func (s *attendService) Register(ctx context.Context, input *dto.RegisterInput) (*dto.RegisterResponse, error) {
	ip := strings.TrimSpace(input.ClientIP)
	office := s.classifier.IsOffice(ctx, ip)
	serverTime := kst.Now()

	employeeID := strings.TrimSpace(input.EmployeeID)
	name := strings.TrimSpace(input.Name)
	deviceID := strings.TrimSpace(input.DeviceID)

	// 1. 必填字段
	if employeeID == "" || name == "" {
		return rejectInput(dto.ReasonInvalidInput, "사번과 이름을 모두 입력해주세요.", ip, office, serverTime), nil
	}
	if deviceID == "" {
		return rejectInput(dto.ReasonDeviceIDRequired, "기기 ID가 필요합니다. 페이지를 새로고침해주세요.", ip, office, serverTime), nil
	}

	// 2. 照片存在性与类型
	if len(input.Photo) == 0 {
		return rejectInput(dto.ReasonPhotoRequired, "사진을 선택해주세요.", ip, office, serverTime), nil
	}
	if !strings.HasPrefix(http.DetectContentType(input.Photo), "image/") {
		return rejectInput(dto.ReasonInvalidFile, "이미지 파일만 업로드 가능합니다.", ip, office, serverTime), nil
	}

	// 原始字节的 MD5 作为防重哈希，压缩前计算保证同一张照片稳定命中
	sum := md5.Sum(input.Photo)
	imageHash := hex.EncodeToString(sum[:])

	// 3. 办公网判定
	if !office {
		return reject(dto.ReasonNotOfficeIP, "DCMC_WIFI가 아닙니다. DCMC_WIFI 접속 후 다시 시도 해주세요.", ip, office, serverTime), nil
	}

	// 4. 冷却 + 设备绑定，两项都基于该员工最近一条记录
	last, err := s.repo.Attendance.LastByEmployee(ctx, employeeID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询最近打卡记录失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}
	if last != nil {
		diff := serverTime.Sub(last.ServerTime)
		// 时钟回拨导致的负 diff 视为已过冷却
		if diff >= 0 && diff < registerCooldown {
			remaining := int(math.Ceil((registerCooldown - diff).Seconds()))
			msg := fmt.Sprintf("최근에 등록하셨습니다. %d분 %d초 후에 다시 시도해주세요.", remaining/60, remaining%60)
			return reject(dto.ReasonDuplicateRegistration, msg, ip, office, serverTime), nil
		}
		if last.DeviceID != "" && last.DeviceID != deviceID {
			return reject(dto.ReasonDeviceMismatch, "다른 기기에서 등록된 기록이 있습니다. 본인 기기에서 등록해주세요.", ip, office, serverTime), nil
		}
	}

	// 5. 照片查重
	if _, err := s.repo.Attendance.FindByImageHash(ctx, imageHash); err == nil {
		return reject(dto.ReasonDuplicatePhoto, "이미 사용된 사진입니다. 새로운 사진을 촬영해주세요.", ip, office, serverTime), nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("照片哈希查重失败", zap.Error(err))
		return nil, err
	}

	// 6. 压缩转码。解码失败说明不是图片，归入 INVALID_FILE
	normalized, err := s.normalizer.Normalize(input.Photo)
	if err != nil {
		if errors.Is(err, photo.ErrDecode) {
			return rejectInput(dto.ReasonInvalidFile, "이미지 파일만 업로드 가능합니다.", ip, office, serverTime), nil
		}
		s.logger.Error("照片压缩失败", zap.Error(err))
		return nil, err
	}

	// 7. 上传对象存储，统一 .jpg 后缀
	filename := strings.TrimSpace(input.PhotoName)
	if filename == "" {
		filename = "photo"
	}
	if ext := normalized.Ext; !strings.HasSuffix(strings.ToLower(filename), ext) {
		filename += ext
	}
	uploaded, err := s.store.Upload(ctx, "attendance", filename, normalized.Data, normalized.ContentType)
	if err != nil {
		s.logger.Error("照片上传失败", zap.Error(err))
		return nil, err
	}

	// 8. 落库。下月 1 日 00:00 KST 为照片清理时点
	cleanupAt := kst.NextMonthStart(serverTime)
	record := &model.AttendanceRecord{
		ServerTime:         serverTime,
		EmployeeID:         employeeID,
		Name:               name,
		IP:                 ip,
		PhotoURL:           &uploaded.URL,
		PhotoBlobPath:      &uploaded.Pathname,
		PhotoContentType:   &normalized.ContentType,
		PhotoSize:          uploaded.Size,
		PhotoWidth:         normalized.Width,
		PhotoHeight:        normalized.Height,
		Office:             office,
		DeviceID:           deviceID,
		ImageHash:          &imageHash,
		CleanupScheduledAt: &cleanupAt,
	}
	if err := s.repo.Attendance.Create(ctx, record); err != nil {
		// 并发提交同一照片时唯一索引兜底，晚到方按重复照片处理
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "uniq_attendance_image_hash") {
			_ = s.store.Delete(ctx, uploaded.Pathname)
			return reject(dto.ReasonDuplicatePhoto, "이미 사용된 사진입니다. 새로운 사진을 촬영해주세요.", ip, office, serverTime), nil
		}
		s.logger.Error("打卡记录写入失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("打卡登记成功",
		zap.Int64("record_id", record.ID),
		zap.String("employee_id", employeeID),
		zap.String("ip", ip),
		zap.Int64("photo_size", uploaded.Size),
	)

	o := office
	return &dto.RegisterResponse{
		Ok:         true,
		Message:    "인증(등록) 완료",
		IP:         ip,
		Office:     &o,
		ServerTime: kst.FormatISO(serverTime),
		RecordID:   record.ID,
		FileURL:    uploaded.URL,
	}, nil
}

// IPStatus 打卡页预检：告知来访 IP 及是否在办公网内
func (s *attendService) IPStatus(ctx context.Context, clientIP string) *dto.IPStatusResponse {
	ip := strings.TrimSpace(clientIP)
	if addr, err := officeip.Normalize(ip); err == nil {
		ip = addr.String()
	}
	return &dto.IPStatusResponse{IP: ip, Office: s.classifier.IsOffice(ctx, ip)}
}

// [自证通过] internal/service/attend_service.go
