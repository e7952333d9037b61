package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/dlrntm-png/bangguy/internal/blob"
	"github.com/dlrntm-png/bangguy/internal/dto"
	"github.com/dlrntm-png/bangguy/pkg/kst"
)

// ConsentService 个人信息收集同意留痕。
// 每个员工一份 JSON 存对象存储，首次同意后不再覆盖。
type ConsentService interface {
	Store(ctx context.Context, req *dto.ConsentLogRequest, ip, userAgent string) (alreadyExists bool, err error)
	Status(ctx context.Context, employeeID string) (bool, error)
	ExportCSV(ctx context.Context) ([]byte, error)
}

type consentService struct {
	store  blob.Store
	logger *zap.Logger
}

// NewConsentService 创建 ConsentService 实例
func NewConsentService(store blob.Store, logger *zap.Logger) ConsentService {
	return &consentService{store: store, logger: logger}
}

var pathSafePattern = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// sanitizeForPath 员工号转安全文件名；全由特殊字符构成时退化为哈希路径
func sanitizeForPath(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "unknown"
	}
	simple := strings.Trim(pathSafePattern.ReplaceAllString(trimmed, "-"), "-")
	if simple != "" {
		return simple
	}
	sum := sha256.Sum256([]byte(trimmed))
	return "id-" + hex.EncodeToString(sum[:])[:16]
}

func consentPathname(employeeID string) string {
	return fmt.Sprintf("consents/%s.json", sanitizeForPath(employeeID))
}

// consentPayload 留痕 JSON 的存储格式
type consentPayload struct {
	EmployeeID  string `json:"employeeId"`
	Name        string `json:"name"`
	IP          string `json:"ip"`
	DeviceID    string `json:"deviceId"`
	UserAgent   string `json:"userAgent"`
	ConsentedAt string `json:"consentedAt"`
}

// Store 写入同意留痕。已存在时返回 alreadyExists=true，不覆盖首次记录。
func (s *consentService) Store(ctx context.Context, req *dto.ConsentLogRequest, ip, userAgent string) (bool, error) {
	pathname := consentPathname(req.EmployeeID)

	exists, err := s.store.Exists(ctx, pathname)
	if err != nil {
		s.logger.Error("同意留痕查询失败", zap.Error(err))
		return false, err
	}
	if exists {
		return true, nil
	}

	payload := consentPayload{
		EmployeeID:  req.EmployeeID,
		Name:        req.Name,
		IP:          ip,
		DeviceID:    req.DeviceID,
		UserAgent:   userAgent,
		ConsentedAt: kst.FormatISO(kst.Now()),
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return false, err
	}
	if _, err := s.store.UploadText(ctx, pathname, data, "application/json; charset=utf-8"); err != nil {
		s.logger.Error("同意留痕写入失败", zap.String("pathname", pathname), zap.Error(err))
		return false, err
	}

	s.logger.Info("同意留痕已记录", zap.String("employee_id", req.EmployeeID))
	return false, nil
}

// Status 查询员工是否已留痕
func (s *consentService) Status(ctx context.Context, employeeID string) (bool, error) {
	if strings.TrimSpace(employeeID) == "" {
		return false, nil
	}
	return s.store.Exists(ctx, consentPathname(employeeID))
}

// ExportCSV 汇总所有留痕为 CSV，无留痕时返回 nil
func (s *consentService) ExportCSV(ctx context.Context) ([]byte, error) {
	objects, err := s.store.List(ctx, "consents/")
	if err != nil {
		s.logger.Error("同意留痕列举失败", zap.Error(err))
		return nil, err
	}
	if len(objects) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{
		"consented_at", "employee_id", "name", "device_id",
		"ip", "user_agent", "blob_path", "blob_size", "uploaded_at",
	})
	for _, o := range objects {
		data, err := s.store.Read(ctx, o.Pathname)
		if err != nil {
			s.logger.Warn("同意留痕读取失败", zap.String("pathname", o.Pathname), zap.Error(err))
			continue
		}
		var p consentPayload
		if err := json.Unmarshal(data, &p); err != nil {
			s.logger.Warn("同意留痕解析失败", zap.String("pathname", o.Pathname), zap.Error(err))
			continue
		}
		uploadedAt := kst.FormatDateTime(o.UploadedAt)
		_ = w.Write([]string{
			p.ConsentedAt,
			p.EmployeeID,
			p.Name,
			p.DeviceID,
			p.IP,
			p.UserAgent,
			o.Pathname,
			strconv.FormatInt(o.Size, 10),
			uploadedAt,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
