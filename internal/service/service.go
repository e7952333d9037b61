package service

import (
	"go.uber.org/zap"

	"github.com/dlrntm-png/bangguy/config"
	"github.com/dlrntm-png/bangguy/internal/blob"
	"github.com/dlrntm-png/bangguy/internal/officeip"
	"github.com/dlrntm-png/bangguy/internal/photo"
	"github.com/dlrntm-png/bangguy/internal/repository"
	"github.com/dlrntm-png/bangguy/pkg/jwt"
	"github.com/dlrntm-png/bangguy/pkg/mail"
	"github.com/dlrntm-png/bangguy/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth    AuthService
	Attend  AttendService
	Record  RecordService
	Device  DeviceService
	Cleanup CleanupService
	Consent ConsentService
	Export  ExportService
	IP      IPService
}

// NewService 创建 Service 聚合。rdb / sender 可为 nil，对应能力降级。
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	store blob.Store,
	classifier *officeip.Classifier,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	sender mail.Sender,
	logger *zap.Logger,
) *Service {
	normalizer := photo.NewNormalizer(cfg.Upload.MaxWidth, cfg.Upload.Quality)
	records := NewRecordService(repo, store, logger)

	return &Service{
		Auth:    NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		Attend:  NewAttendService(cfg, repo, store, classifier, normalizer, logger),
		Record:  records,
		Device:  NewDeviceService(repo, logger),
		Cleanup: NewCleanupService(cfg, repo, store, sender, logger),
		Consent: NewConsentService(store, logger),
		Export:  NewExportService(records, logger),
		IP:      NewIPService(repo, classifier, logger),
	}
}
