package handler

import (
	"github.com/dlrntm-png/bangguy/internal/service"
)

// Handler 聚合所有 HTTP 处理器
type Handler struct {
	Attend  *AttendHandler
	Admin   *AdminHandler
	Device  *DeviceHandler
	Cleanup *CleanupHandler
	Consent *ConsentHandler
}

// NewHandler 创建 Handler 实例
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Attend:  NewAttendHandler(svc.Attend, svc.Device),
		Admin:   NewAdminHandler(svc.Auth, svc.Record, svc.Export, svc.IP),
		Device:  NewDeviceHandler(svc.Device),
		Cleanup: NewCleanupHandler(svc.Cleanup),
		Consent: NewConsentHandler(svc.Consent),
	}
}
