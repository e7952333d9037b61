package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Attendance    AttendanceRepository
	DeviceRequest DeviceRequestRepository
	CleanupJob    CleanupJobRepository
	AllowedIP     AllowedIPRepository
	AdminCred     AdminCredentialRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Attendance:    NewAttendanceRepo(db),
		DeviceRequest: NewDeviceRequestRepo(db),
		CleanupJob:    NewCleanupJobRepo(db),
		AllowedIP:     NewAllowedIPRepo(db),
		AdminCred:     NewAdminCredentialRepo(db),
	}
}
