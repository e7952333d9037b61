package model

import "time"

// AttendanceRecord 出勤打卡记录表 — 对应 attendance_records
// 照片字段（PhotoURL / PhotoBlobPath / ImageHash）要么同时存在、要么被清理时同时置空，
// 置空时写入 PhotoDeletedAt。
type AttendanceRecord struct {
	ID                 int64      `gorm:"primaryKey;autoIncrement"                    json:"id"`
	ServerTime         time.Time  `gorm:"not null;index:idx_attendance_employee_time" json:"server_time"`
	EmployeeID         string     `gorm:"type:varchar(64);not null;index:idx_attendance_employee_time" json:"employee_id"`
	Name               string     `gorm:"type:varchar(100);not null"                  json:"name"`
	IP                 string     `gorm:"type:varchar(64);not null;default:''"        json:"ip"`
	PhotoURL           *string    `json:"photo_url"`
	PhotoBlobPath      *string    `json:"photo_blob_path"`
	PhotoContentType   *string    `gorm:"type:varchar(100)"                           json:"photo_content_type"`
	PhotoSize          int64      `gorm:"not null;default:0"                          json:"photo_size"`
	PhotoWidth         int        `gorm:"not null;default:0"                          json:"photo_width"`
	PhotoHeight        int        `gorm:"not null;default:0"                          json:"photo_height"`
	Office             bool       `gorm:"not null;default:false"                      json:"office"`
	DeviceID           string     `gorm:"type:varchar(128);not null;default:''"       json:"device_id"`
	ImageHash          *string    `gorm:"type:varchar(32)"                            json:"image_hash"` // 原始上传字节的 MD5，未清理记录间唯一
	CleanupScheduledAt *time.Time `json:"cleanup_scheduled_at"`                                          // 下月 1 日 00:00 KST
	CreatedAt          time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"          json:"created_at"`
	PhotoDeletedAt     *time.Time `json:"photo_deleted_at"`
	BackupBlobPath     *string    `json:"backup_blob_path"`
	BackupGeneratedAt  *time.Time `json:"backup_generated_at"`
}

// TableName 指定表名
func (AttendanceRecord) TableName() string { return "attendance_records" }

// HasPhoto 照片字段是否仍然有效
func (r *AttendanceRecord) HasPhoto() bool {
	return r.PhotoURL != nil && *r.PhotoURL != ""
}
