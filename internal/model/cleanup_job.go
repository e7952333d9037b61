package model

import "time"

// 清理作业状态
const (
	CleanupJobPending   = "pending"
	CleanupJobPreview   = "preview"
	CleanupJobRunning   = "running"
	CleanupJobCompleted = "completed"
	CleanupJobFailed    = "failed"
)

// CleanupJob 月度照片清理作业表 — 对应 cleanup_jobs
// 每个 (period_start, period_end) 周期最多一条非 failed 作业，重复调用幂等返回现有行。
type CleanupJob struct {
	ID                int64      `gorm:"primaryKey;autoIncrement"                 json:"id"`
	PeriodStart       time.Time  `gorm:"not null;index:idx_cleanup_jobs_period"   json:"period_start"`
	PeriodEnd         time.Time  `gorm:"not null;index:idx_cleanup_jobs_period"   json:"period_end"`
	Status            string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"` // pending | preview | running | completed | failed
	BackupBlobPath    *string    `json:"backup_blob_path"`
	BackupDownloadURL *string    `json:"backup_download_url"`
	TotalRecords      int        `gorm:"not null;default:0"                       json:"total_records"`
	TotalPhotos       int        `gorm:"not null;default:0"                       json:"total_photos"`
	TotalBytes        int64      `gorm:"not null;default:0"                       json:"total_bytes"`
	CreatedAt         time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"       json:"created_at"`
	UpdatedAt         time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"       json:"updated_at"`
	ExecutedAt        *time.Time `json:"executed_at"`
	FinishedAt        *time.Time `json:"finished_at"`
	Error             *string    `json:"error"`
}

// TableName 指定表名
func (CleanupJob) TableName() string { return "cleanup_jobs" }
