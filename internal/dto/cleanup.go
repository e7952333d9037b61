package dto

// ── 月度照片清理 DTO ──

// PeriodInfo 清理周期（上一个自然月，KST）
type PeriodInfo struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Label string `json:"label"` // YYYY-MM
}

// CleanupJobInfo 清理任务状态
type CleanupJobInfo struct {
	ID                int64   `json:"id"`
	PeriodStart       string  `json:"periodStart"`
	PeriodEnd         string  `json:"periodEnd"`
	Status            string  `json:"status"`
	BackupBlobPath    *string `json:"backupBlobPath"`
	BackupDownloadURL *string `json:"backupDownloadUrl"`
	TotalRecords      int     `json:"totalRecords"`
	TotalPhotos       int     `json:"totalPhotos"`
	TotalBytes        int64   `json:"totalBytes"`
	ExecutedAt        *string `json:"executedAt"`
	FinishedAt        *string `json:"finishedAt"`
	Error             *string `json:"error"`
}

// CleanupPreviewResponse 备份预览结果
type CleanupPreviewResponse struct {
	Period       PeriodInfo      `json:"period"`
	TotalRecords int             `json:"totalRecords"`
	TotalPhotos  int             `json:"totalPhotos"`
	TotalBytes   int64           `json:"totalBytes"`
	BackupPath   string          `json:"backupPath,omitempty"`
	BackupURL    string          `json:"backupUrl,omitempty"`
	Job          *CleanupJobInfo `json:"job"`
	AlreadyDone  bool            `json:"alreadyDone,omitempty"`
}

// CleanupExecuteResponse 清理执行结果
type CleanupExecuteResponse struct {
	Period       PeriodInfo      `json:"period"`
	DeletedFiles int             `json:"deletedFiles"`
	UpdatedCount int64           `json:"updatedCount"`
	TotalBytes   int64           `json:"totalBytes"`
	ReadableSize string          `json:"readableSize"`
	Job          *CleanupJobInfo `json:"job"`
}
