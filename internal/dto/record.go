package dto

// ── 打卡记录管理 DTO ──

// RecordListRequest 记录查询参数，date 与 month 互斥
type RecordListRequest struct {
	EmployeeID string `form:"employeeId"`
	Date       string `form:"date"`  // YYYY-MM-DD（KST 当天）
	Month      string `form:"month"` // YYYY-MM（KST 当月）
}

// RecordItem 管理端记录列表行
type RecordItem struct {
	RecordID           int64   `json:"recordId"`
	ServerTime         string  `json:"server_time"`
	EmployeeID         string  `json:"employee_id"`
	Name               string  `json:"name"`
	IP                 string  `json:"ip"`
	File               *string `json:"file"`
	PhotoBlobPath      *string `json:"photo_blob_path"`
	PhotoContentType   *string `json:"photo_content_type"`
	PhotoSize          int64   `json:"photo_size"`
	PhotoWidth         int     `json:"photo_width"`
	PhotoHeight        int     `json:"photo_height"`
	Office             bool    `json:"office"`
	DeviceID           string  `json:"device_id"`
	ImageHash          *string `json:"image_hash"`
	CleanupScheduledAt *string `json:"cleanup_scheduled_at"`
	PhotoDeletedAt     *string `json:"photo_deleted_at"`
	BackupBlobPath     *string `json:"backup_blob_path"`
	BackupGeneratedAt  *string `json:"backup_generated_at"`
}

// DeleteRecordsRequest 删除记录请求，deleteAll 为真时忽略 recordIds
type DeleteRecordsRequest struct {
	RecordIDs []int64 `json:"recordIds"`
	DeleteAll bool    `json:"deleteAll"`
}

// DeleteRecordsResponse 删除结果，文件删除为尽力而为
type DeleteRecordsResponse struct {
	Deleted      int `json:"deleted"`
	DeletedFiles int `json:"deletedFiles"`
	FailedFiles  int `json:"failedFiles"`
}

// DeletePhotoRequest 单条记录的照片删除请求
type DeletePhotoRequest struct {
	RecordID int64 `json:"recordId" binding:"required"`
}

// DeleteAllBlobsRequest 全量清空对象存储，confirm 必须传固定口令
type DeleteAllBlobsRequest struct {
	Prefix  string `json:"prefix"`
	Confirm string `json:"confirm"`
}

// DeleteAllBlobsResponse 清空结果
type DeleteAllBlobsResponse struct {
	Deleted int               `json:"deleted"`
	Failed  int               `json:"failed"`
	Total   int               `json:"total"`
	Errors  []BlobDeleteError `json:"errors,omitempty"` // 最多回传前 10 条
}

// BlobDeleteError 单个对象删除失败详情
type BlobDeleteError struct {
	Pathname string `json:"pathname"`
	Error    string `json:"error"`
}

// StorageUsageResponse 存储用量统计
type StorageUsageResponse struct {
	TotalBytes   int64  `json:"totalBytes"`
	TotalObjects int    `json:"totalObjects"`
	ReadableSize string `json:"readableSize"`
}
