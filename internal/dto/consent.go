package dto

// ── 个人信息同意记录 DTO ──

// ConsentLogRequest 同意提交（打卡页首次进入时）
type ConsentLogRequest struct {
	EmployeeID string `json:"employeeId" binding:"required"`
	Name       string `json:"name"`
	DeviceID   string `json:"deviceId"`
}

// ConsentStatusResponse 是否已留痕
type ConsentStatusResponse struct {
	Consented bool `json:"consented"`
}

// ConsentLogEntry 同意留痕明细，用于 CSV 导出
type ConsentLogEntry struct {
	EmployeeID  string `json:"employeeId"`
	Name        string `json:"name"`
	IP          string `json:"ip"`
	DeviceID    string `json:"deviceId"`
	UserAgent   string `json:"userAgent"`
	ConsentedAt string `json:"consentedAt"`
	BlobPath    string `json:"blobPath"`
	BlobSize    int64  `json:"blobSize"`
	UploadedAt  string `json:"uploadedAt"`
}
