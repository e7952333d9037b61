package model

import "time"

// 设备重绑申请状态
const (
	DeviceRequestPending  = "pending"
	DeviceRequestApproved = "approved"
	DeviceRequestRejected = "rejected"
)

// DeviceRequest 设备重绑申请表 — 对应 device_requests
// 同一 (employee_id, device_id) 最多存在一条 pending 申请；
// pending → approved / rejected 各只发生一次，对应时间戳互斥。
type DeviceRequest struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"                 json:"id"`
	RequestID   string     `gorm:"type:varchar(64);not null;uniqueIndex"    json:"request_id"` // 调用方可见的不透明 ID
	EmployeeID  string     `gorm:"type:varchar(64);not null"                json:"employee_id"`
	Name        string     `gorm:"type:varchar(100);not null"               json:"name"`
	DeviceID    string     `gorm:"type:varchar(128);not null"               json:"device_id"` // 申请绑定的新设备
	RequestedAt time.Time  `gorm:"not null"                                 json:"requested_at"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"` // pending | approved | rejected
	ApprovedAt  *time.Time `json:"approved_at"`
	RejectedAt  *time.Time `json:"rejected_at"`
}

// TableName 指定表名
func (DeviceRequest) TableName() string { return "device_requests" }
