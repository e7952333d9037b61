package dto

// ── 设备换绑 DTO ──

// DeviceRebindRequest 员工端发起的设备换绑申请
type DeviceRebindRequest struct {
	EmployeeID string `json:"employeeId" binding:"required"`
	Name       string `json:"name"       binding:"required"`
	DeviceID   string `json:"deviceId"   binding:"required"`
}

// DeviceRequestItem 管理端换绑申请列表行
type DeviceRequestItem struct {
	ID          string  `json:"id"` // request_id
	EmployeeID  string  `json:"employeeId"`
	Name        string  `json:"name"`
	DeviceID    string  `json:"deviceId"`
	RequestedAt string  `json:"requestedAt"`
	Status      string  `json:"status"`
	ApprovedAt  *string `json:"approvedAt"`
	RejectedAt  *string `json:"rejectedAt"`
}

// DeviceDecisionRequest 审批（通过/拒绝）请求
type DeviceDecisionRequest struct {
	RequestID string `json:"requestId" binding:"required"`
}

// UpdateDeviceRequest 管理端直接改绑设备
type UpdateDeviceRequest struct {
	EmployeeID string `json:"employeeId" binding:"required"`
	DeviceID   string `json:"deviceId"   binding:"required"`
}
