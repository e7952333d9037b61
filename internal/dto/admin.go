package dto

// ── 管理端认证 DTO ──

// AdminLoginRequest 管理员登录，仅口令
type AdminLoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// AdminLoginResponse 登录成功返回 Bearer Token
type AdminLoginResponse struct {
	Token string `json:"token"`
}

// AdminChangePasswordRequest 修改管理员口令
type AdminChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword"     binding:"required,min=8"`
}

// AllowedIPCreateRequest 新增办公网网段
type AllowedIPCreateRequest struct {
	IPCIDR      string `json:"ip_cidr"     binding:"required"`
	Description string `json:"description" binding:"omitempty,max=200"`
}
