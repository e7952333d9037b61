package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dlrntm-png/bangguy/internal/dto"
	"github.com/dlrntm-png/bangguy/internal/service"
	"github.com/dlrntm-png/bangguy/pkg/kst"
	"github.com/dlrntm-png/bangguy/pkg/response"
)

// ConsentHandler 个人信息收集同意处理器
type ConsentHandler struct {
	consentSvc service.ConsentService
}

// NewConsentHandler 创建 ConsentHandler
func NewConsentHandler(consentSvc service.ConsentService) *ConsentHandler {
	return &ConsentHandler{consentSvc: consentSvc}
}

// Log 同意留痕，首次写入后重复调用不覆盖
// POST /api/consent/log
func (h *ConsentHandler) Log(c *gin.Context) {
	var req dto.ConsentLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "employeeId가 필요합니다.")
		return
	}

	already, err := h.consentSvc.Store(c.Request.Context(), &req, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		response.InternalError(c, "동의 기록 저장에 실패했습니다.")
		return
	}
	msg := "동의가 기록되었습니다."
	if already {
		msg = "이미 동의 기록이 있습니다."
	}
	response.OK(c, msg, gin.H{"alreadyExists": already})
}

// Status 同意与否查询
// GET /api/consent/status?employeeId=
func (h *ConsentHandler) Status(c *gin.Context) {
	employeeID := strings.TrimSpace(c.Query("employeeId"))
	if employeeID == "" {
		response.BadRequest(c, "employeeId가 필요합니다.")
		return
	}

	consented, err := h.consentSvc.Status(c.Request.Context(), employeeID)
	if err != nil {
		response.InternalError(c, "동의 상태 조회에 실패했습니다.")
		return
	}
	response.OK(c, "", gin.H{"consented": consented})
}

// DownloadLogs 同意记录 CSV 下载，无记录时返回 204
// GET /api/admin/download-consent-logs
func (h *ConsentHandler) DownloadLogs(c *gin.Context) {
	data, err := h.consentSvc.ExportCSV(c.Request.Context())
	if err != nil {
		response.InternalError(c, "다운로드 실패")
		return
	}
	if data == nil {
		c.Status(http.StatusNoContent)
		return
	}

	filename := fmt.Sprintf("consent_logs_%s.csv", kst.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
