package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/dlrntm-png/bangguy/internal/service"
	"github.com/dlrntm-png/bangguy/pkg/kst"
	"github.com/dlrntm-png/bangguy/pkg/response"
)

// CleanupHandler 月度照片清理处理器，管理端或 Cron 调用
type CleanupHandler struct {
	cleanupSvc service.CleanupService
}

// NewCleanupHandler 创建 CleanupHandler
func NewCleanupHandler(cleanupSvc service.CleanupService) *CleanupHandler {
	return &CleanupHandler{cleanupSvc: cleanupSvc}
}

// Preview 生成上月备份 CSV 并登记作业，不删除任何照片
// POST /api/admin/cleanup/preview
func (h *CleanupHandler) Preview(c *gin.Context) {
	res, err := h.cleanupSvc.Preview(c.Request.Context(), kst.Now())
	if err != nil {
		response.InternalError(c, "백업 생성에 실패했습니다.")
		return
	}

	msg := "백업이 생성되었습니다."
	if res.AlreadyDone {
		msg = "이미 처리된 주기입니다."
	}
	response.OK(c, msg, gin.H{
		"period":       res.Period,
		"totalRecords": res.TotalRecords,
		"totalPhotos":  res.TotalPhotos,
		"totalBytes":   res.TotalBytes,
		"backupPath":   res.BackupPath,
		"backupUrl":    res.BackupURL,
		"job":          res.Job,
		"alreadyDone":  res.AlreadyDone,
	})
}

// Execute 删除上月照片并置空记录的照片字段
// POST /api/admin/cleanup/execute
func (h *CleanupHandler) Execute(c *gin.Context) {
	res, err := h.cleanupSvc.Execute(c.Request.Context(), kst.Now())
	if err != nil {
		response.InternalError(c, "정리 작업에 실패했습니다.")
		return
	}
	response.OK(c, "정리가 완료되었습니다.", gin.H{
		"period":       res.Period,
		"deletedFiles": res.DeletedFiles,
		"updatedCount": res.UpdatedCount,
		"totalBytes":   res.TotalBytes,
		"readableSize": res.ReadableSize,
		"job":          res.Job,
	})
}
