package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 所有接口统一返回 {ok, message, ...} 信封
// 策略性软失败（非办公网、冷却中、设备不一致、照片重复）返回 HTTP 200 + ok:false + reason，
// 由前端按 reason 分支展示引导文案，不当作服务端错误处理。

// OK 200 成功响应，extra 中的键合并进信封
func OK(c *gin.Context, message string, extra gin.H) {
	body := gin.H{"ok": true, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// Fail 通用失败响应
func Fail(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, gin.H{"ok": false, "message": message})
}

// FailWith 带附加字段的失败响应
func FailWith(c *gin.Context, httpStatus int, message string, extra gin.H) {
	body := gin.H{"ok": false, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(httpStatus, body)
}

// ── 常见快捷方式 ──

// BadRequest 400
func BadRequest(c *gin.Context, message string) {
	Fail(c, http.StatusBadRequest, message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, message string) {
	Fail(c, http.StatusUnauthorized, message)
}

// NotFound 404
func NotFound(c *gin.Context, message string) {
	Fail(c, http.StatusNotFound, message)
}

// InternalError 500
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "서버 오류가 발생했습니다."
	}
	Fail(c, http.StatusInternalServerError, message)
}
