package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"nexchat_server/internal/service/cache"
	"nexchat_server/pkg/errorx"
	"nexchat_server/pkg/util/jwt"
)

// JWTAuth JWT 认证中间件
// 1. 校验 Access Token 签名与有效期
// 2. 核验背后的登录会话仍然有效（登出/改密后立即拦截）
// 3. 记录会话活跃（节流写回）
// 通过后把用户与会话标识存入上下文，供后续 Handler 使用
func JWTAuth(cacheSvc *cache.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": errorx.CodeUnauthorized,
				"msg":  "请先登录",
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": errorx.CodeUnauthorized,
				"msg":  "Token 格式错误，请使用 Bearer Token",
			})
			return
		}

		userUuid, sessionToken, err := jwt.VerifyAccessToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": errorx.CodeUnauthorized,
				"msg":  "Token 已过期或无效，请重新登录",
			})
			return
		}

		// 凭证有效还不够，会话必须未被作废
		session, err := cacheSvc.GetSession(c.Request.Context(), sessionToken)
		if err != nil || session.UserUuid != userUuid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": errorx.CodeUnauthorized,
				"msg":  "会话已失效，请重新登录",
			})
			return
		}

		cacheSvc.TouchSession(c.Request.Context(), sessionToken)

		c.Set("user_id", userUuid)
		c.Set("session_token", sessionToken)
		c.Next()
	}
}
