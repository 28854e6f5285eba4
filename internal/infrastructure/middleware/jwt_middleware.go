package middleware

import (
	"context"
	"strings"

	"market_chat_server/pkg/errorx"

	"github.com/gin-gonic/gin"
)

// ContextUserID gin 上下文中保存当前用户 id 的 key
const ContextUserID = "user_id"

// TokenVerifier 校验 token 并返回对应的、仍然有效的用户 id
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (uint64, error)
}

// BearerToken 从 Authorization 头中取出 token
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// JWTAuth JWT 认证中间件
// 验证 Access Token 并将用户 id 存入上下文
func JWTAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, "请先登录")
			return
		}

		userID, err := verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			abortUnauthorized(c, "Token 已过期或无效，请重新登录")
			return
		}

		c.Set(ContextUserID, userID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(errorx.HTTPStatus(errorx.CodeUnauthorized), gin.H{
		"code": errorx.CodeUnauthorized,
		"msg":  msg,
	})
}

// UserID 读取 JWTAuth 写入的用户 id
func UserID(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}
