// Package handler 提供 HTTP 请求处理器
// 本文件处理 WebSocket 连接相关的 API 请求
package handler

import (
	"context"
	"net/http"

	"market_chat_server/internal/dto/respond"
	"market_chat_server/internal/infrastructure/middleware"
	"market_chat_server/internal/service"
	"market_chat_server/pkg/errorx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Gateway 实时网关，由 chat.Gateway 实现
type Gateway interface {
	Serve(w http.ResponseWriter, r *http.Request, userId uint64) error
	NotifyMessageSent(ctx context.Context, msg *respond.MessageRespond)
}

// WsHandler websocket 入口
type WsHandler struct {
	authSvc service.AuthService
	gateway Gateway
}

// NewWsHandler 创建 websocket 处理器
func NewWsHandler(authSvc service.AuthService, gateway Gateway) *WsHandler {
	return &WsHandler{authSvc: authSvc, gateway: gateway}
}

// Connect 认证后升级为 WebSocket
// GET /wss?token=xxx 或 Authorization: Bearer xxx
// 认证失败直接返回 401，不建立连接
func (h *WsHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token, _ = middleware.BearerToken(c.GetHeader("Authorization"))
	}
	userId, err := h.authSvc.VerifyToken(c.Request.Context(), token)
	if err != nil {
		zap.L().Info("ws auth rejected", zap.String("ip", c.ClientIP()), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code": errorx.CodeUnauthorized,
			"msg":  errorx.Message(err),
		})
		return
	}
	if err := h.gateway.Serve(c.Writer, c.Request, userId); err != nil {
		// Upgrade 失败时 gorilla 已经写回了错误响应
		zap.L().Warn("ws upgrade failed", zap.Uint64("user_id", userId), zap.Error(err))
	}
}
