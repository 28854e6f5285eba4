// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"net/http"

	"market_chat_server/internal/handler"
	"market_chat_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router 路由管理器，持有 Handler 聚合和令牌校验器
type Router struct {
	handlers *handler.Handlers
	verifier middleware.TokenVerifier
}

// NewRouter 创建路由管理器
func NewRouter(handlers *handler.Handlers, verifier middleware.TokenVerifier) *Router {
	return &Router{handlers: handlers, verifier: verifier}
}

// RegisterRoutes 注册所有路由
// 在 https_server.Init() 中调用
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rt.RegisterAuthRoutes(r.Group("")) // 注册与登录，无需认证
	// /wss 自己处理 query token，认证失败返回 401
	rt.RegisterWebSocketRoutes(r.Group(""))

	authed := r.Group("")
	authed.Use(middleware.JWTAuth(rt.verifier))
	rt.RegisterMessageRoutes(authed)
}
