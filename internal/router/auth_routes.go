// Package router 提供 HTTP 路由注册
// 本文件定义认证相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes 注册认证相关路由
func (rt *Router) RegisterAuthRoutes(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", rt.handlers.Auth.Register) // 注册并签发令牌
		authGroup.POST("/login", rt.handlers.Auth.Login)       // 密码登录
	}
}
