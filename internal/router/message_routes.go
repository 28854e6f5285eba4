// Package router 提供 HTTP 路由注册
// 本文件定义消息相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterMessageRoutes 注册消息相关路由（需要认证）
// 同一层级的通配段必须同名，/:id/read 中的 id 是对方用户 id
func (rt *Router) RegisterMessageRoutes(rg *gin.RouterGroup) {
	messageGroup := rg.Group("/messages")
	{
		messageGroup.POST("", rt.handlers.Message.Create)                     // 发送消息
		messageGroup.POST("/with-image", rt.handlers.Message.CreateWithImage) // 发送图片消息
		messageGroup.GET("", rt.handlers.Message.List)                        // 消息列表
		messageGroup.GET("/chats", rt.handlers.Message.Chats)                 // 会话列表
		messageGroup.GET("/unread", rt.handlers.Message.UnreadCount)          // 未读数
		messageGroup.POST("/:id/read", rt.handlers.Message.MarkAsRead)        // 标记已读
		messageGroup.GET("/:id", rt.handlers.Message.Get)
		messageGroup.PATCH("/:id", rt.handlers.Message.Update)
		messageGroup.DELETE("/:id", rt.handlers.Message.Delete)
	}
}
