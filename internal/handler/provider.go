// Package handler 提供 HTTP 请求处理器
// 本文件定义 Handler 聚合结构和构造函数
// 通过构造函数注入 Service 依赖
package handler

import (
	"market_chat_server/internal/service"
)

// Handlers 聚合所有 Handler 实例
// Router 层通过此结构访问各个 Handler
type Handlers struct {
	Auth    *AuthHandler
	Message *MessageHandler
	Ws      *WsHandler
}

// NewHandlers 创建并注入所有 Handler 实例
// gateway 同时承担 HTTP 发送后的实时推送
func NewHandlers(svc *service.Services, gateway Gateway) *Handlers {
	return &Handlers{
		Auth:    NewAuthHandler(svc.Auth),
		Message: NewMessageHandler(svc.Message, gateway),
		Ws:      NewWsHandler(svc.Auth, gateway),
	}
}
