// Package service 提供业务逻辑层
// 本文件实现 Service 层的依赖注入和聚合
package service

import (
	"market_chat_server/internal/dao/mysql/repository"
	myredis "market_chat_server/internal/dao/redis"
	"market_chat_server/internal/service/auth"
	"market_chat_server/internal/service/message"
)

// Services 聚合所有 Service 实例
// 作为依赖注入的入口，Handler 层和实时网关通过它访问业务逻辑
type Services struct {
	Auth    AuthService    // 认证 Service
	Message MessageService // 消息 Service
}

// NewServices 创建并注入所有 Service 实例
// cache 为 nil 时会话列表不走缓存；fileDir 是附件存储目录
func NewServices(repos *repository.Repositories, cache myredis.CacheService, fileDir string) *Services {
	return &Services{
		Auth:    auth.NewAuthService(repos),
		Message: message.NewMessageService(repos, cache, fileDir),
	}
}
