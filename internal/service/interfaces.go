// Package service 定义业务层接口
// 本文件定义所有 Service 接口，供 Handler 层和实时网关调用
package service

import (
	"context"
	"mime/multipart"

	"market_chat_server/internal/dto/request"
	"market_chat_server/internal/dto/respond"
)

// AuthService 注册、登录与令牌校验
type AuthService interface {
	Register(ctx context.Context, req request.RegisterRequest) (*respond.LoginRespond, error)
	Login(ctx context.Context, req request.LoginRequest) (*respond.LoginRespond, error)
	// VerifyToken 校验令牌并确认用户仍然存在且可用，返回用户 id
	VerifyToken(ctx context.Context, token string) (uint64, error)
}

// MessageService 私信与会话摘要
// 所有方法的 userId/senderId/readerId 都来自已认证的身份
type MessageService interface {
	// SendMessage 持久化消息并更新会话摘要（同一事务）
	SendMessage(ctx context.Context, senderId uint64, req request.SendMessageRequest) (*respond.MessageRespond, error)
	// SendMessageWithAttachment 保存附件后发送
	SendMessageWithAttachment(ctx context.Context, senderId uint64, req request.SendMessageRequest, file *multipart.FileHeader) (*respond.MessageRespond, error)
	// GetMessages 最新的在前，默认 limit 20 / offset 0
	GetMessages(ctx context.Context, userId uint64, req request.GetMessagesRequest) ([]respond.MessageRespond, error)
	// GetChats 会话列表，按最近活动倒序
	GetChats(ctx context.Context, userId uint64) ([]respond.ChatRespond, error)
	// MarkAsRead 将 otherId 发给 readerId 的消息置为已读，返回 reader 剩余的总未读数
	MarkAsRead(ctx context.Context, readerId, otherId uint64) (int64, error)
	// GetUnreadCount fromId 为 0 时统计全部
	GetUnreadCount(ctx context.Context, userId, fromId uint64) (int64, error)

	GetMessage(ctx context.Context, userId, messageId uint64) (*respond.MessageRespond, error)
	UpdateMessage(ctx context.Context, userId, messageId uint64, req request.UpdateMessageRequest) (*respond.MessageRespond, error)
	DeleteMessage(ctx context.Context, userId, messageId uint64) error
}
