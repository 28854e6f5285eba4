// Package repository 定义数据访问层接口和聚合结构
// 采用 Repository 模式将数据访问逻辑与业务逻辑分离
// 所有 Repository 接口在此文件定义，具体实现在各自的文件中
package repository

import (
	"context"

	"market_chat_server/internal/model"

	"gorm.io/gorm"
)

// ==================== Repository 接口定义 ====================

// UserRepository 用户数据访问接口
type UserRepository interface {
	// FindById 根据 ID 查找用户
	FindById(ctx context.Context, id uint64) (*model.UserInfo, error)
	// FindByUsername 根据用户名查找用户
	FindByUsername(ctx context.Context, username string) (*model.UserInfo, error)
	// Create 创建新用户
	Create(ctx context.Context, user *model.UserInfo) error
}

// MessageQuery 消息列表查询条件
// PeerId 为 0 时返回 UserId 参与的全部消息
type MessageQuery struct {
	UserId uint64
	PeerId uint64
	Limit  int
	Offset int
}

// MessageRepository 消息数据访问接口
type MessageRepository interface {
	// Create 插入消息，CreatedAt 由数据库层填充
	Create(ctx context.Context, msg *model.Message) error
	// FindById 查找消息并带出发送者和接收者
	FindById(ctx context.Context, id uint64) (*model.Message, error)
	// List 按创建时间倒序分页
	List(ctx context.Context, q MessageQuery) ([]model.Message, error)
	// FindLatestBetween 两人之间最新的一条消息，没有时返回 nil, nil
	FindLatestBetween(ctx context.Context, a, b uint64) (*model.Message, error)
	// MarkRead 将 sender 发给 receiver 的未读消息全部置为已读，返回受影响行数
	MarkRead(ctx context.Context, senderId, receiverId uint64) (int64, error)
	// CountUnread 统计 receiver 的未读消息，senderId 为 0 时不限发送者
	CountUnread(ctx context.Context, receiverId, senderId uint64) (int64, error)
	// UpdateContent 修改消息正文
	UpdateContent(ctx context.Context, id uint64, content string) error
	// Delete 删除消息
	Delete(ctx context.Context, id uint64) error
}

// ChatRepository 会话摘要数据访问接口，a/b 的顺序无关
type ChatRepository interface {
	// RecordMessage 写入最新预览并原子地给接收方未读数 +1，会话不存在时创建
	RecordMessage(ctx context.Context, senderId, receiverId uint64, preview string) (*model.Chat, error)
	// FindByPair 查找两人之间的会话
	FindByPair(ctx context.Context, a, b uint64) (*model.Chat, error)
	// ListByUser 用户参与的全部会话，按 updated_at 倒序
	ListByUser(ctx context.Context, userId uint64) ([]model.Chat, error)
	// UpdatePreview 修改会话预览
	UpdatePreview(ctx context.Context, a, b uint64, preview string) error
	// SetUnread 将 userId 一侧的未读数设置为 n
	SetUnread(ctx context.Context, a, b, userId uint64, n int64) error
}

// ==================== Repository 聚合 ====================

// Repositories 聚合所有 Repository 实例
// 作为依赖注入的入口，Service 层通过此结构访问数据层
type Repositories struct {
	db      *gorm.DB
	User    UserRepository
	Message MessageRepository
	Chat    ChatRepository
}

// NewRepositories 创建所有 Repository 实例
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:      db,
		User:    NewUserRepository(db),
		Message: NewMessageRepository(db),
		Chat:    NewChatRepository(db),
	}
}

// Transaction 在数据库事务中执行函数
// 事务内的所有操作要么全部成功，要么全部回滚
func (r *Repositories) Transaction(ctx context.Context, fn func(txRepos *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
