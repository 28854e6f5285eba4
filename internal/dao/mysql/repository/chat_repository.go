package repository

import (
	"context"

	"market_chat_server/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository 创建会话 Repository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func pairScope(a, b uint64) func(*gorm.DB) *gorm.DB {
	u1, u2 := model.ChatPair(a, b)
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user1_id = ? AND user2_id = ?", u1, u2)
	}
}

// RecordMessage 先尝试原子更新，行不存在时插入；
// 并发插入冲突时 DoNothing 返回 0 行，再走一次更新
func (r *chatRepository) RecordMessage(ctx context.Context, senderId, receiverId uint64, preview string) (*model.Chat, error) {
	u1, u2 := model.ChatPair(senderId, receiverId)
	col := model.UnreadColumn(u1, receiverId)
	db := r.db.WithContext(ctx)

	increment := func() (int64, error) {
		res := db.Model(&model.Chat{}).Scopes(pairScope(u1, u2)).Updates(map[string]any{
			"last_message_content": preview,
			col:                    gorm.Expr(col+" + ?", 1),
		})
		return res.RowsAffected, res.Error
	}

	n, err := increment()
	if err != nil {
		return nil, wrapDBErrorf(err, "更新会话 %d<->%d", u1, u2)
	}
	if n == 0 {
		chat := &model.Chat{User1Id: u1, User2Id: u2, LastMessageContent: preview}
		if receiverId == u1 {
			chat.UnreadUser1 = 1
		} else {
			chat.UnreadUser2 = 1
		}
		res := db.Omit("User1", "User2").
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user1_id"}, {Name: "user2_id"}},
				DoNothing: true,
			}).Create(chat)
		if res.Error != nil {
			return nil, wrapDBErrorf(res.Error, "创建会话 %d<->%d", u1, u2)
		}
		if res.RowsAffected == 0 {
			if _, err := increment(); err != nil {
				return nil, wrapDBErrorf(err, "更新会话 %d<->%d", u1, u2)
			}
		}
	}
	return r.FindByPair(ctx, u1, u2)
}

// FindByPair 查找会话
func (r *chatRepository) FindByPair(ctx context.Context, a, b uint64) (*model.Chat, error) {
	var chat model.Chat
	if err := r.db.WithContext(ctx).Scopes(pairScope(a, b)).First(&chat).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话 %d<->%d", a, b)
	}
	return &chat, nil
}

// ListByUser 用户参与的会话，带出双方资料
func (r *chatRepository) ListByUser(ctx context.Context, userId uint64) ([]model.Chat, error) {
	var chats []model.Chat
	err := r.db.WithContext(ctx).
		Preload("User1").Preload("User2").
		Where("user1_id = ? OR user2_id = ?", userId, userId).
		Order("updated_at DESC").Order("id DESC").
		Find(&chats).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询会话列表 user=%d", userId)
	}
	return chats, nil
}

// UpdatePreview 修改会话预览
func (r *chatRepository) UpdatePreview(ctx context.Context, a, b uint64, preview string) error {
	err := r.db.WithContext(ctx).Model(&model.Chat{}).Scopes(pairScope(a, b)).
		Update("last_message_content", preview).Error
	return wrapDBErrorf(err, "更新会话预览 %d<->%d", a, b)
}

// SetUnread 设置某一侧的未读数
func (r *chatRepository) SetUnread(ctx context.Context, a, b, userId uint64, n int64) error {
	u1, u2 := model.ChatPair(a, b)
	col := model.UnreadColumn(u1, userId)
	// UpdateColumn 不刷新 updated_at，已读不应改变会话排序
	err := r.db.WithContext(ctx).Model(&model.Chat{}).Scopes(pairScope(u1, u2)).
		UpdateColumn(col, n).Error
	return wrapDBErrorf(err, "更新未读数 %d<->%d", u1, u2)
}
