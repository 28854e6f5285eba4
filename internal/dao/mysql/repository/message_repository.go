package repository

import (
	"context"
	"errors"

	"market_chat_server/internal/model"

	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息 Repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// withUsers 预加载发送者和接收者资料
func withUsers(db *gorm.DB) *gorm.DB {
	return db.Preload("Sender").Preload("Receiver")
}

// Create 创建消息
func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	if err := r.db.WithContext(ctx).Omit("Sender", "Receiver").Create(msg).Error; err != nil {
		return wrapDBError(err, "创建消息")
	}
	return nil
}

// FindById 按 ID 查找消息
func (r *messageRepository) FindById(ctx context.Context, id uint64) (*model.Message, error) {
	var msg model.Message
	if err := withUsers(r.db.WithContext(ctx)).First(&msg, "id = ?", id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询消息 id=%d", id)
	}
	return &msg, nil
}

// List 分页查询消息，最新的在前
func (r *messageRepository) List(ctx context.Context, q MessageQuery) ([]model.Message, error) {
	db := withUsers(r.db.WithContext(ctx))
	if q.PeerId != 0 {
		db = db.Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			q.UserId, q.PeerId, q.PeerId, q.UserId)
	} else {
		db = db.Where("sender_id = ? OR receiver_id = ?", q.UserId, q.UserId)
	}

	var messages []model.Message
	err := db.Order("created_at DESC").Order("id DESC").
		Limit(q.Limit).Offset(q.Offset).
		Find(&messages).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询消息 user=%d peer=%d", q.UserId, q.PeerId)
	}
	return messages, nil
}

// FindLatestBetween 两人之间最新的一条消息
func (r *messageRepository) FindLatestBetween(ctx context.Context, a, b uint64) (*model.Message, error) {
	var msg model.Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at DESC").Order("id DESC").
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapDBErrorf(err, "查询最新消息 %d<->%d", a, b)
	}
	return &msg, nil
}

// MarkRead 批量置为已读
func (r *messageRepository) MarkRead(ctx context.Context, senderId, receiverId uint64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderId, receiverId, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "标记已读 sender=%d receiver=%d", senderId, receiverId)
	}
	return res.RowsAffected, nil
}

// CountUnread 统计未读消息
func (r *messageRepository) CountUnread(ctx context.Context, receiverId, senderId uint64) (int64, error) {
	db := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("receiver_id = ? AND is_read = ?", receiverId, false)
	if senderId != 0 {
		db = db.Where("sender_id = ?", senderId)
	}
	var n int64
	if err := db.Count(&n).Error; err != nil {
		return 0, wrapDBErrorf(err, "统计未读 receiver=%d", receiverId)
	}
	return n, nil
}

// UpdateContent 修改消息正文
func (r *messageRepository) UpdateContent(ctx context.Context, id uint64, content string) error {
	err := r.db.WithContext(ctx).Model(&model.Message{}).Where("id = ?", id).Update("content", content).Error
	return wrapDBErrorf(err, "更新消息 id=%d", id)
}

// Delete 删除消息
func (r *messageRepository) Delete(ctx context.Context, id uint64) error {
	err := r.db.WithContext(ctx).Delete(&model.Message{}, "id = ?", id).Error
	return wrapDBErrorf(err, "删除消息 id=%d", id)
}
