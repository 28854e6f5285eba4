package model

import "time"

// Chat 两个用户之间的会话摘要，每个无序用户对只有一行
// 约束：User1Id < User2Id
type Chat struct {
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`

	User1Id uint64 `gorm:"column:user1_id;not null;uniqueIndex:idx_chat_pair,priority:1;comment:较小的用户id"`
	User2Id uint64 `gorm:"column:user2_id;not null;uniqueIndex:idx_chat_pair,priority:2;index;comment:较大的用户id"`

	// LastMessageContent 最近一条消息的预览
	LastMessageContent string `gorm:"column:last_message_content;type:varchar(64);comment:最近消息预览"`

	// UnreadUser1 等待 user1 阅读的消息数（由 user2 发出），UnreadUser2 反之
	UnreadUser1 int64 `gorm:"column:unread_user1;not null;default:0;comment:user1未读数"`
	UnreadUser2 int64 `gorm:"column:unread_user2;not null;default:0;comment:user2未读数"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;index"`

	User1 *UserInfo `gorm:"foreignKey:User1Id"`
	User2 *UserInfo `gorm:"foreignKey:User2Id"`
}

// TableName 指定表名
func (Chat) TableName() string {
	return "chat"
}

// ChatPair 返回规范顺序 (min, max)
func ChatPair(a, b uint64) (uint64, uint64) {
	if a < b {
		return a, b
	}
	return b, a
}

// UnreadFor 返回 userId 一侧的未读数，非参与者返回 0
func (c *Chat) UnreadFor(userId uint64) int64 {
	switch userId {
	case c.User1Id:
		return c.UnreadUser1
	case c.User2Id:
		return c.UnreadUser2
	}
	return 0
}

// Companion 返回会话中的另一方
func (c *Chat) Companion(userId uint64) (uint64, *UserInfo) {
	if userId == c.User1Id {
		return c.User2Id, c.User2
	}
	return c.User1Id, c.User1
}

// UnreadColumn 返回 userId 在 chat 表中对应的未读计数列名
func UnreadColumn(user1Id, userId uint64) string {
	if userId == user1Id {
		return "unread_user1"
	}
	return "unread_user2"
}
