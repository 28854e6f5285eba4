package respond

import "time"

// UserBrief 消息与会话中展示的用户资料
type UserBrief struct {
	Id        uint64 `json:"id"`
	Username  string `json:"username"`
	AvatarUrl string `json:"avatarUrl"`
}

// MessageRespond 单条消息
type MessageRespond struct {
	Id            uint64     `json:"id"`
	Content       string     `json:"content"`
	AttachmentUrl string     `json:"attachmentUrl,omitempty"`
	SenderId      uint64     `json:"senderId"`
	ReceiverId    uint64     `json:"receiverId"`
	IsRead        bool       `json:"isRead"`
	CreatedAt     time.Time  `json:"createdAt"`
	Sender        *UserBrief `json:"sender,omitempty"`
	Receiver      *UserBrief `json:"receiver,omitempty"`
}

// ChatRespond 会话列表中的一项，UnreadCount 是请求者自己一侧的未读数
type ChatRespond struct {
	Id                 uint64     `json:"id"`
	CompanionId        uint64     `json:"companionId"`
	Companion          *UserBrief `json:"companion,omitempty"`
	LastMessageContent string     `json:"lastMessageContent"`
	UnreadCount        int64      `json:"unreadCount"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// MarkAsReadRespond 标记已读结果
type MarkAsReadRespond struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	UnreadCount int64  `json:"unreadCount"`
}

// UnreadCountRespond 未读数
type UnreadCountRespond struct {
	UnreadCount int64 `json:"unreadCount"`
}
