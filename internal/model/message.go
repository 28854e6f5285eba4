package model

import "time"

// Message 一对一私信
// 对应数据库 message 表，CreatedAt 写入后不再修改
type Message struct {
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`

	// Content 文本内容，纯附件消息可以为空
	Content string `gorm:"column:content;type:TEXT;comment:消息内容"`

	// AttachmentUrl 附件地址，如 "/static/files/xxx.png"
	AttachmentUrl string `gorm:"column:attachment_url;type:varchar(255);comment:附件url"`

	SenderId   uint64 `gorm:"column:sender_id;not null;index:idx_message_pair,priority:1;comment:发送者id"`
	ReceiverId uint64 `gorm:"column:receiver_id;not null;index:idx_message_pair,priority:2;index:idx_message_unread,priority:1;comment:接收者id"`

	// IsRead 只会由 false 变为 true
	IsRead bool `gorm:"column:is_read;not null;default:false;index:idx_message_unread,priority:2;comment:是否已读"`

	CreatedAt time.Time `gorm:"column:created_at;index;comment:发送时间"`

	Sender   *UserInfo `gorm:"foreignKey:SenderId"`
	Receiver *UserInfo `gorm:"foreignKey:ReceiverId"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "message"
}

// HasAttachment 是否带附件
func (m *Message) HasAttachment() bool {
	return m.AttachmentUrl != ""
}
