package request

// MarkAsReadEvent mark_as_read 事件负载，UserId 是对话另一方
type MarkAsReadEvent struct {
	UserId uint64 `json:"userId"`
}

// TypingEvent typing 事件负载
type TypingEvent struct {
	ReceiverId uint64 `json:"receiverId"`
	IsTyping   bool   `json:"isTyping"`
}
