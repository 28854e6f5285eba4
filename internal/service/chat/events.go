package chat

import (
	"encoding/json"

	"market_chat_server/pkg/errorx"
)

// 客户端 -> 服务端
const (
	EventSendMessage = "send_message"
	EventMarkAsRead  = "mark_as_read"
	EventGetChats    = "get_chats"
	EventGetMessages = "get_messages"
	EventTyping      = "typing"
)

// 服务端 -> 客户端
const (
	EventConnectionEstablished = "connection_established"
	EventUnreadCount           = "unread_count"
	EventChatsUpdated          = "chats_updated"
	EventMessageSent           = "message_sent"
	EventNewMessage            = "new_message"
	EventUnreadCountUpdated    = "unread_count_updated"
	EventMessagesMarkedRead    = "messages_marked_read"
	EventChatsList             = "chats_list"
	EventMessagesList          = "messages_list"
	EventUserTyping            = "user_typing"
	EventError                 = "error"
)

// Frame websocket 上传输的事件帧，两个方向格式相同
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EncodeFrame 序列化事件帧
func EncodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: data})
}

// Envelope 总线上的投递单元：发给某个用户房间的一帧
type Envelope struct {
	UserId uint64          `json:"userId"`
	Event  string          `json:"event"`
	Frame  json.RawMessage `json:"frame"`
}

// ErrorPayload error 事件负载，Code 与 HTTP 接口使用同一套业务码
type ErrorPayload struct {
	Event   string `json:"event,omitempty"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newErrorPayload(event string, err error) ErrorPayload {
	return ErrorPayload{Event: event, Code: errorx.GetCode(err), Message: errorx.Message(err)}
}

// ConnectionEstablished connection_established 负载
type ConnectionEstablished struct {
	Status string `json:"status"`
	UserId uint64 `json:"userId"`
}

// UnreadCount unread_count / unread_count_updated 负载
type UnreadCount struct {
	UnreadCount int64 `json:"unreadCount"`
}

// MessagesMarkedRead messages_marked_read 负载
type MessagesMarkedRead struct {
	Success     bool   `json:"success"`
	UnreadCount int64  `json:"unreadCount"`
	OtherUserId uint64 `json:"otherUserId"`
}

// UserTyping user_typing 负载
type UserTyping struct {
	UserId   uint64 `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}
