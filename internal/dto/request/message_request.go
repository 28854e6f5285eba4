package request

// SendMessageRequest 发送消息请求
// 使用位置:
//   - handler.MessageHandler.CreateMessage (HTTP)
//   - chat gateway send_message 事件
type SendMessageRequest struct {
	Content       string `json:"content" form:"content" binding:"max=5000"`
	ReceiverId    uint64 `json:"receiverId" form:"receiverId" binding:"required"`
	// AttachmentUrl 只由附件上传流程填写，客户端传入的值不参与绑定
	AttachmentUrl string `json:"-" form:"-"`
}

// GetMessagesRequest 消息列表查询
// UserId 为对话另一方，可选
type GetMessagesRequest struct {
	UserId uint64 `json:"userId" form:"userId"`
	Limit  int    `json:"limit" form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int    `json:"offset" form:"offset" binding:"omitempty,min=0"`
}

// UpdateMessageRequest 修改消息正文
type UpdateMessageRequest struct {
	Content string `json:"content" binding:"required,max=5000"`
}

// UnreadCountRequest 未读数查询，UserId 非 0 时只统计该发送者
type UnreadCountRequest struct {
	UserId uint64 `form:"userId"`
}
