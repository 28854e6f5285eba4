package handler

import (
	"strconv"

	"market_chat_server/internal/dto/request"
	"market_chat_server/internal/dto/respond"
	"market_chat_server/internal/infrastructure/middleware"
	"market_chat_server/internal/service"
	"market_chat_server/pkg/errorx"

	"github.com/gin-gonic/gin"
)

// MessageHandler 私信接口
// 所有路由都在 JWT 中间件之后，身份取自令牌
type MessageHandler struct {
	messageSvc service.MessageService
	gateway    Gateway
}

// NewMessageHandler 创建消息处理器实例
func NewMessageHandler(messageSvc service.MessageService, gateway Gateway) *MessageHandler {
	return &MessageHandler{messageSvc: messageSvc, gateway: gateway}
}

// Create 发送消息
// POST /messages
// 请求体: request.SendMessageRequest
// 成功后与 socket 发送走同一套实时推送
func (h *MessageHandler) Create(c *gin.Context) {
	userId := mustUserID(c)
	var req request.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	msg, err := h.messageSvc.SendMessage(c.Request.Context(), userId, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	h.notify(c, msg)
	HandleSuccess(c, msg)
}

// CreateWithImage 发送带图片的消息
// POST /messages/with-image
// multipart: image (文件), receiverId, content (可选)
func (h *MessageHandler) CreateWithImage(c *gin.Context) {
	userId := mustUserID(c)
	var req request.SendMessageRequest
	if err := c.ShouldBind(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	file, err := c.FormFile("image")
	if err != nil {
		paramError(c, "image is required")
		return
	}
	msg, err := h.messageSvc.SendMessageWithAttachment(c.Request.Context(), userId, req, file)
	if err != nil {
		HandleError(c, err)
		return
	}
	h.notify(c, msg)
	HandleSuccess(c, msg)
}

func (h *MessageHandler) notify(c *gin.Context, msg *respond.MessageRespond) {
	if h.gateway != nil {
		h.gateway.NotifyMessageSent(c.Request.Context(), msg)
	}
}

// List 消息列表
// GET /messages?userId=&limit=&offset=
func (h *MessageHandler) List(c *gin.Context) {
	userId := mustUserID(c)
	var req request.GetMessagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.messageSvc.GetMessages(c.Request.Context(), userId, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Chats 会话列表
// GET /messages/chats
func (h *MessageHandler) Chats(c *gin.Context) {
	data, err := h.messageSvc.GetChats(c.Request.Context(), mustUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// MarkAsRead 将对方发来的消息标记为已读
// POST /messages/:id/read，:id 为对方用户 id
func (h *MessageHandler) MarkAsRead(c *gin.Context) {
	otherId, ok := uintParam(c, "id")
	if !ok {
		return
	}
	unread, err := h.messageSvc.MarkAsRead(c.Request.Context(), mustUserID(c), otherId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, respond.MarkAsReadRespond{
		Success:     true,
		Message:     "Messages marked as read",
		UnreadCount: unread,
	})
}

// UnreadCount 未读数
// GET /messages/unread?userId=
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	var req request.UnreadCountRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	n, err := h.messageSvc.GetUnreadCount(c.Request.Context(), mustUserID(c), req.UserId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, respond.UnreadCountRespond{UnreadCount: n})
}

// Get 单条消息
// GET /messages/:id
func (h *MessageHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	data, err := h.messageSvc.GetMessage(c.Request.Context(), mustUserID(c), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Update 修改消息正文，仅发送者
// PATCH /messages/:id
func (h *MessageHandler) Update(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req request.UpdateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.messageSvc.UpdateMessage(c.Request.Context(), mustUserID(c), id, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Delete 删除消息，仅发送者
// DELETE /messages/:id
func (h *MessageHandler) Delete(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.messageSvc.DeleteMessage(c.Request.Context(), mustUserID(c), id); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// mustUserID 路由已挂载 JWTAuth，取不到说明路由配置有误
func mustUserID(c *gin.Context) uint64 {
	id, ok := middleware.UserID(c)
	if !ok {
		panic(errorx.ErrUnauthorized)
	}
	return id
}

func uintParam(c *gin.Context, name string) (uint64, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		paramError(c, "invalid "+name)
		return 0, false
	}
	return v, true
}
