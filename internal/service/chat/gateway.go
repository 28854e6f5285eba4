package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"market_chat_server/internal/dto/request"
	"market_chat_server/internal/dto/respond"
	"market_chat_server/internal/infrastructure/metrics"
	"market_chat_server/internal/service"
	"market_chat_server/pkg/errorx"
)

const eventTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GatewayConfig 连接级参数
type GatewayConfig struct {
	SendBuffer     int
	PongWait       time.Duration
	TypingDebounce time.Duration
}

// Gateway websocket 网关
// 负责连接生命周期、入站事件分发以及发送后的推送
type Gateway struct {
	server   *ChatServer
	messages service.MessageService
	cfg      GatewayConfig
}

// NewGateway 创建网关
func NewGateway(server *ChatServer, messages service.MessageService, cfg GatewayConfig) *Gateway {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 100
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	return &Gateway{server: server, messages: messages, cfg: cfg}
}

// Serve 升级为 websocket 并接管连接，userId 必须已经通过认证
func (g *Gateway) Serve(w http.ResponseWriter, r *http.Request, userId uint64) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	uc := newUserConn(conn, userId, g.cfg.SendBuffer, g.cfg.TypingDebounce)

	ctx, cancel := context.WithCancel(context.Background())
	g.server.Register(ctx, uc)
	go uc.writePump(g.cfg.PongWait * 9 / 10)

	g.sendSnapshot(ctx, uc)
	go func() {
		defer func() {
			cancel()
			g.server.Unregister(uc)
			uc.Close()
		}()
		g.readPump(ctx, uc)
	}()
	return nil
}

// sendSnapshot 连接建立后只发给本连接的初始数据
func (g *Gateway) sendSnapshot(ctx context.Context, uc *UserConn) {
	uc.SendEvent(EventConnectionEstablished, ConnectionEstablished{Status: "connected", UserId: uc.UserId})

	ctx, cancel := context.WithTimeout(ctx, eventTimeout)
	defer cancel()
	unread, err := g.messages.GetUnreadCount(ctx, uc.UserId, 0)
	if err != nil {
		zap.L().Error("snapshot unread count failed", zap.Uint64("user_id", uc.UserId), zap.Error(err))
		uc.SendEvent(EventError, newErrorPayload(EventUnreadCount, err))
	} else {
		uc.SendEvent(EventUnreadCount, UnreadCount{UnreadCount: unread})
	}
	chats, err := g.messages.GetChats(ctx, uc.UserId)
	if err != nil {
		zap.L().Error("snapshot chats failed", zap.Uint64("user_id", uc.UserId), zap.Error(err))
		uc.SendEvent(EventError, newErrorPayload(EventChatsUpdated, err))
		return
	}
	uc.SendEvent(EventChatsUpdated, chats)
}

// readPump 顺序处理入站事件，直到连接断开
func (g *Gateway) readPump(ctx context.Context, uc *UserConn) {
	uc.conn.SetReadLimit(maxMessageSize)
	_ = uc.conn.SetReadDeadline(time.Now().Add(g.cfg.PongWait))
	uc.conn.SetPongHandler(func(string) error {
		return uc.conn.SetReadDeadline(time.Now().Add(g.cfg.PongWait))
	})

	for {
		_, data, err := uc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Info("ws read closed", zap.Uint64("user_id", uc.UserId), zap.Error(err))
			}
			return
		}
		_ = uc.conn.SetReadDeadline(time.Now().Add(g.cfg.PongWait))

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil || frame.Event == "" {
			uc.SendEvent(EventError, ErrorPayload{Code: errorx.CodeInvalidParam, Message: "invalid frame"})
			continue
		}
		metrics.WsEventsIn.WithLabelValues(frame.Event).Inc()

		evCtx, cancel := context.WithTimeout(ctx, eventTimeout)
		err = g.dispatch(evCtx, uc, frame)
		cancel()
		if err != nil {
			if errorx.GetCode(err) == errorx.CodeServerBusy {
				zap.L().Error("ws event failed", zap.String("event", frame.Event), zap.Uint64("user_id", uc.UserId), zap.Error(err))
			}
			uc.SendEvent(EventError, newErrorPayload(frame.Event, err))
		}
	}
}

// dispatch 身份始终取连接上的认证用户，负载中的 userId 只表示对方
func (g *Gateway) dispatch(ctx context.Context, uc *UserConn, frame Frame) error {
	switch frame.Event {
	case EventSendMessage:
		var req request.SendMessageRequest
		if err := decodeData(frame.Data, &req); err != nil {
			return err
		}
		msg, err := g.messages.SendMessage(ctx, uc.UserId, req)
		if err != nil {
			return err
		}
		g.NotifyMessageSent(ctx, msg)

	case EventMarkAsRead:
		var req request.MarkAsReadEvent
		if err := decodeData(frame.Data, &req); err != nil {
			return err
		}
		unread, err := g.messages.MarkAsRead(ctx, uc.UserId, req.UserId)
		if err != nil {
			return err
		}
		uc.SendEvent(EventMessagesMarkedRead, MessagesMarkedRead{Success: true, UnreadCount: unread, OtherUserId: req.UserId})

	case EventGetChats:
		chats, err := g.messages.GetChats(ctx, uc.UserId)
		if err != nil {
			return err
		}
		uc.SendEvent(EventChatsList, chats)

	case EventGetMessages:
		var req request.GetMessagesRequest
		if err := decodeData(frame.Data, &req); err != nil {
			return err
		}
		messages, err := g.messages.GetMessages(ctx, uc.UserId, req)
		if err != nil {
			return err
		}
		uc.SendEvent(EventMessagesList, messages)

	case EventTyping:
		var req request.TypingEvent
		if err := decodeData(frame.Data, &req); err != nil {
			return err
		}
		if req.ReceiverId == 0 {
			return errorx.New(errorx.CodeInvalidParam, "receiverId is required")
		}
		if req.ReceiverId == uc.UserId || !uc.typing.allow(req.ReceiverId, req.IsTyping, time.Now()) {
			return nil
		}
		if g.server.IsOnline(ctx, req.ReceiverId) {
			g.server.Emit(ctx, req.ReceiverId, EventUserTyping, UserTyping{UserId: uc.UserId, IsTyping: req.IsTyping})
		}

	default:
		return errorx.Newf(errorx.CodeInvalidParam, "unknown event %q", frame.Event)
	}
	return nil
}

// NotifyMessageSent 消息持久化后的推送，socket 与 HTTP 两条发送路径共用
func (g *Gateway) NotifyMessageSent(ctx context.Context, msg *respond.MessageRespond) {
	g.server.Emit(ctx, msg.SenderId, EventMessageSent, msg)

	online := g.server.IsOnline(ctx, msg.ReceiverId)
	if online {
		g.server.Emit(ctx, msg.ReceiverId, EventNewMessage, msg)
	}

	g.pushChats(ctx, msg.SenderId)
	if !online {
		return
	}
	g.pushChats(ctx, msg.ReceiverId)
	unread, err := g.messages.GetUnreadCount(ctx, msg.ReceiverId, 0)
	if err != nil {
		zap.L().Error("unread count for push failed", zap.Uint64("user_id", msg.ReceiverId), zap.Error(err))
		return
	}
	g.server.Emit(ctx, msg.ReceiverId, EventUnreadCountUpdated, UnreadCount{UnreadCount: unread})
}

func (g *Gateway) pushChats(ctx context.Context, userId uint64) {
	chats, err := g.messages.GetChats(ctx, userId)
	if err != nil {
		zap.L().Error("chats for push failed", zap.Uint64("user_id", userId), zap.Error(err))
		return
	}
	g.server.Emit(ctx, userId, EventChatsUpdated, chats)
}

// decodeData 空负载视为零值，解码后与 HTTP 入口一样执行 binding 校验
func decodeData(data json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, v); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				return errorx.Newf(errorx.CodeInvalidParam, "invalid field %s", typeErr.Field)
			}
			return errorx.New(errorx.CodeInvalidParam, "invalid payload")
		}
	}
	if err := binding.Validator.ValidateStruct(v); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) && len(errs) > 0 {
			return errorx.Newf(errorx.CodeInvalidParam, "invalid field %s: %s", errs[0].Field(), errs[0].Tag())
		}
		return errorx.Wrap(err, errorx.CodeInvalidParam, "invalid payload")
	}
	return nil
}
