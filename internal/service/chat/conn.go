package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"market_chat_server/internal/infrastructure/metrics"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 << 10
)

// UserConn 一条已认证的 websocket 连接
// 读协程处理入站事件，写协程独占底层连接的写操作
type UserConn struct {
	Id     string
	UserId uint64

	conn      *websocket.Conn
	sendBack  chan []byte // 给前端
	done      chan struct{}
	closeOnce sync.Once

	typing *typingDebouncer // 只在读协程中使用
}

func newUserConn(conn *websocket.Conn, userId uint64, buffer int, typingWindow time.Duration) *UserConn {
	return &UserConn{
		Id:       uuid.NewString(),
		UserId:   userId,
		conn:     conn,
		sendBack: make(chan []byte, buffer),
		done:     make(chan struct{}),
		typing:   newTypingDebouncer(typingWindow),
	}
}

// Send 非阻塞地放入发送队列，队列满或连接已关闭时丢弃
func (c *UserConn) Send(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.sendBack <- frame:
		return true
	case <-c.done:
		return false
	default:
		metrics.WsDroppedFrames.Inc()
		zap.L().Warn("ws send queue full, frame dropped", zap.Uint64("user_id", c.UserId), zap.String("conn_id", c.Id))
		return false
	}
}

// SendEvent 编码并发送给本连接
func (c *UserConn) SendEvent(event string, payload any) {
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		zap.L().Error("encode frame failed", zap.String("event", event), zap.Error(err))
		return
	}
	if c.Send(frame) {
		metrics.WsEventsOut.WithLabelValues(event).Inc()
	}
}

// Close 通知写协程发送关闭帧并释放底层连接，可重复调用
func (c *UserConn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Done 连接关闭后可读
func (c *UserConn) Done() <-chan struct{} {
	return c.done
}

// writePump 从发送队列取帧写入 websocket，并定时发送 ping
// 底层连接只在这里关闭，读协程随之退出
func (c *UserConn) writePump(pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.sendBack:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				zap.L().Debug("ws write failed", zap.String("conn_id", c.Id), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}
