package chat

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	myredis "market_chat_server/internal/dao/redis"
	"market_chat_server/internal/infrastructure/metrics"
	"market_chat_server/pkg/constants"
)

// 运行模式
const (
	ModeChannel = "channel"
	ModeRedis   = "redis"
	ModeKafka   = "kafka"
)

// ChatServerConfig 聊天服务器配置
type ChatServerConfig struct {
	Mode        string // "channel"、"redis" 或 "kafka"
	Cache       myredis.AsyncCacheService
	RedisClient *redis.Client
	Kafka       KafkaConfig
	BufferSize  int // channel 模式转发通道长度
}

// ChatServer 聊天服务器聚合结构
// 封装连接表、事件总线和在线状态，统一管理生命周期
type ChatServer struct {
	Registry *Registry
	Broker   MessageBroker

	// presence 跨实例在线状态，仅在多实例模式且配置了 Redis 时使用
	presence myredis.AsyncCacheService
	mode     string
}

// NewChatServer 根据模式选择事件总线
func NewChatServer(cfg ChatServerConfig) (*ChatServer, error) {
	cs := &ChatServer{
		Registry: NewRegistry(),
		mode:     cfg.Mode,
	}

	switch cfg.Mode {
	case ModeRedis:
		if cfg.RedisClient == nil {
			return nil, fmt.Errorf("message mode %q requires redis", cfg.Mode)
		}
		cs.Broker = NewRedisBroker(cfg.RedisClient, constants.CHAT_EVENTS_CHANNEL)
		cs.presence = cfg.Cache
	case ModeKafka:
		if cfg.Kafka.HostPort == "" {
			return nil, fmt.Errorf("message mode %q requires kafka hostPort", cfg.Mode)
		}
		cs.Broker = NewKafkaBroker(cfg.Kafka)
		cs.presence = cfg.Cache
	case ModeChannel, "":
		size := cfg.BufferSize
		if size <= 0 {
			size = constants.CHANNEL_SIZE
		}
		cs.Broker = NewChannelBroker(size)
		cs.mode = ModeChannel
	default:
		return nil, fmt.Errorf("unknown message mode %q", cfg.Mode)
	}
	return cs, nil
}

// Start 启动事件总线消费
func (cs *ChatServer) Start(ctx context.Context) error {
	zap.L().Info("chat server starting", zap.String("mode", cs.Broker.Mode()))
	return cs.Broker.Start(ctx, cs.deliver)
}

// Close 关闭所有本地连接和事件总线
func (cs *ChatServer) Close() error {
	for _, c := range cs.Registry.all() {
		c.Close()
	}
	return cs.Broker.Close()
}

// Register 登记连接，并在多实例模式下写入在线集合
func (cs *ChatServer) Register(ctx context.Context, c *UserConn) {
	cs.Registry.Register(c)
	metrics.WsConnections.Inc()
	if cs.presence != nil {
		if err := cs.presence.AddToSet(ctx, presenceKey(c.UserId), c.Id); err != nil {
			zap.L().Warn("presence add failed", zap.Uint64("user_id", c.UserId), zap.Error(err))
		}
	}
	zap.L().Info("ws connected", zap.Uint64("user_id", c.UserId), zap.String("conn_id", c.Id))
}

// Unregister 注销连接，在线集合的清理放到后台执行
func (cs *ChatServer) Unregister(c *UserConn) {
	userId, ok := cs.Registry.Unregister(c)
	if !ok {
		return
	}
	metrics.WsConnections.Dec()
	if cs.presence != nil {
		connId := c.Id
		cs.presence.SubmitTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := cs.presence.RemoveFromSet(ctx, presenceKey(userId), connId); err != nil {
				zap.L().Warn("presence remove failed", zap.Uint64("user_id", userId), zap.Error(err))
			}
		})
	}
	zap.L().Info("ws disconnected", zap.Uint64("user_id", userId), zap.String("conn_id", c.Id))
}

// IsOnline 本机能查到连接即在线；多实例模式下再查在线集合
func (cs *ChatServer) IsOnline(ctx context.Context, userId uint64) bool {
	if _, ok := cs.Registry.Lookup(userId); ok {
		return true
	}
	if cs.presence == nil {
		return false
	}
	n, err := cs.presence.SetSize(ctx, presenceKey(userId))
	if err != nil {
		zap.L().Warn("presence lookup failed", zap.Uint64("user_id", userId), zap.Error(err))
		return false
	}
	return n > 0
}

// Emit 向用户房间发送事件，经过事件总线到达所有实例
func (cs *ChatServer) Emit(ctx context.Context, userId uint64, event string, payload any) {
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		zap.L().Error("encode frame failed", zap.String("event", event), zap.Error(err))
		return
	}
	env := Envelope{UserId: userId, Event: event, Frame: frame}
	if err := cs.Broker.Publish(ctx, env); err != nil {
		metrics.BrokerPublishErrors.WithLabelValues(cs.Broker.Mode()).Inc()
		zap.L().Error("broker publish failed",
			zap.String("mode", cs.Broker.Mode()), zap.Uint64("user_id", userId), zap.String("event", event), zap.Error(err))
	}
}

// deliver 投递给本机房间内的全部连接
func (cs *ChatServer) deliver(env Envelope) {
	for _, c := range cs.Registry.Group(env.UserId) {
		if c.Send(env.Frame) {
			metrics.WsEventsOut.WithLabelValues(env.Event).Inc()
		}
	}
}

func presenceKey(userId uint64) string {
	return constants.ONLINE_USER_PREFIX + strconv.FormatUint(userId, 10)
}
