package chat

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBroker 通过 Redis Pub/Sub 在多个实例之间广播事件
type RedisBroker struct {
	client  *redis.Client
	channel string

	mu     sync.Mutex
	pubsub *redis.PubSub
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRedisBroker 创建 RedisBroker
func NewRedisBroker(client *redis.Client, channel string) *RedisBroker {
	return &RedisBroker{client: client, channel: channel}
}

// Publish 序列化后发布到频道
func (b *RedisBroker) Publish(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, data).Err()
}

// Start 订阅频道，确认订阅成功后才返回
func (b *RedisBroker) Start(ctx context.Context, deliver func(Envelope)) error {
	ctx, cancel := context.WithCancel(ctx)
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return err
	}

	b.mu.Lock()
	b.pubsub, b.cancel = pubsub, cancel
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range pubsub.Channel() {
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				zap.L().Error("redis broker: bad payload", zap.Error(err))
				continue
			}
			safeDeliver(deliver, env)
		}
	}()
	zap.L().Info("redis broker subscribed", zap.String("channel", b.channel))
	return nil
}

// Close 取消订阅
func (b *RedisBroker) Close() error {
	b.mu.Lock()
	pubsub, cancel := b.pubsub, b.cancel
	b.pubsub, b.cancel = nil, nil
	b.mu.Unlock()
	if pubsub == nil {
		return nil
	}
	cancel()
	err := pubsub.Close()
	b.wg.Wait()
	return err
}

func (b *RedisBroker) Mode() string { return "redis" }
