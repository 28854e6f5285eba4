package chat

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// ChannelBroker 单机模式，不依赖外部消息队列
// 单一消费协程保证同一实例内事件的投递顺序与发布顺序一致
type ChannelBroker struct {
	transmit  chan Envelope
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewChannelBroker 创建 ChannelBroker
func NewChannelBroker(size int) *ChannelBroker {
	return &ChannelBroker{
		transmit: make(chan Envelope, size),
		quit:     make(chan struct{}),
	}
}

// Publish 放入转发通道，通道满时阻塞直到 ctx 结束
func (b *ChannelBroker) Publish(ctx context.Context, env Envelope) error {
	select {
	case <-b.quit:
		return errBrokerClosed
	default:
	}
	select {
	case b.transmit <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-b.quit:
		return errBrokerClosed
	}
}

// Start 启动转发循环
func (b *ChannelBroker) Start(_ context.Context, deliver func(Envelope)) error {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case env := <-b.transmit:
				safeDeliver(deliver, env)
			case <-b.quit:
				return
			}
		}
	}()
	return nil
}

// Close 停止转发循环
func (b *ChannelBroker) Close() error {
	b.closeOnce.Do(func() { close(b.quit) })
	b.wg.Wait()
	return nil
}

func (b *ChannelBroker) Mode() string { return "channel" }

// safeDeliver 投递时的 panic 不能打断消费循环
func safeDeliver(deliver func(Envelope), env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("deliver panic", zap.Any("recover", r), zap.Uint64("user_id", env.UserId))
		}
	}()
	deliver(env)
}
