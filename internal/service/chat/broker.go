// Package chat 实现实时网关：连接管理、事件分发以及跨实例的事件总线
package chat

import (
	"context"
	"errors"
)

var errBrokerClosed = errors.New("broker closed")

// MessageBroker 事件总线
// 所有发往用户房间的事件都经过总线，每个实例把收到的事件投递给本机连接
// 实现：ChannelBroker (单机)、RedisBroker (Redis Pub/Sub)、KafkaBroker (Kafka)
type MessageBroker interface {
	// Publish 发布一条事件
	Publish(ctx context.Context, env Envelope) error
	// Start 启动消费循环，deliver 在消费协程中被调用
	Start(ctx context.Context, deliver func(Envelope)) error
	// Close 关闭代理资源
	Close() error
	// Mode 运行模式名，用于日志和指标
	Mode() string
}
