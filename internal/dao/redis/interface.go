// Package redis 会话列表缓存与在线状态集合
// Service 层只依赖这里的接口，Redis 未配置时传 nil
package redis

import (
	"context"
	"time"
)

// CacheService 缓存操作
type CacheService interface {
	// Set 写入字符串值，ttl 为 0 表示不过期
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Get 键不存在时返回 "" 和 nil
	Get(ctx context.Context, key string) (string, error)
	// Delete 一次删除多个键，不存在的键忽略
	Delete(ctx context.Context, keys ...string) error
	// Incr 计数器加一并返回新值，键不存在时从 0 开始
	Incr(ctx context.Context, key string) (int64, error)

	AddToSet(ctx context.Context, key string, members ...interface{}) error
	RemoveFromSet(ctx context.Context, key string, members ...interface{}) error
	// SetSize 集合成员数，键不存在时为 0
	SetSize(ctx context.Context, key string) (int64, error)
}

// AsyncCacheService 附带后台任务队列
// 连接断开后的在线状态清理等不阻塞调用方的操作走 SubmitTask
type AsyncCacheService interface {
	CacheService
	SubmitTask(action func())
}
