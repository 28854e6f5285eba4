// Package redis 提供 CacheService 接口的 Redis 实现
package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"market_chat_server/pkg/errorx"
)

// RedisCache Redis 缓存实现，同时实现 CacheService 和 AsyncCacheService
type RedisCache struct {
	client    *redis.Client
	taskChan  chan func()
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewRedisCache 创建 Redis 缓存实例并启动 Worker Pool
func NewRedisCache(client *redis.Client, workerNum, taskChanSize int) *RedisCache {
	rc := &RedisCache{
		client:   client,
		taskChan: make(chan func(), taskChanSize),
	}
	for i := 0; i < workerNum; i++ {
		rc.wg.Add(1)
		go rc.startWorker()
	}
	zap.L().Info("Redis Cache Workers started", zap.Int("workers", workerNum), zap.Int("buffer", taskChanSize))
	return rc
}

// startWorker 单个 Worker 消费循环，任务 panic 不会拖垮 worker
func (r *RedisCache) startWorker() {
	defer r.wg.Done()
	for task := range r.taskChan {
		r.run(task)
	}
}

func (r *RedisCache) run(task func()) {
	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Error("Redis Worker panic", zap.Any("recover", rec))
		}
	}()
	task()
}

// Client 底层客户端，供发布订阅使用
func (r *RedisCache) Client() *redis.Client {
	return r.client
}

// ==================== String 操作 ====================

// Set 设置键值对并指定过期时间
func (r *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis set key %s", key)
	}
	return nil
}

// Get 获取键对应的值（键不存在返回空字符串和 nil）
func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", errorx.Wrapf(err, errorx.CodeCacheError, "redis get key %s", key)
	}
	return value, nil
}

// Incr 原子自增
func (r *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, errorx.Wrapf(err, errorx.CodeCacheError, "redis incr key %s", key)
	}
	return n, nil
}

// ==================== Key 操作 ====================

// Delete 删除键，不存在的键忽略
func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Unlink(ctx, keys...).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis unlink keys %v", keys)
	}
	return nil
}

// ==================== Set 集合操作 ====================

// AddToSet 向集合添加成员
func (r *RedisCache) AddToSet(ctx context.Context, key string, members ...interface{}) error {
	if err := r.client.SAdd(ctx, key, members...).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis sadd key %s", key)
	}
	return nil
}

// RemoveFromSet 从集合中移除成员
func (r *RedisCache) RemoveFromSet(ctx context.Context, key string, members ...interface{}) error {
	if err := r.client.SRem(ctx, key, members...).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis srem key %s", key)
	}
	return nil
}

// SetSize 集合成员数
func (r *RedisCache) SetSize(ctx context.Context, key string) (int64, error) {
	n, err := r.client.SCard(ctx, key).Result()
	if err != nil {
		return 0, errorx.Wrapf(err, errorx.CodeCacheError, "redis scard key %s", key)
	}
	return n, nil
}

// ==================== 异步任务 ====================

// SubmitTask 提交异步缓存任务，队列满时降级为同步执行
func (r *RedisCache) SubmitTask(action func()) {
	select {
	case r.taskChan <- action:
	default:
		zap.L().Warn("Redis cache task channel full, executing synchronously")
		r.run(action)
	}
}

// Close 停止 worker 并关闭连接，已入队的任务会执行完
func (r *RedisCache) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.taskChan)
		r.wg.Wait()
		err = r.client.Close()
	})
	return err
}

// 确保 RedisCache 实现了 AsyncCacheService 接口
var _ AsyncCacheService = (*RedisCache)(nil)
