// Package redis 提供 Redis 缓存操作的封装
// 使用 github.com/redis/go-redis/v9 作为底层客户端
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"market_chat_server/internal/config"

	"github.com/redis/go-redis/v9"
)

// Init 按配置建立 Redis 连接并启动缓存 worker
// Host 为空时返回 nil, nil，调用方据此关闭缓存与在线状态功能
func Init(ctx context.Context, cfg *config.RedisConfig) (*RedisCache, error) {
	if cfg.Host == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.Db,
		PoolSize:     50, // 最大连接数
		MinIdleConns: 8,  // 与 Worker 数量匹配
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", client.Options().Addr, err)
	}

	return NewRedisCache(client, 8, 1000), nil
}
