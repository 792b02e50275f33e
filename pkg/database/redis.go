package database

import (
	"context"

	"github.com/go-redis/redis/v8"

	"silicon-chat-go/pkg/log"
)

var RDB *redis.Client

// InitRedis 初始化 Redis 客户端连接。
// Redis 在本服务中只承担搜索结果缓存，连接失败不阻止启动。
func InitRedis(addr, password string, db int) {
	RDB = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := RDB.Ping(ctx).Err(); err != nil {
		log.Warnf("Redis 连接失败，搜索结果缓存已禁用: %v", err)
		RDB = nil
		return
	}

	log.Info("Redis client connected successfully")
}
