// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"silicon-chat-go/pkg/websearch"
)

// SearchCache 缓存网络搜索结果，降低对外部搜索 API 的重复调用。
// Redis 客户端为 nil 时所有操作都是空操作（缓存可选）。
type SearchCache interface {
	Get(ctx context.Context, query string, count int, freshness string) (*websearch.SearchResult, bool)
	Set(ctx context.Context, query string, count int, freshness string, result websearch.SearchResult)
}

type redisSearchCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSearchCache 创建搜索结果缓存。
func NewSearchCache(rdb *redis.Client, ttl time.Duration) SearchCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &redisSearchCache{rdb: rdb, ttl: ttl}
}

func cacheKey(query string, count int, freshness string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%d|%s", query, count, freshness)))
	return fmt.Sprintf("websearch:%x", sum)
}

func (c *redisSearchCache) Get(ctx context.Context, query string, count int, freshness string) (*websearch.SearchResult, bool) {
	if c.rdb == nil {
		return nil, false
	}
	jsonData, err := c.rdb.Get(ctx, cacheKey(query, count, freshness)).Result()
	if err != nil {
		return nil, false
	}
	var result websearch.SearchResult
	if err := json.Unmarshal([]byte(jsonData), &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (c *redisSearchCache) Set(ctx context.Context, query string, count int, freshness string, result websearch.SearchResult) {
	if c.rdb == nil || !result.Success {
		return
	}
	jsonData, err := json.Marshal(result)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, cacheKey(query, count, freshness), jsonData, c.ttl).Err()
}
