package cmd

import (
	"context"
	"fmt"

	"github.com/nrad-K/trend-crawler/internal/config"
	"github.com/redis/go-redis/v9"
)

// newRedisClientはRedisクライアントを生成し、接続を確認します。
func newRedisClient(ctx context.Context, secrets config.Secrets) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     secrets.RedisAddress,
		Password: secrets.RedisPassword,
		DB:       0,
	})
	// Redisへの接続を確認 (ping)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("Redisへの接続に失敗しました: %w", err)
	}
	return rdb, nil
}
