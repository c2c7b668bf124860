package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
	"mediahub/infrastructure/logger"
)

// NewCache connects to redis and verifies the connection with a ping.
func NewCache(ctx context.Context, addr, username, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.GetLogger().WithField("error", err).WithField("addr", addr).Error("Error while connecting to redis")
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
