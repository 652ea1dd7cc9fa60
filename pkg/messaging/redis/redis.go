package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/records-api/pkg/circuitbreaker"
	"github.com/jwalitptl/records-api/pkg/messaging"
)

type Config struct {
	URL          string
	PoolSize     int
	MinIdleConns int
}

type RedisPublisher struct {
	client *redis.Client
	cb     *circuitbreaker.CircuitBreaker
	logger *zerolog.Logger
}

func NewRedisPublisher(config Config, logger *zerolog.Logger) (messaging.Publisher, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = config.PoolSize
	opts.MinIdleConns = config.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:        "redis-publisher",
		MaxFailures: 5,
		Timeout:     10 * time.Second,
	})

	return &RedisPublisher{
		client: client,
		cb:     cb,
		logger: logger,
	}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = p.cb.Execute(func() error {
		return p.client.Publish(ctx, channel, payload).Err()
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("channel", channel).Msg("failed to publish message")
		return err
	}

	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
