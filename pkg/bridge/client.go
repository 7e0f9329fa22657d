package bridge

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is a trimmed Redis wrapper exposing only the pub/sub and list
// primitives pkg/bridge needs: Subscribe/Publish/LPush/BRPop.
type Client struct {
	rdb *redis.Client
	ctx context.Context
}

// NewClient connects to addr and pings it, returning an error if Redis is
// unreachable.
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Client{rdb: rdb, ctx: ctx}, nil
}

// Publish publishes payload to channel.
func (c *Client) Publish(channel string, payload []byte) error {
	return c.rdb.Publish(c.ctx, channel, payload).Err()
}

// Subscribe subscribes to channel, returning a message channel and a
// close function.
func (c *Client) Subscribe(channel string) (<-chan *redis.Message, func()) {
	pubsub := c.rdb.Subscribe(c.ctx, channel)
	ch := pubsub.Channel()
	return ch, func() { pubsub.Close() }
}

// LPush pushes payload onto the list at key.
func (c *Client) LPush(key string, payload []byte) error {
	if err := c.rdb.LPush(c.ctx, key, payload).Err(); err != nil {
		log.Printf("Failed to LPUSH to key %s: %v", key, err)
		return err
	}
	return nil
}

// BRPop blocks up to timeout (0 means forever) popping one element from
// key. It returns (nil, nil) on timeout rather than an error.
func (c *Client) BRPop(timeout time.Duration, key string) ([]byte, error) {
	result, err := c.rdb.BRPop(c.ctx, timeout, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		log.Printf("Error during BRPOP on key %s: %v", key, err)
		return nil, err
	}
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected result from BRPOP: %v", result)
	}
	return []byte(result[1]), nil
}

// Close closes the underlying Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
