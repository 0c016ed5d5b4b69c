package gate

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGate shares the token set across processes using SET NX. The key TTL
// is a safety net: a crashed process must not wedge its chats forever.
type RedisGate struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGate(client *redis.Client, ttl time.Duration) *RedisGate {
	return &RedisGate{client: client, ttl: ttl}
}

func (g *RedisGate) TryAcquire(ctx context.Context, chatID int64) (*Token, error) {
	key := lockKey(chatID)

	locked, err := g.client.SetNX(ctx, key, "1", g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("gate acquire for chat %d: %w", chatID, err)
	}
	if !locked {
		return nil, ErrBusy
	}

	return &Token{chatID: chatID, release: g.releaseChat}, nil
}

func (g *RedisGate) releaseChat(chatID int64) {
	// Detached context: release must run even when the request context is
	// already cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := g.client.Del(ctx, lockKey(chatID)).Err(); err != nil {
		log.Printf("Failed to release gate key for chat %d: %v", chatID, err)
	}
}

func lockKey(chatID int64) string {
	return fmt.Sprintf("chat_lock:%d", chatID)
}
