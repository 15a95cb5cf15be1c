package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"MarketLens/internal/domain/models"
	drepo "MarketLens/internal/domain/repository"
)

// RedisArchive keeps recent request/response pairs in Redis with a TTL.
// Entries are write-only from this process; operators inspect them with
// ordinary Redis tooling.
type RedisArchive struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type archiveEntry struct {
	Request  models.AnalyzeRequest `json:"request"`
	Rendered string                `json:"rendered"`
	SavedAt  time.Time             `json:"saved_at"`
}

func NewRedisArchive(addr, password string, db int, prefix string, ttl time.Duration) (drepo.ReportArchive, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if prefix == "" {
		prefix = "report"
	}
	return &RedisArchive{client: client, prefix: prefix, ttl: ttl}, nil
}

func (a *RedisArchive) Save(ctx context.Context, req models.AnalyzeRequest, rendered string) error {
	entry := archiveEntry{Request: req, Rendered: rendered, SavedAt: time.Now().UTC()}
	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal archive entry: %w", err)
	}
	key := fmt.Sprintf("%s:%s:%d", a.prefix, req.Symbol, time.Now().UnixNano())
	if err := a.client.Set(ctx, key, b, a.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (a *RedisArchive) Close() error {
	return a.client.Close()
}
