// Package cache short-circuits repeat /process requests. Keys are exact
// matches over the prompt plus the canonical JSON of the input table; a hit
// skips both model calls.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tableflow/llm-backend/internal/models"
)

const defaultTTL = 24 * time.Hour

type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(redisURL string) (*ResponseCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	return &ResponseCache{client: redis.NewClient(opt), ttl: defaultTTL}, nil
}

// Key derives the cache key. encoding/json sorts map keys, so two requests
// with the same rows always hash identically.
func Key(prompt string, rows []models.TableRow) string {
	table, _ := json.Marshal(rows)
	sum := sha256.Sum256(append([]byte(prompt+"\x00"), table...))
	return fmt.Sprintf("process:response:%x", sum)
}

func (c *ResponseCache) Get(ctx context.Context, prompt string, rows []models.TableRow) (*models.ProcessResponse, bool) {
	raw, err := c.client.Get(ctx, Key(prompt, rows)).Result()
	if err != nil {
		return nil, false
	}

	var resp models.ProcessResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (c *ResponseCache) Set(ctx context.Context, prompt string, rows []models.TableRow, resp *models.ProcessResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, Key(prompt, rows), raw, c.ttl).Err()
}

func (c *ResponseCache) Close() error {
	return c.client.Close()
}
