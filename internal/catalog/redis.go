package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultRedisPrefix is the key prefix of stored templates
const DefaultRedisPrefix = "template:"

// Redis stores templates as JSON values under prefixed keys
type Redis struct {
	client redis.UniversalClient
	prefix string
	logger *zap.Logger
}

// NewRedis creates a Redis catalog. An empty prefix uses DefaultRedisPrefix.
func NewRedis(client redis.UniversalClient, prefix string, logger *zap.Logger) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (r *Redis) key(id string) string {
	return r.prefix + id
}

// Read loads a template
func (r *Redis) Read(ctx context.Context, id string) (*Template, error) {
	data, err := r.client.Get(ctx, r.key(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load template: %w", err)
	}

	var t Template
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template: %w", err)
	}
	if t.ID == "" {
		t.ID = id
	}

	return &t, nil
}

// Save stores a template, keeping the original creation time
func (r *Redis) Save(ctx context.Context, t *Template) error {
	if t == nil || t.ID == "" {
		return fmt.Errorf("template id is required")
	}

	stored := clone(t)
	now := time.Now().UTC()
	stored.UpdatedAt = now
	if existing, err := r.Read(ctx, t.ID); err == nil {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}

	if err := r.client.Set(ctx, r.key(t.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}

	r.logger.Debug("template saved", zap.String("template_id", t.ID))
	return nil
}

// Delete removes a template
func (r *Redis) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, r.key(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// List returns all templates under the prefix ordered by id
func (r *Redis) List(ctx context.Context) ([]*Template, error) {
	var ids []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), r.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	out := make([]*Template, 0, len(ids))
	for _, id := range ids {
		t, err := r.Read(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// deleted between scan and read
				continue
			}
			return nil, err
		}
		out = append(out, t)
	}

	sortByID(out)
	return out, nil
}

// Search returns templates matching query
func (r *Redis) Search(ctx context.Context, query string) ([]*Template, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return filter(all, query), nil
}
