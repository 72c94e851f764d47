package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ivankudzin/tagbot/internal/domain/model"
)

const ruleCacheKey = "tags:rules"

// ErrCacheMiss is returned when the rule snapshot is absent.
var ErrCacheMiss = errors.New("rule cache miss")

// RuleCacheRepo holds the serialized tag rule snapshot the bot reads on
// every message. The registry invalidates it synchronously on writes.
type RuleCacheRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRuleCacheRepo(client *goredis.Client, ttl time.Duration) *RuleCacheRepo {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RuleCacheRepo{client: client, ttl: ttl}
}

func (r *RuleCacheRepo) Get(ctx context.Context) ([]model.TagRule, error) {
	if r.client == nil {
		return nil, ErrCacheMiss
	}

	data, err := r.client.Get(ctx, ruleCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("get rule cache: %w", err)
	}

	var rules []model.TagRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("decode rule cache: %w", err)
	}

	return rules, nil
}

func (r *RuleCacheRepo) Set(ctx context.Context, rules []model.TagRule) error {
	if r.client == nil {
		return nil
	}

	data, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("encode rule cache: %w", err)
	}

	if err := r.client.Set(ctx, ruleCacheKey, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set rule cache: %w", err)
	}

	return nil
}

func (r *RuleCacheRepo) Invalidate(ctx context.Context) error {
	if r.client == nil {
		return nil
	}

	if err := r.client.Del(ctx, ruleCacheKey).Err(); err != nil {
		return fmt.Errorf("invalidate rule cache: %w", err)
	}

	return nil
}
