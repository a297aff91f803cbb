package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Adda-Baaj/hot-promos/internal/domain"
	"github.com/redis/go-redis/v9"
)

// redisStore keeps every record as a field of one hash named after the table.
type redisStore struct {
	client *redis.Client
	key    string
}

func openRedis(ctx context.Context, opts Options) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.RedisAddr,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.RedisAddr, err)
	}
	return newRedisStore(client, opts.Table), nil
}

func newRedisStore(client *redis.Client, table string) *redisStore {
	return &redisStore{client: client, key: "promos:" + table}
}

func (r *redisStore) ScanAll(ctx context.Context) ([]domain.Promo, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", r.key, err)
	}

	out := make([]domain.Promo, 0, len(fields))
	for id, raw := range fields {
		var rec domain.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode record %q: %w", id, err)
		}
		out = append(out, rec.Promo())
	}
	return out, nil
}

// Put uses HSETNX so an existing record is never replaced.
func (r *redisStore) Put(ctx context.Context, p domain.Promo) error {
	if err := checkPutable(p); err != nil {
		return err
	}
	payload, err := json.Marshal(domain.RecordFromPromo(p))
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := r.client.HSetNX(ctx, r.key, p.ID, payload).Err(); err != nil {
		return fmt.Errorf("hsetnx %s: %w", p.ID, err)
	}
	return nil
}

func (r *redisStore) Close() error {
	return r.client.Close()
}
