package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/pantry/internal/core/domain"
)

const (
	redisItemPrefix   = "item:"
	redisNamesKey     = "items"
	idempotencyKeyTTL = 24 * time.Hour
)

// Each item is a hash {quantity, description}; the set redisNamesKey indexes names.
// The quantity stays a string so Lua never turns it into a double.
var mergeAddScript = redis.NewScript(`
local key = KEYS[1]
local names = KEYS[2]

if redis.call('EXISTS', key) == 1 then
	local res = redis.pcall('HINCRBY', key, 'quantity', ARGV[1])
	if type(res) == 'table' and res.err then
		if string.find(res.err, 'overflow', 1, true) then
			return redis.error_reply('OVERFLOW')
		end
		return res
	end
else
	redis.call('HSET', key, 'quantity', ARGV[1], 'description', ARGV[2])
end
redis.call('SADD', names, ARGV[3])
return 1
`)

const overflowReply = "OVERFLOW"

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func redisItemKey(name string) string {
	return redisItemPrefix + name
}

func (r *RedisAdapter) ListAll(ctx context.Context) ([]domain.InventoryItem, error) {
	names, err := r.client.SMembers(ctx, redisNamesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list names: %w", err)
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(names))
	for i, name := range names {
		cmds[i] = pipe.HGetAll(ctx, redisItemKey(name))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load items: %w", err)
	}

	items := make([]domain.InventoryItem, 0, len(names))
	for i, name := range names {
		fields, err := cmds[i].Result()
		if err != nil {
			return nil, fmt.Errorf("load item %q: %w", name, err)
		}
		if len(fields) == 0 {
			// Index entry outlived its hash.
			continue
		}
		rec, err := decodeHash(fields)
		if err != nil {
			return nil, fmt.Errorf("decode item %q: %w", name, err)
		}
		items = append(items, rec.Item(name))
	}
	return items, nil
}

func (r *RedisAdapter) GetOne(ctx context.Context, name string) (domain.Record, bool, error) {
	fields, err := r.client.HGetAll(ctx, redisItemKey(name)).Result()
	if err != nil {
		return domain.Record{}, false, fmt.Errorf("get item: %w", err)
	}
	if len(fields) == 0 {
		return domain.Record{}, false, nil
	}
	rec, err := decodeHash(fields)
	if err != nil {
		return domain.Record{}, false, fmt.Errorf("decode item: %w", err)
	}
	return rec, true, nil
}

func (r *RedisAdapter) Upsert(ctx context.Context, name string, record domain.Record) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, redisItemKey(name), "quantity", record.Quantity, "description", record.Description)
		pipe.SAdd(ctx, redisNamesKey, name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

func (r *RedisAdapter) Delete(ctx context.Context, name string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, redisItemKey(name))
		pipe.SRem(ctx, redisNamesKey, name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

func (r *RedisAdapter) MergeAdd(ctx context.Context, name string, quantity int, description string) error {
	keys := []string{redisItemKey(name), redisNamesKey}
	err := mergeAddScript.Run(ctx, r.client, keys, strconv.Itoa(quantity), description, name).Err()
	if err != nil {
		if strings.Contains(err.Error(), overflowReply) {
			return domain.OverflowError(quantity)
		}
		return fmt.Errorf("merge item: %w", err)
	}
	return nil
}

func decodeHash(fields map[string]string) (domain.Record, error) {
	q, err := strconv.Atoi(fields["quantity"])
	if err != nil {
		return domain.Record{}, fmt.Errorf("quantity %q: %w", fields["quantity"], err)
	}
	return domain.Record{Quantity: q, Description: fields["description"]}, nil
}

// RedisIdempotency claims request keys with SETNX.
type RedisIdempotency struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIdempotency(client *redis.Client) *RedisIdempotency {
	return &RedisIdempotency{client: client, ttl: idempotencyKeyTTL}
}

func (r *RedisIdempotency) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, "idempotency:"+key, 1, r.ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (r *RedisIdempotency) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, "idempotency:"+key).Err()
}
