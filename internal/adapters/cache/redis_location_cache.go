package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"smartip-service/internal/domain"
)

// RedisLocationCache is a TTL-bounded cache mapping IP addresses to
// resolved locations, stored as JSON values.
type RedisLocationCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisLocationCache(client *redis.Client, ttl time.Duration) *RedisLocationCache {
	return &RedisLocationCache{Client: client, TTL: ttl}
}

func (r *RedisLocationCache) key(ip string) string {
	return "smartip:location:" + ip
}

// Fetch cached locations for the given IPs with one MGET.
func (r *RedisLocationCache) GetMany(ctx context.Context, ips []string) (map[string]domain.Location, error) {
	if r.Client == nil {
		return nil, errors.New("location cache: redis client is nil")
	}

	if len(ips) == 0 {
		return map[string]domain.Location{}, nil
	}

	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(ips))
	keys := make([]string, 0, len(ips))
	for _, ip := range ips {
		ip = strings.TrimSpace(ip)
		if ip == "" {
			continue
		}

		if _, ok := seen[ip]; ok {
			continue
		}
		seen[ip] = struct{}{}
		uniq = append(uniq, ip)
		keys = append(keys, r.key(ip))
	}

	if len(uniq) == 0 {
		return map[string]domain.Location{}, nil
	}

	values, err := r.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get location cache: redis mget: %w", err)
	}

	out := make(map[string]domain.Location, len(uniq))
	for i, v := range values {
		if v == nil {
			continue
		}

		raw, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("get location cache: unexpected value type for %q", uniq[i])
		}

		var loc domain.Location
		if err := json.Unmarshal([]byte(raw), &loc); err != nil {
			return nil, fmt.Errorf("get location cache: decode %q: %w", uniq[i], err)
		}
		out[uniq[i]] = loc
	}

	return out, nil
}

// Store ip -> location mappings with the configured TTL.
func (r *RedisLocationCache) PutMany(ctx context.Context, results map[string]domain.Location) error {
	if r.Client == nil {
		return errors.New("location cache: redis client is nil")
	}

	if len(results) == 0 {
		return nil
	}

	pipe := r.Client.Pipeline()
	for ip, loc := range results {
		if strings.TrimSpace(ip) == "" {
			return fmt.Errorf("insert location cache: empty ip key")
		}

		raw, err := json.Marshal(loc)
		if err != nil {
			return fmt.Errorf("insert location cache ip=%q: encode: %w", ip, err)
		}

		pipe.Set(ctx, r.key(ip), raw, r.TTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert location cache: redis pipeline: %w", err)
	}

	return nil
}
