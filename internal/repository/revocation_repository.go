package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// markRevokedScript raises the stored cutoff and never shortens the entry's
// lifetime. A key without expiry stays without expiry.
//
//	KEYS[1] ledger key
//	ARGV[1] cutoff, unix milliseconds
//	ARGV[2] ttl, milliseconds
var markRevokedScript = redis.NewScript(`
	local key = KEYS[1]
	local cutoff = tonumber(ARGV[1])
	local ttl_ms = tonumber(ARGV[2])

	local current = tonumber(redis.call('GET', key))
	if current ~= nil and current > cutoff then
		cutoff = current
	end

	local remaining = redis.call('PTTL', key)
	if current ~= nil and remaining == -1 then
		redis.call('SET', key, cutoff)
		return cutoff
	end
	if remaining > ttl_ms then
		ttl_ms = remaining
	end

	redis.call('SET', key, cutoff, 'PX', ttl_ms)
	return cutoff
`)

// RevocationRepo is the redis-backed revocation ledger. One key per
// username holds the not-valid-before instant in unix milliseconds.
type RevocationRepo struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRevocationRepo(rdb redis.UniversalClient, prefix string) *RevocationRepo {
	if prefix == "" {
		prefix = "revoked"
	}
	return &RevocationRepo{rdb: rdb, prefix: prefix}
}

func (r *RevocationRepo) key(username string) string {
	return r.prefix + ":" + username
}

// MarkRevokedAfter stores max(existing, notBefore) for username with a TTL
// of at least ttl. The read-compare-write is one script, so concurrent
// logouts and credential changes keep the latest cutoff.
func (r *RevocationRepo) MarkRevokedAfter(ctx context.Context, username string, notBefore time.Time, ttl time.Duration) (time.Time, error) {
	if ttl < time.Second {
		ttl = time.Second
	}
	ms, err := markRevokedScript.Run(ctx, r.rdb, []string{r.key(username)},
		notBefore.UnixMilli(), ttl.Milliseconds()).Int64()
	if err != nil {
		return time.Time{}, fmt.Errorf("mark revoked %q: %w", username, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

// Get returns the cutoff for username. A missing key is not an error.
func (r *RevocationRepo) Get(ctx context.Context, username string) (time.Time, bool, error) {
	raw, err := r.rdb.Get(ctx, r.key(username)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read revocation %q: %w", username, err)
	}
	// Lua may hand numbers back to redis in float notation.
	ms, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt revocation entry %q: %w", username, err)
	}
	return time.UnixMilli(int64(ms)).UTC(), true, nil
}
