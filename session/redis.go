package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps backend faults from [RedisStore].
var ErrRedisUnavailable = errors.New("redis unavailable")

// createScript performs sweep, cap eviction, and insert in one atomic
// step. KEYS[1] is the per-user index zset (scored by creation time,
// member = session id, so ZRANGE order matches the oldest-evicted policy
// with a deterministic lexical tie-break). Session hash keys are built
// from ARGV[1]; single-node deployments only.
var createScript = redis.NewScript(`
local userKey = KEYS[1]
local prefix = ARGV[1]
local now = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
local sid = ARGV[4]
local created = ARGV[5]
local expires = ARGV[6]
local user = ARGV[7]
local ip = ARGV[8]
local ua = ARGV[9]

local members = redis.call("ZRANGE", userKey, 0, -1)
for _, m in ipairs(members) do
  local exp = redis.call("HGET", prefix .. m, "expires")
  if not exp or tonumber(exp) <= now then
    redis.call("DEL", prefix .. m)
    redis.call("ZREM", userKey, m)
  end
end

local evicted = {}
while redis.call("ZCARD", userKey) >= max do
  local oldest = redis.call("ZRANGE", userKey, 0, 0)
  if not oldest[1] then
    break
  end
  redis.call("HSET", prefix .. oldest[1], "active", "0")
  redis.call("ZREM", userKey, oldest[1])
  evicted[#evicted + 1] = oldest[1]
end

redis.call("HSET", prefix .. sid,
  "user", user, "created", created, "expires", expires,
  "ip", ip, "ua", ua, "active", "1", "token", "")
redis.call("ZADD", userKey, tonumber(created), sid)
return evicted
`)

// RedisStore is a [Store] on Redis hashes plus a per-user index zset.
// It mirrors [MemoryStore] semantics: deactivated sessions stay readable
// until a sweep reclaims them, and cleanup is piggybacked on creation.
type RedisStore struct {
	client redis.UniversalClient
	config Config
	now    func() time.Time
}

// NewRedisStore creates a [RedisStore] backed by the given client.
func NewRedisStore(client redis.UniversalClient, cfg Config, now func() time.Time) *RedisStore {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxPerUser <= 0 {
		cfg.MaxPerUser = def.MaxPerUser
	}
	if cfg.RedisPrefix == "" {
		cfg.RedisPrefix = def.RedisPrefix
	}
	if now == nil {
		now = time.Now
	}

	return &RedisStore{client: client, config: cfg, now: now}
}

func (r *RedisStore) sessionKey(sessionID string) string {
	return r.config.RedisPrefix + "s:" + sessionID
}

func (r *RedisStore) userKey(userID string) string {
	return r.config.RedisPrefix + "u:" + userID
}

// Create implements [Store].
func (r *RedisStore) Create(ctx context.Context, userID, ip, userAgent string) (*Session, []string, error) {
	now := r.now()
	sess := &Session{
		ID:        NewID(now),
		UserID:    userID,
		Created:   now,
		Expires:   now.Add(r.config.Timeout),
		IP:        ip,
		UserAgent: userAgent,
		Active:    true,
	}

	res, err := createScript.Run(ctx, r.client,
		[]string{r.userKey(userID)},
		r.config.RedisPrefix+"s:",
		now.UnixMilli(),
		r.config.MaxPerUser,
		sess.ID,
		strconv.FormatInt(sess.Created.UnixMilli(), 10),
		strconv.FormatInt(sess.Expires.UnixMilli(), 10),
		userID,
		ip,
		userAgent,
	).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var evicted []string
	if members, ok := res.([]interface{}); ok {
		for _, m := range members {
			if id, ok := m.(string); ok {
				evicted = append(evicted, id)
			}
		}
	}

	return sess, evicted, nil
}

// Get implements [Store].
func (r *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	fields, err := r.client.HGetAll(ctx, r.sessionKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return decodeFields(sessionID, fields)
}

// AttachToken implements [Store].
func (r *RedisStore) AttachToken(ctx context.Context, sessionID, token string) error {
	key := r.sessionKey(sessionID)

	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if exists == 0 {
		return ErrNotFound
	}

	if err := r.client.HSet(ctx, key, "token", token).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Deactivate implements [Store].
func (r *RedisStore) Deactivate(ctx context.Context, sessionID string) error {
	key := r.sessionKey(sessionID)

	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(fields) == 0 {
		return nil
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, "active", "0")
	pipe.ZRem(ctx, r.userKey(fields["user"]), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// ActiveCountFor implements [Store].
func (r *RedisStore) ActiveCountFor(ctx context.Context, userID string) (int, error) {
	now := r.now()

	members, err := r.client.ZRange(ctx, r.userKey(userID), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	count := 0
	for _, id := range members {
		sess, err := r.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if sess.Usable(now) {
			count++
		}
	}
	return count, nil
}

// ActiveSessions implements [Store].
func (r *RedisStore) ActiveSessions(ctx context.Context) ([]*Session, error) {
	now := r.now()
	pattern := r.config.RedisPrefix + "s:*"

	var out []*Session
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		for _, key := range keys {
			id := key[len(r.config.RedisPrefix)+2:]
			sess, err := r.Get(ctx, id)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if sess.Usable(now) {
				out = append(out, sess)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return out, nil
}

// Sweep implements [Store].
func (r *RedisStore) Sweep(ctx context.Context) (int, error) {
	now := r.now()
	pattern := r.config.RedisPrefix + "s:*"

	dropped := 0
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return dropped, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		for _, key := range keys {
			id := key[len(r.config.RedisPrefix)+2:]
			sess, err := r.Get(ctx, id)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return dropped, err
			}
			if !now.Before(sess.Expires) {
				pipe := r.client.TxPipeline()
				pipe.Del(ctx, key)
				pipe.ZRem(ctx, r.userKey(sess.UserID), id)
				if _, err := pipe.Exec(ctx); err != nil {
					return dropped, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
				}
				dropped++
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return dropped, nil
}

func decodeFields(sessionID string, fields map[string]string) (*Session, error) {
	createdMS, err := strconv.ParseInt(fields["created"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt session %s: bad created", sessionID)
	}
	expiresMS, err := strconv.ParseInt(fields["expires"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt session %s: bad expires", sessionID)
	}

	return &Session{
		ID:        sessionID,
		UserID:    fields["user"],
		Token:     fields["token"],
		Created:   time.UnixMilli(createdMS),
		Expires:   time.UnixMilli(expiresMS),
		IP:        fields["ip"],
		UserAgent: fields["ua"],
		Active:    fields["active"] == "1",
	}, nil
}
