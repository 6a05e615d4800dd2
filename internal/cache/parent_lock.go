package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultParentLockTTL  = 5 * time.Second
	parentLockRetryPeriod = 25 * time.Millisecond
)

// ErrLockNotAcquired 等待超时仍未拿到锁
var ErrLockNotAcquired = errors.New("parent lock not acquired")

// 仅当锁仍由当前持有者持有时才删除
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// lockClient 父商品锁需要的 Redis 能力，*redis.Client 满足
type lockClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	redis.Scripter
}

// RedisParentLocker 基于 SET NX 的跨进程父商品锁
type RedisParentLocker struct {
	client lockClient
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisParentLocker 创建 Redis 父商品锁，Redis 未启用时返回 nil
func NewRedisParentLocker(ttl time.Duration) *RedisParentLocker {
	if !Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultParentLockTTL
	}
	return newRedisParentLocker(redisClient, ttl, ttl)
}

func newRedisParentLocker(client lockClient, ttl, wait time.Duration) *RedisParentLocker {
	return &RedisParentLocker{client: client, ttl: ttl, wait: wait}
}

func parentLockKey(parentID uint) string {
	return buildKey(fmt.Sprintf("lock:catalog:parent:%d", parentID))
}

// Lock 获取父商品锁，最多等待一个 TTL 周期
func (l *RedisParentLocker) Lock(parentID uint) (func(), error) {
	key := parentLockKey(parentID)
	token := uuid.NewString()
	ctx := context.Background()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: parent %d", ErrLockNotAcquired, parentID)
		}
		time.Sleep(parentLockRetryPeriod)
	}

	return func() {
		_ = releaseLockScript.Run(context.Background(), l.client, []string{key}, token).Err()
	}, nil
}
