package testutil

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// GetTestRedisAddr returns the Redis address for tests and whether Redis answers there.
// REDIS_ADDR wins; otherwise the docker-compose and local defaults are probed in order.
func GetTestRedisAddr(t TestingTB) (string, bool) {
	t.Helper()

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr, pingRedis(t, addr)
	}
	for _, candidate := range []string{"redis:6379", "localhost:6379"} {
		if pingRedis(t, candidate) {
			return candidate, true
		}
	}
	return "localhost:56379", pingRedis(t, "localhost:56379")
}

func pingRedis(t TestingTB, addr string) bool {
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer func() {
		if err := client.Close(); err != nil {
			t.Logf("warning: failed to close redis client: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Logf("Redis not available at %s: %v", addr, err)
		return false
	}
	return true
}

// selectTestRedisDB reserves a DB index in [1..15] via a lock key in DB 0 so parallel
// test packages do not flush each other's data. TEST_REDIS_DB overrides the choice.
func selectTestRedisDB(t TestingTB, addr string) int {
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			return i
		}
		t.Logf("Invalid TEST_REDIS_DB=%q, falling back to auto-select", v)
	}

	meta := redis.NewClient(&redis.Options{Addr: addr, DB: 0})
	defer closeAndLog(t, "redis meta client", meta)

	for i := 1; i <= 15; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		lockKey := fmt.Sprintf("tern-admin:testutil:db_lock:%d", i)
		lockVal := fmt.Sprintf("%d:%d", os.Getpid(), time.Now().UnixNano())
		ok, err := meta.SetNX(ctx, lockKey, lockVal, 30*time.Minute).Result()
		cancel()
		if err != nil || !ok {
			continue
		}

		registerCleanup(t, func() {
			c := redis.NewClient(&redis.Options{Addr: addr, DB: 0})
			defer closeAndLog(t, "redis cleanup client", c)
			cctx, ccancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer ccancel()
			if derr := c.Del(cctx, lockKey).Err(); derr != nil {
				t.Logf("warning: failed to release redis db lock %s: %v", lockKey, derr)
			}
		})
		return i
	}

	t.Logf("Falling back to Redis DB=1 for tests at %s", addr)
	return 1
}

// SetupTestRedis returns a client on a flushed, reserved Redis DB.
// The test is skipped if Redis is not available.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	addr, ok := GetTestRedisAddr(t)
	if !ok {
		skipOrFail(t, requireRedis(), "Redis not available for testing")
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: selectTestRedisDB(t, addr)})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.FlushDB(ctx).Err(); err != nil {
		closeAndLog(t, "redis client", client)
		skipOrFail(t, requireRedis(), fmt.Sprintf("Redis not usable at %s:", addr), err)
		return nil
	}
	registerCleanup(t, func() { closeAndLog(t, "redis client", client) })
	return client
}
