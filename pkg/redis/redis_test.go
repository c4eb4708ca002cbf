package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	pkgerrors "contest-core/pkg/errors"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewFromUniversal(rdb, zap.NewNop()), mr
}

func TestAcquireLock_Exclusive(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	lock, err := c.AcquireLock(ctx, "participation:p1", time.Second)
	if err != nil {
		t.Fatalf("首次获取锁应成功: %v", err)
	}

	if _, err := c.AcquireLock(ctx, "participation:p1", time.Second); !errors.Is(err, pkgerrors.ErrLockNotAcquired) {
		t.Fatalf("锁被占用时期望 ErrLockNotAcquired，实际: %v", err)
	}

	if _, err := c.AcquireLock(ctx, "participation:p2", time.Second); err != nil {
		t.Fatalf("不同参赛者的锁互不影响: %v", err)
	}

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("释放锁失败: %v", err)
	}
	if _, err := c.AcquireLock(ctx, "participation:p1", time.Second); err != nil {
		t.Fatalf("释放后应可重新获取: %v", err)
	}
}

func TestLock_ReleaseDoesNotStealOthers(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	stale, err := c.AcquireLock(ctx, "participation:p1", time.Second)
	if err != nil {
		t.Fatalf("获取锁失败: %v", err)
	}

	// 锁过期后被其他请求获取
	mr.FastForward(2 * time.Second)
	if _, err := c.AcquireLock(ctx, "participation:p1", time.Second); err != nil {
		t.Fatalf("过期后应可获取: %v", err)
	}

	if err := stale.Release(ctx); err != nil {
		t.Fatalf("释放过期锁不应报错: %v", err)
	}
	if !mr.Exists(lockPrefix + "participation:p1") {
		t.Error("释放过期锁不应删除他人持有的锁")
	}
}

func TestCheckRateLimit(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := c.CheckRateLimit(ctx, "rl:test", 3, time.Minute)
		if err != nil {
			t.Fatalf("限流检查失败: %v", err)
		}
		if !ok {
			t.Fatalf("第 %d 次请求应放行", i+1)
		}
	}

	ok, err := c.CheckRateLimit(ctx, "rl:test", 3, time.Minute)
	if err != nil {
		t.Fatalf("限流检查失败: %v", err)
	}
	if ok {
		t.Error("超过限额的请求应被拒绝")
	}
}

func TestBlacklist(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	if err := c.BlacklistToken(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("加入黑名单失败: %v", err)
	}
	if err := c.BlacklistToken(ctx, "jti-expired", 0); err != nil {
		t.Fatalf("过期 Token 不应报错: %v", err)
	}

	if ok, _ := c.IsBlacklisted(ctx, "jti-1"); !ok {
		t.Error("jti-1 应在黑名单中")
	}
	if ok, _ := c.IsBlacklisted(ctx, "jti-expired"); ok {
		t.Error("过期 Token 不应写入黑名单")
	}
}
