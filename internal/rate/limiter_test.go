package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiterTest(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(rdb, cfg), mr, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func TestLoginBudgetExhaustion(t *testing.T) {
	l, _, done := newLimiterTest(t, Config{
		EnableIPThrottle:      true,
		MaxLoginAttempts:      3,
		LoginCooldownDuration: time.Minute,
	})
	defer done()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.CheckLogin(ctx, "a@b.com", "10.0.0.1"); err != nil {
			t.Fatalf("attempt %d check: %v", i, err)
		}
		if err := l.IncrementLogin(ctx, "a@b.com", "10.0.0.1"); err != nil {
			t.Fatalf("attempt %d increment: %v", i, err)
		}
	}

	if err := l.IncrementLogin(ctx, "a@b.com", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("fourth attempt = %v, want ErrRateLimited", err)
	}
	if err := l.CheckLogin(ctx, "a@b.com", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("check after exhaustion = %v, want ErrRateLimited", err)
	}

	// Another identity on another IP is unaffected.
	if err := l.CheckLogin(ctx, "c@d.com", "10.0.0.2"); err != nil {
		t.Fatalf("unrelated identity: %v", err)
	}
}

func TestResetLoginClearsCounters(t *testing.T) {
	l, _, done := newLimiterTest(t, Config{
		MaxLoginAttempts:      1,
		LoginCooldownDuration: time.Minute,
	})
	defer done()
	ctx := context.Background()

	_ = l.IncrementLogin(ctx, "a@b.com", "")
	if err := l.ResetLogin(ctx, "a@b.com", ""); err != nil {
		t.Fatalf("reset: %v", err)
	}
	count, err := l.LoginAttempts(ctx, "a@b.com")
	if err != nil || count != 0 {
		t.Fatalf("attempts after reset = %d, %v", count, err)
	}
}

func TestResendWindow(t *testing.T) {
	l, mr, done := newLimiterTest(t, Config{
		MaxResendRequests:    2,
		ResendWindowDuration: time.Minute,
	})
	defer done()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.CheckResend(ctx, "a@b.com", ""); err != nil {
			t.Fatalf("resend %d: %v", i, err)
		}
	}
	if err := l.CheckResend(ctx, "a@b.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("third resend = %v, want ErrRateLimited", err)
	}

	// Window expiry frees the budget.
	mr.FastForward(2 * time.Minute)
	if err := l.CheckResend(ctx, "a@b.com", ""); err != nil {
		t.Fatalf("resend after window: %v", err)
	}
}

func TestBackendDownWrapsErrRedisUnavailable(t *testing.T) {
	l, mr, done := newLimiterTest(t, Config{
		MaxLoginAttempts:      1,
		LoginCooldownDuration: time.Minute,
	})
	defer done()
	mr.Close()

	err := l.CheckLogin(context.Background(), "a@b.com", "")
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("check with dead backend = %v, want ErrRedisUnavailable", err)
	}
}
