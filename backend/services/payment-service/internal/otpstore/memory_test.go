package otpstore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCodeRespectsTTL(t *testing.T) {
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemoryStore(func() time.Time { return now })
	ctx := context.Background()

	if err := store.SetCode(ctx, 1, "123456", 120*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	code, err := store.GetCode(ctx, 1)
	if err != nil || code != "123456" {
		t.Fatalf("get = %q, %v", code, err)
	}

	now = now.Add(121 * time.Second)
	if _, err := store.GetCode(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound after ttl", err)
	}
}

func TestAttemptAndResendCounters(t *testing.T) {
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemoryStore(func() time.Time { return now })
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := store.IncrAttempts(ctx, 1, time.Minute)
		if err != nil || got != want {
			t.Fatalf("attempts = %d, %v, want %d", got, err, want)
		}
	}
	if err := store.ResetAttempts(ctx, 1); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got, _ := store.IncrAttempts(ctx, 1, time.Minute); got != 1 {
		t.Fatalf("attempts after reset = %d, want 1", got)
	}

	if count, err := store.ResendCount(ctx, 1); err != nil || count != 0 {
		t.Fatalf("resend count = %d, %v, want 0", count, err)
	}
	if _, err := store.IncrResendCount(ctx, 1, time.Minute); err != nil {
		t.Fatalf("incr resend: %v", err)
	}
	if count, _ := store.ResendCount(ctx, 1); count != 1 {
		t.Fatalf("resend count = %d, want 1", count)
	}
}

func TestClearRemovesAllKeys(t *testing.T) {
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemoryStore(func() time.Time { return now })
	ctx := context.Background()

	store.SetCode(ctx, 1, "123456", time.Minute)
	store.IncrAttempts(ctx, 1, time.Minute)
	store.IncrResendCount(ctx, 1, time.Minute)
	store.SetLastResend(ctx, 1, now, time.Minute)

	if err := store.Clear(ctx, 1); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.GetCode(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("code err = %v, want ErrNotFound", err)
	}
	if _, err := store.LastResend(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("lastResend err = %v, want ErrNotFound", err)
	}
	if count, _ := store.ResendCount(ctx, 1); count != 0 {
		t.Fatalf("resend count = %d after clear", count)
	}
}
