package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = hit %v, err %v; want miss", hit, err)
	}

	if err := c.Set(ctx, "state:city", []byte("payload"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "state:city")
	if err != nil || !hit {
		t.Fatalf("Get = hit %v, err %v; want hit", hit, err)
	}
	if string(data) != "payload" {
		t.Errorf("Get = %q, want %q", data, "payload")
	}

	if err := c.Delete(ctx, "state:city"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "state:city"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "state:city"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpired(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	in := []byte("abc")
	if err := c.Set(ctx, "a", in, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	in[0] = 'x'

	data, hit, err := c.Get(ctx, "a")
	if err != nil || !hit || string(data) != "abc" {
		t.Fatalf("Get = %q, %v, %v; want \"abc\", true, nil", data, hit, err)
	}

	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("expired entry should miss")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after expired read", c.Len())
	}

	_ = c.Set(ctx, "b", []byte("1"), 0)
	now = now.Add(1000 * time.Hour)
	if _, hit, _ := c.Get(ctx, "b"); !hit {
		t.Error("entry without ttl should not expire")
	}
	_ = c.Delete(ctx, "b")
	if _, hit, _ := c.Get(ctx, "b"); hit {
		t.Error("Get after Delete should miss")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestHashJSON(t *testing.T) {
	type opts struct{ A, B int }
	if HashJSON(opts{1, 2}) != HashJSON(opts{1, 2}) {
		t.Error("HashJSON should be deterministic")
	}
	if HashJSON(opts{1, 2}) == HashJSON(opts{2, 1}) {
		t.Error("HashJSON should depend on the value")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	if got := k.StateKey("downtown"); got != "state:downtown" {
		t.Errorf("StateKey = %q, want %q", got, "state:downtown")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "session:123:")
	if got := scoped.StateKey("downtown"); got != "session:123:state:downtown" {
		t.Errorf("ScopedKeyer StateKey = %q", got)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	if got := scoped.StateKey("x"); got != "prefix:state:x" {
		t.Errorf("Unexpected key with nil inner: %s", got)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrNetwork)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(ErrNotFound) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("success: err %v, calls %d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return ErrNotFound
	})
	if err != ErrNotFound || calls != 1 {
		t.Errorf("non-retryable: err %v, calls %d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry once: err %v, calls %d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

func TestClassify(t *testing.T) {
	if classify(nil) != nil {
		t.Error("classify(nil) should be nil")
	}

	plain := fmt.Errorf("WRONGTYPE")
	if got := classify(plain); got != plain || IsRetryable(got) {
		t.Errorf("classify(plain) = %v, want unchanged", got)
	}

	netErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	got := classify(netErr)
	if !IsRetryable(got) {
		t.Error("network errors should be retryable")
	}
	if !errors.Is(got, ErrNetwork) {
		t.Error("network errors should wrap ErrNetwork")
	}
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Port 1 is reserved and closed on test machines.
	c, err := NewRedisCache(ctx, RedisConfig{Addr: "127.0.0.1:1"})
	if err == nil {
		c.Close()
		t.Fatal("NewRedisCache should fail without a server")
	}
}
