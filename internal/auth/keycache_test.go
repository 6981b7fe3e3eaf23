package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeRedis struct {
	redis.Cmdable
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	val, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestRedisDocumentCacheRoundTrip(t *testing.T) {
	t.Parallel()

	client := newFakeRedis()
	cache := NewRedisDocumentCache(client, "https://coffee.test/")
	ctx := context.Background()

	doc, err := cache.Get(ctx)
	if err != nil {
		t.Fatalf("Get() on empty cache error = %v", err)
	}
	if doc != nil {
		t.Fatalf("expected nil document on miss, got %q", doc)
	}

	if err := cache.Set(ctx, []byte(`{"keys":[]}`), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	key := cacheKey("https://coffee.test/")
	if client.ttls[key] != time.Minute {
		t.Fatalf("expected ttl 1m under %q, got %s", key, client.ttls[key])
	}

	doc, err = cache.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(doc) != `{"keys":[]}` {
		t.Fatalf("unexpected document %q", doc)
	}
}

func TestRedisDocumentCacheReportsErrors(t *testing.T) {
	t.Parallel()

	client := newFakeRedis()
	client.getErr = errors.New("connection refused")
	if _, err := NewRedisDocumentCache(client, "iss").Get(context.Background()); err == nil {
		t.Fatal("expected error when redis fails")
	}
}

func TestCachingKeySourceFallsBackWhenSharedCacheFails(t *testing.T) {
	t.Parallel()

	doc, _ := testJWKS(t, "a")
	client := newFakeRedis()
	client.getErr = errors.New("connection refused")
	fetcher := &countingFetcher{docs: [][]byte{doc}}
	source := NewCachingKeySource(fetcher, time.Minute, time.Second, WithSharedCache(NewRedisDocumentCache(client, "iss")))

	if _, err := source.Key(context.Background(), "a"); err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected fetch after shared cache failure, got %d", fetcher.calls)
	}
}
