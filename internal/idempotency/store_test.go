package idempotency

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements the handful of commands the store issues on an
// in-memory map. Anything else panics through the embedded nil Cmdable.
type fakeRedis struct {
	redis.Cmdable

	mu   sync.Mutex
	data map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	val, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = asString(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = asString(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for _, key := range keys {
		if _, exists := f.data[key]; exists {
			delete(f.data, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func asString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		panic("unexpected value type")
	}
}

func newTestStore() (*Store, *fakeRedis) {
	fake := newFakeRedis()
	return NewStore(fake, time.Minute), fake
}

func TestReserveClaimsKeyOnce(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	ok, err := store.Reserve(ctx, "key-1", "hash-a")
	require.NoError(t, err)
	assert.True(t, ok)

	// A concurrent retry with the same key loses the race.
	ok, err = store.Reserve(ctx, "key-1", "hash-a")
	require.NoError(t, err)
	assert.False(t, ok)

	// Other keys are unaffected.
	ok, err = store.Reserve(ctx, "key-2", "hash-a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLookupUnseenKey(t *testing.T) {
	store, _ := newTestStore()

	_, err := store.Lookup(context.Background(), "missing", "hash-a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupWhileReserved(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	ok, err := store.Reserve(ctx, "key-1", "hash-a")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = store.Lookup(ctx, "key-1", "hash-a")
	assert.ErrorIs(t, err, ErrInProgress)
}

func TestLookupRejectsDifferentBody(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	ok, err := store.Reserve(ctx, "key-1", "hash-a")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = store.Lookup(ctx, "key-1", "hash-b")
	assert.ErrorIs(t, err, ErrHashMismatch)
}

func TestFinalizeReplaysResponse(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	ok, err := store.Reserve(ctx, "key-1", "hash-a")
	require.NoError(t, err)
	require.True(t, ok)

	body := []byte(`{"success":true}`)
	rec, err := store.Finalize(ctx, "key-1", "hash-a", http.StatusCreated, body, "application/json")
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Status)

	replay, err := store.Lookup(ctx, "key-1", "hash-a")
	require.NoError(t, err)
	assert.Equal(t, "key-1", replay.Key)
	assert.Equal(t, "hash-a", replay.RequestHash)
	assert.Equal(t, http.StatusCreated, replay.Status)
	assert.Equal(t, body, replay.Body)
	assert.Equal(t, "application/json", replay.ContentType)
}

func TestWaitForCompletionReturnsFinalizedRecord(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	ok, err := store.Reserve(ctx, "key-1", "hash-a")
	require.NoError(t, err)
	require.True(t, ok)

	go func() {
		time.Sleep(100 * time.Millisecond)
		_, _ = store.Finalize(ctx, "key-1", "hash-a", http.StatusOK, []byte("done"), "text/plain")
	}()

	rec, err := store.WaitForCompletion(ctx, "key-1", "hash-a")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Status)
	assert.Equal(t, []byte("done"), rec.Body)
}

func TestWaitForCompletionHonorsContext(t *testing.T) {
	store, _ := newTestStore()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	ok, err := store.Reserve(ctx, "key-1", "hash-a")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = store.WaitForCompletion(ctx, "key-1", "hash-a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReleaseAllowsRetry(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	ok, err := store.Reserve(ctx, "key-1", "hash-a")
	require.NoError(t, err)
	require.True(t, ok)

	store.Release(ctx, "key-1")

	_, err = store.Lookup(ctx, "key-1", "hash-a")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err = store.Reserve(ctx, "key-1", "hash-a")
	require.NoError(t, err)
	assert.True(t, ok)
}
