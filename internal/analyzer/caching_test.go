package analyzer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/rallylens/internal/cache"
	"github.com/kiranshivaraju/rallylens/pkg/models"
)

// --- fakes ---

type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	failGet bool
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, false, errors.New("connection reset")
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memCache) Ping(context.Context) error { return nil }

func (m *memCache) IncrWithExpiry(context.Context, string, time.Duration) (int64, error) {
	return 0, nil
}

type countingClient struct {
	Client
	statsCalls   int
	ralliesCalls int
	deleteCalls  int
	statsErr     error
}

func (c *countingClient) Statistics(context.Context, string) ([]byte, error) {
	c.statsCalls++
	if c.statsErr != nil {
		return nil, c.statsErr
	}
	return []byte(`{"total_rallies":1}`), nil
}

func (c *countingClient) Rallies(context.Context, string) ([]byte, error) {
	c.ralliesCalls++
	return []byte(`{"rallies":[]}`), nil
}

func (c *countingClient) Delete(context.Context, string) error {
	c.deleteCalls++
	return nil
}

func (c *countingClient) Links(id string) models.MediaLinks {
	return models.MediaLinks{Video: "v/" + id}
}

// --- tests ---

func TestCachingClient_CachesResults(t *testing.T) {
	next := &countingClient{}
	mc := newMemCache()
	c := NewCachingClient(next, mc, 30*time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		body, err := c.Statistics(ctx, "v1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"total_rallies":1}`, string(body))

		_, err = c.Rallies(ctx, "v1")
		require.NoError(t, err)
	}

	assert.Equal(t, 1, next.statsCalls)
	assert.Equal(t, 1, next.ralliesCalls)
	assert.Equal(t, 30*time.Minute, mc.ttls[cache.ResultKey("v1", cache.ResultStatistics)])
}

func TestCachingClient_ErrorsAreNotCached(t *testing.T) {
	next := &countingClient{statsErr: ErrResultFetch}
	c := NewCachingClient(next, newMemCache(), time.Minute, nil)

	_, err := c.Statistics(context.Background(), "v1")
	require.ErrorIs(t, err, ErrResultFetch)

	next.statsErr = nil
	_, err = c.Statistics(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, 2, next.statsCalls)
}

func TestCachingClient_CacheFailureFallsThrough(t *testing.T) {
	next := &countingClient{}
	mc := newMemCache()
	mc.failGet = true
	c := NewCachingClient(next, mc, time.Minute, nil)

	body, err := c.Statistics(context.Background(), "v1")
	require.NoError(t, err)
	assert.NotEmpty(t, body)
	assert.Equal(t, 1, next.statsCalls)
}

func TestCachingClient_DeleteEvicts(t *testing.T) {
	next := &countingClient{}
	mc := newMemCache()
	c := NewCachingClient(next, mc, time.Minute, nil)
	ctx := context.Background()

	_, err := c.Statistics(ctx, "v1")
	require.NoError(t, err)
	require.NoError(t, c.Delete(ctx, "v1"))

	assert.Equal(t, 1, next.deleteCalls)
	_, found, _ := mc.Get(ctx, cache.ResultKey("v1", cache.ResultStatistics))
	assert.False(t, found)
}

func TestCachingClient_DelegatesOtherCalls(t *testing.T) {
	c := NewCachingClient(&countingClient{}, newMemCache(), time.Minute, nil)
	assert.Equal(t, "v/abc", c.Links("abc").Video)
}
