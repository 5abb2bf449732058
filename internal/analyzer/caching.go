package analyzer

import (
	"context"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/rallylens/internal/cache"
)

// CachingClient decorates a Client with a result cache. Results of a
// completed job never change, so statistics and rally documents are cached
// by video ID. Cache failures are logged and fall through to the analyzer.
type CachingClient struct {
	Client
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachingClient wraps next. A nil logger uses slog.Default().
func NewCachingClient(next Client, c cache.Cache, ttl time.Duration, logger *slog.Logger) *CachingClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachingClient{Client: next, cache: c, ttl: ttl, logger: logger}
}

func (c *CachingClient) Statistics(ctx context.Context, videoID string) ([]byte, error) {
	return c.cached(ctx, cache.ResultKey(videoID, cache.ResultStatistics), videoID, c.Client.Statistics)
}

func (c *CachingClient) Rallies(ctx context.Context, videoID string) ([]byte, error) {
	return c.cached(ctx, cache.ResultKey(videoID, cache.ResultRallies), videoID, c.Client.Rallies)
}

// Delete removes the job upstream and evicts its cached results.
func (c *CachingClient) Delete(ctx context.Context, videoID string) error {
	if err := c.Client.Delete(ctx, videoID); err != nil {
		return err
	}
	for _, kind := range []cache.ResultKind{cache.ResultStatistics, cache.ResultRallies} {
		if err := c.cache.Delete(ctx, cache.ResultKey(videoID, kind)); err != nil {
			c.logger.Warn("evicting cached result", "video_id", videoID, "kind", string(kind), "error", err)
		}
	}
	return nil
}

func (c *CachingClient) cached(
	ctx context.Context,
	key, videoID string,
	fetch func(context.Context, string) ([]byte, error),
) ([]byte, error) {
	val, found, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("result cache read failed", "key", key, "error", err)
	} else if found {
		return val, nil
	}

	body, err := fetch(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, body, c.ttl); err != nil {
		c.logger.Warn("result cache write failed", "key", key, "error", err)
	}
	return body, nil
}

var _ Client = (*CachingClient)(nil)
