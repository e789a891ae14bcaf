package model

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/domain"
	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/observability"
)

// CachedScorer wraps a Scorer with an in-memory LRU cache keyed by the exact
// feature vector.
type CachedScorer struct {
	inner   domain.Scorer
	name    string
	cache   *lru.Cache[domain.FeatureVector, float64]
	metrics *observability.Metrics
}

// NewCachedScorer creates a cache decorator holding up to maxEntries scores.
func NewCachedScorer(inner domain.Scorer, name string, maxEntries int, metrics *observability.Metrics) (*CachedScorer, error) {
	cache, err := lru.New[domain.FeatureVector, float64](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create %s score cache: %w", name, err)
	}
	return &CachedScorer{
		inner:   inner,
		name:    name,
		cache:   cache,
		metrics: metrics,
	}, nil
}

func (c *CachedScorer) Score(ctx context.Context, v domain.FeatureVector) (float64, error) {
	if p, ok := c.cache.Get(v); ok {
		c.metrics.ScoreCache.WithLabelValues(c.name, "hit").Inc()
		return p, nil
	}
	c.metrics.ScoreCache.WithLabelValues(c.name, "miss").Inc()

	p, err := c.inner.Score(ctx, v)
	if err != nil {
		// Failures are not cached so a transient model-server error can be retried.
		return 0, err
	}
	c.cache.Add(v, p)
	return p, nil
}

// Len returns the number of cached scores.
func (c *CachedScorer) Len() int { return c.cache.Len() }
