package model

import (
	"context"
	"fmt"
	"time"

	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/domain"
	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/observability"
)

// InstrumentedScorer records scoring latency and rejects outputs that are
// not probabilities.
type InstrumentedScorer struct {
	inner   domain.Scorer
	name    string
	metrics *observability.Metrics
}

// Instrument wraps a scorer under the given model name.
func Instrument(inner domain.Scorer, name string, metrics *observability.Metrics) *InstrumentedScorer {
	return &InstrumentedScorer{inner: inner, name: name, metrics: metrics}
}

func (s *InstrumentedScorer) Score(ctx context.Context, v domain.FeatureVector) (float64, error) {
	start := time.Now()
	p, err := s.inner.Score(ctx, v)
	s.metrics.ScoreDuration.WithLabelValues(s.name).Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, err
	}
	if err := domain.CheckProbability(p); err != nil {
		return 0, fmt.Errorf("%s model: %w", s.name, err)
	}
	return p, nil
}
