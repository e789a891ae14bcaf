package model

import (
	"log/slog"
	"time"

	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/domain"
	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/observability"
)

// Options describes where one model comes from and how it is wrapped.
type Options struct {
	Shape     Shape
	Path      string // local artifact, used when URL is empty
	URL       string // remote predict endpoint
	Timeout   time.Duration
	CacheSize int // 0 disables caching
}

// Load builds a ready-to-use scorer: the local artifact or remote client for
// the shape, instrumented, and cached when CacheSize > 0.
func Load(opts Options, metrics *observability.Metrics, logger *slog.Logger) (domain.Scorer, error) {
	name := opts.Shape.String()

	var base domain.Scorer
	switch {
	case opts.URL != "":
		base = NewRemoteScorer(opts.URL, opts.Shape, opts.Timeout, logger)
		logger.Info("remote model configured", "model", name, "url", opts.URL, "timeout", opts.Timeout)
	case opts.Shape == ShapeSequence:
		m, err := LoadLSTM(opts.Path)
		if err != nil {
			return nil, err
		}
		base = m
		logger.Info("model loaded", "model", name, "path", opts.Path, "units", m.Units())
	default:
		f, err := LoadForest(opts.Path)
		if err != nil {
			return nil, err
		}
		base = f
		logger.Info("model loaded", "model", name, "path", opts.Path, "trees", f.Trees())
	}

	var scorer domain.Scorer = Instrument(base, name, metrics)
	if opts.CacheSize > 0 {
		cached, err := NewCachedScorer(scorer, name, opts.CacheSize, metrics)
		if err != nil {
			return nil, err
		}
		scorer = cached
	}
	return scorer, nil
}
