// Package predict orchestrates one flood-risk prediction: encode the
// reading, score it with both models, decide, record and publish.
package predict

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/domain"
	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/history"
	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/observability"
)

// Stage names the step of a prediction that failed. The values double as
// the stage label on the prediction error metric.
type Stage string

const (
	StageInput    Stage = "input"
	StageCategory Stage = "category"
	StageTabular  Stage = "tabular"
	StageSequence Stage = "sequence"
	StageHistory  Stage = "history"
)

// Error is a prediction failure tagged with its stage.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	switch e.Stage {
	case StageTabular, StageSequence:
		return fmt.Sprintf("score %s: %v", e.Stage, e.Err)
	case StageHistory:
		return fmt.Sprintf("record history: %v", e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// StageOf returns the stage of a prediction error, or "" if err did not
// come from the service.
func StageOf(err error) Stage {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return ""
}

// Options toggles optional service behaviour.
type Options struct {
	// RejectUnknownCategories fails readings whose land cover or soil type
	// is not in the encoding tables instead of scoring them as -1.
	RejectUnknownCategories bool
}

// Service runs predictions against two scorers and a history store.
// It is safe for concurrent use.
type Service struct {
	tabular    domain.Scorer
	sequence   domain.Scorer
	store      history.Store
	publishers []domain.Publisher
	opts       Options
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// New creates a Service. publishers may be empty.
func New(tabular, sequence domain.Scorer, store history.Store, publishers []domain.Publisher, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		tabular:    tabular,
		sequence:   sequence,
		store:      store,
		publishers: publishers,
		opts:       opts,
		logger:     logger,
		metrics:    metrics,
	}
}

// PredictFields parses a form submission and runs Predict on it.
func (s *Service) PredictFields(ctx context.Context, fields domain.FieldGetter) (domain.PredictionRecord, error) {
	r, err := domain.ParseReading(fields)
	if err != nil {
		return domain.PredictionRecord{}, s.fail(StageInput, err)
	}
	return s.Predict(ctx, r)
}

// Predict scores a reading, appends the result to history and publishes it.
// On error nothing is recorded.
func (s *Service) Predict(ctx context.Context, r domain.Reading) (domain.PredictionRecord, error) {
	if s.opts.RejectUnknownCategories {
		if unknown := r.UnknownCategories(); len(unknown) > 0 {
			return domain.PredictionRecord{}, s.fail(StageCategory, &domain.UnknownCategoryError{Fields: unknown})
		}
	}

	v := domain.Encode(r)

	tab, err := s.tabular.Score(ctx, v)
	if err != nil {
		return domain.PredictionRecord{}, s.fail(StageTabular, err)
	}
	seq, err := s.sequence.Score(ctx, v)
	if err != nil {
		return domain.PredictionRecord{}, s.fail(StageSequence, err)
	}

	d := domain.Decide(tab, seq)
	rec := domain.NewPredictionRecord(r, tab, seq, d)

	if err := s.store.Append(ctx, rec); err != nil {
		return domain.PredictionRecord{}, s.fail(StageHistory, err)
	}
	s.metrics.Predictions.WithLabelValues(string(d.Level)).Inc()
	if n, err := s.store.Len(ctx); err == nil {
		s.metrics.HistoryRecords.Set(float64(n))
	}

	s.logger.Info("prediction recorded",
		"id", rec.ID,
		"risk_level", string(d.Level),
		"tabular", tab,
		"sequence", seq,
		"mean", d.Mean,
	)

	s.publish(ctx, rec)
	return rec, nil
}

// publish forwards the record to every publisher. Failures are logged only:
// the record is already committed to history.
func (s *Service) publish(ctx context.Context, rec domain.PredictionRecord) {
	for _, p := range s.publishers {
		if err := p.Publish(ctx, rec); err != nil {
			s.logger.Warn("publish prediction failed", "error", err, "id", rec.ID)
		}
	}
}

func (s *Service) fail(stage Stage, err error) error {
	s.metrics.PredictionErrors.WithLabelValues(string(stage)).Inc()
	s.logger.Warn("prediction failed", "stage", string(stage), "error", err)
	return &Error{Stage: stage, Err: err}
}

// History returns every recorded prediction in insertion order.
func (s *Service) History(ctx context.Context) ([]domain.PredictionRecord, error) {
	recs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return recs, nil
}

// CheckReadiness returns nil when the models are loaded and the history
// store, if it has a backing resource, responds.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if s.tabular == nil || s.sequence == nil {
		return errors.New("models not loaded")
	}
	if p, ok := s.store.(history.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("history store: %w", err)
		}
	}
	return nil
}
