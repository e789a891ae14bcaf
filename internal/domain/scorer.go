package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ErrScoreOutOfRange is returned when a model produces a value outside [0, 1].
var ErrScoreOutOfRange = errors.New("score out of range")

// Scorer returns the positive-class probability for a feature vector.
// Implementations must be safe for concurrent use.
type Scorer interface {
	Score(ctx context.Context, v FeatureVector) (float64, error)
}

// Publisher forwards recorded predictions to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, rec PredictionRecord) error
}

// CheckProbability returns an error wrapping ErrScoreOutOfRange unless p is in [0, 1].
func CheckProbability(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%w: %v", ErrScoreOutOfRange, p)
	}
	return nil
}
