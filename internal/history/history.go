// Package history stores the ordered log of successful predictions.
package history

import (
	"context"

	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/domain"
)

// Store is an append-only, insertion-ordered prediction log.
// Implementations must make Append atomic with respect to List and Len.
type Store interface {
	Append(ctx context.Context, rec domain.PredictionRecord) error
	List(ctx context.Context) ([]domain.PredictionRecord, error)
	Len(ctx context.Context) (int, error)
}

// Pinger is implemented by stores backed by an external resource.
type Pinger interface {
	Ping(ctx context.Context) error
}
