package history

import (
	"context"
	"sync"

	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/domain"
)

// Memory keeps history in process memory. It grows without bound and is
// lost on restart.
type Memory struct {
	mu      sync.RWMutex
	records []domain.PredictionRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(_ context.Context, rec domain.PredictionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// List returns a copy of all records in insertion order.
func (m *Memory) List(_ context.Context) ([]domain.PredictionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.PredictionRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *Memory) Len(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}
