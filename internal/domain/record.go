package domain

import (
	"time"

	"github.com/google/uuid"
)

// PredictionRecord is one history entry. It is created once per successful
// prediction and never modified.
type PredictionRecord struct {
	ID           string    `json:"id"`
	Rainfall     float64   `json:"rainfall"`
	Temperature  float64   `json:"temperature"`
	Humidity     float64   `json:"humidity"`
	Result       string    `json:"result"`
	Level        RiskLevel `json:"level"`
	Confidence   float64   `json:"confidence"`
	TabularProb  float64   `json:"tabular_prob"`
	SequenceProb float64   `json:"sequence_prob"`
	MeanProb     float64   `json:"mean_prob"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewPredictionRecord stamps a record for a reading and its model outputs.
func NewPredictionRecord(r Reading, tabular, sequence float64, d Decision) PredictionRecord {
	return PredictionRecord{
		ID:           uuid.NewString(),
		Rainfall:     r.Rainfall,
		Temperature:  r.Temperature,
		Humidity:     r.Humidity,
		Result:       d.Label(),
		Level:        d.Level,
		Confidence:   d.Confidence,
		TabularProb:  tabular,
		SequenceProb: sequence,
		MeanProb:     d.Mean,
		CreatedAt:    clock.Now().UTC(),
	}
}
