package domain

import "fmt"

// Decision thresholds on the mean probability. Both comparisons are strict.
const (
	HighThreshold     = 0.5
	ModerateThreshold = 0.4
)

// RiskLevel is the discrete outcome of the ensemble decision.
type RiskLevel string

const (
	RiskHigh     RiskLevel = "High"
	RiskModerate RiskLevel = "Moderate"
	RiskSafe     RiskLevel = "Safe"
)

// Decision is the ensemble outcome for one reading.
type Decision struct {
	Level      RiskLevel `json:"level"`
	Mean       float64   `json:"mean"`
	Confidence float64   `json:"confidence"`
}

// Decide averages the two model probabilities and classifies the mean.
func Decide(tabular, sequence float64) Decision {
	mean := (tabular + sequence) / 2

	switch {
	case mean > HighThreshold:
		return Decision{Level: RiskHigh, Mean: mean, Confidence: mean}
	case mean > ModerateThreshold:
		return Decision{Level: RiskModerate, Mean: mean, Confidence: mean}
	default:
		return Decision{Level: RiskSafe, Mean: mean, Confidence: 1 - mean}
	}
}

// Label renders the decision for display, e.g. "High Flood Risk (70.00% confidence)".
func (d Decision) Label() string {
	pct := formatPercent(d.Confidence)
	switch d.Level {
	case RiskHigh:
		return fmt.Sprintf("High Flood Risk (%s confidence)", pct)
	case RiskModerate:
		return fmt.Sprintf("Moderate Flood Risk (%s confidence)", pct)
	default:
		return fmt.Sprintf("Safe (%s confidence)", pct)
	}
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}
