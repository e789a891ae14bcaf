package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	sharedretry "github.com/couchcryptid/storm-data-shared/retry"

	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/domain"
)

// Shape selects how a feature vector is wrapped for a remote model.
type Shape int

const (
	// ShapeTabular sends one flat record: [[x0..x9]].
	ShapeTabular Shape = iota
	// ShapeSequence sends a length-1 sequence: [[[x0..x9]]].
	ShapeSequence
)

func (s Shape) String() string {
	if s == ShapeSequence {
		return "sequence"
	}
	return "tabular"
}

// Retry policy for transient remote failures (transport errors and 5xx).
const (
	remoteAttempts   = 3
	remoteBackoff    = 50 * time.Millisecond
	remoteMaxBackoff = 500 * time.Millisecond
)

// RemoteScorer implements domain.Scorer against a TensorFlow Serving style
// REST predict endpoint.
type RemoteScorer struct {
	url        string
	shape      Shape
	httpClient *http.Client
	logger     *slog.Logger
}

// transientError marks a failure worth retrying.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// NewRemoteScorer creates a client for the predict endpoint at url.
func NewRemoteScorer(url string, shape Shape, timeout time.Duration, logger *slog.Logger) *RemoteScorer {
	return &RemoteScorer{
		url:   url,
		shape: shape,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type predictRequest struct {
	Instances any `json:"instances"`
}

type predictResponse struct {
	Predictions []json.RawMessage `json:"predictions"`
}

// Score posts the vector and returns the first prediction's positive-class
// probability. Transient failures are retried with exponential backoff.
func (c *RemoteScorer) Score(ctx context.Context, v domain.FeatureVector) (float64, error) {
	backoff := remoteBackoff
	for attempt := 1; ; attempt++ {
		p, err := c.score(ctx, v)
		var te *transientError
		if err == nil || !errors.As(err, &te) || attempt == remoteAttempts || ctx.Err() != nil {
			return p, err
		}
		c.logger.Warn("remote score failed, retrying",
			"shape", c.shape.String(), "attempt", attempt, "backoff", backoff, "error", err)
		if !sharedretry.SleepWithContext(ctx, backoff) {
			return 0, err
		}
		backoff = sharedretry.NextBackoff(backoff, remoteMaxBackoff)
	}
}

func (c *RemoteScorer) score(ctx context.Context, v domain.FeatureVector) (float64, error) {
	var instances any = [][]float64{v.Slice()}
	if c.shape == ShapeSequence {
		instances = [][][]float64{{v.Slice()}}
	}

	body, err := json.Marshal(predictRequest{Instances: instances})
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &transientError{fmt.Errorf("%s predict request: %w", c.shape, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("model server error: status %d: %s", resp.StatusCode, msg)
		if resp.StatusCode >= http.StatusInternalServerError {
			return 0, &transientError{err}
		}
		return 0, err
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	if len(pr.Predictions) == 0 {
		return 0, errors.New("model server returned no predictions")
	}

	p, err := positiveProbability(pr.Predictions[0])
	if err != nil {
		return 0, err
	}
	c.logger.Debug("remote score", "shape", c.shape.String(), "probability", p)
	return p, nil
}

// positiveProbability accepts p, [p] (sigmoid output) or [p0, p1] (class
// probabilities) and returns the positive-class value.
func positiveProbability(raw json.RawMessage) (float64, error) {
	var p float64
	if err := json.Unmarshal(raw, &p); err == nil {
		return p, nil
	}

	var ps []float64
	if err := json.Unmarshal(raw, &ps); err != nil {
		return 0, fmt.Errorf("decode prediction: %w", err)
	}
	switch len(ps) {
	case 1:
		return ps[0], nil
	case 2:
		return ps[1], nil
	default:
		return 0, fmt.Errorf("prediction has %d values, want 1 or 2", len(ps))
	}
}
