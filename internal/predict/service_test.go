package predict_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/domain"
	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/history"
	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/observability"
	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/predict"
)

// --- mocks ---

type stubScorer struct {
	mu   sync.Mutex
	p    float64
	err  error
	seen []domain.FeatureVector
}

func (s *stubScorer) Score(_ context.Context, v domain.FeatureVector) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, v)
	return s.p, s.err
}

type failingStore struct {
	history.Store
	appendErr error
	pingErr   error
}

func (f *failingStore) Append(context.Context, domain.PredictionRecord) error { return f.appendErr }
func (f *failingStore) Ping(context.Context) error                            { return f.pingErr }

type recordingPublisher struct {
	mu   sync.Mutex
	recs []domain.PredictionRecord
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, rec domain.PredictionRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recs = append(p.recs, rec)
	return p.err
}

// --- helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validReading() domain.Reading {
	return domain.Reading{
		Rainfall:          120.5,
		Temperature:       31,
		Humidity:          85,
		RiverDischarge:    3000,
		WaterLevel:        6.2,
		Elevation:         45,
		LandCover:         "Urban",
		SoilType:          "Clay",
		PopulationDensity: 9000,
		HistoricalFloods:  1,
	}
}

func validForm() url.Values {
	return url.Values{
		"rainfall":           {"120.5"},
		"temperature":        {"31"},
		"humidity":           {"85"},
		"river_discharge":    {"3000"},
		"water_level":        {"6.2"},
		"elevation":          {"45"},
		"land_cover":         {"Urban"},
		"soil_type":          {"Clay"},
		"population_density": {"9000"},
		"historical_floods":  {"1"},
	}
}

type fixture struct {
	svc      *predict.Service
	tabular  *stubScorer
	sequence *stubScorer
	store    *history.Memory
	metrics  *observability.Metrics
}

func newFixture(tab, seq float64, opts predict.Options, pubs ...domain.Publisher) fixture {
	f := fixture{
		tabular:  &stubScorer{p: tab},
		sequence: &stubScorer{p: seq},
		store:    history.NewMemory(),
		metrics:  observability.NewMetricsForTesting(),
	}
	f.svc = predict.New(f.tabular, f.sequence, f.store, pubs, opts, discardLogger(), f.metrics)
	return f
}

func historyLen(t *testing.T, s history.Store) int {
	t.Helper()
	n, err := s.Len(context.Background())
	require.NoError(t, err)
	return n
}

// --- tests ---

func TestPredict_Labels(t *testing.T) {
	tests := []struct {
		name      string
		tab, seq  float64
		wantLevel domain.RiskLevel
		wantLabel string
	}{
		{"high", 0.6, 0.8, domain.RiskHigh, "High Flood Risk (70.00% confidence)"},
		{"safe", 0.3, 0.3, domain.RiskSafe, "Safe (70.00% confidence)"},
		{"mean exactly 0.5 is moderate", 0.5, 0.5, domain.RiskModerate, "Moderate Flood Risk (50.00% confidence)"},
		{"mean exactly 0.4 is safe", 0.4, 0.4, domain.RiskSafe, "Safe (60.00% confidence)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.tab, tt.seq, predict.Options{RejectUnknownCategories: true})

			rec, err := f.svc.Predict(context.Background(), validReading())
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, rec.Level)
			assert.Equal(t, tt.wantLabel, rec.Result)
			assert.InDelta(t, tt.tab, rec.TabularProb, 1e-12)
			assert.InDelta(t, tt.seq, rec.SequenceProb, 1e-12)
			assert.Equal(t, 1, historyLen(t, f.store))
			assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Predictions.WithLabelValues(string(tt.wantLevel))), 0)
			assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.HistoryRecords), 0)
		})
	}
}

func TestPredict_BothModelsSeeSameVector(t *testing.T) {
	f := newFixture(0.1, 0.1, predict.Options{})

	_, err := f.svc.Predict(context.Background(), validReading())
	require.NoError(t, err)

	require.Len(t, f.tabular.seen, 1)
	require.Len(t, f.sequence.seen, 1)
	assert.Equal(t, domain.Encode(validReading()), f.tabular.seen[0])
	assert.Equal(t, f.tabular.seen[0], f.sequence.seen[0])
}

func TestPredict_RecordStampedByClock(t *testing.T) {
	at := time.Date(2024, time.July, 14, 6, 30, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { domain.SetClock(nil) })

	f := newFixture(0.6, 0.8, predict.Options{})
	rec, err := f.svc.Predict(context.Background(), validReading())
	require.NoError(t, err)

	assert.Equal(t, at, rec.CreatedAt)
	assert.NotEmpty(t, rec.ID)
	assert.InDelta(t, 120.5, rec.Rainfall, 0)

	list, err := f.svc.History(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rec, list[0])
}

func TestPredictFields_NonNumericRainfall(t *testing.T) {
	f := newFixture(0.6, 0.8, predict.Options{})
	form := validForm()
	form.Set("rainfall", "abc")

	_, err := f.svc.PredictFields(context.Background(), domain.FormFields(form))
	require.Error(t, err)

	assert.Equal(t, predict.StageInput, predict.StageOf(err))
	var fe *domain.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "rainfall", fe.Field)
	assert.Equal(t, 0, historyLen(t, f.store))
	assert.Empty(t, f.tabular.seen, "models are not called for bad input")
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.PredictionErrors.WithLabelValues("input")), 0)
}

func TestPredictFields_Success(t *testing.T) {
	f := newFixture(0.6, 0.8, predict.Options{})

	rec, err := f.svc.PredictFields(context.Background(), domain.FormFields(validForm()))
	require.NoError(t, err)
	assert.Equal(t, "High Flood Risk (70.00% confidence)", rec.Result)
	assert.Equal(t, 1, historyLen(t, f.store))
}

func TestPredict_UnknownCategory(t *testing.T) {
	r := validReading()
	r.LandCover = "Glacier"

	t.Run("rejected", func(t *testing.T) {
		f := newFixture(0.6, 0.8, predict.Options{RejectUnknownCategories: true})

		_, err := f.svc.Predict(context.Background(), r)
		require.Error(t, err)
		assert.Equal(t, predict.StageCategory, predict.StageOf(err))
		var ue *domain.UnknownCategoryError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, []string{domain.FieldLandCover}, ue.Fields)
		assert.Equal(t, "unknown category for land_cover", err.Error())
		assert.Equal(t, 0, historyLen(t, f.store))
	})

	t.Run("passed through as sentinel", func(t *testing.T) {
		f := newFixture(0.6, 0.8, predict.Options{RejectUnknownCategories: false})

		_, err := f.svc.Predict(context.Background(), r)
		require.NoError(t, err)
		require.Len(t, f.tabular.seen, 1)
		assert.InDelta(t, float64(domain.UnknownCategory), f.tabular.seen[0][6], 0)
		assert.Equal(t, 1, historyLen(t, f.store))
	})
}

func TestPredict_ModelFailure(t *testing.T) {
	tests := []struct {
		name      string
		tabErr    error
		seqErr    error
		wantStage predict.Stage
		wantMsg   string
	}{
		{"tabular", errors.New("artifact corrupt"), nil, predict.StageTabular, "score tabular: artifact corrupt"},
		{"sequence", nil, errors.New("model server error: status 503: down"), predict.StageSequence, "score sequence: model server error: status 503: down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(0.6, 0.8, predict.Options{})
			f.tabular.err = tt.tabErr
			f.sequence.err = tt.seqErr

			_, err := f.svc.Predict(context.Background(), validReading())
			require.Error(t, err)
			assert.Equal(t, tt.wantStage, predict.StageOf(err))
			assert.EqualError(t, err, tt.wantMsg)
			assert.Equal(t, 0, historyLen(t, f.store))
			assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.PredictionErrors.WithLabelValues(string(tt.wantStage))), 0)
		})
	}
}

func TestPredict_OutOfRangeScoreKeepsSentinel(t *testing.T) {
	f := newFixture(0.6, 0.8, predict.Options{})
	f.tabular.err = domain.CheckProbability(1.7)

	_, err := f.svc.Predict(context.Background(), validReading())
	require.ErrorIs(t, err, domain.ErrScoreOutOfRange)
}

func TestPredict_HistoryFailure(t *testing.T) {
	store := &failingStore{Store: history.NewMemory(), appendErr: errors.New("disk full")}
	metrics := observability.NewMetricsForTesting()
	pub := &recordingPublisher{}
	svc := predict.New(&stubScorer{p: 0.6}, &stubScorer{p: 0.8}, store, []domain.Publisher{pub}, predict.Options{}, discardLogger(), metrics)

	_, err := svc.Predict(context.Background(), validReading())
	require.Error(t, err)
	assert.Equal(t, predict.StageHistory, predict.StageOf(err))
	assert.EqualError(t, err, "record history: disk full")
	assert.Empty(t, pub.recs, "nothing is published when history fails")
}

func TestPredict_PublishFailureDoesNotFailRequest(t *testing.T) {
	failing := &recordingPublisher{err: errors.New("broker unavailable")}
	ok := &recordingPublisher{}
	f := newFixture(0.6, 0.8, predict.Options{}, failing, ok)

	rec, err := f.svc.Predict(context.Background(), validReading())
	require.NoError(t, err)

	assert.Equal(t, 1, historyLen(t, f.store))
	require.Len(t, failing.recs, 1)
	require.Len(t, ok.recs, 1, "later publishers still run")
	assert.Equal(t, rec.ID, ok.recs[0].ID)
}

func TestPredict_ConcurrentRequests(t *testing.T) {
	f := newFixture(0.6, 0.8, predict.Options{})

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Predict(context.Background(), validReading())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, n, historyLen(t, f.store))
}

func TestCheckReadiness(t *testing.T) {
	metrics := observability.NewMetricsForTesting()

	t.Run("memory store", func(t *testing.T) {
		f := newFixture(0.1, 0.1, predict.Options{})
		assert.NoError(t, f.svc.CheckReadiness(context.Background()))
	})

	t.Run("store ping fails", func(t *testing.T) {
		store := &failingStore{Store: history.NewMemory(), pingErr: errors.New("database is locked")}
		svc := predict.New(&stubScorer{}, &stubScorer{}, store, nil, predict.Options{}, discardLogger(), metrics)
		err := svc.CheckReadiness(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database is locked")
	})

	t.Run("models missing", func(t *testing.T) {
		svc := predict.New(nil, &stubScorer{}, history.NewMemory(), nil, predict.Options{}, discardLogger(), metrics)
		assert.Error(t, svc.CheckReadiness(context.Background()))
	})
}
