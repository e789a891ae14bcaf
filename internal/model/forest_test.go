package model

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/domain"
)

func loadTestForest(t *testing.T) *Forest {
	t.Helper()
	f, err := LoadForest("testdata/forest.json")
	require.NoError(t, err)
	return f
}

func vector(rainfall, waterLevel, landCover float64) domain.FeatureVector {
	var v domain.FeatureVector
	v[0] = rainfall
	v[4] = waterLevel
	v[6] = landCover
	return v
}

func TestForest_Score(t *testing.T) {
	f := loadTestForest(t)
	require.Equal(t, 2, f.Trees())

	tests := []struct {
		name     string
		v        domain.FeatureVector
		expected float64
	}{
		{"dry and low", vector(50, 3, 0), (0.2 + 0.1) / 2},
		{"wet and high", vector(150, 7, 1), (0.75 + 1.0) / 2},
		{"threshold goes left", vector(100, 5, 0.5), (0.2 + 0.1) / 2},
		{"urban low water", vector(50, 3, 1), (0.2 + 0.5) / 2},
		{"unknown land cover sentinel goes left", vector(150, 3, domain.UnknownCategory), (0.75 + 0.1) / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := f.Score(context.Background(), tt.v)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, p, 1e-12)
		})
	}
}

func TestForest_ScoreCancelledContext(t *testing.T) {
	f := loadTestForest(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Score(ctx, vector(1, 1, 1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForest_PositiveClassIndex(t *testing.T) {
	// Classes listed as [1, 0]: the positive probability is the first count.
	src := `{"n_features":10,"classes":[1,0],"trees":[{"nodes":[
		{"feature":-2,"threshold":-2,"left":-1,"right":-1,"value":[3,1]}]}]}`
	f, err := DecodeForest(strings.NewReader(src))
	require.NoError(t, err)

	p, err := f.Score(context.Background(), domain.FeatureVector{})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, p, 1e-12)
}

func TestDecodeForest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"malformed json", `{`, "decode forest"},
		{"wrong feature count", `{"n_features":9,"classes":[0,1],"trees":[]}`, "features"},
		{"no trees", `{"n_features":10,"classes":[0,1],"trees":[]}`, "no trees"},
		{"no positive class", `{"n_features":10,"classes":[0,2],"trees":[{"nodes":[]}]}`, "do not include"},
		{"empty tree", `{"n_features":10,"classes":[0,1],"trees":[{"nodes":[]}]}`, "empty tree"},
		{"half leaf", `{"n_features":10,"classes":[0,1],"trees":[{"nodes":[
			{"feature":0,"threshold":1,"left":-1,"right":1,"value":[1,1]},
			{"feature":-2,"threshold":-2,"left":-1,"right":-1,"value":[1,1]}]}]}`, "leaf marker"},
		{"leaf class count mismatch", `{"n_features":10,"classes":[0,1],"trees":[{"nodes":[
			{"feature":-2,"threshold":-2,"left":-1,"right":-1,"value":[1]}]}]}`, "class counts"},
		{"empty leaf", `{"n_features":10,"classes":[0,1],"trees":[{"nodes":[
			{"feature":-2,"threshold":-2,"left":-1,"right":-1,"value":[0,0]}]}]}`, "no samples"},
		{"feature out of range", `{"n_features":10,"classes":[0,1],"trees":[{"nodes":[
			{"feature":10,"threshold":1,"left":1,"right":2,"value":[1,1]},
			{"feature":-2,"threshold":-2,"left":-1,"right":-1,"value":[1,1]},
			{"feature":-2,"threshold":-2,"left":-1,"right":-1,"value":[1,1]}]}]}`, "feature 10"},
		{"backward child", `{"n_features":10,"classes":[0,1],"trees":[{"nodes":[
			{"feature":0,"threshold":1,"left":0,"right":1,"value":[1,1]},
			{"feature":-2,"threshold":-2,"left":-1,"right":-1,"value":[1,1]}]}]}`, "out of order"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeForest(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadForest_MissingFile(t *testing.T) {
	_, err := LoadForest("testdata/does-not-exist.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open forest artifact")
}
