package http

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/domain"
)

// handleCompareChart renders a line chart of tabular vs sequence probability
// for every recorded prediction.
func (s *Server) handleCompareChart(w http.ResponseWriter, r *http.Request) {
	recs, err := s.svc.History(r.Context())
	if err != nil {
		s.logger.Error("list history failed", "error", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := compareChart(recs).Render(&buf); err != nil {
		s.logger.Error("render chart failed", "error", err)
		http.Error(w, "failed to render chart", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func compareChart(recs []domain.PredictionRecord) *charts.Line {
	x := make([]string, len(recs))
	tabular := make([]opts.LineData, len(recs))
	sequence := make([]opts.LineData, len(recs))
	mean := make([]opts.LineData, len(recs))
	for i, rec := range recs {
		x[i] = strconv.Itoa(i + 1)
		tabular[i] = opts.LineData{Value: rec.TabularProb}
		sequence[i] = opts.LineData{Value: rec.SequenceProb}
		mean[i] = opts.LineData{Value: rec.MeanProb}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Model Comparison", Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Flood probability by model", Subtitle: strconv.Itoa(len(recs)) + " predictions"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Prediction", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "P(flood)", Min: 0, Max: 1}),
	)
	line.SetXAxis(x).
		AddSeries("Random Forest", tabular).
		AddSeries("LSTM", sequence).
		AddSeries("Ensemble mean", mean, charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}))
	return line
}
