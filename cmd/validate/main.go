// Command validate loads both model artifacts, scores every row of a
// readings CSV and reports pass/fail per validation phase: artifact
// loading, encoder coverage, probability range and decision consistency.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -tabular models/flood_rf_model.json \
//	  -sequence models/flood_lstm_model.json \
//	  -readings models/sample_readings.csv
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/domain"
	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/model"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// csvRow is a parsed CSV row with field values keyed by header name.
type csvRow struct {
	lineNum int
	fields  map[string]string
}

// Field implements domain.FieldGetter.
func (r csvRow) Field(name string) (string, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// scored is one reading that made it through both models.
type scored struct {
	lineNum  int
	tabular  float64
	sequence float64
}

func main() {
	tabularPath := flag.String("tabular", "models/flood_rf_model.json", "path to the forest artifact")
	sequencePath := flag.String("sequence", "models/flood_lstm_model.json", "path to the LSTM artifact")
	readingsPath := flag.String("readings", "", "path to a readings CSV with one column per feature")
	flag.Parse()

	if *readingsPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*tabularPath, *sequencePath, *readingsPath))
}

func run(tabularPath, sequencePath, readingsPath string) int {
	fmt.Println("=== Flood Model Validation ===")
	fmt.Println()

	rows, err := loadCSV(readingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load readings: %v\n", err)
		return 1
	}

	artifacts := &phase{name: "Artifacts load"}
	forest, err := model.LoadForest(tabularPath)
	if err != nil {
		artifacts.errorf("tabular: %v", err)
	}
	lstm, err := model.LoadLSTM(sequencePath)
	if err != nil {
		artifacts.errorf("sequence: %v", err)
	}
	if forest != nil && lstm != nil {
		fmt.Printf("Models: forest with %d trees, LSTM with %d units\n", forest.Trees(), lstm.Units())
	}

	readings, coverage := validateEncoding(rows)

	phases := []*phase{artifacts, coverage}
	var results []scored
	if artifacts.passed() {
		var probs *phase
		results, probs = validateProbabilities(forest, lstm, readings)
		phases = append(phases, probs, validateDecisions(results))
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Readings: %d rows, %d encoded, %d scored\n", len(rows), len(readings), len(results))
	printDistribution(results)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadCSV(path string) ([]csvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) < 2 {
		return nil, fmt.Errorf("no data rows in %s", path)
	}

	header := all[0]
	rows := make([]csvRow, 0, len(all)-1)
	for i, row := range all[1:] {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(row) {
				fields[strings.TrimSpace(h)] = strings.TrimSpace(row[j])
			}
		}
		rows = append(rows, csvRow{lineNum: i + 2, fields: fields})
	}
	return rows, nil
}

// ── Phases ──

type encodedRow struct {
	lineNum int
	vector  domain.FeatureVector
}

// validateEncoding parses every row and flags rows the encoder would score
// with the unknown-category sentinel.
func validateEncoding(rows []csvRow) ([]encodedRow, *phase) {
	p := &phase{name: "Encoder coverage"}
	out := make([]encodedRow, 0, len(rows))
	for _, row := range rows {
		r, err := domain.ParseReading(row)
		if err != nil {
			p.errorf("line %d: %v", row.lineNum, err)
			continue
		}
		if unknown := r.UnknownCategories(); len(unknown) > 0 {
			p.errorf("line %d: %v", row.lineNum, &domain.UnknownCategoryError{Fields: unknown})
			continue
		}
		out = append(out, encodedRow{lineNum: row.lineNum, vector: domain.Encode(r)})
	}
	return out, p
}

func validateProbabilities(tabular, sequence domain.Scorer, rows []encodedRow) ([]scored, *phase) {
	p := &phase{name: "Probabilities in [0, 1]"}
	ctx := context.Background()
	out := make([]scored, 0, len(rows))
	for _, row := range rows {
		tab, err := tabular.Score(ctx, row.vector)
		if err == nil {
			err = domain.CheckProbability(tab)
		}
		if err != nil {
			p.errorf("line %d: tabular: %v", row.lineNum, err)
			continue
		}
		seq, err := sequence.Score(ctx, row.vector)
		if err == nil {
			err = domain.CheckProbability(seq)
		}
		if err != nil {
			p.errorf("line %d: sequence: %v", row.lineNum, err)
			continue
		}
		out = append(out, scored{lineNum: row.lineNum, tabular: tab, sequence: seq})
	}
	return out, p
}

// validateDecisions checks each decision against the threshold table and
// that confidence is reported on the right side of the mean.
func validateDecisions(results []scored) *phase {
	p := &phase{name: "Decision consistency"}
	for _, s := range results {
		d := domain.Decide(s.tabular, s.sequence)
		var want domain.RiskLevel
		switch {
		case d.Mean > domain.HighThreshold:
			want = domain.RiskHigh
		case d.Mean > domain.ModerateThreshold:
			want = domain.RiskModerate
		default:
			want = domain.RiskSafe
		}
		if d.Level != want {
			p.errorf("line %d: mean %.4f decided %s, want %s", s.lineNum, d.Mean, d.Level, want)
		}
		if d.Level == domain.RiskSafe && d.Confidence < 1-domain.ModerateThreshold {
			p.errorf("line %d: safe confidence %.4f below %.2f", s.lineNum, d.Confidence, 1-domain.ModerateThreshold)
		}
		if !strings.Contains(d.Label(), "confidence)") {
			p.errorf("line %d: malformed label %q", s.lineNum, d.Label())
		}
	}
	return p
}

func printDistribution(results []scored) {
	if len(results) == 0 {
		return
	}
	counts := map[domain.RiskLevel]int{}
	var agree int
	for _, s := range results {
		counts[domain.Decide(s.tabular, s.sequence).Level]++
		if (s.tabular > domain.HighThreshold) == (s.sequence > domain.HighThreshold) {
			agree++
		}
	}

	levels := make([]domain.RiskLevel, 0, len(counts))
	for l := range counts {
		levels = append(levels, l)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	fmt.Println("Decisions:")
	for _, l := range levels {
		fmt.Printf("  %-10s %5d (%.1f%%)\n", l, counts[l], 100*float64(counts[l])/float64(len(results)))
	}
	fmt.Printf("Model agreement at %.1f: %.1f%%\n", domain.HighThreshold, 100*float64(agree)/float64(len(results)))
}
