// Command genmock writes deterministic demonstration model artifacts and a
// sample readings CSV so the service can run without the training
// toolchain. Every artifact is decoded with the model package before it is
// written, so the output always loads in the service.
//
// Usage:
//
//	go run ./cmd/genmock -out-dir models -seed 42 -readings 200
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/domain"
	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/model"
)

const (
	forestFile   = "flood_rf_model.json"
	lstmFile     = "flood_lstm_model.json"
	readingsFile = "sample_readings.csv"
	lstmUnits    = 4
)

// featureScale is the typical magnitude of each feature, used to keep
// seeded LSTM pre-activations out of saturation.
var featureScale = [domain.NumFeatures]float64{300, 40, 100, 5000, 10, 200, 4, 5, 20000, 5}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "models", "directory to write artifacts into")
	seed := flag.Uint64("seed", 42, "seed for LSTM weights and sample readings")
	readings := flag.Int("readings", 200, "number of sample readings to generate")
	flag.Parse()

	if *readings < 1 {
		flag.Usage()
		return fmt.Errorf("-readings must be positive")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))

	forest, err := encodeChecked(demoForest(), func(b []byte) error {
		_, err := model.DecodeForest(bytes.NewReader(b))
		return err
	})
	if err != nil {
		return fmt.Errorf("forest artifact: %w", err)
	}
	if err := writeFile(filepath.Join(*outDir, forestFile), forest); err != nil {
		return err
	}

	lstm, err := encodeChecked(demoLSTM(rng), func(b []byte) error {
		_, err := model.DecodeLSTM(bytes.NewReader(b))
		return err
	})
	if err != nil {
		return fmt.Errorf("lstm artifact: %w", err)
	}
	if err := writeFile(filepath.Join(*outDir, lstmFile), lstm); err != nil {
		return err
	}

	rows := sampleReadings(rng, *readings)
	if err := writeCSV(filepath.Join(*outDir, readingsFile), rows); err != nil {
		return err
	}
	log.Printf("readings: %d rows", len(rows)-1)
	return nil
}

func encodeChecked(v any, check func([]byte) error) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := check(data); err != nil {
		return nil, fmt.Errorf("generated artifact does not load: %w", err)
	}
	return append(data, '\n'), nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Printf("wrote %s (%d bytes)", path, len(data))
	return nil
}

// ── Forest ──

type forestJSON struct {
	NFeatures int        `json:"n_features"`
	Classes   []int      `json:"classes"`
	Trees     []treeJSON `json:"trees"`
}

type treeJSON struct {
	Nodes []nodeJSON `json:"nodes"`
}

type nodeJSON struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value"`
}

// rule is a hand-written decision tree: either a split or a leaf of
// (safe, flood) sample counts.
type rule struct {
	feature   string
	threshold float64
	le, gt    *rule
	safe      float64
	flood     float64
}

func split(feature string, threshold float64, le, gt *rule) *rule {
	return &rule{feature: feature, threshold: threshold, le: le, gt: gt}
}

func leaf(safe, flood float64) *rule {
	return &rule{safe: safe, flood: flood}
}

func demoForest() forestJSON {
	rules := []*rule{
		split(domain.FieldRainfall, 150,
			split(domain.FieldWaterLevel, 5, leaf(80, 20), leaf(40, 60)),
			split(domain.FieldElevation, 50, leaf(10, 90), leaf(35, 65))),
		split(domain.FieldRiverDischarge, 2500,
			leaf(75, 25),
			split(domain.FieldLandCover, 0.5, leaf(55, 45), leaf(20, 80))),
		split(domain.FieldHumidity, 80,
			leaf(70, 30),
			split(domain.FieldHistoricalFloods, 1, leaf(45, 55), leaf(15, 85))),
		split(domain.FieldElevation, 30,
			split(domain.FieldPopulationDensity, 5000, leaf(40, 60), leaf(25, 75)),
			split(domain.FieldSoilType, 0.5, leaf(70, 30), leaf(85, 15))),
	}

	f := forestJSON{NFeatures: domain.NumFeatures, Classes: []int{0, 1}}
	for _, r := range rules {
		var nodes []nodeJSON
		flatten(r, &nodes)
		f.Trees = append(f.Trees, treeJSON{Nodes: nodes})
	}
	return f
}

// flatten appends r in depth-first preorder, so children always follow
// their parent.
func flatten(r *rule, nodes *[]nodeJSON) int {
	idx := len(*nodes)
	if r.le == nil {
		*nodes = append(*nodes, nodeJSON{Feature: -2, Threshold: -2, Left: -1, Right: -1, Value: []float64{r.safe, r.flood}})
		return idx
	}
	*nodes = append(*nodes, nodeJSON{Feature: featureIndex(r.feature), Threshold: r.threshold})
	left := flatten(r.le, nodes)
	right := flatten(r.gt, nodes)
	(*nodes)[idx].Left = left
	(*nodes)[idx].Right = right
	return idx
}

func featureIndex(name string) int {
	for i, n := range domain.FeatureNames {
		if n == name {
			return i
		}
	}
	panic("unknown feature " + name)
}

// ── LSTM ──

type lstmJSON struct {
	InputDim            int         `json:"input_dim"`
	Units               int         `json:"units"`
	Kernel              [][]float64 `json:"kernel"`
	RecurrentKernel     [][]float64 `json:"recurrent_kernel"`
	Bias                []float64   `json:"bias"`
	Activation          string      `json:"activation"`
	RecurrentActivation string      `json:"recurrent_activation"`
	Dense               []denseJSON `json:"dense"`
}

type denseJSON struct {
	Kernel     [][]float64 `json:"kernel"`
	Bias       []float64   `json:"bias"`
	Activation string      `json:"activation"`
}

// floodSign steers the cell candidate of unit 0 so the demo model responds
// to flood drivers in the expected direction.
var floodSign = map[string]float64{
	domain.FieldRainfall:         1,
	domain.FieldRiverDischarge:   1,
	domain.FieldWaterLevel:       1,
	domain.FieldHistoricalFloods: 1,
	domain.FieldElevation:        -1,
}

func demoLSTM(rng *rand.Rand) lstmJSON {
	u := lstmUnits
	gates := 4 * u

	kernel := make([][]float64, domain.NumFeatures)
	for i := range kernel {
		kernel[i] = make([]float64, gates)
		for j := range kernel[i] {
			kernel[i][j] = 0.3 * rng.NormFloat64() / featureScale[i]
		}
		if s, ok := floodSign[domain.FeatureNames[i]]; ok {
			kernel[i][2*u] = 1.5 * s / featureScale[i] // cell candidate, unit 0
		}
	}

	recurrent := make([][]float64, u)
	for i := range recurrent {
		recurrent[i] = make([]float64, gates)
		for j := range recurrent[i] {
			recurrent[i][j] = 0.1 * rng.NormFloat64()
		}
	}

	bias := make([]float64, gates)
	for j := u; j < 2*u; j++ {
		bias[j] = 1 // Keras unit_forget_bias
	}

	head := make([][]float64, u)
	for i := range head {
		head[i] = []float64{0.5 * rng.NormFloat64()}
	}
	head[0][0] = 4

	return lstmJSON{
		InputDim:            domain.NumFeatures,
		Units:               u,
		Kernel:              kernel,
		RecurrentKernel:     recurrent,
		Bias:                bias,
		Activation:          "tanh",
		RecurrentActivation: "sigmoid",
		Dense:               []denseJSON{{Kernel: head, Bias: []float64{-1}, Activation: "sigmoid"}},
	}
}

// ── Sample readings ──

func sampleReadings(rng *rand.Rand, n int) [][]string {
	landCovers := keys(domain.LandCoverCodes)
	soilTypes := keys(domain.SoilTypeCodes)

	rows := make([][]string, 0, n+1)
	rows = append(rows, domain.FeatureNames[:])
	for i := 0; i < n; i++ {
		rows = append(rows, []string{
			ff(rng.Float64() * 350),
			ff(18 + rng.Float64()*24),
			ff(30 + rng.Float64()*70),
			ff(rng.Float64() * 6000),
			ff(rng.Float64() * 12),
			ff(rng.Float64() * 250),
			landCovers[rng.IntN(len(landCovers))],
			soilTypes[rng.IntN(len(soilTypes))],
			ff(100 + rng.Float64()*25000),
			strconv.Itoa(rng.IntN(6)),
		})
	}
	return rows
}

func ff(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

// keys returns table keys in code order for reproducible output.
func keys(table map[string]int) []string {
	out := make([]string, len(table))
	for name, code := range table {
		out[code] = name
	}
	return out
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Printf("wrote %s", path)
	return nil
}
