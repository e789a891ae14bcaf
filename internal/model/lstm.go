package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/domain"
)

// LSTM is a single-layer LSTM followed by a dense head, evaluated from a
// Keras weight export. It implements domain.Scorer by treating the feature
// vector as a sequence of one observation. It is immutable after loading.
type LSTM struct {
	units int

	kernel    *mat.Dense    // input_dim x 4*units
	recurrent *mat.Dense    // units x 4*units
	bias      *mat.VecDense // 4*units

	activation          activationFunc
	recurrentActivation activationFunc

	head []denseLayer
}

type denseLayer struct {
	kernel     *mat.Dense // in x out
	bias       *mat.VecDense
	activation activationFunc
}

type activationFunc func(float64) float64

type lstmFile struct {
	InputDim            int         `json:"input_dim"`
	Units               int         `json:"units"`
	Kernel              [][]float64 `json:"kernel"`
	RecurrentKernel     [][]float64 `json:"recurrent_kernel"`
	Bias                []float64   `json:"bias"`
	Activation          string      `json:"activation"`
	RecurrentActivation string      `json:"recurrent_activation"`
	Dense               []denseFile `json:"dense"`
}

type denseFile struct {
	Kernel     [][]float64 `json:"kernel"`
	Bias       []float64   `json:"bias"`
	Activation string      `json:"activation"`
}

var activations = map[string]activationFunc{
	"linear":       func(x float64) float64 { return x },
	"relu":         func(x float64) float64 { return math.Max(0, x) },
	"tanh":         math.Tanh,
	"sigmoid":      sigmoid,
	"hard_sigmoid": hardSigmoid,
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// hardSigmoid follows Keras: clip(0.2x + 0.5, 0, 1).
func hardSigmoid(x float64) float64 { return math.Min(1, math.Max(0, 0.2*x+0.5)) }

func lookupActivation(name, def string) (activationFunc, error) {
	if name == "" {
		name = def
	}
	fn, ok := activations[name]
	if !ok {
		return nil, fmt.Errorf("unsupported activation %q", name)
	}
	return fn, nil
}

// LoadLSTM reads an LSTM artifact from disk.
func LoadLSTM(path string) (*LSTM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lstm artifact: %w", err)
	}
	defer f.Close()

	m, err := DecodeLSTM(f)
	if err != nil {
		return nil, fmt.Errorf("load lstm %s: %w", path, err)
	}
	return m, nil
}

// DecodeLSTM parses and validates an LSTM artifact. Gate order within the
// 4*units columns is input, forget, cell, output (Keras convention).
func DecodeLSTM(r io.Reader) (*LSTM, error) {
	var lf lstmFile
	if err := json.NewDecoder(r).Decode(&lf); err != nil {
		return nil, fmt.Errorf("decode lstm: %w", err)
	}

	if lf.InputDim != domain.NumFeatures {
		return nil, fmt.Errorf("lstm expects %d features, want %d", lf.InputDim, domain.NumFeatures)
	}
	if lf.Units <= 0 {
		return nil, errors.New("lstm units must be positive")
	}
	gates := 4 * lf.Units

	kernel, err := denseFromRows("kernel", lf.Kernel, lf.InputDim, gates)
	if err != nil {
		return nil, err
	}
	recurrent, err := denseFromRows("recurrent_kernel", lf.RecurrentKernel, lf.Units, gates)
	if err != nil {
		return nil, err
	}
	bias, err := vecFrom("bias", lf.Bias, gates)
	if err != nil {
		return nil, err
	}
	act, err := lookupActivation(lf.Activation, "tanh")
	if err != nil {
		return nil, err
	}
	recAct, err := lookupActivation(lf.RecurrentActivation, "sigmoid")
	if err != nil {
		return nil, err
	}

	if len(lf.Dense) == 0 {
		return nil, errors.New("lstm has no dense head")
	}
	head := make([]denseLayer, len(lf.Dense))
	in := lf.Units
	for i, d := range lf.Dense {
		if len(d.Bias) == 0 {
			return nil, fmt.Errorf("dense %d: empty bias", i)
		}
		out := len(d.Bias)
		k, err := denseFromRows(fmt.Sprintf("dense %d kernel", i), d.Kernel, in, out)
		if err != nil {
			return nil, err
		}
		fn, err := lookupActivation(d.Activation, "linear")
		if err != nil {
			return nil, fmt.Errorf("dense %d: %w", i, err)
		}
		head[i] = denseLayer{kernel: k, bias: mat.NewVecDense(out, append([]float64(nil), d.Bias...)), activation: fn}
		in = out
	}
	if in != 1 {
		return nil, fmt.Errorf("dense head produces %d outputs, want 1", in)
	}

	return &LSTM{
		units:               lf.Units,
		kernel:              kernel,
		recurrent:           recurrent,
		bias:                bias,
		activation:          act,
		recurrentActivation: recAct,
		head:                head,
	}, nil
}

func denseFromRows(name string, rows [][]float64, r, c int) (*mat.Dense, error) {
	if len(rows) != r {
		return nil, fmt.Errorf("%s has %d rows, want %d", name, len(rows), r)
	}
	data := make([]float64, 0, r*c)
	for i, row := range rows {
		if len(row) != c {
			return nil, fmt.Errorf("%s row %d has %d columns, want %d", name, i, len(row), c)
		}
		data = append(data, row...)
	}
	return mat.NewDense(r, c, data), nil
}

func vecFrom(name string, v []float64, n int) (*mat.VecDense, error) {
	if len(v) != n {
		return nil, fmt.Errorf("%s has %d values, want %d", name, len(v), n)
	}
	return mat.NewVecDense(n, append([]float64(nil), v...)), nil
}

// Units returns the LSTM hidden size.
func (m *LSTM) Units() int { return m.units }

// Score runs the vector as a length-1 sequence and returns the head output.
func (m *LSTM) Score(ctx context.Context, v domain.FeatureVector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return m.Forward([][]float64{v.Slice()})
}

// Forward runs a sequence of observations through the LSTM and the dense
// head, returning the single output of the final layer.
func (m *LSTM) Forward(seq [][]float64) (float64, error) {
	inputDim, _ := m.kernel.Dims()
	if len(seq) == 0 {
		return 0, errors.New("empty sequence")
	}

	u := m.units
	h := mat.NewVecDense(u, nil)
	c := mat.NewVecDense(u, nil)
	z := mat.NewVecDense(4*u, nil)
	var rec mat.VecDense

	for step, obs := range seq {
		if len(obs) != inputDim {
			return 0, fmt.Errorf("step %d has %d features, want %d", step, len(obs), inputDim)
		}
		x := mat.NewVecDense(inputDim, append([]float64(nil), obs...))

		// z = Wᵀx + Uᵀh + b
		z.MulVec(m.kernel.T(), x)
		rec.MulVec(m.recurrent.T(), h)
		z.AddVec(z, &rec)
		z.AddVec(z, m.bias)

		for j := 0; j < u; j++ {
			in := m.recurrentActivation(z.AtVec(j))
			forget := m.recurrentActivation(z.AtVec(u + j))
			cand := m.activation(z.AtVec(2*u + j))
			out := m.recurrentActivation(z.AtVec(3*u + j))

			cj := forget*c.AtVec(j) + in*cand
			c.SetVec(j, cj)
			h.SetVec(j, out*m.activation(cj))
		}
	}

	var act mat.Vector = h
	for _, layer := range m.head {
		_, out := layer.kernel.Dims()
		next := mat.NewVecDense(out, nil)
		next.MulVec(layer.kernel.T(), act)
		next.AddVec(next, layer.bias)
		for j := 0; j < out; j++ {
			next.SetVec(j, layer.activation(next.AtVec(j)))
		}
		act = next
	}
	return act.AtVec(0), nil
}
