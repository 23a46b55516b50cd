// Package model holds the online satisfaction predictor: a linear model over
// a menu's average taste vector, refined one feedback sample at a time.
package model

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/floats"

	"github.com/kartoza/restaurant-bot/internal/taste"
)

// NumWeights is the bias plus one weight per taste dimension
const NumWeights = taste.Dims + 1

const (
	// DefaultLearningRate is the step size used by the shell and API
	DefaultLearningRate = 0.01
	// DefaultWeight seeds every weight, bias included, of a fresh model
	DefaultWeight = 0.1
)

// ErrMalformedWeights is returned by Load when the file cannot be decoded
var ErrMalformedWeights = errors.New("malformed weights file")

// SatisfactionModel predicts satisfaction as
// weights[0] + sum(weights[i+1] * taste[i]).
type SatisfactionModel struct {
	weights      []float64
	learningRate float64
	mu           sync.RWMutex
}

// weightsFile is the on-disk record
type weightsFile struct {
	Weights []float64 `json:"weights"`
}

// New creates a model with every weight set to DefaultWeight
func New(learningRate float64) *SatisfactionModel {
	w := make([]float64, NumWeights)
	for i := range w {
		w[i] = DefaultWeight
	}
	return &SatisfactionModel{weights: w, learningRate: learningRate}
}

// Predict returns the predicted satisfaction for a taste vector. Dimensions
// beyond the fifth are ignored; an empty model predicts 0.
func (m *SatisfactionModel) Predict(v taste.Vector) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.predict(v)
}

func (m *SatisfactionModel) predict(v taste.Vector) float64 {
	if len(m.weights) == 0 {
		return 0
	}
	n := min(taste.Dims, len(v), len(m.weights)-1)
	return m.weights[0] + floats.Dot(m.weights[1:1+n], v[:n])
}

// Train performs one stochastic gradient step on squared error toward actual.
// A NaN or infinite taste component or label leaves the weights untouched
// and reports false.
func (m *SatisfactionModel) Train(v taste.Vector, actual float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.weights) == 0 {
		return false
	}
	n := min(taste.Dims, len(v), len(m.weights)-1)
	if !finite(actual) || !v[:n].IsFinite() {
		return false
	}
	step := m.learningRate * (actual - m.predict(v))
	floats.AddScaled(m.weights[1:1+n], step, v[:n])
	m.weights[0] += step
	return true
}

// Weights returns a copy of [bias, w_sweet, w_salty, w_sour, w_bitter, w_spicy]
func (m *SatisfactionModel) Weights() []float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]float64, len(m.weights))
	copy(out, m.weights)
	return out
}

// SetWeights adopts w, zero-padded to NumWeights. An empty list is ignored.
func (m *SatisfactionModel) SetWeights(w []float64) {
	if len(w) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.weights = padWeights(w)
}

// LearningRate returns the step size
func (m *SatisfactionModel) LearningRate() float64 {
	return m.learningRate
}

// Save writes the weights as {"weights": [...]}. The file is written to a
// temporary sibling and renamed, so a failure leaves the previous file intact.
func (m *SatisfactionModel) Save(path string) error {
	data, err := json.MarshalIndent(weightsFile{Weights: m.Weights()}, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal weights: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".weights-*.json")
	if err != nil {
		return fmt.Errorf("could not open %s to save weights: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write weights: %w", err)
	}
	// CreateTemp opens files 0600
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set weights permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write weights: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Load restores weights from path. A missing file keeps the current weights
// and is not an error. A malformed file returns ErrMalformedWeights and also
// keeps the current weights.
func (m *SatisfactionModel) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read weights: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedWeights, err)
	}
	field, ok := raw["weights"]
	if !ok {
		return nil
	}

	var w []float64
	if err := json.Unmarshal(field, &w); err != nil {
		return fmt.Errorf("%w: weights: %v", ErrMalformedWeights, err)
	}

	m.SetWeights(w)
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// padWeights copies w and zero-pads it to NumWeights
func padWeights(w []float64) []float64 {
	n := max(len(w), NumWeights)
	out := make([]float64, n)
	copy(out, w)
	return out
}
