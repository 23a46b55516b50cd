package model

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/kartoza/restaurant-bot/internal/taste"
)

func TestNewModel(t *testing.T) {
	m := New(DefaultLearningRate)

	w := m.Weights()
	if len(w) != NumWeights {
		t.Fatalf("Expected %d weights, got %d", NumWeights, len(w))
	}
	for i, v := range w {
		if v != DefaultWeight {
			t.Errorf("Weight %d: expected %v, got %v", i, DefaultWeight, v)
		}
	}
	if m.LearningRate() != 0.01 {
		t.Errorf("Expected learning rate 0.01, got %v", m.LearningRate())
	}
}

func TestPredictIsLinear(t *testing.T) {
	m := New(DefaultLearningRate)
	m.SetWeights([]float64{0.5, 1, -1, 2, 0, 3})

	v := taste.Vector{0.1, 0.2, 0.3, 0.4, 0.5}
	want := 0.5 + 1*0.1 - 1*0.2 + 2*0.3 + 0*0.4 + 3*0.5
	if got := m.Predict(v); math.Abs(got-want) > 1e-12 {
		t.Errorf("Predict = %v, want %v", got, want)
	}
}

func TestPredictShortAndLongInput(t *testing.T) {
	m := New(DefaultLearningRate)

	if got := m.Predict(taste.Vector{1}); math.Abs(got-0.2) > 1e-12 {
		t.Errorf("Expected 0.2 for single-dimension input, got %v", got)
	}
	if got := m.Predict(taste.Vector{1, 1, 1, 1, 1, 100}); math.Abs(got-0.6) > 1e-12 {
		t.Errorf("Expected extra dimensions to be ignored, got %v", got)
	}
	if got := m.Predict(nil); got != DefaultWeight {
		t.Errorf("Expected bias only for empty input, got %v", got)
	}
}

func TestPredictEmptyModel(t *testing.T) {
	m := &SatisfactionModel{learningRate: DefaultLearningRate}
	if got := m.Predict(taste.Neutral()); got != 0 {
		t.Errorf("Expected 0 from empty model, got %v", got)
	}
}

func TestTrainMovesTowardTarget(t *testing.T) {
	tests := []struct {
		name   string
		input  taste.Vector
		target float64
	}{
		{"above", taste.Vector{0.9, 0.1, 0.1, 0.1, 0.1}, 1.0},
		{"below", taste.Vector{0.5, 0.5, 0.5, 0.5, 0.5}, 0.0},
		{"zero input", taste.Vector{0, 0, 0, 0, 0}, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(0.01)
			before := math.Abs(m.Predict(tt.input) - tt.target)
			m.Train(tt.input, tt.target)
			after := math.Abs(m.Predict(tt.input) - tt.target)
			if after > before {
				t.Errorf("Error grew after training: before=%v after=%v", before, after)
			}
			if before != 0 && after == before {
				t.Errorf("Expected training to change the prediction")
			}
		})
	}
}

func TestTrainUpdateRule(t *testing.T) {
	m := New(0.1)
	v := taste.Vector{1, 0, 0.5, 0, 0}
	// prediction = 0.1 + 0.1 + 0.05 = 0.25, error = 0.75
	m.Train(v, 1.0)

	w := m.Weights()
	want := []float64{0.1 + 0.075, 0.1 + 0.075, 0.1, 0.1 + 0.0375, 0.1, 0.1}
	for i := range want {
		if math.Abs(w[i]-want[i]) > 1e-12 {
			t.Errorf("Weight %d: expected %v, got %v", i, want[i], w[i])
		}
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weights.json")

	original := []float64{0.3, -0.25, 1.5, 0.125, 0, 7.75}
	model := New(DefaultLearningRate)
	model.SetWeights(original)

	if err := model.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("Weights file was not created")
	}

	model2 := New(DefaultLearningRate)
	if err := model2.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	got := model2.Weights()
	for i := range original {
		if got[i] != original[i] {
			t.Errorf("Weight %d: expected %v, got %v", i, original[i], got[i])
		}
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	m := New(DefaultLearningRate)
	if err := m.Load(filepath.Join(t.TempDir(), "nope.json")); err != nil {
		t.Fatalf("Expected no error for missing file, got %v", err)
	}
	if m.Weights()[0] != DefaultWeight {
		t.Error("Expected defaults to be kept")
	}
}

func TestLoadPadsShortList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.json")
	if err := os.WriteFile(path, []byte(`{"weights": [1, 2]}`), 0644); err != nil {
		t.Fatal(err)
	}

	m := New(DefaultLearningRate)
	if err := m.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := []float64{1, 2, 0, 0, 0, 0}
	got := m.Weights()
	if len(got) != len(want) {
		t.Fatalf("Expected %d weights, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Weight %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestLoadMalformedKeepsState(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `weights = 1`},
		{"wrong type", `{"weights": "heavy"}`},
		{"non-numeric entry", `{"weights": [0.1, "x", 0.3]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "weights.json")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			m := New(DefaultLearningRate)
			m.SetWeights([]float64{9, 8, 7, 6, 5, 4})

			err := m.Load(path)
			if !errors.Is(err, ErrMalformedWeights) {
				t.Fatalf("Expected ErrMalformedWeights, got %v", err)
			}
			if m.Weights()[0] != 9 || m.Weights()[5] != 4 {
				t.Errorf("Expected in-memory weights to be untouched, got %v", m.Weights())
			}
		})
	}
}

func TestLoadWithoutWeightsField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.json")
	if err := os.WriteFile(path, []byte(`{"other": 1}`), 0644); err != nil {
		t.Fatal(err)
	}

	m := New(DefaultLearningRate)
	if err := m.Load(path); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if m.Weights()[3] != DefaultWeight {
		t.Error("Expected defaults to be kept")
	}
}

func TestSaveFailureLeavesPriorFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing-dir", "weights.json")

	m := New(DefaultLearningRate)
	if err := m.Save(path); err == nil {
		t.Fatal("Expected error saving into a missing directory")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected no file to be created")
	}
}

func TestPadWeights(t *testing.T) {
	tests := []struct {
		name     string
		input    []float64
		expected int
	}{
		{"exact", []float64{1, 2, 3, 4, 5, 6}, 6},
		{"pad", []float64{1, 2}, 6},
		{"longer kept", []float64{1, 2, 3, 4, 5, 6, 7}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := padWeights(tt.input)
			if len(result) != tt.expected {
				t.Errorf("Expected length %d, got %d", tt.expected, len(result))
			}
		})
	}
}

func TestTrainRejectsNonFinite(t *testing.T) {
	tests := []struct {
		name   string
		taste  taste.Vector
		actual float64
	}{
		{"nan taste", taste.Vector{math.NaN(), 0, 0, 0, 0}, 0.5},
		{"inf taste", taste.Vector{0, 0, math.Inf(1), 0, 0}, 0.5},
		{"nan label", taste.Neutral(), math.NaN()},
		{"inf label", taste.Neutral(), math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(DefaultLearningRate)
			if m.Train(tt.taste, tt.actual) {
				t.Error("Expected Train to refuse non-finite input")
			}
			for i, w := range m.Weights() {
				if w != DefaultWeight {
					t.Errorf("Weight %d changed to %v", i, w)
				}
			}
			if err := m.Save(filepath.Join(t.TempDir(), "weights.json")); err != nil {
				t.Errorf("Save failed after refused step: %v", err)
			}
		})
	}
}

func TestSaveFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions only")
	}
	path := filepath.Join(t.TempDir(), "weights.json")
	if err := New(DefaultLearningRate).Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o644 {
		t.Errorf("Expected mode 0644, got %o", perm)
	}
}
