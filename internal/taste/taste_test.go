package taste

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func vectorsEqual(t *testing.T, got, want Vector) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Expected length %d, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Errorf("Dimension %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want Vector
	}{
		{"absent", nil, Vector{0.5, 0.5, 0.5, 0.5, 0.5}},
		{"full list", []any{0.1, 0.2, 0.3, 0.4, 0.9}, Vector{0.1, 0.2, 0.3, 0.4, 0.9}},
		{"short list", []any{1.0, 0.0}, Vector{1, 0, 0.5, 0.5, 0.5}},
		{"long list", []any{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7}, Vector{0.1, 0.2, 0.3, 0.4, 0.5}},
		{"float slice", []float64{0.2, 0.2}, Vector{0.2, 0.2, 0.5, 0.5, 0.5}},
		{"scalar balance", 0.8, Vector{0.8, 0.8, 0.8, 0.8, 0.8}},
		{"int balance", 1, Vector{1, 1, 1, 1, 1}},
		{
			"object with spicy",
			map[string]any{"sweet": 0.1, "salty": 0.2, "sour": 0.3, "bitter": 0.4, "spicy": 0.9, "savory": 0.0},
			Vector{0.1, 0.2, 0.3, 0.4, 0.9},
		},
		{
			"object with savory",
			map[string]any{"sweet": 0.1, "savory": 0.7},
			Vector{0.1, 0.5, 0.5, 0.5, 0.7},
		},
		{
			"object with non-numeric value",
			map[string]any{"sweet": "very"},
			Vector{0.5, 0.5, 0.5, 0.5, 0.5},
		},
		{"unsupported", "sweet", Vector{0.5, 0.5, 0.5, 0.5, 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vectorsEqual(t, Normalize(tt.raw), tt.want)
		})
	}
}

func TestAverageEmpty(t *testing.T) {
	vectorsEqual(t, Average(nil), Vector{0.5, 0.5, 0.5, 0.5, 0.5})
}

func TestAverageSingle(t *testing.T) {
	vectorsEqual(t, Average([]Vector{{1, 1, 1, 1, 1}}), Vector{1, 1, 1, 1, 1})
}

func TestAverageMany(t *testing.T) {
	got := Average([]Vector{
		{0, 0, 0, 0, 0},
		{1, 0.5, 0, 1, 0.2},
	})
	vectorsEqual(t, got, Vector{0.5, 0.25, 0, 0.5, 0.1})
}

func TestAverageDoesNotMutateInput(t *testing.T) {
	in := []Vector{{1, 1, 1, 1, 1}, {0, 0, 0, 0, 0}}
	Average(in)
	vectorsEqual(t, in[0], Vector{1, 1, 1, 1, 1})
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Vector
		want float64
	}{
		{"identical", Vector{0.9, 0.1, 0.1, 0.1, 0.1}, Vector{0.9, 0.1, 0.1, 0.1, 0.1}, 0},
		{"one dimension", Vector{0, 0, 0, 0, 0}, Vector{0, 0, 0.3, 0, 0}, 0.3},
		{"pythagorean", Vector{0, 0}, Vector{3, 4}, 5},
		{"shorter ignores extra", Vector{1, 1}, Vector{1, 1, 9, 9, 9}, 0},
		{"empty", Vector{}, Vector{1, 2, 3}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); !almostEqual(got, tt.want) {
				t.Errorf("Distance = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMean(t *testing.T) {
	if got := (Vector{0.2, 0.4, 0.6, 0.8, 1.0}).Mean(); !almostEqual(got, 0.6) {
		t.Errorf("Expected mean 0.6, got %v", got)
	}
	if got := (Vector{}).Mean(); got != NeutralValue {
		t.Errorf("Expected neutral mean for empty vector, got %v", got)
	}
}

func TestIsFinite(t *testing.T) {
	if !Neutral().IsFinite() {
		t.Error("Expected neutral vector to be finite")
	}
	if (Vector{0, math.Inf(-1), 0, 0, 0}).IsFinite() {
		t.Error("Expected infinite component to be reported")
	}
	if (Vector{math.NaN()}).IsFinite() {
		t.Error("Expected NaN component to be reported")
	}
}

func TestNormalizeMapUsesNames(t *testing.T) {
	raw := map[string]any{}
	for i, name := range Names {
		raw[name] = float64(i) / 10
	}
	got := Normalize(raw)
	for i := range Names {
		if got[i] != float64(i)/10 {
			t.Errorf("%s: expected %v, got %v", Names[i], float64(i)/10, got[i])
		}
	}
}
