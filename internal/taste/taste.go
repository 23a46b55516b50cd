// Package taste models the five-dimensional flavour profile shared by menu
// items, whole menus and user preferences.
package taste

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Dims is the fixed length of a taste vector
const Dims = 5

// NeutralValue fills any dimension the source data leaves out
const NeutralValue = 0.5

// Dimension indices, in canonical order
const (
	Sweet = iota
	Salty
	Sour
	Bitter
	Spicy
)

// Names lists the dimension keys in canonical order
var Names = [Dims]string{"sweet", "salty", "sour", "bitter", "spicy"}

// Vector is a taste profile ordered as [sweet, salty, sour, bitter, spicy].
// Values are expected in [0,1] but are not clamped.
type Vector []float64

// Neutral returns a vector of five NeutralValue entries
func Neutral() Vector {
	return Fill(NeutralValue)
}

// Fill returns a vector with every dimension set to v
func Fill(v float64) Vector {
	out := make(Vector, Dims)
	for i := range out {
		out[i] = v
	}
	return out
}

// Normalize converts any of the accepted raw encodings into a canonical
// vector: a positional list of numbers, a keyed object, or a single
// balance number broadcast to every dimension. Anything else is neutral.
func Normalize(raw any) Vector {
	switch v := raw.(type) {
	case Vector:
		return fromList(v)
	case []float64:
		return fromList(v)
	case []any:
		out := Neutral()
		for i, x := range v {
			if i >= Dims {
				break
			}
			if f, ok := toFloat(x); ok {
				out[i] = f
			}
		}
		return out
	case map[string]any:
		return fromMap(v)
	case map[string]float64:
		m := make(map[string]any, len(v))
		for k, x := range v {
			m[k] = x
		}
		return fromMap(m)
	default:
		if f, ok := toFloat(raw); ok {
			return Fill(f)
		}
		return Neutral()
	}
}

func fromList(list []float64) Vector {
	out := Neutral()
	copy(out, list)
	return out
}

// fromMap reads sweet/salty/sour/bitter and takes spicy over savory for the
// fifth slot.
func fromMap(m map[string]any) Vector {
	get := func(key string) float64 {
		if f, ok := toFloat(m[key]); ok {
			return f
		}
		return NeutralValue
	}

	out := make(Vector, Dims)
	for i, key := range Names {
		out[i] = get(key)
	}
	if _, ok := m[Names[Spicy]]; !ok {
		out[Spicy] = get("savory")
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Average returns the element-wise mean of vs. An empty input yields the
// neutral vector rather than zeros.
func Average(vs []Vector) Vector {
	if len(vs) == 0 {
		return Neutral()
	}
	sum := make(Vector, Dims)
	for _, v := range vs {
		floats.Add(sum, fromList(v)[:Dims])
	}
	floats.Scale(1/float64(len(vs)), sum)
	return sum
}

// Distance is the Euclidean distance over the dimensions both vectors have.
func Distance(a, b Vector) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	return floats.Distance(a[:n], b[:n], 2)
}

// Mean returns the scalar average of the vector's components, or the neutral
// value when empty.
func (v Vector) Mean() float64 {
	if len(v) == 0 {
		return NeutralValue
	}
	return floats.Sum(v) / float64(len(v))
}

// IsFinite reports whether no component is NaN or infinite
func (v Vector) IsFinite() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Clone returns a copy that does not share backing storage
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	copy(out, v)
	return out
}
