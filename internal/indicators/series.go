// Package indicators computes technical indicators over price series.
//
// Every function is pure: inputs are never modified and the output is a new
// Series aligned index-for-index with the input. Positions without enough
// history (the warm-up prefix) are undefined rather than zero. Series that are
// too short for the requested window, and non-positive windows, produce an
// all-undefined result instead of an error.
package indicators

import (
	"github.com/guregu/null/v6"
)

// Series is an indicator result aligned 1:1 with its input.
// An invalid element is an undefined value.
type Series []null.Float

// undefined returns a Series of n undefined values
func undefined(n int) Series {
	return make(Series, n)
}

func defined(v float64) null.Float {
	return null.FloatFrom(v)
}

// Defined reports whether index i holds a value
func (s Series) Defined(i int) bool {
	return i >= 0 && i < len(s) && s[i].Valid
}

// At returns the value at i and whether it is defined
func (s Series) At(i int) (float64, bool) {
	if !s.Defined(i) {
		return 0, false
	}
	return s[i].Float64, true
}

// Last returns the most recent value and whether it is defined
func (s Series) Last() (float64, bool) {
	return s.At(len(s) - 1)
}

// LastDefined returns the most recent defined value, scanning backwards
func (s Series) LastDefined() (float64, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Valid {
			return s[i].Float64, true
		}
	}
	return 0, false
}

// FirstDefined returns the index of the first defined value, or -1
func (s Series) FirstDefined() int {
	for i, v := range s {
		if v.Valid {
			return i
		}
	}
	return -1
}

// CountDefined returns how many values are defined
func (s Series) CountDefined() int {
	n := 0
	for _, v := range s {
		if v.Valid {
			n++
		}
	}
	return n
}

// FromValues wraps plain values as a fully defined Series
func FromValues(values []float64) Series {
	out := make(Series, len(values))
	for i, v := range values {
		out[i] = defined(v)
	}
	return out
}

// contiguousTail returns the start index of the defined suffix of s and its
// values. A Series whose defined values contain a gap returns -1.
func contiguousTail(s Series) (int, []float64) {
	start := s.FirstDefined()
	if start < 0 {
		return -1, nil
	}
	vals := make([]float64, 0, len(s)-start)
	for _, v := range s[start:] {
		if !v.Valid {
			return -1, nil
		}
		vals = append(vals, v.Float64)
	}
	return start, vals
}
