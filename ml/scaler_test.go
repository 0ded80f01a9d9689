package ml

import (
	"math"
	"testing"
)

func TestScalerTransform(t *testing.T) {
	state, err := FitScaler([]string{"a", "b"}, [][]float64{
		{1, 10},
		{3, 10},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	row, err := state.Transform([]float64{2, 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row[0] != 0 {
		t.Fatalf("expected standardized 0 at the mean, got %f", row[0])
	}
	// Column b is constant: zero stddev degenerates to identity.
	if row[1] != 10 {
		t.Fatalf("expected identity for zero-stddev column, got %f", row[1])
	}
}

func TestScalerPurity(t *testing.T) {
	// The same fitted state must standardize different single rows with
	// one fixed (mean, std) pair, never statistics of its input.
	state, err := FitScaler([]string{"x"}, [][]float64{{0}, {10}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := state.Transform([]float64{0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := state.Transform([]float64{10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first[0] != -1 || second[0] != 1 {
		t.Fatalf("expected -1 and 1 from fitted stats, got %f and %f", first[0], second[0])
	}
}

func TestScalerNaNPassthrough(t *testing.T) {
	state, err := FitScaler([]string{"x"}, [][]float64{{1}, {3}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row, err := state.Transform([]float64{math.NaN()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsNaN(row[0]) {
		t.Fatalf("expected NaN passthrough, got %f", row[0])
	}
}

func TestScalerIgnoresNaNWhenFitting(t *testing.T) {
	state, err := FitScaler([]string{"x"}, [][]float64{{2}, {math.NaN()}, {4}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Mean[0] != 3 {
		t.Fatalf("expected mean 3 ignoring NaN, got %f", state.Mean[0])
	}
}

func TestScalerWidthMismatch(t *testing.T) {
	state, err := FitScaler([]string{"x"}, [][]float64{{1}, {2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := state.Transform([]float64{1, 2}); err == nil {
		t.Fatal("expected width mismatch error")
	}
}
