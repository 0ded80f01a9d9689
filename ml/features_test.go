package ml

import (
	"math"
	"testing"

	"carprice/dataset"
)

func TestDeriveNumeric(t *testing.T) {
	listing := dataset.Listing{
		Mark:           "audi",
		Model:          "a4",
		Year:           2015,
		Mileage:        50000,
		VolEngine:      2000,
		Fuel:           "Diesel",
		GenerationName: "b8",
		City:           "Warszawa",
	}

	f := DeriveNumeric(listing, 2025)
	if f.Age != 10 {
		t.Fatalf("expected age 10, got %f", f.Age)
	}
	if f.MileagePerYear != 5000 {
		t.Fatalf("expected mileage_per_year 5000, got %f", f.MileagePerYear)
	}
	if math.Abs(f.LogMileage-10.8198) > 0.001 {
		t.Fatalf("expected log_mileage ~10.8198, got %f", f.LogMileage)
	}
}

func TestDeriveNumericZeroAge(t *testing.T) {
	listing := dataset.Listing{Year: 2025, Mileage: 100}
	f := DeriveNumeric(listing, 2025)
	if !math.IsNaN(f.MileagePerYear) {
		t.Fatalf("expected NaN mileage_per_year at age 0, got %f", f.MileagePerYear)
	}
}

func TestNumericVectorOrder(t *testing.T) {
	names := NumericNames()
	vector := NumericVector(NumericFeatures{Age: 1, Mileage: 2, MileagePerYear: 3, VolEngine: 4, LogMileage: 5})
	if len(vector) != len(names) {
		t.Fatalf("vector/names length mismatch: %d vs %d", len(vector), len(names))
	}
	if vector[0] != 1 || vector[4] != 5 {
		t.Fatalf("unexpected vector order: %v", vector)
	}
}
