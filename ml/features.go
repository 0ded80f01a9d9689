package ml

import (
	"math"

	"carprice/dataset"
)

// NumericFeatures are the derived numeric columns for one listing,
// before scaling.
type NumericFeatures struct {
	Age            float64
	Mileage        float64
	MileagePerYear float64
	VolEngine      float64
	LogMileage     float64
}

// DeriveNumeric computes the derived numeric columns. referenceYear is
// the year captured at training time, never the wall clock.
// MileagePerYear is NaN when age is zero; the missing value survives
// scaling and becomes 0 during assembly.
func DeriveNumeric(listing dataset.Listing, referenceYear int) NumericFeatures {
	age := float64(referenceYear - listing.Year)
	perYear := math.NaN()
	if age != 0 {
		perYear = listing.Mileage / age
	}
	return NumericFeatures{
		Age:            age,
		Mileage:        listing.Mileage,
		MileagePerYear: perYear,
		VolEngine:      listing.VolEngine,
		LogMileage:     math.Log1p(listing.Mileage),
	}
}

// NumericNames returns the numeric column names in vector order.
func NumericNames() []string {
	return []string{"age", "mileage", "mileage_per_year", "vol_engine", "log_mileage"}
}

// NumericVector flattens features in NumericNames order.
func NumericVector(f NumericFeatures) []float64 {
	return []float64{f.Age, f.Mileage, f.MileagePerYear, f.VolEngine, f.LogMileage}
}
