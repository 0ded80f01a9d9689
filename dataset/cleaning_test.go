package dataset

import (
	"errors"
	"testing"
)

func validListing() Listing {
	return Listing{
		Mark:           "audi",
		Model:          "a4",
		Year:           2015,
		Mileage:        50000,
		VolEngine:      2000,
		Fuel:           "Diesel",
		GenerationName: "gen-b8",
		City:           "Warszawa",
		Price:          75000,
		HasPrice:       true,
	}
}

func TestCleanOneNormalizes(t *testing.T) {
	cleaned, err := NewInferenceCleaner().CleanOne(validListing())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleaned.FuelEncoded != 1 {
		t.Fatalf("expected fuel_encoded 1 for Diesel, got %d", cleaned.FuelEncoded)
	}
	if cleaned.GenerationName != "b8" {
		t.Fatalf("expected gen- prefix stripped, got %q", cleaned.GenerationName)
	}
}

func TestCleanOneRejectsBadFuel(t *testing.T) {
	listing := validListing()
	listing.Fuel = "Electric"
	_, err := NewInferenceCleaner().CleanOne(listing)
	if err == nil {
		t.Fatal("expected validation error for Electric fuel")
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCleanOneDefaultsGeneration(t *testing.T) {
	listing := validListing()
	listing.GenerationName = ""
	cleaned, err := NewInferenceCleaner().CleanOne(listing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleaned.GenerationName != "unknown" {
		t.Fatalf("expected unknown, got %q", cleaned.GenerationName)
	}
}

func TestCleanOneIdempotent(t *testing.T) {
	once, err := NewInferenceCleaner().CleanOne(validListing())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, err := NewInferenceCleaner().CleanOne(once)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if once != twice {
		t.Fatalf("cleaning is not idempotent: %+v vs %+v", once, twice)
	}
}

func TestCleanOneDoesNotClip(t *testing.T) {
	// Clips are training-noise removal; a single submitted record with
	// out-of-range mileage must still be accepted.
	listing := validListing()
	listing.Mileage = 500
	listing.HasPrice = false
	listing.Price = 0
	if _, err := NewInferenceCleaner().CleanOne(listing); err != nil {
		t.Fatalf("inference cleaning must not clip: %v", err)
	}
}

func TestBatchCleanDropsBadRows(t *testing.T) {
	electric := validListing()
	electric.Fuel = "Electric"
	cheap := validListing()
	cheap.Price = 500
	old := validListing()
	old.Year = 1975

	cleaned, issues := NewTrainingCleaner().Clean([]Listing{validListing(), electric, cheap, old})
	if len(cleaned) != 1 {
		t.Fatalf("expected 1 clean row, got %d", len(cleaned))
	}
	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %d", len(issues))
	}
}

func TestBatchCleanDropsDuplicates(t *testing.T) {
	cleaner := NewTrainingCleaner()
	cleaned, _ := cleaner.Clean([]Listing{validListing(), validListing()})
	if len(cleaned) != 1 {
		t.Fatalf("expected duplicate dropped, got %d rows", len(cleaned))
	}
	stats := cleaner.Stats()
	if stats.Issues["duplicate_detection"] != 1 {
		t.Fatalf("expected 1 duplicate issue, got %d", stats.Issues["duplicate_detection"])
	}
}

func TestTrainingCleanClipsPriceAndMileage(t *testing.T) {
	expensive := validListing()
	expensive.Price = 400000
	farGone := validListing()
	farGone.Mileage = 350000

	cleaned, _ := NewTrainingCleaner().Clean([]Listing{expensive, farGone})
	if len(cleaned) != 0 {
		t.Fatalf("expected all rows clipped, got %d", len(cleaned))
	}
}
