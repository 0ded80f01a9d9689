package ml

import (
	"math"
	"strconv"
	"testing"
)

func TestTopKGroupsRareValues(t *testing.T) {
	values := []string{"audi", "audi", "audi", "bmw", "bmw", "fiat"}
	vocab := FitTopK(values, 2, "mark", "other_mark")
	if len(vocab.Values) != 2 {
		t.Fatalf("expected 2 kept values, got %v", vocab.Values)
	}
	if vocab.Values[0] != "audi" || vocab.Values[1] != "bmw" {
		t.Fatalf("expected frequency order, got %v", vocab.Values)
	}

	encoded := make(map[string]float64)
	vocab.Encode("fiat", encoded)
	if encoded["mark_other_mark"] != 1 {
		t.Fatalf("expected fiat in other bucket: %v", encoded)
	}
	if encoded["mark_audi"] != 0 || encoded["mark_bmw"] != 0 {
		t.Fatalf("expected named columns 0: %v", encoded)
	}
}

func TestTopKUnseenValueFallsBack(t *testing.T) {
	vocab := FitTopK([]string{"audi", "bmw"}, 5, "mark", "other_mark")
	encoded := make(map[string]float64)
	vocab.Encode("NoSuchBrand", encoded)
	if encoded["mark_other_mark"] != 1 {
		t.Fatalf("expected other_mark=1 for unseen value: %v", encoded)
	}
	sum := 0.0
	for _, v := range encoded {
		sum += v
	}
	if sum != 1 {
		t.Fatalf("expected exactly one hot column, sum=%f", sum)
	}
}

func TestGenerationVocabulary(t *testing.T) {
	// b8 appears 60%, b7 30%, rare 10% of 10 rows; threshold 20%.
	values := []string{"b8", "b8", "b8", "b8", "b8", "b8", "b7", "b7", "b7", "rare"}
	vocab := FitGeneration(values, 0.2)

	foundRare := false
	for _, class := range vocab.Classes {
		if class == "rare" {
			foundRare = true
		}
	}
	if foundRare {
		t.Fatalf("rare value should not be in vocabulary: %v", vocab.Classes)
	}

	encoded := make(map[string]float64)
	vocab.Encode("rare", encoded)
	otherCol := "gen_" + strconv.Itoa(vocab.Label("other"))
	if encoded[otherCol] != 1 {
		t.Fatalf("expected rare mapped to other label: %v", encoded)
	}

	// Labels are stable across identical fits.
	again := FitGeneration(values, 0.2)
	if again.Label("b8") != vocab.Label("b8") {
		t.Fatal("label assignment is not stable")
	}
}

func TestTargetEncoderFallback(t *testing.T) {
	models := []string{"a4", "a4", "320", "320"}
	prices := []float64{100, 200, 300, 400}
	_, encoding, err := FitTargetEncoder(models, prices, 2, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if encoding.Map["a4"] != 150 || encoding.Map["320"] != 350 {
		t.Fatalf("unexpected full-data means: %v", encoding.Map)
	}
	if got := encoding.Encode("unseen-model"); got != 250 {
		t.Fatalf("expected global mean 250 for unseen model, got %f", got)
	}
}

func TestTargetEncoderOutOfFold(t *testing.T) {
	// With every row for one model in the same price, OOF values must
	// come from other folds only: a row's own price must not leak.
	models := make([]string, 20)
	prices := make([]float64, 20)
	for i := range models {
		if i%2 == 0 {
			models[i] = "a4"
			prices[i] = 100 + float64(i)
		} else {
			models[i] = "320"
			prices[i] = 300 + float64(i)
		}
	}
	perRow, encoding, err := FitTargetEncoder(models, prices, 4, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(perRow) != len(models) {
		t.Fatalf("expected %d oof values, got %d", len(models), len(perRow))
	}

	for i, value := range perRow {
		if math.IsNaN(value) {
			t.Fatalf("oof value %d is NaN", i)
		}
	}

	// The full-data mean includes the row itself, so at least some
	// out-of-fold values must differ from it.
	differs := false
	for i, value := range perRow {
		if value != encoding.Map[models[i]] {
			differs = true
			break
		}
	}
	if !differs {
		t.Fatal("expected out-of-fold encodings to differ from full-data means")
	}
}

func TestTargetEncoderDeterministic(t *testing.T) {
	models := []string{"a4", "320", "a4", "320", "a4", "320"}
	prices := []float64{10, 20, 30, 40, 50, 60}
	first, _, err := FitTargetEncoder(models, prices, 3, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _, err := FitTargetEncoder(models, prices, 3, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("oof not deterministic at %d: %f vs %f", i, first[i], second[i])
		}
	}
}
