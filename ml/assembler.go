package ml

import "math"

// droppedColumns are raw and intermediate columns that must never reach
// the model, regardless of what the encoders emitted. This list and the
// template are the only authorities on the final column contract.
var droppedColumns = map[string]struct{}{
	"mark":            {},
	"model":           {},
	"year":            {},
	"mileage":         {},
	"city":            {},
	"generation_name": {},
	"fuel":            {},
	"fuel_encoded":    {},
	"fuel_type":       {},
}

// Assemble reindexes encoded columns to exactly the template, in
// template order. Missing columns fill with 0, extra columns drop
// silently, NaN (a propagated missing value) becomes 0. The output
// width always equals len(template).
func Assemble(encoded map[string]float64, template []string) []float64 {
	vector := make([]float64, len(template))
	for i, column := range template {
		if _, dropped := droppedColumns[column]; dropped {
			continue
		}
		value, ok := encoded[column]
		if !ok || math.IsNaN(value) {
			continue
		}
		vector[i] = value
	}
	return vector
}
