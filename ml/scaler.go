package ml

import (
	"errors"
	"math"
)

// ScalerState holds per-column mean and standard deviation fitted on
// training data. Transform only ever reads this state; there is no way
// to refit from an inference batch.
type ScalerState struct {
	Columns []string  `json:"columns"`
	Mean    []float64 `json:"mean"`
	Std     []float64 `json:"std"`
}

// FitScaler computes column means and standard deviations over the
// training rows. NaN entries are excluded from the statistics.
func FitScaler(columns []string, rows [][]float64) (ScalerState, error) {
	if len(rows) == 0 {
		return ScalerState{}, errors.New("rows is empty")
	}
	width := len(columns)
	for _, row := range rows {
		if len(row) != width {
			return ScalerState{}, errors.New("row width mismatch")
		}
	}

	mean := make([]float64, width)
	std := make([]float64, width)
	for col := 0; col < width; col++ {
		sum := 0.0
		count := 0
		for _, row := range rows {
			if math.IsNaN(row[col]) {
				continue
			}
			sum += row[col]
			count++
		}
		if count == 0 {
			continue
		}
		mean[col] = sum / float64(count)

		variance := 0.0
		for _, row := range rows {
			if math.IsNaN(row[col]) {
				continue
			}
			diff := row[col] - mean[col]
			variance += diff * diff
		}
		std[col] = math.Sqrt(variance / float64(count))
	}

	return ScalerState{
		Columns: append([]string(nil), columns...),
		Mean:    mean,
		Std:     std,
	}, nil
}

// Transform standardizes one row with the fitted statistics. A zero
// standard deviation degenerates to the identity transform for that
// column. NaN passes through unchanged.
func (s ScalerState) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.Columns) {
		return nil, errors.New("row width does not match fitted columns")
	}
	result := make([]float64, len(row))
	for i, value := range row {
		if math.IsNaN(value) || s.Std[i] == 0 {
			result[i] = value
			continue
		}
		result[i] = (value - s.Mean[i]) / s.Std[i]
	}
	return result, nil
}
