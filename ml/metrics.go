package ml

import (
	"math"
	"math/rand"
)

// SplitDataset shuffles rows with a fixed seed and splits them into
// train and test partitions.
func SplitDataset(features [][]float64, targets []float64, testRatio float64, seed int64) (trainX [][]float64, trainY []float64, testX [][]float64, testY []float64) {
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}
	rnd := rand.New(rand.NewSource(seed))
	indices := rnd.Perm(len(features))

	split := int(math.Round(float64(len(features)) * (1 - testRatio)))
	for i, idx := range indices {
		if i < split {
			trainX = append(trainX, features[idx])
			trainY = append(trainY, targets[idx])
		} else {
			testX = append(testX, features[idx])
			testY = append(testY, targets[idx])
		}
	}
	return trainX, trainY, testX, testY
}

// Evaluate computes hold-out MAE, RMSE and R2 for a trained model.
func Evaluate(model Predictor, testX [][]float64, testY []float64) (mae, rmse, r2 float64) {
	if len(testX) == 0 {
		return 0, 0, 0
	}

	meanY := 0.0
	for _, y := range testY {
		meanY += y
	}
	meanY /= float64(len(testY))

	var absSum, sqSum, totalSq float64
	n := 0
	for i, features := range testX {
		predicted, err := model.Predict(features)
		if err != nil {
			continue
		}
		diff := testY[i] - predicted
		absSum += math.Abs(diff)
		sqSum += diff * diff
		base := testY[i] - meanY
		totalSq += base * base
		n++
	}
	if n == 0 {
		return 0, 0, 0
	}

	mae = absSum / float64(n)
	rmse = math.Sqrt(sqSum / float64(n))
	if totalSq > 0 {
		r2 = 1 - sqSum/totalSq
	}
	return mae, rmse, r2
}
