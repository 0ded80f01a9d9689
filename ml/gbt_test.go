package ml

import (
	"math"
	"path/filepath"
	"testing"
)

func stepDataset() ([][]float64, []float64) {
	var features [][]float64
	var targets []float64
	for i := 0; i < 40; i++ {
		x := float64(i)
		features = append(features, []float64{x, float64(i % 3)})
		if x < 20 {
			targets = append(targets, 100)
		} else {
			targets = append(targets, 500)
		}
	}
	return features, targets
}

func TestGBTLearnsStepFunction(t *testing.T) {
	features, targets := stepDataset()
	model := NewGBTRegressor(GBTConfig{NumTrees: 50, MaxDepth: 3, LearningRate: 0.3})
	if err := model.Train(features, targets); err != nil {
		t.Fatalf("train failed: %v", err)
	}

	low, err := model.Predict([]float64{5, 0})
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	high, err := model.Predict([]float64{35, 0})
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	if math.Abs(low-100) > 30 {
		t.Fatalf("expected prediction near 100, got %f", low)
	}
	if math.Abs(high-500) > 30 {
		t.Fatalf("expected prediction near 500, got %f", high)
	}
}

func TestGBTProgressCallback(t *testing.T) {
	features, targets := stepDataset()
	model := NewGBTRegressor(GBTConfig{NumTrees: 10, MaxDepth: 2, LearningRate: 0.5})

	var iterations []int
	lastRMSE := math.MaxFloat64
	improved := false
	model.Progress = func(iteration int, rmse float64) {
		iterations = append(iterations, iteration)
		if rmse < lastRMSE {
			improved = true
		}
		lastRMSE = rmse
	}
	if err := model.Train(features, targets); err != nil {
		t.Fatalf("train failed: %v", err)
	}
	if len(iterations) != 10 {
		t.Fatalf("expected 10 progress calls, got %d", len(iterations))
	}
	if iterations[0] != 1 || iterations[9] != 10 {
		t.Fatalf("unexpected iteration numbers: %v", iterations)
	}
	if !improved {
		t.Fatal("training RMSE never improved")
	}
}

func TestGBTSaveLoadRoundTrip(t *testing.T) {
	features, targets := stepDataset()
	model := NewGBTRegressor(GBTConfig{NumTrees: 20, MaxDepth: 3, LearningRate: 0.3})
	if err := model.Train(features, targets); err != nil {
		t.Fatalf("train failed: %v", err)
	}
	model.Fingerprint = "test-fingerprint"

	path := filepath.Join(t.TempDir(), "model.json")
	if err := model.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded := &GBTRegressor{}
	if err := loaded.Load(path); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Fingerprint != "test-fingerprint" {
		t.Fatalf("fingerprint not persisted: %q", loaded.Fingerprint)
	}
	if len(loaded.Trees) != len(model.Trees) {
		t.Fatalf("tree count differs: %d vs %d", len(loaded.Trees), len(model.Trees))
	}

	for _, row := range [][]float64{{3, 1}, {25, 2}, {38, 0}} {
		want, err := model.Predict(row)
		if err != nil {
			t.Fatalf("predict failed: %v", err)
		}
		got, err := loaded.Predict(row)
		if err != nil {
			t.Fatalf("predict failed: %v", err)
		}
		if want != got {
			t.Fatalf("loaded model diverges on %v: %f vs %f", row, want, got)
		}
	}
}

func TestGBTUntrainedPredictFails(t *testing.T) {
	model := NewGBTRegressor(DefaultGBTConfig())
	if _, err := model.Predict([]float64{1, 2}); err == nil {
		t.Fatal("expected error predicting with untrained model")
	}
}

func TestGBTTrainValidatesInput(t *testing.T) {
	model := NewGBTRegressor(DefaultGBTConfig())
	if err := model.Train(nil, nil); err == nil {
		t.Fatal("expected error for empty input")
	}
	if err := model.Train([][]float64{{1}}, []float64{1, 2}); err == nil {
		t.Fatal("expected error for size mismatch")
	}
}

func TestSplitAndEvaluate(t *testing.T) {
	features, targets := stepDataset()
	trainX, trainY, testX, testY := SplitDataset(features, targets, 0.25, 42)
	if len(trainX) != 30 || len(testX) != 10 {
		t.Fatalf("unexpected split sizes: %d train, %d test", len(trainX), len(testX))
	}
	if len(trainX) != len(trainY) || len(testX) != len(testY) {
		t.Fatal("feature/target sizes diverge after split")
	}

	model := NewGBTRegressor(GBTConfig{NumTrees: 50, MaxDepth: 3, LearningRate: 0.3})
	if err := model.Train(trainX, trainY); err != nil {
		t.Fatalf("train failed: %v", err)
	}
	mae, rmse, r2 := Evaluate(model, testX, testY)
	if mae < 0 || rmse < mae {
		t.Fatalf("inconsistent metrics: mae=%f rmse=%f", mae, rmse)
	}
	if r2 < 0.5 {
		t.Fatalf("expected r2 above 0.5 on separable data, got %f", r2)
	}
}
