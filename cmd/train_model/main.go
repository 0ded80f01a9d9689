package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"carprice/dataset"
	"carprice/db"
	"carprice/ml"
)

func main() {
	csvPath := flag.String("csv", "data/Car_Prices_Poland_Kaggle.csv", "training CSV path")
	bundlePath := flag.String("bundle_path", "./artifacts/bundle.json", "encoder bundle output path")
	modelPath := flag.String("model_path", "./artifacts/gbt.model", "model output path")
	referenceYear := flag.Int("reference_year", 2025, "reference year for age derivation")
	topMarks := flag.Int("top_marks", 20, "number of marks kept before grouping into other")
	topCities := flag.Int("top_cities", 30, "number of cities kept before grouping into other")
	targetFolds := flag.Int("target_folds", 5, "folds for out-of-fold target encoding")
	numTrees := flag.Int("num_trees", 200, "boosting iterations")
	maxDepth := flag.Int("max_depth", 6, "max tree depth")
	learningRate := flag.Float64("learning_rate", 0.1, "boosting learning rate")
	testRatio := flag.Float64("test_ratio", 0.2, "hold-out ratio")
	seed := flag.Int64("seed", 42, "random seed")
	dbPath := flag.String("db", "", "sqlite path for recording the training run (optional)")
	flag.Parse()

	listings, err := dataset.LoadCSV(*csvPath)
	if err != nil {
		log.Fatalf("failed to load csv: %v", err)
	}
	log.Printf("loaded %d listings from %s", len(listings), *csvPath)

	cleaner := dataset.NewTrainingCleaner()
	cleaned, issues := cleaner.Clean(listings)
	if len(cleaned) == 0 {
		log.Fatal("no rows survived cleaning")
	}
	stats := cleaner.Stats()
	log.Printf("cleaning: kept %d of %d rows (%d issues)", stats.Passed, stats.TotalProcessed, len(issues))

	fitConfig := ml.FitConfig{
		ReferenceYear: *referenceYear,
		TopMarks:      *topMarks,
		TopCities:     *topCities,
		TargetFolds:   *targetFolds,
		Seed:          *seed,
	}
	bundle, matrix, prices, err := ml.Fit(cleaned, fitConfig)
	if err != nil {
		log.Fatalf("failed to fit encoders: %v", err)
	}
	log.Printf("fitted pipeline: %d template columns", len(bundle.TemplateColumns))

	trainX, trainY, testX, testY := ml.SplitDataset(matrix, prices, *testRatio, *seed)

	model := ml.NewGBTRegressor(ml.GBTConfig{
		NumTrees:     *numTrees,
		MaxDepth:     *maxDepth,
		LearningRate: *learningRate,
	})
	if err := model.Train(trainX, trainY); err != nil {
		log.Fatalf("failed to train model: %v", err)
	}

	mae, rmse, r2 := ml.Evaluate(model, testX, testY)
	log.Printf("hold-out: mae=%.0f rmse=%.0f r2=%.3f (test n=%d)", mae, rmse, r2, len(testX))

	if err := bundle.Save(*bundlePath); err != nil {
		log.Fatalf("failed to save bundle: %v", err)
	}
	model.Fingerprint = bundle.Fingerprint
	if err := model.Save(*modelPath); err != nil {
		log.Fatalf("failed to save model: %v", err)
	}

	if *dbPath != "" {
		if err := db.InitDB(*dbPath); err != nil {
			log.Printf("failed to open database, run not recorded: %v", err)
		} else if err := db.SaveTrainingLog(db.TrainingLog{
			ModelName:  "gbt",
			MAE:        mae,
			RMSE:       rmse,
			R2:         r2,
			TrainedAt:  time.Now().UTC(),
			DataPoints: len(trainX),
		}); err != nil {
			log.Printf("failed to record training run: %v", err)
		}
	}

	fmt.Printf("bundle saved to %s\nmodel saved to %s\n", *bundlePath, *modelPath)
}
