package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"carprice/dataset"
	"carprice/db"
	"carprice/ml"
	"carprice/monitoring"
)

// TrainingConfig is everything one training run needs.
type TrainingConfig struct {
	CSVPath    string
	BundlePath string
	ModelPath  string
	Fit        ml.FitConfig
	GBT        ml.GBTConfig
	TestRatio  float64
}

// TrainingManager runs at most one training job at a time and streams
// progress over the hub.
type TrainingManager struct {
	config  TrainingConfig
	hub     *monitoring.TrainingHub
	store   *ArtifactStore
	running atomic.Bool
}

func NewTrainingManager(config TrainingConfig, hub *monitoring.TrainingHub, store *ArtifactStore) *TrainingManager {
	return &TrainingManager{config: config, hub: hub, store: store}
}

// RegisterTrainingHandlers registers the train kickoff endpoint and the
// progress websocket.
func (m *TrainingManager) RegisterTrainingHandlers(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/train", m.handleTrain)
	mux.HandleFunc("GET /api/ws/training", m.hub.HandleWebSocket)
	mux.HandleFunc("GET /api/training/log", handleTrainingLog)
}

func (m *TrainingManager) handleTrain(w http.ResponseWriter, r *http.Request) {
	if !m.running.CompareAndSwap(false, true) {
		http.Error(w, "training already in progress", http.StatusConflict)
		return
	}

	go func() {
		defer m.running.Store(false)
		if err := m.train(); err != nil {
			log.Printf("training failed: %v", err)
			m.hub.Publish(monitoring.ProgressEvent{Stage: "failed", Message: err.Error()})
		}
	}()

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "training started"})
}

func (m *TrainingManager) train() error {
	m.hub.Publish(monitoring.ProgressEvent{Stage: "loading", Message: m.config.CSVPath})
	listings, err := dataset.LoadCSV(m.config.CSVPath)
	if err != nil {
		return err
	}

	m.hub.Publish(monitoring.ProgressEvent{Stage: "cleaning", Total: len(listings)})
	cleaned, issues := dataset.NewTrainingCleaner().Clean(listings)
	if len(cleaned) == 0 {
		return errors.New("no rows survived cleaning")
	}
	log.Printf("cleaning: %d in, %d kept, %d issues", len(listings), len(cleaned), len(issues))

	m.hub.Publish(monitoring.ProgressEvent{Stage: "fitting", Total: len(cleaned)})
	bundle, matrix, prices, err := ml.Fit(cleaned, m.config.Fit)
	if err != nil {
		return err
	}

	trainX, trainY, testX, testY := ml.SplitDataset(matrix, prices, m.config.TestRatio, m.config.Fit.Seed)

	model := ml.NewGBTRegressor(m.config.GBT)
	model.Progress = func(iteration int, rmse float64) {
		m.hub.Publish(monitoring.ProgressEvent{
			Stage:     "boosting",
			Iteration: iteration,
			Total:     model.Config.NumTrees,
			RMSE:      rmse,
		})
	}
	if err := model.Train(trainX, trainY); err != nil {
		return err
	}

	m.hub.Publish(monitoring.ProgressEvent{Stage: "evaluating", Total: len(testX)})
	mae, rmse, r2 := ml.Evaluate(model, testX, testY)
	log.Printf("hold-out metrics: mae=%.0f rmse=%.0f r2=%.3f", mae, rmse, r2)

	if err := bundle.Save(m.config.BundlePath); err != nil {
		return err
	}
	model.Fingerprint = bundle.Fingerprint
	if err := model.Save(m.config.ModelPath); err != nil {
		return err
	}

	if err := db.SaveTrainingLog(db.TrainingLog{
		ModelName:  "gbt",
		MAE:        mae,
		RMSE:       rmse,
		R2:         r2,
		TrainedAt:  time.Now().UTC(),
		DataPoints: len(trainX),
	}); err != nil {
		log.Printf("failed to record training log: %v", err)
	}

	if err := m.store.Reload(); err != nil {
		return err
	}
	m.hub.Publish(monitoring.ProgressEvent{Stage: "done", RMSE: rmse})
	return nil
}

func handleTrainingLog(w http.ResponseWriter, r *http.Request) {
	logs, err := db.LoadTrainingLog()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"runs": logs})
}
