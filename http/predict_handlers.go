package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"carprice/dataset"
	"carprice/db"
	"carprice/ml"
)

var (
	artifactStore   *ArtifactStore
	predictionCache *lru.Cache[string, float64]

	// swapped in tests
	savePrediction = db.SavePrediction
)

// SetArtifactStore wires the loaded artifact store into the handlers.
func SetArtifactStore(store *ArtifactStore) {
	artifactStore = store
}

// InitPredictionCache sizes the LRU over canonical records. The
// pipeline is deterministic, so identical inputs always map to the
// same price for a given bundle; entries are keyed per bundle
// fingerprint and purged on reload.
func InitPredictionCache(size int) error {
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[string, float64](size)
	if err != nil {
		return err
	}
	predictionCache = cache
	return nil
}

// RegisterPredictHandlers registers health, single and batch
// prediction, and prediction history endpoints.
func RegisterPredictHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/predict", handlePredict)
	mux.HandleFunc("POST /api/predict/batch", handlePredictBatch)
	mux.HandleFunc("GET /api/predictions", handlePredictionHistory)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	ready := artifactStore != nil && artifactStore.Ready()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":           "ok",
		"artifacts_loaded": ready,
	})
}

type predictResponse struct {
	PredictedPrice float64 `json:"predicted_price"`
	Currency       string  `json:"currency"`
	Cached         bool    `json:"cached"`
}

func handlePredict(w http.ResponseWriter, r *http.Request) {
	var listing dataset.Listing
	if err := json.NewDecoder(r.Body).Decode(&listing); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validateRequired(listing); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cleaned, err := dataset.NewInferenceCleaner().CleanOne(listing)
	if err != nil {
		if errors.Is(err, dataset.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	pipeline, model, err := requireArtifacts(w)
	if err != nil {
		return
	}

	// Cache keys are scoped to the loaded bundle: a retrain produces a
	// new fingerprint, so prices from the previous model are never
	// served against the new artifacts.
	cacheKey := pipeline.Bundle.Fingerprint + "|" + cleaned.Key()
	if predictionCache != nil {
		if price, ok := predictionCache.Get(cacheKey); ok {
			writePrediction(w, cleaned, price, true)
			return
		}
	}

	features, err := pipeline.TransformOne(cleaned)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	price, err := model.Predict(features)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if predictionCache != nil {
		predictionCache.Add(cacheKey, price)
	}
	writePrediction(w, cleaned, price, false)
}

func writePrediction(w http.ResponseWriter, listing dataset.Listing, price float64, cached bool) {
	if err := savePrediction(listing, price); err != nil {
		log.Printf("failed to record prediction: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(predictResponse{
		PredictedPrice: price,
		Currency:       "PLN",
		Cached:         cached,
	})
}

// handlePredictBatch predicts over a CSV of pre-encoded feature rows.
// The rows are expected in the template schema; they are still
// reindexed through the assembler so missing columns fill with 0 and
// extra columns drop instead of silently shifting the vector.
func handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	pipeline, model, err := requireArtifacts(w)
	if err != nil {
		return
	}

	reader := csv.NewReader(r.Body)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		http.Error(w, "invalid csv: missing header", http.StatusBadRequest)
		return
	}

	template := pipeline.Bundle.TemplateColumns
	var prices []float64
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid csv at row %d: %v", row+1, err), http.StatusBadRequest)
			return
		}
		row++

		encoded := make(map[string]float64, len(header))
		for i, column := range header {
			if i >= len(record) {
				break
			}
			value, err := strconv.ParseFloat(record[i], 64)
			if err != nil {
				http.Error(w, fmt.Sprintf("row %d column %q: not numeric", row, column), http.StatusBadRequest)
				return
			}
			encoded[column] = value
		}

		price, err := model.Predict(ml.Assemble(encoded, template))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		prices = append(prices, price)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"count":  len(prices),
		"prices": prices,
	})
}

func handlePredictionHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	records, err := db.LoadRecentPredictions(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"predictions": records})
}

func requireArtifacts(w http.ResponseWriter) (*ml.Pipeline, ml.Regressor, error) {
	if artifactStore == nil {
		http.Error(w, ErrArtifactsNotLoaded.Error(), http.StatusServiceUnavailable)
		return nil, nil, ErrArtifactsNotLoaded
	}
	pipeline, model, err := artifactStore.Artifacts()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return nil, nil, err
	}
	return pipeline, model, nil
}

func validateRequired(listing dataset.Listing) error {
	switch {
	case listing.Mark == "":
		return errors.New("mark is required")
	case listing.Model == "":
		return errors.New("model is required")
	case listing.Year < 1000 || listing.Year > 9999:
		return errors.New("year must be a 4-digit integer")
	case listing.Mileage < 0:
		return errors.New("mileage must be non-negative")
	case listing.VolEngine < 0:
		return errors.New("vol_engine must be non-negative")
	case listing.Fuel == "":
		return errors.New("fuel is required")
	case listing.City == "":
		return errors.New("city is required")
	}
	return nil
}
