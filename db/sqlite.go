package db

import (
	"database/sql"
	"errors"
	"time"

	"carprice/dataset"
	_ "github.com/mattn/go-sqlite3"
)

var database *sql.DB

// InitDB initializes the SQLite database
func InitDB(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        mark TEXT NOT NULL,
        model TEXT NOT NULL,
        year INTEGER NOT NULL,
        mileage REAL NOT NULL,
        vol_engine REAL NOT NULL,
        fuel TEXT NOT NULL,
        generation_name TEXT,
        city TEXT,
        predicted_price REAL NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        model_name VARCHAR(50),
        mae REAL,
        rmse REAL,
        r2 REAL,
        trained_at DATETIME,
        data_points INTEGER
    );
    `

	_, err = database.Exec(query)
	return err
}

// SavePrediction records one served prediction.
func SavePrediction(listing dataset.Listing, price float64) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	_, err := database.Exec(`
        INSERT INTO predictions (
            mark, model, year, mileage, vol_engine, fuel, generation_name, city, predicted_price
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		listing.Mark, listing.Model, listing.Year, listing.Mileage, listing.VolEngine,
		listing.Fuel, listing.GenerationName, listing.City, price)
	return err
}

// PredictionRecord is one row of prediction history.
type PredictionRecord struct {
	Listing        dataset.Listing `json:"listing"`
	PredictedPrice float64         `json:"predicted_price"`
	CreatedAt      time.Time       `json:"created_at"`
}

// LoadRecentPredictions returns the latest served predictions.
func LoadRecentPredictions(limit int) ([]PredictionRecord, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := database.Query(`
        SELECT mark, model, year, mileage, vol_engine, fuel, generation_name, city, predicted_price, created_at
        FROM predictions
        ORDER BY created_at DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]PredictionRecord, 0, limit)
	for rows.Next() {
		var record PredictionRecord
		var generation, city sql.NullString
		if err := rows.Scan(
			&record.Listing.Mark, &record.Listing.Model, &record.Listing.Year,
			&record.Listing.Mileage, &record.Listing.VolEngine, &record.Listing.Fuel,
			&generation, &city, &record.PredictedPrice, &record.CreatedAt,
		); err != nil {
			return nil, err
		}
		record.Listing.GenerationName = generation.String
		record.Listing.City = city.String
		records = append(records, record)
	}
	return records, rows.Err()
}

// TrainingLog is one completed training run.
type TrainingLog struct {
	ModelName  string    `json:"model_name"`
	MAE        float64   `json:"mae"`
	RMSE       float64   `json:"rmse"`
	R2         float64   `json:"r2"`
	TrainedAt  time.Time `json:"trained_at"`
	DataPoints int       `json:"data_points"`
}

// SaveTrainingLog records a completed training run and its hold-out
// metrics.
func SaveTrainingLog(entry TrainingLog) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	_, err := database.Exec(`
        INSERT INTO training_log (model_name, mae, rmse, r2, trained_at, data_points)
        VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ModelName, entry.MAE, entry.RMSE, entry.R2, entry.TrainedAt, entry.DataPoints)
	return err
}

// LoadTrainingLog returns training runs, newest first.
func LoadTrainingLog() ([]TrainingLog, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := database.Query(`
        SELECT model_name, mae, rmse, r2, trained_at, data_points
        FROM training_log
        ORDER BY trained_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]TrainingLog, 0)
	for rows.Next() {
		var entry TrainingLog
		if err := rows.Scan(&entry.ModelName, &entry.MAE, &entry.RMSE, &entry.R2, &entry.TrainedAt, &entry.DataPoints); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}
