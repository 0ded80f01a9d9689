package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"carprice/db"
	qhttp "carprice/http"
	"carprice/ml"
	"carprice/monitoring"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Http struct {
		Port int `yaml:"port"`
	} `yaml:"http"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Artifacts struct {
		BundlePath string `yaml:"bundle_path"`
		ModelPath  string `yaml:"model_path"`
	} `yaml:"artifacts"`
	Training struct {
		CSVPath       string  `yaml:"csv_path"`
		ReferenceYear int     `yaml:"reference_year"`
		TestRatio     float64 `yaml:"test_ratio"`
	} `yaml:"training"`
	Cache struct {
		Size int `yaml:"size"`
	} `yaml:"cache"`
}

func main() {
	// 1. Load config
	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Logging
	_, closeLogs, err := setupLogging(config.Log.Level, config.Log.File)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLogs()

	// 3. Database
	if err := db.InitDB(config.Database.Path); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	log.Printf("Database initialized at %s", config.Database.Path)

	// 4. Artifacts: serve degraded (503 on predict) until a valid
	// bundle/model pair is available.
	store := qhttp.NewArtifactStore(config.Artifacts.BundlePath, config.Artifacts.ModelPath)
	if err := store.Reload(); err != nil {
		log.Printf("Artifacts not loaded yet: %v", err)
	}
	stop := make(chan struct{})
	if err := store.Watch(stop); err != nil {
		log.Printf("Artifact watcher unavailable: %v", err)
	}
	qhttp.SetArtifactStore(store)
	if err := qhttp.InitPredictionCache(config.Cache.Size); err != nil {
		log.Fatalf("Failed to initialize prediction cache: %v", err)
	}

	// 5. Training over HTTP with websocket progress
	hub := monitoring.NewTrainingHub()
	go hub.Start()
	fitConfig := ml.DefaultFitConfig()
	if config.Training.ReferenceYear != 0 {
		fitConfig.ReferenceYear = config.Training.ReferenceYear
	}
	training := qhttp.NewTrainingManager(qhttp.TrainingConfig{
		CSVPath:    config.Training.CSVPath,
		BundlePath: config.Artifacts.BundlePath,
		ModelPath:  config.Artifacts.ModelPath,
		Fit:        fitConfig,
		GBT:        ml.DefaultGBTConfig(),
		TestRatio:  config.Training.TestRatio,
	}, hub, store)

	// 6. HTTP server
	serverConfig := qhttp.DefaultServerConfig()
	if config.Http.Port != 0 {
		serverConfig.Port = config.Http.Port
	}
	server := qhttp.NewServer(serverConfig, training)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// 7. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	close(stop)
	hub.Stop()
	if err := server.Stop(); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Exiting")
}

func loadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
