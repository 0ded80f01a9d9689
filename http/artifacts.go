package http

import (
	"errors"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"carprice/ml"
)

// ErrArtifactsNotLoaded is returned while no valid bundle/model pair is
// loaded; the serving layer answers 503 until one is.
var ErrArtifactsNotLoaded = errors.New("artifacts not loaded")

// ArtifactStore holds the fitted bundle and model behind a lock. The
// loaded artifacts are immutable; Reload swaps the whole pair.
type ArtifactStore struct {
	BundlePath string
	ModelPath  string

	mu       sync.RWMutex
	pipeline *ml.Pipeline
	model    ml.Regressor
}

// NewArtifactStore creates a store; call Reload to load the artifacts.
func NewArtifactStore(bundlePath, modelPath string) *ArtifactStore {
	return &ArtifactStore{BundlePath: bundlePath, ModelPath: modelPath}
}

// Reload loads the bundle and the model, verifying they come from the
// same training run. On error the previously loaded pair stays active.
func (s *ArtifactStore) Reload() error {
	bundle, err := ml.LoadBundle(s.BundlePath)
	if err != nil {
		return err
	}
	model, err := ml.LoadModel("gbt", s.ModelPath, bundle.Fingerprint)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.pipeline = &ml.Pipeline{Bundle: bundle}
	s.model = model
	s.mu.Unlock()

	// Prices cached against the previous bundle are dead entries now;
	// drop them instead of waiting for eviction.
	if predictionCache != nil {
		predictionCache.Purge()
	}

	log.Printf("artifacts loaded: %d template columns, fingerprint %s",
		len(bundle.TemplateColumns), bundle.Fingerprint)
	return nil
}

// Ready reports whether a valid artifact pair is loaded.
func (s *ArtifactStore) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipeline != nil && s.model != nil
}

// Artifacts returns the loaded pipeline and model.
func (s *ArtifactStore) Artifacts() (*ml.Pipeline, ml.Regressor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pipeline == nil || s.model == nil {
		return nil, nil, ErrArtifactsNotLoaded
	}
	return s.pipeline, s.model, nil
}

// Watch reloads the artifacts whenever the bundle file is replaced,
// so a finished training run goes live without a restart. Events are
// debounced: the atomic rename fires several notifications.
func (s *ArtifactStore) Watch(stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(s.BundlePath)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		var pending <-chan time.Time
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != s.BundlePath {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				pending = time.After(500 * time.Millisecond)

			case <-pending:
				pending = nil
				if err := s.Reload(); err != nil {
					log.Printf("artifact reload failed: %v", err)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("artifact watcher error: %v", err)

			case <-stop:
				return
			}
		}
	}()
	return nil
}
