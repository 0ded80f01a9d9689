package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ErrStaleArtifact reports that the template columns and the encoder
// bundle (or the model) were not produced by the same training run.
var ErrStaleArtifact = errors.New("stale artifact")

// FormOptions are the vocabularies the interactive form needs to build
// its dependent dropdowns, captured from the training data.
type FormOptions struct {
	Marks        []string            `json:"marks"`
	ModelsByMark map[string][]string `json:"models_by_mark"`
	GensByModel  map[string][]string `json:"gens_by_model"`
	Cities       []string            `json:"cities"`
}

// Bundle is the complete fitted artifact set: everything inference
// needs to reproduce training-time feature transforms. Fitted once,
// immutable afterwards.
type Bundle struct {
	ReferenceYear   int                  `json:"reference_year"`
	Scaler          ScalerState          `json:"scaler"`
	TopMarks        TopKVocabulary       `json:"top_marks"`
	TopCities       TopKVocabulary       `json:"top_cities"`
	Generation      GenerationVocabulary `json:"generation"`
	ModelTarget     TargetEncoding       `json:"model_target"`
	TemplateColumns []string             `json:"template_columns"`
	Options         FormOptions          `json:"options"`
	Fingerprint     string               `json:"fingerprint"`
	CreatedAt       time.Time            `json:"created_at"`
}

// ComputeFingerprint hashes the template column list and the encoder
// vocabulary sizes. A bundle and a model trained together carry the
// same fingerprint; a mismatch at load time means one of them is stale.
func (b *Bundle) ComputeFingerprint() string {
	h := fnv.New64a()
	for _, column := range b.TemplateColumns {
		h.Write([]byte(column))
		h.Write([]byte{0})
	}
	for _, n := range []int{
		len(b.TopMarks.Values),
		len(b.TopCities.Values),
		len(b.Generation.Classes),
		len(b.ModelTarget.Map),
		b.ReferenceYear,
	} {
		h.Write([]byte(strconv.Itoa(n)))
		h.Write([]byte{0})
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// Save writes the bundle atomically: the full payload goes to a
// temporary file in the target directory which is then renamed over the
// final path, so a failed fit never leaves a partial bundle behind.
func (b *Bundle) Save(path string) error {
	if len(b.TemplateColumns) == 0 {
		return errors.New("bundle has no template columns")
	}
	b.Fingerprint = b.ComputeFingerprint()
	b.CreatedAt = time.Now().UTC()

	payload, err := json.Marshal(b)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".bundle-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadBundle reads a bundle and verifies its recorded fingerprint
// against a recomputation, catching hand-edited or truncated files.
func LoadBundle(path string) (*Bundle, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var bundle Bundle
	if err := json.Unmarshal(payload, &bundle); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if len(bundle.TemplateColumns) == 0 {
		return nil, fmt.Errorf("%w: bundle has no template columns", ErrStaleArtifact)
	}
	if bundle.Fingerprint != bundle.ComputeFingerprint() {
		return nil, fmt.Errorf("%w: bundle fingerprint mismatch", ErrStaleArtifact)
	}
	return &bundle, nil
}
