package ml

import (
	"errors"
	"sort"

	"carprice/dataset"
)

// FitConfig controls the one-shot fit of all encoder artifacts.
type FitConfig struct {
	ReferenceYear     int
	TopMarks          int
	TopCities         int
	GenerationMinFreq float64
	TargetFolds       int
	Seed              int64
}

// DefaultFitConfig mirrors the converged training parameters.
func DefaultFitConfig() FitConfig {
	return FitConfig{
		ReferenceYear:     2025,
		TopMarks:          20,
		TopCities:         30,
		GenerationMinFreq: 0.01,
		TargetFolds:       5,
		Seed:              42,
	}
}

// Fit fits the scaler and every encoder exactly once on cleaned
// training listings, derives the template column list from the fitted
// vocabularies, and returns the bundle together with the training
// feature matrix and its price targets. The matrix uses out-of-fold
// target encodings; the bundle persists full-data means for inference.
func Fit(listings []dataset.Listing, cfg FitConfig) (*Bundle, [][]float64, []float64, error) {
	if len(listings) == 0 {
		return nil, nil, nil, errors.New("listings is empty")
	}
	if cfg.TopMarks <= 0 {
		cfg.TopMarks = 20
	}
	if cfg.TopCities <= 0 {
		cfg.TopCities = 30
	}
	if cfg.GenerationMinFreq <= 0 {
		cfg.GenerationMinFreq = 0.01
	}

	marks := make([]string, len(listings))
	cities := make([]string, len(listings))
	generations := make([]string, len(listings))
	models := make([]string, len(listings))
	prices := make([]float64, len(listings))
	numericRows := make([][]float64, len(listings))
	for i, listing := range listings {
		if !listing.HasPrice {
			return nil, nil, nil, errors.New("training listing without price")
		}
		marks[i] = listing.Mark
		cities[i] = listing.City
		generations[i] = listing.GenerationName
		models[i] = listing.Model
		prices[i] = listing.Price
		numericRows[i] = NumericVector(DeriveNumeric(listing, cfg.ReferenceYear))
	}

	scaler, err := FitScaler(NumericNames(), numericRows)
	if err != nil {
		return nil, nil, nil, err
	}

	bundle := &Bundle{
		ReferenceYear: cfg.ReferenceYear,
		Scaler:        scaler,
		TopMarks:      FitTopK(marks, cfg.TopMarks, "mark", "other_mark"),
		TopCities:     FitTopK(cities, cfg.TopCities, "city", "other_city"),
		Generation:    FitGeneration(generations, cfg.GenerationMinFreq),
		Options:       buildFormOptions(listings),
	}

	oof, target, err := FitTargetEncoder(models, prices, cfg.TargetFolds, cfg.Seed)
	if err != nil {
		return nil, nil, nil, err
	}
	bundle.ModelTarget = target
	bundle.TemplateColumns = templateColumns(bundle)
	bundle.Fingerprint = bundle.ComputeFingerprint()

	pipeline := &Pipeline{Bundle: bundle}
	matrix := make([][]float64, len(listings))
	for i, listing := range listings {
		encoded, err := pipeline.encode(listing)
		if err != nil {
			return nil, nil, nil, err
		}
		// Training rows use the out-of-fold encoding, not the
		// persisted full-data map.
		encoded["model_te"] = oof[i]
		matrix[i] = Assemble(encoded, bundle.TemplateColumns)
	}

	return bundle, matrix, prices, nil
}

// templateColumns freezes the ordered column contract: scaled numerics
// that survive the drop list, the model target encoding, then the three
// one-hot blocks in vocabulary order.
func templateColumns(bundle *Bundle) []string {
	var columns []string
	for _, name := range NumericNames() {
		if _, dropped := droppedColumns[name]; dropped {
			continue
		}
		columns = append(columns, name)
	}
	columns = append(columns, "model_te")
	columns = append(columns, bundle.TopMarks.Columns()...)
	columns = append(columns, bundle.TopCities.Columns()...)
	columns = append(columns, bundle.Generation.Columns()...)
	return columns
}

// Pipeline reconstructs feature vectors from raw listings using a
// fitted, read-only bundle. Safe for concurrent use.
type Pipeline struct {
	Bundle *Bundle
}

// TransformOne turns one cleaned listing into a feature vector with
// exactly the bundle's template columns, in order.
func (p *Pipeline) TransformOne(listing dataset.Listing) ([]float64, error) {
	encoded, err := p.encode(listing)
	if err != nil {
		return nil, err
	}
	return Assemble(encoded, p.Bundle.TemplateColumns), nil
}

// TransformBatch transforms cleaned listings row by row.
func (p *Pipeline) TransformBatch(listings []dataset.Listing) ([][]float64, error) {
	matrix := make([][]float64, len(listings))
	for i, listing := range listings {
		vector, err := p.TransformOne(listing)
		if err != nil {
			return nil, err
		}
		matrix[i] = vector
	}
	return matrix, nil
}

func (p *Pipeline) encode(listing dataset.Listing) (map[string]float64, error) {
	scaled, err := p.Bundle.Scaler.Transform(NumericVector(DeriveNumeric(listing, p.Bundle.ReferenceYear)))
	if err != nil {
		return nil, err
	}

	encoded := make(map[string]float64, len(p.Bundle.TemplateColumns))
	for i, name := range NumericNames() {
		encoded[name] = scaled[i]
	}
	encoded["model_te"] = p.Bundle.ModelTarget.Encode(listing.Model)
	p.Bundle.TopMarks.Encode(listing.Mark, encoded)
	p.Bundle.TopCities.Encode(listing.City, encoded)
	p.Bundle.Generation.Encode(listing.GenerationName, encoded)
	return encoded, nil
}

func buildFormOptions(listings []dataset.Listing) FormOptions {
	markSet := make(map[string]struct{})
	citySet := make(map[string]struct{})
	modelsByMark := make(map[string]map[string]struct{})
	gensByModel := make(map[string]map[string]struct{})
	for _, listing := range listings {
		markSet[listing.Mark] = struct{}{}
		citySet[listing.City] = struct{}{}
		if modelsByMark[listing.Mark] == nil {
			modelsByMark[listing.Mark] = make(map[string]struct{})
		}
		modelsByMark[listing.Mark][listing.Model] = struct{}{}
		if gensByModel[listing.Model] == nil {
			gensByModel[listing.Model] = make(map[string]struct{})
		}
		gensByModel[listing.Model][listing.GenerationName] = struct{}{}
	}

	options := FormOptions{
		Marks:        sortedKeys(markSet),
		Cities:       sortedKeys(citySet),
		ModelsByMark: make(map[string][]string, len(modelsByMark)),
		GensByModel:  make(map[string][]string, len(gensByModel)),
	}
	for mark, set := range modelsByMark {
		options.ModelsByMark[mark] = sortedKeys(set)
	}
	for model, set := range gensByModel {
		options.GensByModel[model] = sortedKeys(set)
	}
	return options
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
