package ml

import (
	"errors"
	"fmt"
)

// LoadModel loads a persisted regressor. fingerprint is the bundle's
// fingerprint; a model saved from a different training run is rejected
// as stale.
func LoadModel(modelType, path, fingerprint string) (Regressor, error) {
	switch modelType {
	case "gbt":
		model := NewGBTRegressor(GBTConfig{})
		if err := model.Load(path); err != nil {
			return nil, err
		}
		if fingerprint != "" && model.Fingerprint != fingerprint {
			return nil, fmt.Errorf("%w: model fingerprint does not match bundle", ErrStaleArtifact)
		}
		return model, nil
	default:
		return nil, errors.New("unsupported model type")
	}
}
