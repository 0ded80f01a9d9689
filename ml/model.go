package ml

// Predictor is the capability the serving layer consumes: a price per
// feature vector. The vector must satisfy the template-column contract
// the model was trained against.
type Predictor interface {
	Predict(features []float64) (float64, error)
}

// Regressor is an opaque trainable price model.
type Regressor interface {
	Predictor
	Train(features [][]float64, targets []float64) error
	Save(path string) error
	Load(path string) error
}
