package ml

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// GBTConfig holds the boosting hyperparameters.
type GBTConfig struct {
	NumTrees       int     `json:"num_trees"`
	MaxDepth       int     `json:"max_depth"`
	LearningRate   float64 `json:"learning_rate"`
	MinSamplesLeaf int     `json:"min_samples_leaf"`
}

// DefaultGBTConfig returns the converged training defaults.
func DefaultGBTConfig() GBTConfig {
	return GBTConfig{
		NumTrees:       200,
		MaxDepth:       6,
		LearningRate:   0.1,
		MinSamplesLeaf: 5,
	}
}

// RegressionNode is one node of a regression tree stored as a flat
// slice; children are slice indices.
type RegressionNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

// GBTRegressor is a gradient boosted ensemble of regression trees. Each
// tree fits the residuals of the running prediction; leaves hold mean
// residuals and splits minimize weighted variance.
type GBTRegressor struct {
	Config      GBTConfig          `json:"config"`
	Base        float64            `json:"base"`
	Trees       [][]RegressionNode `json:"trees"`
	Fingerprint string             `json:"fingerprint"`

	// Progress, when set, is called after each boosting iteration with
	// the training RMSE so far. Not persisted.
	Progress func(iteration int, rmse float64) `json:"-"`
}

// NewGBTRegressor fills zero config fields with defaults.
func NewGBTRegressor(config GBTConfig) *GBTRegressor {
	defaults := DefaultGBTConfig()
	if config.NumTrees <= 0 {
		config.NumTrees = defaults.NumTrees
	}
	if config.MaxDepth <= 0 {
		config.MaxDepth = defaults.MaxDepth
	}
	if config.LearningRate <= 0 {
		config.LearningRate = defaults.LearningRate
	}
	if config.MinSamplesLeaf <= 0 {
		config.MinSamplesLeaf = defaults.MinSamplesLeaf
	}
	return &GBTRegressor{Config: config}
}

func (g *GBTRegressor) Train(features [][]float64, targets []float64) error {
	if len(features) == 0 || len(targets) == 0 {
		return errors.New("features or targets empty")
	}
	if len(features) != len(targets) {
		return errors.New("features and targets size mismatch")
	}

	sum := 0.0
	for _, t := range targets {
		sum += t
	}
	g.Base = sum / float64(len(targets))
	g.Trees = nil

	current := make([]float64, len(targets))
	residuals := make([]float64, len(targets))
	for i := range current {
		current[i] = g.Base
	}

	for iter := 0; iter < g.Config.NumTrees; iter++ {
		for i := range targets {
			residuals[i] = targets[i] - current[i]
		}

		tree := buildRegressionTree(features, residuals, 0, g.Config)
		g.Trees = append(g.Trees, tree)

		sse := 0.0
		for i, row := range features {
			current[i] += g.Config.LearningRate * predictTree(tree, row)
			diff := targets[i] - current[i]
			sse += diff * diff
		}
		if g.Progress != nil {
			g.Progress(iter+1, math.Sqrt(sse/float64(len(targets))))
		}
	}
	return nil
}

func (g *GBTRegressor) Predict(features []float64) (float64, error) {
	if len(g.Trees) == 0 {
		return 0, errors.New("model not trained")
	}
	prediction := g.Base
	for _, tree := range g.Trees {
		for _, node := range tree {
			if !node.IsLeaf && node.FeatureIdx >= len(features) {
				return 0, errors.New("feature index out of range")
			}
		}
		prediction += g.Config.LearningRate * predictTree(tree, features)
	}
	return prediction, nil
}

func (g *GBTRegressor) Save(path string) error {
	if len(g.Trees) == 0 {
		return errors.New("model not trained")
	}
	payload, err := json.Marshal(g)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".model-*")
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

func (g *GBTRegressor) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var loaded GBTRegressor
	if err := json.Unmarshal(payload, &loaded); err != nil {
		return err
	}
	g.Config = loaded.Config
	g.Base = loaded.Base
	g.Trees = loaded.Trees
	g.Fingerprint = loaded.Fingerprint
	return nil
}

func predictTree(nodes []RegressionNode, features []float64) float64 {
	idx := 0
	for {
		node := nodes[idx]
		if node.IsLeaf {
			return node.Value
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(nodes) {
			return node.Value
		}
	}
}

func buildRegressionTree(features [][]float64, targets []float64, depth int, config GBTConfig) []RegressionNode {
	leaf := func() []RegressionNode {
		return []RegressionNode{{
			FeatureIdx: 0,
			LeftChild:  -1,
			RightChild: -1,
			Value:      mean(targets),
			IsLeaf:     true,
		}}
	}

	if depth >= config.MaxDepth || len(targets) < 2*config.MinSamplesLeaf {
		return leaf()
	}

	bestFeature, threshold, ok := findBestRegressionSplit(features, targets, config.MinSamplesLeaf)
	if !ok {
		return leaf()
	}

	var leftFeatures, rightFeatures [][]float64
	var leftTargets, rightTargets []float64
	for i, row := range features {
		if row[bestFeature] <= threshold {
			leftFeatures = append(leftFeatures, row)
			leftTargets = append(leftTargets, targets[i])
		} else {
			rightFeatures = append(rightFeatures, row)
			rightTargets = append(rightTargets, targets[i])
		}
	}
	if len(leftTargets) == 0 || len(rightTargets) == 0 {
		return leaf()
	}

	leftNodes := buildRegressionTree(leftFeatures, leftTargets, depth+1, config)
	rightNodes := buildRegressionTree(rightFeatures, rightTargets, depth+1, config)

	root := RegressionNode{
		FeatureIdx: bestFeature,
		Threshold:  threshold,
		LeftChild:  1,
		RightChild: 1 + len(leftNodes),
		Value:      mean(targets),
	}

	nodes := make([]RegressionNode, 0, 1+len(leftNodes)+len(rightNodes))
	nodes = append(nodes, root)
	for _, node := range leftNodes {
		if !node.IsLeaf {
			node.LeftChild += 1
			node.RightChild += 1
		}
		nodes = append(nodes, node)
	}
	offset := 1 + len(leftNodes)
	for _, node := range rightNodes {
		if !node.IsLeaf {
			node.LeftChild += offset
			node.RightChild += offset
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func findBestRegressionSplit(features [][]float64, targets []float64, minLeaf int) (int, float64, bool) {
	featureCount := len(features[0])
	bestFeature := -1
	bestThreshold := 0.0
	bestSSE := math.MaxFloat64

	for featureIdx := 0; featureIdx < featureCount; featureIdx++ {
		for _, threshold := range candidateThresholds(features, featureIdx) {
			var leftSum, leftSq, rightSum, rightSq float64
			var leftN, rightN int
			for i, row := range features {
				if row[featureIdx] <= threshold {
					leftSum += targets[i]
					leftSq += targets[i] * targets[i]
					leftN++
				} else {
					rightSum += targets[i]
					rightSq += targets[i] * targets[i]
					rightN++
				}
			}
			if leftN < minLeaf || rightN < minLeaf {
				continue
			}
			sse := (leftSq - leftSum*leftSum/float64(leftN)) +
				(rightSq - rightSum*rightSum/float64(rightN))
			if sse < bestSSE {
				bestSSE = sse
				bestFeature = featureIdx
				bestThreshold = threshold
			}
		}
	}
	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

// candidateThresholds picks the quartiles of the feature's values,
// deduplicated. Constant features yield no candidates.
func candidateThresholds(features [][]float64, featureIdx int) []float64 {
	values := make([]float64, len(features))
	for i, row := range features {
		values[i] = row[featureIdx]
	}
	sort.Float64s(values)
	if values[0] == values[len(values)-1] {
		return nil
	}

	var thresholds []float64
	for _, q := range []float64{0.25, 0.5, 0.75} {
		v := values[int(q*float64(len(values)-1))]
		duplicate := false
		for _, t := range thresholds {
			if t == v {
				duplicate = true
			}
		}
		if !duplicate && v != values[len(values)-1] {
			thresholds = append(thresholds, v)
		}
	}
	return thresholds
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
