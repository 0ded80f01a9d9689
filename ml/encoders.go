package ml

import (
	"errors"
	"math/rand"
	"sort"
	"strconv"
)

// TopKVocabulary is the fitted state of a frequency-grouped one-hot
// encoder. Values outside the vocabulary collapse into Other before
// encoding.
type TopKVocabulary struct {
	Prefix string   `json:"prefix"`
	Values []string `json:"values"`
	Other  string   `json:"other"`
}

// FitTopK keeps the k most frequent values, ordered by descending
// frequency with alphabetical tie-break so the fit is deterministic.
func FitTopK(values []string, k int, prefix, other string) TopKVocabulary {
	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}
	unique := make([]string, 0, len(counts))
	for v := range counts {
		unique = append(unique, v)
	}
	sort.Slice(unique, func(i, j int) bool {
		if counts[unique[i]] != counts[unique[j]] {
			return counts[unique[i]] > counts[unique[j]]
		}
		return unique[i] < unique[j]
	})
	if k > 0 && len(unique) > k {
		unique = unique[:k]
	}
	return TopKVocabulary{Prefix: prefix, Values: unique, Other: other}
}

// Columns returns the one-hot column names in template order.
func (v TopKVocabulary) Columns() []string {
	cols := make([]string, 0, len(v.Values)+1)
	for _, value := range v.Values {
		cols = append(cols, v.Prefix+"_"+value)
	}
	return append(cols, v.Prefix+"_"+v.Other)
}

// Encode sets exactly one of the vocabulary's columns to 1 in dst.
func (v TopKVocabulary) Encode(value string, dst map[string]float64) {
	for _, col := range v.Columns() {
		dst[col] = 0
	}
	for _, known := range v.Values {
		if value == known {
			dst[v.Prefix+"_"+value] = 1
			return
		}
	}
	dst[v.Prefix+"_"+v.Other] = 1
}

// GenerationVocabulary maps non-rare generation names through a stable
// label assignment, then one-hots over the fixed label space.
type GenerationVocabulary struct {
	Classes []string `json:"classes"` // sorted, includes "other"
}

// FitGeneration keeps values whose training frequency is at least
// minFrequency (a ratio of rows) and appends the synthetic "other".
func FitGeneration(values []string, minFrequency float64) GenerationVocabulary {
	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}
	threshold := minFrequency * float64(len(values))

	classes := make([]string, 0, len(counts))
	for v, n := range counts {
		if float64(n) >= threshold && v != "other" {
			classes = append(classes, v)
		}
	}
	classes = append(classes, "other")
	sort.Strings(classes)
	return GenerationVocabulary{Classes: classes}
}

// Label returns the stable label index for a generation name; unseen
// names map to "other".
func (v GenerationVocabulary) Label(value string) int {
	for i, class := range v.Classes {
		if class == value {
			return i
		}
	}
	for i, class := range v.Classes {
		if class == "other" {
			return i
		}
	}
	return 0
}

// Columns returns the one-hot column names gen_0..gen_N in label order.
func (v GenerationVocabulary) Columns() []string {
	cols := make([]string, len(v.Classes))
	for i := range v.Classes {
		cols[i] = "gen_" + strconv.Itoa(i)
	}
	return cols
}

// Encode one-hots the label of value into dst.
func (v GenerationVocabulary) Encode(value string, dst map[string]float64) {
	for _, col := range v.Columns() {
		dst[col] = 0
	}
	dst["gen_"+strconv.Itoa(v.Label(value))] = 1
}

// TargetEncoding is the persisted model → mean price map. Unseen models
// fall back to the global mean of the map's values.
type TargetEncoding struct {
	Map        map[string]float64 `json:"map"`
	GlobalMean float64            `json:"global_mean"`
}

// Encode looks up the model's mean training price.
func (t TargetEncoding) Encode(model string) float64 {
	if value, ok := t.Map[model]; ok {
		return value
	}
	return t.GlobalMean
}

// FitTargetEncoder fits the model target encoding. The returned perRow
// values are out-of-fold: each training row is encoded using only rows
// outside its own fold, so a row's price never leaks into its own
// feature. The returned TargetEncoding is the full-data mean per model,
// which is what inference uses.
func FitTargetEncoder(models []string, prices []float64, folds int, seed int64) ([]float64, TargetEncoding, error) {
	if len(models) == 0 {
		return nil, TargetEncoding{}, errors.New("models is empty")
	}
	if len(models) != len(prices) {
		return nil, TargetEncoding{}, errors.New("models/prices length mismatch")
	}
	if folds < 2 {
		folds = 5
	}
	if folds > len(models) {
		folds = len(models)
	}

	// Full-data means: the persisted inference map.
	sums := make(map[string]float64)
	counts := make(map[string]int)
	total := 0.0
	for i, model := range models {
		sums[model] += prices[i]
		counts[model]++
		total += prices[i]
	}
	full := TargetEncoding{Map: make(map[string]float64, len(sums))}
	meanSum := 0.0
	for model, sum := range sums {
		mean := sum / float64(counts[model])
		full.Map[model] = mean
		meanSum += mean
	}
	full.GlobalMean = meanSum / float64(len(full.Map))

	// Fold assignment: seeded permutation, round-robin.
	rnd := rand.New(rand.NewSource(seed))
	foldOf := make([]int, len(models))
	for i, idx := range rnd.Perm(len(models)) {
		foldOf[idx] = i % folds
	}

	perRow := make([]float64, len(models))
	for fold := 0; fold < folds; fold++ {
		outSums := make(map[string]float64)
		outCounts := make(map[string]int)
		outTotal := 0.0
		outN := 0
		for i, model := range models {
			if foldOf[i] == fold {
				continue
			}
			outSums[model] += prices[i]
			outCounts[model]++
			outTotal += prices[i]
			outN++
		}
		outGlobal := total / float64(len(models))
		if outN > 0 {
			outGlobal = outTotal / float64(outN)
		}
		for i, model := range models {
			if foldOf[i] != fold {
				continue
			}
			if n := outCounts[model]; n > 0 {
				perRow[i] = outSums[model] / float64(n)
			} else {
				perRow[i] = outGlobal
			}
		}
	}

	return perRow, full, nil
}
