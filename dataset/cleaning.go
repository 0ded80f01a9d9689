package dataset

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrValidation marks a record rejected by a cleaning rule. Single-record
// inference surfaces it to the caller; batch cleaning drops the row.
var ErrValidation = errors.New("validation failed")

// CleaningRule normalizes or rejects a single listing.
type CleaningRule interface {
	Apply(*Listing) (*Listing, error)
	Name() string
}

// QualityIssue records why a row was rejected during batch cleaning.
type QualityIssue struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Mark      string    `json:"mark"`
	Model     string    `json:"model"`
}

// CleaningStats summarizes a batch cleaning pass.
type CleaningStats struct {
	TotalProcessed int64            `json:"total_processed"`
	Passed         int64            `json:"passed"`
	Rejected       int64            `json:"rejected"`
	Issues         map[string]int64 `json:"issues"`
	LastClean      time.Time        `json:"last_clean"`
}

// Cleaner applies an ordered rule set to listings.
type Cleaner struct {
	rules []CleaningRule
	stats CleaningStats
}

// NewTrainingCleaner builds the full rule set used on the training CSV:
// fuel filtering, generation normalization, domain clips and duplicate
// removal.
func NewTrainingCleaner() *Cleaner {
	cleaner := &Cleaner{stats: CleaningStats{Issues: make(map[string]int64)}}
	cleaner.AddRule(NewFuelRule())
	cleaner.AddRule(NewGenerationRule())
	cleaner.AddRule(NewPriceClipRule())
	cleaner.AddRule(NewMileageClipRule())
	cleaner.AddRule(NewYearClipRule())
	cleaner.AddRule(NewDuplicateRule())
	return cleaner
}

// NewInferenceCleaner builds the rule set for single submitted records.
// Domain clips and duplicate removal are training-noise filters and must
// not reject user input.
func NewInferenceCleaner() *Cleaner {
	cleaner := &Cleaner{stats: CleaningStats{Issues: make(map[string]int64)}}
	cleaner.AddRule(NewFuelRule())
	cleaner.AddRule(NewGenerationRule())
	return cleaner
}

func (c *Cleaner) AddRule(rule CleaningRule) {
	c.rules = append(c.rules, rule)
}

// Clean runs all rules over a batch. Rows failing any rule are dropped
// and reported as issues.
func (c *Cleaner) Clean(listings []Listing) ([]Listing, []QualityIssue) {
	var cleaned []Listing
	var issues []QualityIssue

	for i := range listings {
		c.stats.TotalProcessed++
		listing := listings[i]

		rejected := false
		for _, rule := range c.rules {
			result, err := rule.Apply(&listing)
			if err != nil {
				issues = append(issues, QualityIssue{
					Type:      rule.Name(),
					Message:   err.Error(),
					Timestamp: time.Now(),
					Mark:      listing.Mark,
					Model:     listing.Model,
				})
				c.stats.Issues[rule.Name()]++
				rejected = true
				break
			}
			if result != nil {
				listing = *result
			}
		}

		if rejected {
			c.stats.Rejected++
			continue
		}
		c.stats.Passed++
		cleaned = append(cleaned, listing)
	}

	c.stats.LastClean = time.Now()
	return cleaned, issues
}

// CleanOne validates and normalizes a single record. Unlike Clean it
// never drops silently: the first failing rule is returned as a
// validation error.
func (c *Cleaner) CleanOne(listing Listing) (Listing, error) {
	for _, rule := range c.rules {
		result, err := rule.Apply(&listing)
		if err != nil {
			return Listing{}, fmt.Errorf("%w: %s: %v", ErrValidation, rule.Name(), err)
		}
		if result != nil {
			listing = *result
		}
	}
	return listing, nil
}

func (c *Cleaner) Stats() CleaningStats {
	return c.stats
}

// ============ rules ============

// FuelRule keeps Gasoline/Diesel listings and sets FuelEncoded.
type FuelRule struct{}

func NewFuelRule() *FuelRule { return &FuelRule{} }

func (r *FuelRule) Name() string { return "fuel_validation" }

func (r *FuelRule) Apply(listing *Listing) (*Listing, error) {
	switch listing.Fuel {
	case "Gasoline":
		listing.FuelEncoded = 0
	case "Diesel":
		listing.FuelEncoded = 1
	default:
		return nil, fmt.Errorf("unsupported fuel %q", listing.Fuel)
	}
	return listing, nil
}

// GenerationRule defaults blank generation names to "unknown" and strips
// a literal "gen-" prefix. Never rejects.
type GenerationRule struct{}

func NewGenerationRule() *GenerationRule { return &GenerationRule{} }

func (r *GenerationRule) Name() string { return "generation_normalization" }

func (r *GenerationRule) Apply(listing *Listing) (*Listing, error) {
	name := strings.TrimSpace(listing.GenerationName)
	if name == "" {
		name = "unknown"
	}
	listing.GenerationName = strings.TrimPrefix(name, "gen-")
	return listing, nil
}

// PriceClipRule drops training rows with implausible prices. Rows
// without a price (inference input reused in a batch) pass through.
type PriceClipRule struct {
	MinPrice float64
	MaxPrice float64
}

func NewPriceClipRule() *PriceClipRule {
	return &PriceClipRule{MinPrice: 10000, MaxPrice: 300000}
}

func (r *PriceClipRule) Name() string { return "price_clip" }

func (r *PriceClipRule) Apply(listing *Listing) (*Listing, error) {
	if !listing.HasPrice {
		return listing, nil
	}
	if listing.Price < r.MinPrice || listing.Price > r.MaxPrice {
		return nil, fmt.Errorf("price %.0f out of range [%.0f, %.0f]", listing.Price, r.MinPrice, r.MaxPrice)
	}
	return listing, nil
}

// MileageClipRule drops training rows with implausible mileage.
type MileageClipRule struct {
	MinMileage float64
	MaxMileage float64
}

func NewMileageClipRule() *MileageClipRule {
	return &MileageClipRule{MinMileage: 2000, MaxMileage: 300000}
}

func (r *MileageClipRule) Name() string { return "mileage_clip" }

func (r *MileageClipRule) Apply(listing *Listing) (*Listing, error) {
	if listing.Mileage < r.MinMileage || listing.Mileage > r.MaxMileage {
		return nil, fmt.Errorf("mileage %.0f out of range [%.0f, %.0f]", listing.Mileage, r.MinMileage, r.MaxMileage)
	}
	return listing, nil
}

// YearClipRule drops training rows with implausible production years.
type YearClipRule struct {
	MinYear int
	MaxYear int
}

func NewYearClipRule() *YearClipRule {
	return &YearClipRule{MinYear: 1990, MaxYear: 2025}
}

func (r *YearClipRule) Name() string { return "year_clip" }

func (r *YearClipRule) Apply(listing *Listing) (*Listing, error) {
	if listing.Year < r.MinYear || listing.Year > r.MaxYear {
		return nil, fmt.Errorf("year %d out of range [%d, %d]", listing.Year, r.MinYear, r.MaxYear)
	}
	return listing, nil
}

// DuplicateRule drops exact duplicate rows within one cleaning pass.
type DuplicateRule struct {
	seen map[string]struct{}
}

func NewDuplicateRule() *DuplicateRule {
	return &DuplicateRule{seen: make(map[string]struct{})}
}

func (r *DuplicateRule) Name() string { return "duplicate_detection" }

func (r *DuplicateRule) Apply(listing *Listing) (*Listing, error) {
	key := fmt.Sprintf("%s|%.0f", listing.Key(), listing.Price)
	if _, exists := r.seen[key]; exists {
		return nil, fmt.Errorf("duplicate listing %s %s", listing.Mark, listing.Model)
	}
	r.seen[key] = struct{}{}
	return listing, nil
}
