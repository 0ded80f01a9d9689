package dataset

import "fmt"

// Listing is a single car listing. Price is only meaningful for training
// rows; inference records carry Price == 0 and HasPrice == false.
type Listing struct {
	Mark           string  `json:"mark"`
	Model          string  `json:"model"`
	Year           int     `json:"year"`
	Mileage        float64 `json:"mileage"`
	VolEngine      float64 `json:"vol_engine"`
	Fuel           string  `json:"fuel"`
	GenerationName string  `json:"generation_name"`
	City           string  `json:"city"`
	Price          float64 `json:"price,omitempty"`
	HasPrice       bool    `json:"-"`

	// Set by the fuel rule during cleaning: Gasoline=0, Diesel=1.
	FuelEncoded int `json:"-"`
}

// Key returns a stable identity for the listing's raw fields. Used for
// duplicate detection during cleaning and as a prediction cache key.
func (l Listing) Key() string {
	return fmt.Sprintf("%s|%s|%d|%.0f|%.0f|%s|%s|%s",
		l.Mark, l.Model, l.Year, l.Mileage, l.VolEngine, l.Fuel, l.GenerationName, l.City)
}
