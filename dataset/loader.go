package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// LoadCSV reads a raw listings CSV. Columns named "province" and any
// column whose name starts with "unnamed" are discarded. Rows with
// unparsable numeric fields are skipped and counted.
func LoadCSV(path string) ([]Listing, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Source exports are sometimes Windows-1250 rather than UTF-8.
	if !utf8.Valid(payload) {
		decoded, err := io.ReadAll(transform.NewReader(
			strings.NewReader(string(payload)), charmap.Windows1250.NewDecoder()))
		if err != nil {
			return nil, fmt.Errorf("decode windows-1250: %w", err)
		}
		payload = decoded
	}

	reader := csv.NewReader(strings.NewReader(string(payload)))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int)
	for i, name := range header {
		name = strings.TrimSpace(name)
		lower := strings.ToLower(name)
		if lower == "province" || strings.HasPrefix(lower, "unnamed") {
			continue
		}
		cols[lower] = i
	}

	for _, required := range []string{"mark", "model", "year", "mileage", "vol_engine", "fuel", "generation_name", "city"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}
	_, hasPrice := cols["price"]

	var listings []Listing
	var skipped int
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		field := func(name string) string {
			idx := cols[name]
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		year, err := strconv.Atoi(field("year"))
		if err != nil {
			skipped++
			continue
		}
		mileage, err := strconv.ParseFloat(field("mileage"), 64)
		if err != nil {
			skipped++
			continue
		}
		volEngine, err := strconv.ParseFloat(field("vol_engine"), 64)
		if err != nil {
			skipped++
			continue
		}

		listing := Listing{
			Mark:           field("mark"),
			Model:          field("model"),
			Year:           year,
			Mileage:        mileage,
			VolEngine:      volEngine,
			Fuel:           field("fuel"),
			GenerationName: field("generation_name"),
			City:           field("city"),
		}
		if hasPrice {
			price, err := strconv.ParseFloat(field("price"), 64)
			if err != nil {
				skipped++
				continue
			}
			listing.Price = price
			listing.HasPrice = true
		}
		listings = append(listings, listing)
	}

	if skipped > 0 {
		log.Printf("LoadCSV: skipped %d rows with unparsable numeric fields", skipped)
	}
	return listings, nil
}
