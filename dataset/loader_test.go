package dataset

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listings.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeCSV(t, `Unnamed: 0,mark,model,generation_name,year,mileage,vol_engine,fuel,city,province,price
0,audi,a4,gen-b8,2015,50000,2000,Diesel,Warszawa,Mazowieckie,75000
1,bmw,320,,2018,30000,2000,Gasoline,Krakow,Malopolskie,95000
`)
	listings, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}
	first := listings[0]
	if first.Mark != "audi" || first.Year != 2015 || first.Mileage != 50000 {
		t.Fatalf("unexpected first listing: %+v", first)
	}
	if !first.HasPrice || first.Price != 75000 {
		t.Fatalf("expected price 75000, got %+v", first)
	}
}

func TestLoadCSVSkipsUnparsableRows(t *testing.T) {
	path := writeCSV(t, `mark,model,generation_name,year,mileage,vol_engine,fuel,city,price
audi,a4,gen-b8,not-a-year,50000,2000,Diesel,Warszawa,75000
bmw,320,b8,2018,30000,2000,Gasoline,Krakow,95000
`)
	listings, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}
	if listings[0].Mark != "bmw" {
		t.Fatalf("expected the bmw row, got %+v", listings[0])
	}
}

func TestLoadCSVMissingColumn(t *testing.T) {
	path := writeCSV(t, `mark,model,year
audi,a4,2015
`)
	if _, err := LoadCSV(path); err == nil {
		t.Fatal("expected error for missing columns")
	}
}

func TestLoadCSVWindows1250(t *testing.T) {
	// "Kraków" with ó encoded as Windows-1250 0xF3.
	content := []byte("mark,model,generation_name,year,mileage,vol_engine,fuel,city,price\naudi,a4,b8,2015,50000,2000,Diesel,Krak\xf3w,75000\n")
	path := filepath.Join(t.TempDir(), "cp1250.csv")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	listings, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}
	if listings[0].City != "Kraków" {
		t.Fatalf("expected decoded city Kraków, got %q", listings[0].City)
	}
}
