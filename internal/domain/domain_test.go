package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestFetchSequenceIsCrossProduct(t *testing.T) {
	if len(FetchSequence) != len(Brands)*len(Categories) {
		t.Fatalf("expected %d pairs, got %d", len(Brands)*len(Categories), len(FetchSequence))
	}

	seen := make(map[FetchPair]bool)
	for _, pair := range FetchSequence {
		if !pair.Brand.Valid() || !pair.Category.Valid() {
			t.Fatalf("invalid pair %v", pair)
		}
		if seen[pair] {
			t.Fatalf("duplicate pair %v", pair)
		}
		seen[pair] = true
	}

	for _, b := range Brands {
		for _, c := range Categories {
			if !seen[FetchPair{b, c}] {
				t.Errorf("missing pair %s/%s", b, c)
			}
		}
	}
}

func TestSegments(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"paik", BrandPaik.Segment(), "Paik"},
		{"the venti", BrandTheVenti.Segment(), "TheVenti"},
		{"mega", BrandMega.Segment(), "Mega"},
		{"unknown brand", Brand("Starbucks").Segment(), ""},
		{"dessert", CategoryDessert.Segment(), "Dessert"},
		{"coffee hot", CategoryCoffeeHot.Segment(), "CoffeeHOT"},
		{"beverage ice", CategoryBeverageIce.Segment(), "BeverageICE"},
		{"unknown category", Category("Tea").Segment(), ""},
		{"pair", FetchPair{BrandMega, CategoryCoffeeIce}.String(), "Mega/CoffeeICE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, tt.got)
			}
		})
	}
}

func TestCatalogEntryUnmarshalRejectsUnknownEnum(t *testing.T) {
	var entry CatalogEntry
	err := json.Unmarshal([]byte(`{"name":"Latte","price":3000,"category":"Tea","brand":"Mega"}`), &entry)
	if err == nil {
		t.Fatal("expected error for unknown category")
	}

	err = json.Unmarshal([]byte(`{"name":"Latte","price":3000,"category":"CoffeeICE","brand":"Mega","recommended":true}`), &entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Recommended == nil || !*entry.Recommended {
		t.Fatalf("recommended not decoded: %+v", entry)
	}
	if entry.ImageReference != nil {
		t.Fatalf("image reference must start unset")
	}
}

func TestDirectoryEntryDerivedKey(t *testing.T) {
	path := "Mega/CoffeeHOT/Americano.png"
	entry := DirectoryEntry{Name: "Americano.ice.png", Path: &path}

	if got := entry.BaseName(); got != "Americano" {
		t.Errorf("BaseName = %q", got)
	}

	brand, category, ok := entry.Segments()
	if !ok || brand != "Mega" || category != "CoffeeHOT" {
		t.Errorf("Segments = %q %q %v", brand, category, ok)
	}

	if _, _, ok := (DirectoryEntry{Name: "README"}).Segments(); ok {
		t.Error("entry without path must not yield segments")
	}
	if got := (DirectoryEntry{Name: "README"}).BaseName(); got != "README" {
		t.Errorf("BaseName without extension = %q", got)
	}
}

func TestCatalogFilterAndFind(t *testing.T) {
	catalog := Catalog{
		{Name: "Americano", Price: 1500, Brand: BrandMega, Category: CategoryCoffeeHot},
		{Name: "Latte", Price: 2500, Brand: BrandMega, Category: CategoryCoffeeIce},
		{Name: "Americano", Price: 1700, Brand: BrandPaik, Category: CategoryCoffeeHot},
	}

	hot := catalog.Filter(BrandMega, CategoryCoffeeHot)
	if len(hot) != 1 || hot[0].Price != 1500 {
		t.Fatalf("unexpected filter result %+v", hot)
	}

	if coffee := catalog.Filter("", CategoryCoffeeHot); len(coffee) != 2 {
		t.Fatalf("expected both hot coffees, got %+v", coffee)
	}
	if mega := catalog.Filter(BrandMega, ""); len(mega) != 2 {
		t.Fatalf("expected both Mega entries, got %+v", mega)
	}

	entry, ok := catalog.Find(BrandPaik, "Americano")
	if !ok || entry.Price != 1700 {
		t.Fatalf("unexpected find result %+v %v", entry, ok)
	}

	if _, ok := catalog.Find(BrandTheVenti, "Americano"); ok {
		t.Fatal("expected no match")
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("wrap: %w", ErrInvalidURL), "invalid_url"},
		{fmt.Errorf("wrap: %w", &ServerError{Code: 404}), "server_error"},
		{ErrDecoding, "decoding_error"},
		{ErrTransport, "transport_error"},
		{ErrFileNotFound, "file_not_found"},
		{ErrParseFailure, "parse_failure"},
		{errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		if got := Kind(tt.err); got != tt.want {
			t.Errorf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}

	var serverErr *ServerError
	if !errors.As(fmt.Errorf("x: %w", &ServerError{Code: 503}), &serverErr) || serverErr.Code != 503 {
		t.Fatal("expected ServerError to be recoverable with errors.As")
	}
}
