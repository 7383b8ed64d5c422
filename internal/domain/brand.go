package domain

import (
	"encoding/json"
	"fmt"
)

type Brand string

func (b Brand) String() string {
	return string(b)
}

const (
	BrandPaik     Brand = "Paik"
	BrandTheVenti Brand = "TheVenti"
	BrandMega     Brand = "Mega"
)

var Brands = []Brand{
	BrandPaik,
	BrandTheVenti,
	BrandMega,
}

// Segment returns the top-level directory name of the brand in the storage
// repository. Empty for values outside the closed set.
func (b Brand) Segment() string {
	switch b {
	case BrandPaik:
		return "Paik"
	case BrandTheVenti:
		return "TheVenti"
	case BrandMega:
		return "Mega"
	default:
		return ""
	}
}

func (b Brand) DisplayName() string {
	switch b {
	case BrandPaik:
		return "Paik's Coffee"
	case BrandTheVenti:
		return "The Venti"
	case BrandMega:
		return "Mega Coffee"
	default:
		return "Unknown"
	}
}

func (b Brand) Valid() bool {
	return b.Segment() != ""
}

func ParseBrand(s string) (Brand, error) {
	b := Brand(s)
	if !b.Valid() {
		return "", fmt.Errorf("unknown brand %q", s)
	}
	return b, nil
}

func (b *Brand) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parsed, err := ParseBrand(raw)
	if err != nil {
		return err
	}

	*b = parsed
	return nil
}
