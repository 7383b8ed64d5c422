package domain

import (
	"encoding/json"
	"fmt"
)

type Category string

func (c Category) String() string {
	return string(c)
}

const (
	CategoryDessert     Category = "Dessert"
	CategoryCoffeeHot   Category = "CoffeeHOT"
	CategoryCoffeeIce   Category = "CoffeeICE"
	CategoryBeverageHot Category = "BeverageHOT"
	CategoryBeverageIce Category = "BeverageICE"
)

var Categories = []Category{
	CategoryDessert,
	CategoryCoffeeHot,
	CategoryCoffeeIce,
	CategoryBeverageHot,
	CategoryBeverageIce,
}

// Segment returns the path component the storage repository uses for the
// category directory. Empty for values outside the closed set.
func (c Category) Segment() string {
	switch c {
	case CategoryDessert:
		return "Dessert"
	case CategoryCoffeeHot:
		return "CoffeeHOT"
	case CategoryCoffeeIce:
		return "CoffeeICE"
	case CategoryBeverageHot:
		return "BeverageHOT"
	case CategoryBeverageIce:
		return "BeverageICE"
	default:
		return ""
	}
}

func (c Category) DisplayName() string {
	switch c {
	case CategoryDessert:
		return "Dessert"
	case CategoryCoffeeHot:
		return "Coffee (hot)"
	case CategoryCoffeeIce:
		return "Coffee (iced)"
	case CategoryBeverageHot:
		return "Beverage (hot)"
	case CategoryBeverageIce:
		return "Beverage (iced)"
	default:
		return "Unknown"
	}
}

func (c Category) Valid() bool {
	return c.Segment() != ""
}

func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parsed, err := ParseCategory(raw)
	if err != nil {
		return err
	}

	*c = parsed
	return nil
}
