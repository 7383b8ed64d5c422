package domain

type CatalogEntry struct {
	Name           string   `json:"name"`
	Price          int      `json:"price"`
	Category       Category `json:"category"`
	Brand          Brand    `json:"brand"`
	Recommended    *bool    `json:"recommended,omitempty"`
	ImageReference *string  `json:"image_reference,omitempty"` // download URL, set by the join
}

// HasImage reports whether the join found an image for the entry.
func (e CatalogEntry) HasImage() bool {
	return e.ImageReference != nil
}

type Catalog []CatalogEntry

// Filter returns the entries of one brand and category, in document order.
// An empty brand or category matches any.
func (c Catalog) Filter(brand Brand, category Category) Catalog {
	out := make(Catalog, 0)
	for _, entry := range c {
		if (brand == "" || entry.Brand == brand) && (category == "" || entry.Category == category) {
			out = append(out, entry)
		}
	}
	return out
}

// Find returns the first entry with the given brand and name.
func (c Catalog) Find(brand Brand, name string) (CatalogEntry, bool) {
	for _, entry := range c {
		if entry.Brand == brand && entry.Name == name {
			return entry, true
		}
	}
	return CatalogEntry{}, false
}

// Clone copies the catalog so the join can stamp image references without
// touching the caller's slice.
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	copy(out, c)
	return out
}
