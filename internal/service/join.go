package service

import (
	"cmp"
	"slices"

	"kiosk/catalog/internal/domain"
)

// Join stamps each catalog entry with the download URL of the directory entry
// whose (base name, brand segment, category segment) equals the entry's
// (name, brand, category). Matching is exact and case-sensitive. Directory
// entries without a path or download URL never match. When several directory
// entries match one catalog entry, the last in path order wins.
//
// The input catalog is not modified.
func Join(catalog domain.Catalog, entries []domain.DirectoryEntry) domain.Catalog {
	out := catalog.Clone()

	for _, entry := range sortedForJoin(entries) {
		brand, category, ok := entry.Segments()
		if !ok || entry.DownloadURL == nil {
			continue
		}
		name := entry.BaseName()

		for i := range out {
			if out[i].Name == name &&
				out[i].Brand.Segment() == brand &&
				out[i].Category.Segment() == category {
				url := *entry.DownloadURL
				out[i].ImageReference = &url
			}
		}
	}

	return out
}

func sortedForJoin(entries []domain.DirectoryEntry) []domain.DirectoryEntry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b domain.DirectoryEntry) int {
		pa, pb := "", ""
		if a.Path != nil {
			pa = *a.Path
		}
		if b.Path != nil {
			pb = *b.Path
		}
		return cmp.Or(cmp.Compare(pa, pb), cmp.Compare(a.URL(), b.URL()))
	})
	return sorted
}
