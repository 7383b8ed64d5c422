package domain

import "strings"

// DirectoryEntry is one file record from the repository contents listing.
type DirectoryEntry struct {
	Name        string  `json:"name"`                   // "Americano.png"
	DownloadURL *string `json:"download_url,omitempty"` // raw file URL, null for directories
	Path        *string `json:"path,omitempty"`         // "Mega/CoffeeHOT/Americano.png"
}

// BaseName strips everything from the first "." of the file name onward.
func (e DirectoryEntry) BaseName() string {
	if i := strings.Index(e.Name, "."); i >= 0 {
		return e.Name[:i]
	}
	return e.Name
}

// Segments returns the brand and category components of the entry path.
// ok is false when the path is missing or has fewer than two components.
func (e DirectoryEntry) Segments() (brand, category string, ok bool) {
	if e.Path == nil {
		return "", "", false
	}

	parts := strings.Split(*e.Path, "/")
	if len(parts) < 2 {
		return "", "", false
	}

	return parts[0], parts[1], true
}

// URL returns the download URL or "" when absent.
func (e DirectoryEntry) URL() string {
	if e.DownloadURL == nil {
		return ""
	}
	return *e.DownloadURL
}
