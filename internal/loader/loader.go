package loader

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"kiosk/catalog/internal/domain"

	log "github.com/sirupsen/logrus"
)

//go:embed data/Beverages.json
var bundled embed.FS

const bundledName = "data/Beverages.json"

// Loader reads the static catalog document.
type Loader interface {
	Load() (domain.Catalog, error)
}

type fsLoader struct {
	fsys fs.FS
	name string
}

// New returns a loader for the document at path, or for the document
// bundled into the binary when path is empty.
func New(path string) Loader {
	if path == "" {
		return NewFS(bundled, bundledName)
	}
	return NewFS(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

func NewFS(fsys fs.FS, name string) Loader {
	return &fsLoader{
		fsys: fsys,
		name: name,
	}
}

func (l *fsLoader) Load() (domain.Catalog, error) {
	data, err := fs.ReadFile(l.fsys, l.name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("catalog document %s: %w", l.name, domain.ErrFileNotFound)
		}
		return nil, fmt.Errorf("failed to read catalog document %s: %w", l.name, err)
	}

	var raw []documentEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrParseFailure, l.name, err)
	}

	catalog := make(domain.Catalog, 0, len(raw))
	for i, entry := range raw {
		if missing := entry.missingField(); missing != "" {
			return nil, fmt.Errorf("%w: %s: entry %d has no %s", domain.ErrParseFailure, l.name, i, missing)
		}
		catalog = append(catalog, domain.CatalogEntry{
			Name:        *entry.Name,
			Price:       *entry.Price,
			Category:    *entry.Category,
			Brand:       *entry.Brand,
			Recommended: entry.Recommended,
		})
	}

	log.Debugf("Loaded %d catalog entries from %s", len(catalog), l.name)
	return catalog, nil
}

// documentEntry mirrors one object of the document. Required keys are
// pointers so an absent key can be told apart from a zero value.
type documentEntry struct {
	Name        *string          `json:"name"`
	Price       *int             `json:"price"`
	Category    *domain.Category `json:"category"`
	Brand       *domain.Brand    `json:"brand"`
	Recommended *bool            `json:"recommended"`
}

func (e documentEntry) missingField() string {
	switch {
	case e.Name == nil || *e.Name == "":
		return "name"
	case e.Price == nil:
		return "price"
	case e.Category == nil || !e.Category.Valid():
		return "category"
	case e.Brand == nil || !e.Brand.Valid():
		return "brand"
	}
	return ""
}
