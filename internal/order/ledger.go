package order

import (
	"errors"
	"sync"

	"kiosk/catalog/internal/domain"
)

var ErrLineNotFound = errors.New("order line not found")

// Line is one product in the order. Lines are keyed by brand and name.
type Line struct {
	Name  string       `json:"name"`
	Price int          `json:"price"`
	Brand domain.Brand `json:"brand"`
	Count int          `json:"count"`
}

type Summary struct {
	Lines []Line `json:"lines"`
	Count int    `json:"count"`
	Total int    `json:"total"`
}

// Ledger is the kiosk's current order. Safe for concurrent use.
type Ledger struct {
	mu    sync.Mutex
	lines []Line
}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) index(brand domain.Brand, name string) int {
	for i, line := range l.lines {
		if line.Brand == brand && line.Name == name {
			return i
		}
	}
	return -1
}

// Add puts one unit of entry in the order, incrementing the line if the
// product is already ordered.
func (l *Ledger) Add(entry domain.CatalogEntry) Line {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i := l.index(entry.Brand, entry.Name); i >= 0 {
		l.lines[i].Count++
		return l.lines[i]
	}

	line := Line{Name: entry.Name, Price: entry.Price, Brand: entry.Brand, Count: 1}
	l.lines = append(l.lines, line)
	return line
}

func (l *Ledger) Increment(brand domain.Brand, name string) (Line, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(brand, name)
	if i < 0 {
		return Line{}, ErrLineNotFound
	}

	l.lines[i].Count++
	return l.lines[i], nil
}

// Decrement removes one unit; the line disappears when its last unit goes.
// The returned line has Count 0 in that case.
func (l *Ledger) Decrement(brand domain.Brand, name string) (Line, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(brand, name)
	if i < 0 {
		return Line{}, ErrLineNotFound
	}

	l.lines[i].Count--
	line := l.lines[i]
	if line.Count == 0 {
		l.lines = append(l.lines[:i], l.lines[i+1:]...)
	}
	return line, nil
}

func (l *Ledger) Remove(brand domain.Brand, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(brand, name)
	if i < 0 {
		return ErrLineNotFound
	}

	l.lines = append(l.lines[:i], l.lines[i+1:]...)
	return nil
}

func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lines = nil
}

// Summary returns the lines in the order they were first added.
func (l *Ledger) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Summary{Lines: make([]Line, len(l.lines))}
	copy(s.Lines, l.lines)
	for _, line := range l.lines {
		s.Count += line.Count
		s.Total += line.Price * line.Count
	}
	return s
}
