package state

import (
	"sync"
	"time"

	"kiosk/catalog/internal/domain"
)

// Snapshot is the last catalog a run assembled successfully.
type Snapshot struct {
	RunID       string         `json:"run_id"`
	AssembledAt time.Time      `json:"assembled_at"`
	Catalog     domain.Catalog `json:"catalog"`
}

// StateManager holds the catalog currently offered to the kiosk UI.
type StateManager interface {
	Current() (Snapshot, bool)
	Replace(snapshot Snapshot)
}

type memoryStateManager struct {
	mu       sync.RWMutex
	snapshot Snapshot
	ready    bool
}

func NewStateManager() StateManager {
	return &memoryStateManager{}
}

// Current returns a copy of the snapshot; ok is false before the first
// successful run.
func (s *memoryStateManager) Current() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return Snapshot{}, false
	}

	snapshot := s.snapshot
	snapshot.Catalog = s.snapshot.Catalog.Clone()
	return snapshot, true
}

// Replace swaps in a whole new catalog. Failed runs never call it, so the
// previous catalog stays visible.
func (s *memoryStateManager) Replace(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot.Catalog = snapshot.Catalog.Clone()
	s.snapshot = snapshot
	s.ready = true
}
