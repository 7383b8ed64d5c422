package task

import (
	"time"

	"kiosk/catalog/internal/domain"
)

type CatalogSnapshotTask struct {
	ID          string                `json:"id"`           // run ID of the assembly
	AssembledAt time.Time             `json:"assembled_at"` // completion time
	Entries     []domain.CatalogEntry `json:"entries"`      // the full catalog
}

func (t *CatalogSnapshotTask) TaskType() string {
	return "CatalogSnapshotTask"
}

func (t *CatalogSnapshotTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
