package shared

import (
	"context"

	"github.com/google/uuid"
)

// DocumentNumberSequencer issues human-readable sequential document
// numbers (e.g. ADJ-2026-0001) per store and document type. Numbers are
// unique within a (store, type, year) scope; gaps are acceptable.
type DocumentNumberSequencer interface {
	Next(ctx context.Context, storeID uuid.UUID, docType string) (string, error)
}
