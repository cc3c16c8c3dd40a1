package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kardexhq/backend/internal/domain/shared"
)

// InMemoryDocumentNumberSequencer issues document numbers from in-process
// counters. Suitable for single-instance deployments and testing; counters
// do not survive restarts, so restarted processes reuse numbers.
type InMemoryDocumentNumberSequencer struct {
	mu       sync.Mutex
	counters map[string]int64
	prefixes map[string]string
	now      func() time.Time
}

// NewInMemoryDocumentNumberSequencer creates an in-memory sequencer.
// See NewRedisDocumentNumberSequencer for the prefixes contract.
func NewInMemoryDocumentNumberSequencer(prefixes map[string]string) *InMemoryDocumentNumberSequencer {
	return &InMemoryDocumentNumberSequencer{
		counters: make(map[string]int64),
		prefixes: prefixes,
		now:      time.Now,
	}
}

// Next issues the next document number for the store and document type,
// formatted as PREFIX-YYYY-NNNN.
func (s *InMemoryDocumentNumberSequencer) Next(ctx context.Context, storeID uuid.UUID, docType string) (string, error) {
	year := s.now().Year()
	key := fmt.Sprintf("%s:%s:%d", docType, storeID, year)

	s.mu.Lock()
	s.counters[key]++
	seq := s.counters[key]
	s.mu.Unlock()

	prefix, ok := s.prefixes[docType]
	if !ok || prefix == "" {
		prefix = strings.ToUpper(docType)
	}

	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq), nil
}

var _ shared.DocumentNumberSequencer = (*InMemoryDocumentNumberSequencer)(nil)
