package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kardexhq/backend/internal/domain/shared"
)

// RedisDocumentNumberSequencer issues document numbers backed by Redis
// INCR counters, one counter per (store, document type, year). Because
// INCR is atomic, concurrent instances never hand out the same number.
// Counters are never reset; a new year simply starts a new key.
type RedisDocumentNumberSequencer struct {
	client    *redis.Client
	keyPrefix string
	prefixes  map[string]string
	now       func() time.Time
}

// NewRedisDocumentNumberSequencer creates a sequencer on an existing Redis
// client. prefixes maps document types (e.g. "adjustment") to number
// prefixes (e.g. "ADJ"); types without an entry fall back to the
// uppercased document type.
func NewRedisDocumentNumberSequencer(client *redis.Client, prefixes map[string]string) *RedisDocumentNumberSequencer {
	return &RedisDocumentNumberSequencer{
		client:    client,
		keyPrefix: "document:seq:",
		prefixes:  prefixes,
		now:       time.Now,
	}
}

// Next issues the next document number for the store and document type,
// formatted as PREFIX-YYYY-NNNN.
func (s *RedisDocumentNumberSequencer) Next(ctx context.Context, storeID uuid.UUID, docType string) (string, error) {
	year := s.now().Year()
	key := fmt.Sprintf("%s%s:%s:%d", s.keyPrefix, docType, storeID, year)

	seq, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("failed to increment document sequence: %w", err)
	}

	return fmt.Sprintf("%s-%d-%04d", s.prefixFor(docType), year, seq), nil
}

func (s *RedisDocumentNumberSequencer) prefixFor(docType string) string {
	if p, ok := s.prefixes[docType]; ok && p != "" {
		return p
	}
	return strings.ToUpper(docType)
}

var _ shared.DocumentNumberSequencer = (*RedisDocumentNumberSequencer)(nil)
