package inventory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/domain/shared/valueobject"
	"github.com/kardexhq/backend/internal/infrastructure/persistence/memory"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// testEnv wires the services against in-memory repositories through a
// no-op transaction scope.
type testEnv struct {
	scope        *NoOpTransactionScope
	stockLines   *memory.StockLineRepository
	movements    *memory.MovementRepository
	reservations *memory.ReservationRepository
	adjustments  *memory.AdjustmentRepository
	transfers    *memory.TransferRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		stockLines:   memory.NewStockLineRepository(),
		movements:    memory.NewMovementRepository(),
		reservations: memory.NewReservationRepository(),
		adjustments:  memory.NewAdjustmentRepository(),
		transfers:    memory.NewTransferRepository(),
	}
	env.scope = NewNoOpTransactionScope(
		env.stockLines, env.movements, env.reservations,
		env.adjustments, env.transfers,
		nil, nil, nil, nil,
	)
	return env
}

// seedStockLine creates a stock line holding qty units received at cost
func seedStockLine(t *testing.T, env *testEnv, storeID uuid.UUID, qty, cost string) *inventory.StockLine {
	t.Helper()
	line, err := inventory.NewStockLine(storeID, inventory.MustProductRef(uuid.New()))
	require.NoError(t, err)
	if d(qty).IsPositive() {
		require.NoError(t, line.Receive(d(qty), valueobject.NewMoneyHNL(d(cost))))
	}
	line.ClearDomainEvents()
	require.NoError(t, env.stockLines.Create(context.Background(), line))
	return line
}

// fakeSequencer hands out per-document-type running numbers
type fakeSequencer struct {
	mu   sync.Mutex
	next map[string]int
}

func newFakeSequencer() *fakeSequencer {
	return &fakeSequencer{next: make(map[string]int)}
}

func (s *fakeSequencer) Next(_ context.Context, _ uuid.UUID, docType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next[docType]++
	return fmt.Sprintf("%s-%06d", docType, s.next[docType]), nil
}

var _ shared.DocumentNumberSequencer = (*fakeSequencer)(nil)

// capturingPublisher records every published event
type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturingPublisher) byType(eventType string) []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.DomainEvent
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

var _ shared.EventPublisher = (*capturingPublisher)(nil)
