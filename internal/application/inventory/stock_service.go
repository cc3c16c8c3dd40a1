package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/domain/shared/valueobject"
)

// StockService owns the stock-line side of the ledger: line lifecycle,
// direct quantity corrections, stock level thresholds, bulk
// initialization, and the valuation snapshot. Workflow documents mutate
// stock through their own services; this one covers the operations that
// need no document.
type StockService struct {
	scope          TransactionScope
	kardex         *inventory.KardexService
	eventPublisher shared.EventPublisher
}

// NewStockService creates a new StockService
func NewStockService(scope TransactionScope) *StockService {
	return &StockService{
		scope:  scope,
		kardex: inventory.NewKardexService(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *StockService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishDomainEvents drains an aggregate's pending events to the bus.
// Event delivery is best-effort; the transaction has already committed.
func (s *StockService) publishDomainEvents(ctx context.Context, root shared.AggregateRoot) {
	publishDomainEvents(ctx, s.eventPublisher, root)
}

// GetByID retrieves a stock line by ID
func (s *StockService) GetByID(ctx context.Context, id uuid.UUID) (*StockLineResponse, error) {
	var response StockLineResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		line, err := repos.StockLines().FindByID(ctx, id)
		if err != nil {
			return err
		}
		response = ToStockLineResponse(line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// GetByStoreAndRef retrieves the stock line for a (store, product|variant) pair
func (s *StockService) GetByStoreAndRef(ctx context.Context, storeID uuid.UUID, ref inventory.ProductRef) (*StockLineResponse, error) {
	var response StockLineResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		line, err := repos.StockLines().FindByStoreAndRef(ctx, storeID, ref)
		if err != nil {
			return err
		}
		response = ToStockLineResponse(line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// List retrieves a store's stock lines with pagination
func (s *StockService) List(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]StockLineResponse, int64, error) {
	var (
		responses []StockLineResponse
		total     int64
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		lines, err := repos.StockLines().FindByStore(ctx, storeID, filter)
		if err != nil {
			return err
		}
		total, err = repos.StockLines().CountByStore(ctx, storeID, filter)
		if err != nil {
			return err
		}
		responses = ToStockLineResponses(lines)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return responses, total, nil
}

// ListLowStock retrieves lines whose available quantity sits at or below
// their minimum stock level
func (s *StockService) ListLowStock(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]StockLineResponse, error) {
	var responses []StockLineResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		lines, err := repos.StockLines().FindLowStock(ctx, storeID, filter)
		if err != nil {
			return err
		}
		responses = ToStockLineResponses(lines)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// CreateLine creates an empty stock line for a store and product ref
func (s *StockService) CreateLine(ctx context.Context, storeID uuid.UUID, ref inventory.ProductRef, minStockLevel decimal.Decimal) (*StockLineResponse, error) {
	line, err := inventory.NewStockLine(storeID, ref)
	if err != nil {
		return nil, err
	}
	if err := line.SetStockLevels(minStockLevel, nil); err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.StockLines().Create(ctx, line)
	})
	if err != nil {
		return nil, err
	}

	response := ToStockLineResponse(line)
	return &response, nil
}

// SetStockLevels updates a line's min/max thresholds with a version-checked
// save, retrying on conflict.
func (s *StockService) SetStockLevels(ctx context.Context, lineID uuid.UUID, minLevel decimal.Decimal, maxLevel *decimal.Decimal) (*StockLineResponse, error) {
	var response StockLineResponse
	err := WithVersionRetry(ctx, DefaultVersionRetries, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			line, err := repos.StockLines().FindByID(ctx, lineID)
			if err != nil {
				return err
			}
			if err := line.SetStockLevels(minLevel, maxLevel); err != nil {
				return err
			}
			line.IncrementVersion()
			if err := repos.StockLines().SaveWithVersion(ctx, line); err != nil {
				return err
			}
			response = ToStockLineResponse(line)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// AdjustQuantity applies a direct signed correction to a line outside any
// adjustment document, recording the adjustment movement in the same
// transaction. Retries on version conflict with a fresh read.
func (s *StockService) AdjustQuantity(ctx context.Context, lineID uuid.UUID, delta decimal.Decimal, reason string, actorID uuid.UUID) (*StockLineResponse, error) {
	if delta.IsZero() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "adjustment delta cannot be zero")
	}
	correctionID := uuid.New()

	var (
		response StockLineResponse
		line     *inventory.StockLine
	)
	err := WithVersionRetry(ctx, DefaultVersionRetries, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			line, err = repos.StockLines().FindByID(ctx, lineID)
			if err != nil {
				return err
			}

			balanceBefore := line.Quantity
			if err := line.AdjustQuantity(delta); err != nil {
				return err
			}
			if err := repos.StockLines().SaveWithVersion(ctx, line); err != nil {
				return err
			}

			movement, err := inventory.NewMovement(
				line.ID,
				inventory.MovementKindAdjustment,
				delta,
				balanceBefore,
				line.Quantity,
				inventory.ReferenceTypeAdjustment,
				correctionID,
				actorID,
			)
			if err != nil {
				return err
			}
			movement.WithReason(reason).WithUnitCost(valueobject.NewMoneyHNL(line.AverageUnitCost))
			if err := repos.Movements().Append(ctx, movement); err != nil {
				return err
			}

			response = ToStockLineResponse(line)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, line)
	return &response, nil
}

// InitializeLines bulk-creates stock lines for a store. Lines whose
// (store, ref) pair already exists are skipped, which makes re-running an
// initialization idempotent. Lines seeded with a positive quantity get an
// initial_stock movement so the ledger replays from zero like any other.
func (s *StockService) InitializeLines(ctx context.Context, req InitializeStockRequest) (*InitializeStockResult, error) {
	if req.StoreID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "store id cannot be empty")
	}
	if len(req.Lines) == 0 {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "initialization needs at least one line")
	}

	batchID := uuid.New()
	result := &InitializeStockResult{}
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		for _, entry := range req.Lines {
			_, err := repos.StockLines().FindByStoreAndRef(ctx, req.StoreID, entry.ProductRef)
			if err == nil {
				result.Skipped++
				continue
			}
			if !errors.Is(err, shared.ErrNotFound) {
				return err
			}

			line, err := inventory.NewStockLine(req.StoreID, entry.ProductRef)
			if err != nil {
				return err
			}
			if err := line.SetStockLevels(entry.MinStockLevel, nil); err != nil {
				return err
			}
			if entry.Quantity.IsPositive() {
				if err := line.Receive(entry.Quantity, valueobject.NewMoneyHNL(entry.UnitCost)); err != nil {
					return err
				}
			}
			if err := repos.StockLines().Create(ctx, line); err != nil {
				return err
			}

			if entry.Quantity.IsPositive() {
				movement, err := inventory.NewMovement(
					line.ID,
					inventory.MovementKindIn,
					entry.Quantity,
					decimal.Zero,
					line.Quantity,
					inventory.ReferenceTypeInitialStock,
					batchID,
					req.ActorID,
				)
				if err != nil {
					return err
				}
				movement.WithUnitCost(valueobject.NewMoneyHNL(entry.UnitCost))
				if err := repos.Movements().Append(ctx, movement); err != nil {
					return err
				}
			}
			line.ClearDomainEvents()
			result.Created++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("initialize stock for store %s: %w", req.StoreID, err)
	}
	return result, nil
}

// Valuate sums quantity x average unit cost over a store's stock lines
func (s *StockService) Valuate(ctx context.Context, storeID uuid.UUID) (*inventory.Valuation, error) {
	var valuation *inventory.Valuation
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		filter := shared.DefaultFilter()
		filter.PageSize = 0 // whole store, not a page
		lines, err := repos.StockLines().FindByStore(ctx, storeID, filter)
		if err != nil {
			return err
		}
		valuation = s.kardex.Valuate(storeID.String(), lines)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return valuation, nil
}

// publishDomainEvents drains an aggregate's events to a publisher, if one
// is configured. Errors are the bus's problem, not the caller's.
func publishDomainEvents(ctx context.Context, publisher shared.EventPublisher, root shared.AggregateRoot) {
	if publisher == nil || root == nil {
		return
	}
	events := root.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = publisher.Publish(ctx, events...)
	root.ClearDomainEvents()
}
