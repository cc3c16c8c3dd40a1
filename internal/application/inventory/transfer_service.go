package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/domain/shared/valueobject"
)

// DocTypeTransfer is the document-number type for stock transfers
const DocTypeTransfer = "TRF"

// TransferService drives the two-sided transfer workflow. Shipping
// deducts every line from the source store's stock and records
// transfer_out movements; receiving credits the destination at the shipped
// unit cost and records transfer_in movements. Each side is one
// transaction, so stock in transit is exactly the gap between them.
type TransferService struct {
	scope          TransactionScope
	sequencer      shared.DocumentNumberSequencer
	eventPublisher shared.EventPublisher
}

// NewTransferService creates a new TransferService
func NewTransferService(scope TransactionScope, sequencer shared.DocumentNumberSequencer) *TransferService {
	return &TransferService{scope: scope, sequencer: sequencer}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *TransferService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create opens a draft transfer, optionally pre-populated with lines
func (s *TransferService) Create(ctx context.Context, req CreateTransferRequest) (*inventory.StockTransfer, error) {
	transfer, err := inventory.NewStockTransfer(req.FromStoreID, req.ToStoreID, req.ActorID)
	if err != nil {
		return nil, err
	}
	transfer.Notes = req.Notes
	for _, lr := range req.Lines {
		if _, err := transfer.AddLine(lr.ProductRef, lr.Quantity); err != nil {
			return nil, err
		}
	}

	if s.sequencer != nil {
		number, err := s.sequencer.Next(ctx, req.FromStoreID, DocTypeTransfer)
		if err != nil {
			return nil, fmt.Errorf("issue transfer document number: %w", err)
		}
		transfer.SetDocumentNumber(number)
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.Transfers().Save(ctx, transfer)
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

// AddLine appends a product to a draft transfer
func (s *TransferService) AddLine(ctx context.Context, transferID uuid.UUID, req TransferLineRequest) (*inventory.StockTransfer, error) {
	var transfer *inventory.StockTransfer
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		transfer, err = repos.Transfers().FindByID(ctx, transferID)
		if err != nil {
			return err
		}
		if _, err := transfer.AddLine(req.ProductRef, req.Quantity); err != nil {
			return err
		}
		return repos.Transfers().Save(ctx, transfer)
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

// Submit queues a draft transfer for shipping
func (s *TransferService) Submit(ctx context.Context, transferID, actorID uuid.UUID) (*inventory.StockTransfer, error) {
	return s.transition(ctx, transferID, func(t *inventory.StockTransfer) error {
		return t.Submit(actorID)
	})
}

// Cancel abandons a transfer that has not yet shipped
func (s *TransferService) Cancel(ctx context.Context, transferID, actorID uuid.UUID, reason string) (*inventory.StockTransfer, error) {
	return s.transition(ctx, transferID, func(t *inventory.StockTransfer) error {
		return t.Cancel(actorID, reason)
	})
}

func (s *TransferService) transition(ctx context.Context, transferID uuid.UUID, step func(*inventory.StockTransfer) error) (*inventory.StockTransfer, error) {
	var transfer *inventory.StockTransfer
	err := WithVersionRetry(ctx, DefaultVersionRetries, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			transfer, err = repos.Transfers().FindByID(ctx, transferID)
			if err != nil {
				return err
			}
			if err := step(transfer); err != nil {
				return err
			}
			return repos.Transfers().SaveWithVersion(ctx, transfer)
		})
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

// Ship moves a pending transfer in transit. For every line the source
// stock line is resolved by (from-store, ref), the requested quantity is
// deducted through a version-checked save, the shipment (quantity, unit
// cost at the source's current average) is fixed on the line, and a
// transfer_out movement is appended — all in one transaction with the
// status change.
func (s *TransferService) Ship(ctx context.Context, transferID, actorID uuid.UUID) (*inventory.StockTransfer, error) {
	var (
		transfer *inventory.StockTransfer
		touched  []*inventory.StockLine
	)
	err := WithVersionRetry(ctx, DefaultVersionRetries, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			touched = touched[:0]
			var err error
			transfer, err = repos.Transfers().FindByID(ctx, transferID)
			if err != nil {
				return err
			}
			// Check the transition before any source stock is deducted.
			if !transfer.CanShip() {
				return shared.NewDomainError(shared.ErrInvalidTransition.Code,
					fmt.Sprintf("cannot ship transfer in status %s", transfer.Status))
			}

			for _, item := range transfer.Items {
				line, err := repos.StockLines().FindByStoreAndRef(ctx, transfer.FromStoreID, item.ProductRef)
				if err != nil {
					if errors.Is(err, shared.ErrNotFound) {
						return shared.NewDomainError(shared.ErrInsufficientStock.Code, "source store has no stock line for "+item.ProductRef.String())
					}
					return err
				}

				balanceBefore := line.Quantity
				unitCost := line.AverageUnitCost
				if err := line.AdjustQuantity(item.Quantity.Neg()); err != nil {
					return err
				}
				if err := repos.StockLines().SaveWithVersion(ctx, line); err != nil {
					return err
				}
				if err := transfer.RecordShipment(item.ID, line.ID, item.Quantity, unitCost); err != nil {
					return err
				}

				movement, err := inventory.NewMovement(
					line.ID,
					inventory.MovementKindTransferOut,
					item.Quantity.Neg(),
					balanceBefore,
					line.Quantity,
					inventory.ReferenceTypeTransfer,
					transfer.ID,
					actorID,
				)
				if err != nil {
					return err
				}
				movement.WithUnitCost(valueobject.NewMoneyHNL(unitCost))
				if err := repos.Movements().Append(ctx, movement); err != nil {
					return err
				}
				touched = append(touched, line)
			}

			if err := transfer.Ship(actorID); err != nil {
				return err
			}
			return repos.Transfers().SaveWithVersion(ctx, transfer)
		})
	})
	if err != nil {
		return nil, err
	}

	for _, line := range touched {
		publishDomainEvents(ctx, s.eventPublisher, line)
	}
	publishDomainEvents(ctx, s.eventPublisher, transfer)
	return transfer, nil
}

// Receive completes an in-transit transfer. For every line the
// destination stock line is resolved by (to-store, ref) — created empty if
// the store never carried the product — and credited with the arrived
// quantity at the shipped unit cost, folding it into the destination's
// average; a transfer_in movement documents the credit. Arrived quantities
// may differ from shipped ones; the discrepancy is recorded on the lines,
// never rejected. Lines without an entry in received default to the
// shipped quantity.
func (s *TransferService) Receive(ctx context.Context, transferID, actorID uuid.UUID, received []ReceiveTransferLineRequest) (*inventory.StockTransfer, error) {
	receivedByLine := make(map[uuid.UUID]ReceiveTransferLineRequest, len(received))
	for _, r := range received {
		receivedByLine[r.LineID] = r
	}

	var (
		transfer *inventory.StockTransfer
		touched  []*inventory.StockLine
	)
	err := WithVersionRetry(ctx, DefaultVersionRetries, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			touched = touched[:0]
			var err error
			transfer, err = repos.Transfers().FindByID(ctx, transferID)
			if err != nil {
				return err
			}
			// Check the transition before the destination is credited.
			if !transfer.CanReceive() {
				return shared.NewDomainError(shared.ErrInvalidTransition.Code,
					fmt.Sprintf("cannot receive transfer in status %s", transfer.Status))
			}

			for _, item := range transfer.Items {
				quantity := item.QuantityShipped
				if r, ok := receivedByLine[item.ID]; ok {
					quantity = r.Quantity
				}

				line, err := repos.StockLines().FindByStoreAndRef(ctx, transfer.ToStoreID, item.ProductRef)
				if errors.Is(err, shared.ErrNotFound) {
					line, err = inventory.NewStockLine(transfer.ToStoreID, item.ProductRef)
					if err != nil {
						return err
					}
					if err := repos.StockLines().Create(ctx, line); err != nil {
						return err
					}
				} else if err != nil {
					return err
				}

				balanceBefore := line.Quantity
				if quantity.IsPositive() {
					if err := line.Receive(quantity, valueobject.NewMoneyHNL(item.UnitCost)); err != nil {
						return err
					}
					if err := repos.StockLines().SaveWithVersion(ctx, line); err != nil {
						return err
					}

					movement, err := inventory.NewMovement(
						line.ID,
						inventory.MovementKindTransferIn,
						quantity,
						balanceBefore,
						line.Quantity,
						inventory.ReferenceTypeTransfer,
						transfer.ID,
						actorID,
					)
					if err != nil {
						return err
					}
					movement.WithUnitCost(valueobject.NewMoneyHNL(item.UnitCost))
					if err := repos.Movements().Append(ctx, movement); err != nil {
						return err
					}
				}
				if err := transfer.RecordReceipt(item.ID, line.ID, quantity); err != nil {
					return err
				}
				touched = append(touched, line)
			}

			if err := transfer.Receive(actorID); err != nil {
				return err
			}
			return repos.Transfers().SaveWithVersion(ctx, transfer)
		})
	})
	if err != nil {
		return nil, err
	}

	for _, line := range touched {
		publishDomainEvents(ctx, s.eventPublisher, line)
	}
	publishDomainEvents(ctx, s.eventPublisher, transfer)
	return transfer, nil
}

// GetByID retrieves a transfer with its lines
func (s *TransferService) GetByID(ctx context.Context, id uuid.UUID) (*inventory.StockTransfer, error) {
	var transfer *inventory.StockTransfer
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		transfer, err = repos.Transfers().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

// ListByStore lists transfers where a store is source or destination
func (s *TransferService) ListByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]inventory.StockTransfer, int64, error) {
	var (
		transfers []inventory.StockTransfer
		total     int64
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		transfers, err = repos.Transfers().FindByStore(ctx, storeID, filter)
		if err != nil {
			return err
		}
		total, err = repos.Transfers().CountByStore(ctx, storeID, filter)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return transfers, total, nil
}
