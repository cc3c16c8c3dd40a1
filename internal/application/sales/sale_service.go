// Package sales coordinates the point-of-sale workflows against the
// stock ledger: holds are placed when lines are added, consumed when the
// sale completes, and released when it is voided, each inside the same
// transaction as the document's status move.
package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	appinventory "github.com/kardexhq/backend/internal/application/inventory"
	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/sales"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/domain/shared/valueobject"
)

// DocTypeSale is the document number prefix for sales
const DocTypeSale = "SALE"

// SaleService drives a sale from draft to completed, returned or voided.
// Every line added to a draft places a TTL hold on its stock line, so
// completing the sale only has to consume what is already held.
type SaleService struct {
	scope          appinventory.TransactionScope
	sequencer      shared.DocumentNumberSequencer
	eventPublisher shared.EventPublisher
}

// NewSaleService creates a new SaleService
func NewSaleService(scope appinventory.TransactionScope, sequencer shared.DocumentNumberSequencer) *SaleService {
	return &SaleService{scope: scope, sequencer: sequencer}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *SaleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishDomainEvents drains an aggregate's pending events to the bus.
// Event delivery is best-effort; the transaction has already committed.
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

// Create opens a draft sale and assigns its document number
func (s *SaleService) Create(ctx context.Context, req CreateSaleRequest) (*sales.Sale, error) {
	sale, err := sales.NewSale(req.StoreID, req.ActorID)
	if err != nil {
		return nil, err
	}
	if req.CustomerID != nil {
		if err := sale.SetCustomer(*req.CustomerID); err != nil {
			return nil, err
		}
	}
	sale.Notes = req.Notes

	number, err := s.sequencer.Next(ctx, req.StoreID, DocTypeSale)
	if err != nil {
		return nil, err
	}
	sale.SetDocumentNumber(number)

	err = s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		return repos.Sales().Save(ctx, sale)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// AddLine adds a sold product to a draft sale and places a TTL hold for
// its quantity. The hold's reserve save is version-checked; on conflict
// the line is re-read and the whole step retries.
func (s *SaleService) AddLine(ctx context.Context, saleID uuid.UUID, req SaleLineRequest) (*sales.Sale, error) {
	ttl := req.TTL
	if ttl <= 0 {
		ttl = appinventory.DefaultReservationTTL
	}

	var (
		sale *sales.Sale
		line *inventory.StockLine
	)
	err := appinventory.WithVersionRetry(ctx, appinventory.DefaultVersionRetries, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
			var err error
			sale, err = repos.Sales().FindByID(ctx, saleID)
			if err != nil {
				return err
			}

			line, err = repos.StockLines().FindByStoreAndRef(ctx, sale.StoreID, req.Ref)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return shared.NewDomainError(shared.ErrInsufficientStock.Code, "store has no stock line for "+req.Ref.String())
				}
				return err
			}
			if err := line.Reserve(req.Quantity); err != nil {
				return err
			}
			if err := repos.StockLines().SaveWithVersion(ctx, line); err != nil {
				return err
			}

			saleLine, err := sale.AddLine(line.ID, req.Ref, req.Quantity, req.UnitPrice, req.DiscountAmount, req.TaxAmount)
			if err != nil {
				return err
			}

			reservation, err := inventory.NewReservation(
				line.ID,
				req.Quantity,
				inventory.ReferenceTypeSale,
				sale.ID,
				time.Now().Add(ttl),
			)
			if err != nil {
				return err
			}
			if err := repos.Reservations().Create(ctx, reservation); err != nil {
				return err
			}
			saleLine.AttachReservation(reservation.ID)

			movement, err := inventory.NewMovement(
				line.ID,
				inventory.MovementKindReservation,
				req.Quantity.Neg(),
				line.Quantity,
				line.Quantity,
				inventory.ReferenceTypeReservation,
				reservation.ID,
				sale.CreatedBy,
			)
			if err != nil {
				return err
			}
			if err := repos.Movements().Append(ctx, movement); err != nil {
				return err
			}

			return repos.Sales().Save(ctx, sale)
		})
	})
	if err != nil {
		return nil, err
	}

	publishDomainEvents(ctx, s.eventPublisher, line)
	return sale, nil
}

// RemoveLine takes a product off a draft sale and releases its hold
func (s *SaleService) RemoveLine(ctx context.Context, saleID, lineID, actorID uuid.UUID) (*sales.Sale, error) {
	var (
		sale *sales.Sale
		line *inventory.StockLine
	)
	err := appinventory.WithVersionRetry(ctx, appinventory.DefaultVersionRetries, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
			line = nil
			var err error
			sale, err = repos.Sales().FindByID(ctx, saleID)
			if err != nil {
				return err
			}
			saleLine, err := sale.LineByID(lineID)
			if err != nil {
				return err
			}

			if saleLine.ReservationID != nil {
				var release error
				line, release = s.releaseHold(ctx, repos, *saleLine.ReservationID, actorID)
				if release != nil {
					return release
				}
			}

			if err := sale.RemoveLine(lineID); err != nil {
				return err
			}
			return repos.Sales().Save(ctx, sale)
		})
	})
	if err != nil {
		return nil, err
	}

	publishDomainEvents(ctx, s.eventPublisher, line)
	return sale, nil
}

// Complete closes a draft sale: each line's hold is confirmed and
// consumed, an out movement at the line's average cost is appended, and
// the sale flips to completed, all in one transaction. A hold that has
// already expired fails the completion rather than silently re-reserving.
func (s *SaleService) Complete(ctx context.Context, saleID, actorID uuid.UUID) (*sales.Sale, error) {
	var (
		sale    *sales.Sale
		touched []*inventory.StockLine
	)
	err := appinventory.WithVersionRetry(ctx, appinventory.DefaultVersionRetries, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
			touched = touched[:0]
			var err error
			sale, err = repos.Sales().FindByID(ctx, saleID)
			if err != nil {
				return err
			}
			// Check the transition before any hold is consumed.
			if !sale.CanComplete() {
				return shared.NewDomainError(shared.ErrInvalidTransition.Code,
					fmt.Sprintf("cannot complete sale in status %s", sale.Status))
			}

			now := time.Now()
			for _, item := range sale.Items {
				if item.ReservationID == nil {
					return shared.NewDomainError(shared.ErrInvalidState.Code, "sale line holds no stock reservation")
				}
				reservation, err := repos.Reservations().FindByID(ctx, *item.ReservationID)
				if err != nil {
					return err
				}
				if err := reservation.Confirm(now); err != nil {
					return err
				}
				if err := repos.Reservations().SaveWithVersion(ctx, reservation); err != nil {
					return err
				}

				line, err := repos.StockLines().FindByID(ctx, item.StockLineID)
				if err != nil {
					return err
				}
				balanceBefore := line.Quantity
				unitCost := line.AverageUnitCost
				if err := line.ConsumeReserved(item.Quantity); err != nil {
					return err
				}
				if err := repos.StockLines().SaveWithVersion(ctx, line); err != nil {
					return err
				}

				movement, err := inventory.NewMovement(
					line.ID,
					inventory.MovementKindOut,
					item.Quantity.Neg(),
					balanceBefore,
					line.Quantity,
					inventory.ReferenceTypeSale,
					sale.ID,
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

			if err := sale.Complete(actorID); err != nil {
				return err
			}
			return repos.Sales().SaveWithVersion(ctx, sale)
		})
	})
	if err != nil {
		return nil, err
	}

	for _, line := range touched {
		publishDomainEvents(ctx, s.eventPublisher, line)
	}
	publishDomainEvents(ctx, s.eventPublisher, sale)
	return sale, nil
}

// Void abandons a draft sale and releases every line's hold. A hold the
// sweeper already expired has nothing left to release and is skipped.
func (s *SaleService) Void(ctx context.Context, saleID, actorID uuid.UUID, reason string) (*sales.Sale, error) {
	var (
		sale    *sales.Sale
		touched []*inventory.StockLine
	)
	err := appinventory.WithVersionRetry(ctx, appinventory.DefaultVersionRetries, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
			touched = touched[:0]
			var err error
			sale, err = repos.Sales().FindByID(ctx, saleID)
			if err != nil {
				return err
			}
			// Check the transition before any hold is released.
			if !sale.CanVoid() {
				return shared.NewDomainError(shared.ErrInvalidTransition.Code,
					fmt.Sprintf("cannot void sale in status %s", sale.Status))
			}

			for _, item := range sale.Items {
				if item.ReservationID == nil {
					continue
				}
				line, err := s.releaseHold(ctx, repos, *item.ReservationID, actorID)
				if err != nil {
					return err
				}
				if line != nil {
					touched = append(touched, line)
				}
			}

			if err := sale.Void(actorID, reason); err != nil {
				return err
			}
			return repos.Sales().SaveWithVersion(ctx, sale)
		})
	})
	if err != nil {
		return nil, err
	}

	for _, line := range touched {
		publishDomainEvents(ctx, s.eventPublisher, line)
	}
	publishDomainEvents(ctx, s.eventPublisher, sale)
	return sale, nil
}

// releaseHold cancels a pending reservation and gives its quantity back,
// appending the release movement. A hold no longer pending (expired by
// the sweeper, or already cancelled) is left alone and returns no line.
func (s *SaleService) releaseHold(ctx context.Context, repos appinventory.TransactionalRepositories, reservationID, actorID uuid.UUID) (*inventory.StockLine, error) {
	reservation, err := repos.Reservations().FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := reservation.Cancel(time.Now()); err != nil {
		if errors.Is(err, shared.ErrInvalidState) {
			return nil, nil
		}
		return nil, err
	}
	if err := repos.Reservations().SaveWithVersion(ctx, reservation); err != nil {
		return nil, err
	}

	line, err := repos.StockLines().FindByID(ctx, reservation.StockLineID)
	if err != nil {
		return nil, err
	}
	if err := line.ReleaseReserved(reservation.Quantity); err != nil {
		return nil, err
	}
	if err := repos.StockLines().SaveWithVersion(ctx, line); err != nil {
		return nil, err
	}

	movement, err := inventory.NewMovement(
		line.ID,
		inventory.MovementKindRelease,
		reservation.Quantity,
		line.Quantity,
		line.Quantity,
		inventory.ReferenceTypeReservation,
		reservation.ID,
		actorID,
	)
	if err != nil {
		return nil, err
	}
	if err := repos.Movements().Append(ctx, movement); err != nil {
		return nil, err
	}
	return line, nil
}

// GetByID retrieves a sale with its lines
func (s *SaleService) GetByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	var sale *sales.Sale
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		var err error
		sale, err = repos.Sales().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// ListByStore lists a store's sales with the total count
func (s *SaleService) ListByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]sales.Sale, int64, error) {
	var (
		list  []sales.Sale
		count int64
	)
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		var err error
		list, err = repos.Sales().FindByStore(ctx, storeID, filter)
		if err != nil {
			return err
		}
		count, err = repos.Sales().CountByStore(ctx, storeID, filter)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return list, count, nil
}
