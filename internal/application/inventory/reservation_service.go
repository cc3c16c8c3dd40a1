package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
)

const (
	// DefaultReservationTTL is how long a hold lives when the caller does
	// not say otherwise (30 minutes).
	DefaultReservationTTL = 30 * time.Minute

	// DefaultSweepBatch caps how many overdue holds one sweep pass loads
	DefaultSweepBatch = 200
)

// SystemActorID tags ledger entries written by background jobs, which act
// on the system's behalf rather than a user's.
var SystemActorID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// ReservationService manages holds on stock lines: placing them,
// confirming or cancelling them, and the recurring sweep that expires
// overdue ones. Every operation pairs the reservation transition with the
// matching reserved-quantity change on the stock line in one transaction.
type ReservationService struct {
	scope          TransactionScope
	eventPublisher shared.EventPublisher
	defaultTTL     time.Duration
}

// NewReservationService creates a new ReservationService
func NewReservationService(scope TransactionScope) *ReservationService {
	return &ReservationService{scope: scope}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ReservationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetDefaultTTL overrides the TTL applied to requests that carry none
func (s *ReservationService) SetDefaultTTL(ttl time.Duration) {
	if ttl > 0 {
		s.defaultTTL = ttl
	}
}

// Create places a hold on a stock line. The reserved quantity rises via a
// version-checked save and the pending reservation is inserted in the same
// transaction; on conflict the whole pair retries with a fresh read.
func (s *ReservationService) Create(ctx context.Context, req CreateReservationRequest) (*ReservationResponse, error) {
	ttl := req.TTL
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if ttl <= 0 {
		ttl = DefaultReservationTTL
	}

	var (
		reservation *inventory.Reservation
		line        *inventory.StockLine
	)
	err := WithVersionRetry(ctx, DefaultVersionRetries, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			line, err = repos.StockLines().FindByID(ctx, req.StockLineID)
			if err != nil {
				return err
			}
			if err := line.Reserve(req.Quantity); err != nil {
				return err
			}
			if err := repos.StockLines().SaveWithVersion(ctx, line); err != nil {
				return err
			}

			reservation, err = inventory.NewReservation(
				line.ID,
				req.Quantity,
				req.ReferenceType,
				req.ReferenceID,
				time.Now().Add(ttl),
			)
			if err != nil {
				return err
			}
			if err := repos.Reservations().Create(ctx, reservation); err != nil {
				return err
			}

			movement, err := inventory.NewMovement(
				line.ID,
				inventory.MovementKindReservation,
				req.Quantity.Neg(),
				line.Quantity,
				line.Quantity,
				inventory.ReferenceTypeReservation,
				reservation.ID,
				req.ActorID,
			)
			if err != nil {
				return err
			}
			return repos.Movements().Append(ctx, movement)
		})
	})
	if err != nil {
		return nil, err
	}

	publishDomainEvents(ctx, s.eventPublisher, line)
	response := ToReservationResponse(reservation)
	return &response, nil
}

// Confirm marks a pending hold as confirmed. The reserved quantity stays
// put: the owning workflow consumes it when it completes.
func (s *ReservationService) Confirm(ctx context.Context, reservationID uuid.UUID) (*ReservationResponse, error) {
	var reservation *inventory.Reservation
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		reservation, err = repos.Reservations().FindByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if err := reservation.Confirm(time.Now()); err != nil {
			return err
		}
		return repos.Reservations().SaveWithVersion(ctx, reservation)
	})
	if err != nil {
		return nil, err
	}

	publishDomainEvents(ctx, s.eventPublisher, reservation)
	response := ToReservationResponse(reservation)
	return &response, nil
}

// Cancel terminates a pending hold and gives its quantity back to
// available stock, with a release movement documenting the give-back.
func (s *ReservationService) Cancel(ctx context.Context, reservationID, actorID uuid.UUID) (*ReservationResponse, error) {
	var (
		reservation *inventory.Reservation
		line        *inventory.StockLine
	)
	err := WithVersionRetry(ctx, DefaultVersionRetries, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			reservation, err = repos.Reservations().FindByID(ctx, reservationID)
			if err != nil {
				return err
			}
			if err := reservation.Cancel(time.Now()); err != nil {
				return err
			}
			if err := repos.Reservations().SaveWithVersion(ctx, reservation); err != nil {
				return err
			}

			line, err = repos.StockLines().FindByID(ctx, reservation.StockLineID)
			if err != nil {
				return err
			}
			if err := line.ReleaseReserved(reservation.Quantity); err != nil {
				return err
			}
			if err := repos.StockLines().SaveWithVersion(ctx, line); err != nil {
				return err
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
				return err
			}
			return repos.Movements().Append(ctx, movement)
		})
	})
	if err != nil {
		return nil, err
	}

	publishDomainEvents(ctx, s.eventPublisher, reservation)
	publishDomainEvents(ctx, s.eventPublisher, line)
	response := ToReservationResponse(reservation)
	return &response, nil
}

// SweepExpired expires pending holds whose deadline lies at or before now
// and releases their quantities, one transaction per hold so a single bad
// row cannot wedge the sweep. Returns how many holds this pass expired.
//
// The sweep is idempotent and safe under concurrent sweepers: each
// transition saves with a version check, so a hold already swept (or
// confirmed or cancelled) by someone else fails that hold's transaction
// with Conflict or InvalidState and is simply skipped.
func (s *ReservationService) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	var expired []inventory.Reservation
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		expired, err = repos.Reservations().FindExpired(ctx, now, DefaultSweepBatch)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("find expired reservations: %w", err)
	}

	count := 0
	for i := range expired {
		reservationID := expired[i].ID
		err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			reservation, err := repos.Reservations().FindByID(ctx, reservationID)
			if err != nil {
				return err
			}
			if err := reservation.Expire(now); err != nil {
				return err
			}
			if err := repos.Reservations().SaveWithVersion(ctx, reservation); err != nil {
				return err
			}

			line, err := repos.StockLines().FindByID(ctx, reservation.StockLineID)
			if err != nil {
				return err
			}
			if err := line.ReleaseReserved(reservation.Quantity); err != nil {
				return err
			}
			if err := repos.StockLines().SaveWithVersion(ctx, line); err != nil {
				return err
			}

			movement, err := inventory.NewMovement(
				line.ID,
				inventory.MovementKindRelease,
				reservation.Quantity,
				line.Quantity,
				line.Quantity,
				inventory.ReferenceTypeReservation,
				reservation.ID,
				SystemActorID,
			)
			if err != nil {
				return err
			}
			if err := repos.Movements().Append(ctx, movement); err != nil {
				return err
			}

			publishDomainEvents(ctx, s.eventPublisher, reservation)
			return nil
		})
		if err != nil {
			// Lost the race to another sweeper or to a confirm/cancel;
			// either way this hold is no longer ours to expire.
			if errors.Is(err, shared.ErrConflict) || errors.Is(err, shared.ErrInvalidState) {
				continue
			}
			return count, err
		}
		count++
	}
	return count, nil
}

// GetByID retrieves a reservation by ID
func (s *ReservationService) GetByID(ctx context.Context, id uuid.UUID) (*ReservationResponse, error) {
	var response ReservationResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		reservation, err := repos.Reservations().FindByID(ctx, id)
		if err != nil {
			return err
		}
		response = ToReservationResponse(reservation)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}
