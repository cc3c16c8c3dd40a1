package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/shared"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	// ReservationStatusPending is a live hold awaiting confirmation
	ReservationStatusPending ReservationStatus = "pending"
	// ReservationStatusConfirmed means the hold will become a deduction
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	// ReservationStatusCancelled means the hold was given back
	ReservationStatusCancelled ReservationStatus = "cancelled"
	// ReservationStatusExpired means the sweep released an overdue hold
	ReservationStatusExpired ReservationStatus = "expired"
)

// String returns the string representation of the status
func (s ReservationStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is one of the known values
func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationStatusPending,
		ReservationStatusConfirmed,
		ReservationStatusCancelled,
		ReservationStatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions
func (s ReservationStatus) IsTerminal() bool {
	return s != ReservationStatusPending
}

// Reservation is a short-lived hold of stock on behalf of a referencing
// document, typically a sale line. Pending is the only live state;
// confirmed, cancelled and expired are terminal. Transitions are
// version-guarded at the persistence layer, which is what makes the
// expiry sweep idempotent under concurrent sweepers.
type Reservation struct {
	shared.BaseAggregateRoot
	StockLineID   uuid.UUID
	Quantity      decimal.Decimal
	ReferenceType ReferenceType
	ReferenceID   uuid.UUID
	Status        ReservationStatus
	ExpiresAt     time.Time
	ConfirmedAt   *time.Time
	CancelledAt   *time.Time
	ExpiredAt     *time.Time
}

// NewReservation creates a pending hold. The expiry must lie in the
// future; a hold born expired is a caller bug.
func NewReservation(
	stockLineID uuid.UUID,
	quantity decimal.Decimal,
	referenceType ReferenceType,
	referenceID uuid.UUID,
	expiresAt time.Time,
) (*Reservation, error) {
	if stockLineID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "stock line id cannot be empty")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "reservation quantity must be positive")
	}
	if !referenceType.IsValid() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "invalid reservation reference type")
	}
	if referenceID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "reservation reference id cannot be empty")
	}
	if !expiresAt.After(time.Now()) {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "reservation expiry must be in the future")
	}

	return &Reservation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StockLineID:       stockLineID,
		Quantity:          quantity,
		ReferenceType:     referenceType,
		ReferenceID:       referenceID,
		Status:            ReservationStatusPending,
		ExpiresAt:         expiresAt,
	}, nil
}

// IsExpired reports whether a pending hold is past its expiry. It becomes
// true the moment the deadline passes, before the sweep makes the state
// durable.
func (r *Reservation) IsExpired(now time.Time) bool {
	return r.Status == ReservationStatusPending && now.After(r.ExpiresAt)
}

// IsActive reports whether the hold still counts against available stock
func (r *Reservation) IsActive(now time.Time) bool {
	return r.Status == ReservationStatusPending && !now.After(r.ExpiresAt)
}

// Confirm marks a pending hold as one that will become a deduction. The
// reserved quantity does not change here: the owning workflow deducts the
// stock and releases the hold in the same transaction.
func (r *Reservation) Confirm(now time.Time) error {
	if err := r.ensurePendingAndLive(now); err != nil {
		return err
	}
	r.Status = ReservationStatusConfirmed
	r.ConfirmedAt = &now
	r.IncrementVersion()
	r.AddDomainEvent(NewReservationConfirmedEvent(r))
	return nil
}

// Cancel terminates a pending hold; the caller releases the held quantity
// back through the stock ledger in the same transaction.
func (r *Reservation) Cancel(now time.Time) error {
	if err := r.ensurePendingAndLive(now); err != nil {
		return err
	}
	r.Status = ReservationStatusCancelled
	r.CancelledAt = &now
	r.IncrementVersion()
	r.AddDomainEvent(NewReservationCancelledEvent(r))
	return nil
}

// Expire transitions an overdue pending hold to expired. Only the sweep
// calls it; expiring a hold that is no longer pending is an InvalidState
// error the sweep treats as already-done.
func (r *Reservation) Expire(now time.Time) error {
	if r.Status != ReservationStatusPending {
		return shared.NewDomainError(shared.ErrInvalidState.Code, "reservation is not pending")
	}
	r.Status = ReservationStatusExpired
	r.ExpiredAt = &now
	r.IncrementVersion()
	r.AddDomainEvent(NewReservationExpiredEvent(r))
	return nil
}

func (r *Reservation) ensurePendingAndLive(now time.Time) error {
	if r.Status != ReservationStatusPending {
		return shared.NewDomainError(shared.ErrInvalidState.Code, "reservation is not pending")
	}
	if r.IsExpired(now) {
		return shared.NewDomainError(shared.ErrInvalidState.Code, "reservation has expired")
	}
	return nil
}
