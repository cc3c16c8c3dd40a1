package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/domain/shared/valueobject"
)

// MovementKind classifies a ledger entry.
type MovementKind string

const (
	// MovementKindIn is stock received (goods receipt, credit-note restock)
	MovementKindIn MovementKind = "in"
	// MovementKindOut is stock sold or otherwise consumed
	MovementKindOut MovementKind = "out"
	// MovementKindAdjustment is a manual correction, signed either way
	MovementKindAdjustment MovementKind = "adjustment"
	// MovementKindTransferOut is stock shipped to another store
	MovementKindTransferOut MovementKind = "transfer_out"
	// MovementKindTransferIn is stock received from another store
	MovementKindTransferIn MovementKind = "transfer_in"
	// MovementKindReservation is a hold placed on available stock
	MovementKindReservation MovementKind = "reservation"
	// MovementKindRelease is a hold given back to available stock
	MovementKindRelease MovementKind = "release"
)

// String returns the string representation of the movement kind
func (k MovementKind) String() string {
	return string(k)
}

// IsValid returns true if the movement kind is one of the known values
func (k MovementKind) IsValid() bool {
	switch k {
	case MovementKindIn,
		MovementKindOut,
		MovementKindAdjustment,
		MovementKindTransferOut,
		MovementKindTransferIn,
		MovementKindReservation,
		MovementKindRelease:
		return true
	}
	return false
}

// AffectsOnHand reports whether entries of this kind change the on-hand
// quantity. Reservation and release entries document holds: they move
// quantity between the available and reserved portions without changing
// what is physically there, so Kardex replay of the on-hand balance
// skips them.
func (k MovementKind) AffectsOnHand() bool {
	switch k {
	case MovementKindIn,
		MovementKindOut,
		MovementKindAdjustment,
		MovementKindTransferOut,
		MovementKindTransferIn:
		return true
	}
	return false
}

// ReferenceType names the workflow document type a movement points back at.
type ReferenceType string

const (
	ReferenceTypeSale          ReferenceType = "sale"
	ReferenceTypeCreditNote    ReferenceType = "credit_note"
	ReferenceTypePurchaseOrder ReferenceType = "purchase_order"
	ReferenceTypeGoodsReceipt  ReferenceType = "goods_receipt"
	ReferenceTypeTransfer      ReferenceType = "transfer"
	ReferenceTypeAdjustment    ReferenceType = "adjustment"
	ReferenceTypeReservation   ReferenceType = "reservation"
	ReferenceTypeInitialStock  ReferenceType = "initial_stock"
)

// String returns the string representation of the reference type
func (r ReferenceType) String() string {
	return string(r)
}

// IsValid returns true if the reference type is one of the known values
func (r ReferenceType) IsValid() bool {
	switch r {
	case ReferenceTypeSale,
		ReferenceTypeCreditNote,
		ReferenceTypePurchaseOrder,
		ReferenceTypeGoodsReceipt,
		ReferenceTypeTransfer,
		ReferenceTypeAdjustment,
		ReferenceTypeReservation,
		ReferenceTypeInitialStock:
		return true
	}
	return false
}

// Movement is one immutable entry of the per-stock-line ledger (Kardex).
// Quantity is the signed delta: positive for inbound kinds, negative for
// outbound ones; adjustments carry either sign. For reservation/release
// entries the delta is against the available portion, not on-hand. Once
// created a movement is never updated or deleted; corrections are new
// movements.
type Movement struct {
	shared.BaseEntity
	StockLineID   uuid.UUID
	Kind          MovementKind
	Quantity      decimal.Decimal
	UnitCost      *decimal.Decimal
	Currency      valueobject.Currency
	TotalCost     *decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	ReferenceType ReferenceType
	ReferenceID   uuid.UUID
	ActorID       uuid.UUID
	Reason        string
	Notes         string
	OccurredAt    time.Time
}

// NewMovement records a quantity change against a stock line. The balances
// must come from the ledger operation the movement documents, never from a
// second read. The delta's sign must agree with the kind.
func NewMovement(
	stockLineID uuid.UUID,
	kind MovementKind,
	quantity decimal.Decimal,
	balanceBefore decimal.Decimal,
	balanceAfter decimal.Decimal,
	referenceType ReferenceType,
	referenceID uuid.UUID,
	actorID uuid.UUID,
) (*Movement, error) {
	if stockLineID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "stock line id cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "invalid movement kind")
	}
	if quantity.IsZero() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "movement quantity cannot be zero")
	}
	if err := checkKindSign(kind, quantity); err != nil {
		return nil, err
	}
	if !referenceType.IsValid() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "invalid movement reference type")
	}
	if referenceID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "movement reference id cannot be empty")
	}
	if actorID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "movement actor id cannot be empty")
	}

	return &Movement{
		BaseEntity:    shared.NewBaseEntity(),
		StockLineID:   stockLineID,
		Kind:          kind,
		Quantity:      quantity,
		Currency:      valueobject.DefaultCurrency,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		ActorID:       actorID,
		OccurredAt:    time.Now(),
	}, nil
}

func checkKindSign(kind MovementKind, quantity decimal.Decimal) error {
	switch kind {
	case MovementKindIn, MovementKindTransferIn, MovementKindRelease:
		if quantity.IsNegative() {
			return shared.NewDomainError(shared.ErrConstraintViolation.Code, "inbound movement quantity must be positive")
		}
	case MovementKindOut, MovementKindTransferOut, MovementKindReservation:
		if quantity.IsPositive() {
			return shared.NewDomainError(shared.ErrConstraintViolation.Code, "outbound movement quantity must be negative")
		}
	}
	return nil
}

// WithUnitCost records the unit cost the quantity moved at; the total
// cost is |quantity| x unit cost.
func (m *Movement) WithUnitCost(unitCost valueobject.Money) *Movement {
	amount := unitCost.Amount()
	total := m.Quantity.Abs().Mul(amount)
	m.UnitCost = &amount
	m.TotalCost = &total
	m.Currency = unitCost.Currency()
	return m
}

// WithReason sets the reason for the movement
func (m *Movement) WithReason(reason string) *Movement {
	m.Reason = reason
	return m
}

// WithNotes sets free-form notes on the movement
func (m *Movement) WithNotes(notes string) *Movement {
	m.Notes = notes
	return m
}

// WithOccurredAt overrides the movement timestamp
func (m *Movement) WithOccurredAt(ts time.Time) *Movement {
	m.OccurredAt = ts
	return m
}
