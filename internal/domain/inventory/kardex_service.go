package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/shared"
)

// KardexService is the stateless domain logic over the movement ledger:
// replaying a stock line's movements and checking them against the line,
// and valuing stock at average cost. It is pure computation; repositories
// hand it the data.
type KardexService struct{}

// NewKardexService creates a new KardexService
func NewKardexService() *KardexService {
	return &KardexService{}
}

// LedgerReport is the result of replaying a stock line's movements
type LedgerReport struct {
	StockLineID      string          `json:"stock_line_id"`
	MovementCount    int             `json:"movement_count"`
	ReplayedQuantity decimal.Decimal `json:"replayed_quantity"`
	CurrentQuantity  decimal.Decimal `json:"current_quantity"`
	Consistent       bool            `json:"consistent"`
	BrokenAt         *int            `json:"broken_at,omitempty"`
}

// Replay walks a stock line's movements oldest-first, summing on-hand
// deltas from zero, and checks two invariants: each movement's
// balance-after equals the running balance, and the final balance equals
// the line's current quantity. Hold movements (reservation/release) do not
// change the on-hand balance and are skipped in the sum. The movements
// must be the line's complete history in creation order.
func (s *KardexService) Replay(line *StockLine, movements []Movement) (*LedgerReport, error) {
	if line == nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "stock line cannot be nil")
	}

	report := &LedgerReport{
		StockLineID:     line.ID.String(),
		MovementCount:   len(movements),
		CurrentQuantity: line.Quantity,
	}

	balance := decimal.Zero
	for i := range movements {
		m := &movements[i]
		if m.StockLineID != line.ID {
			return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "movement belongs to a different stock line")
		}
		if !m.Kind.AffectsOnHand() {
			continue
		}
		balance = balance.Add(m.Quantity)
		if !m.BalanceAfter.Equal(balance) {
			idx := i
			report.BrokenAt = &idx
			report.ReplayedQuantity = balance
			return report, nil
		}
	}

	report.ReplayedQuantity = balance
	report.Consistent = balance.Equal(line.Quantity)
	return report, nil
}

// Valuation is a per-store stock value snapshot
type Valuation struct {
	StoreID       string          `json:"store_id"`
	LineCount     int             `json:"line_count"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// Valuate sums quantity times average unit cost over a store's stock lines
func (s *KardexService) Valuate(storeID string, lines []StockLine) *Valuation {
	v := &Valuation{
		StoreID:       storeID,
		LineCount:     len(lines),
		TotalQuantity: decimal.Zero,
		TotalValue:    decimal.Zero,
	}
	for i := range lines {
		v.TotalQuantity = v.TotalQuantity.Add(lines[i].Quantity)
		v.TotalValue = v.TotalValue.Add(lines[i].Quantity.Mul(lines[i].AverageUnitCost))
	}
	v.TotalValue = v.TotalValue.Round(4)
	return v
}
