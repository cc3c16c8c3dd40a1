package inventory

import (
	"context"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/purchasing"
	"github.com/kardexhq/backend/internal/domain/sales"
)

// TransactionScope provides transactional access to the stock ledger and
// workflow repositories. When a function is executed within a scope, all
// repository operations are part of the same database transaction and
// commit or roll back atomically — which is what keeps status changes and
// their stock side effects a single unit.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to every repository a
// workflow transition can touch, all scoped to the same transaction.
//
// Aggregate boundary notes:
//   - StockLines is the ledger: every quantity change goes through it with
//     a version-checked save.
//   - Movements is append-only; a movement is written in the same
//     transaction as the ledger mutation it documents.
//   - The workflow repositories (Adjustments, Transfers, Sales,
//     CreditNotes, PurchaseOrders, GoodsReceipts) persist their aggregate
//     with its lines; line items have no independent repository.
type TransactionalRepositories interface {
	StockLines() inventory.StockLineRepository
	Movements() inventory.MovementRepository
	Reservations() inventory.ReservationRepository
	Adjustments() inventory.AdjustmentRepository
	Transfers() inventory.TransferRepository
	Sales() sales.SaleRepository
	CreditNotes() sales.CreditNoteRepository
	PurchaseOrders() purchasing.PurchaseOrderRepository
	GoodsReceipts() purchasing.GoodsReceiptRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. This is useful for testing or when transaction support is
// not required.
type NoOpTransactionScope struct {
	stockLines     inventory.StockLineRepository
	movements      inventory.MovementRepository
	reservations   inventory.ReservationRepository
	adjustments    inventory.AdjustmentRepository
	transfers      inventory.TransferRepository
	sales          sales.SaleRepository
	creditNotes    sales.CreditNoteRepository
	purchaseOrders purchasing.PurchaseOrderRepository
	goodsReceipts  purchasing.GoodsReceiptRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given
// repositories. Repositories a test does not exercise may be nil.
func NewNoOpTransactionScope(
	stockLines inventory.StockLineRepository,
	movements inventory.MovementRepository,
	reservations inventory.ReservationRepository,
	adjustments inventory.AdjustmentRepository,
	transfers inventory.TransferRepository,
	salesRepo sales.SaleRepository,
	creditNotes sales.CreditNoteRepository,
	purchaseOrders purchasing.PurchaseOrderRepository,
	goodsReceipts purchasing.GoodsReceiptRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		stockLines:     stockLines,
		movements:      movements,
		reservations:   reservations,
		adjustments:    adjustments,
		transfers:      transfers,
		sales:          salesRepo,
		creditNotes:    creditNotes,
		purchaseOrders: purchaseOrders,
		goodsReceipts:  goodsReceipts,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// StockLines returns the stock line repository.
func (s *NoOpTransactionScope) StockLines() inventory.StockLineRepository { return s.stockLines }

// Movements returns the movement repository.
func (s *NoOpTransactionScope) Movements() inventory.MovementRepository { return s.movements }

// Reservations returns the reservation repository.
func (s *NoOpTransactionScope) Reservations() inventory.ReservationRepository {
	return s.reservations
}

// Adjustments returns the stock adjustment repository.
func (s *NoOpTransactionScope) Adjustments() inventory.AdjustmentRepository { return s.adjustments }

// Transfers returns the stock transfer repository.
func (s *NoOpTransactionScope) Transfers() inventory.TransferRepository { return s.transfers }

// Sales returns the sale repository.
func (s *NoOpTransactionScope) Sales() sales.SaleRepository { return s.sales }

// CreditNotes returns the credit note repository.
func (s *NoOpTransactionScope) CreditNotes() sales.CreditNoteRepository { return s.creditNotes }

// PurchaseOrders returns the purchase order repository.
func (s *NoOpTransactionScope) PurchaseOrders() purchasing.PurchaseOrderRepository {
	return s.purchaseOrders
}

// GoodsReceipts returns the goods receipt repository.
func (s *NoOpTransactionScope) GoodsReceipts() purchasing.GoodsReceiptRepository {
	return s.goodsReceipts
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
