package purchasing

import (
	"context"
	"errors"

	"github.com/google/uuid"

	appinventory "github.com/kardexhq/backend/internal/application/inventory"
	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/purchasing"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/domain/shared/valueobject"
)

// DocTypeGoodsReceipt is the document number prefix for goods receipts
const DocTypeGoodsReceipt = "GR"

// GoodsReceiptService records deliveries against approved purchase
// orders. Confirming a receipt is the single moment purchased stock
// enters the ledger: the order's received quantities advance, each
// delivered line folds its cost into the stock line's average, and the
// in movements referencing the receipt are appended, all in one
// transaction.
type GoodsReceiptService struct {
	scope          appinventory.TransactionScope
	sequencer      shared.DocumentNumberSequencer
	eventPublisher shared.EventPublisher
}

// NewGoodsReceiptService creates a new GoodsReceiptService
func NewGoodsReceiptService(scope appinventory.TransactionScope, sequencer shared.DocumentNumberSequencer) *GoodsReceiptService {
	return &GoodsReceiptService{scope: scope, sequencer: sequencer}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *GoodsReceiptService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create drafts a receipt against an order that is open for receiving
func (s *GoodsReceiptService) Create(ctx context.Context, purchaseOrderID, actorID uuid.UUID) (*purchasing.GoodsReceipt, error) {
	var receipt *purchasing.GoodsReceipt
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		order, err := repos.PurchaseOrders().FindByID(ctx, purchaseOrderID)
		if err != nil {
			return err
		}
		receipt, err = purchasing.NewGoodsReceipt(order, actorID)
		if err != nil {
			return err
		}

		number, err := s.sequencer.Next(ctx, order.StoreID, DocTypeGoodsReceipt)
		if err != nil {
			return err
		}
		receipt.SetDocumentNumber(number)

		return repos.GoodsReceipts().Save(ctx, receipt)
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// AddLine records a delivered quantity on a draft receipt
func (s *GoodsReceiptService) AddLine(ctx context.Context, receiptID uuid.UUID, req GoodsReceiptLineRequest) (*purchasing.GoodsReceipt, error) {
	var receipt *purchasing.GoodsReceipt
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		var err error
		receipt, err = repos.GoodsReceipts().FindByID(ctx, receiptID)
		if err != nil {
			return err
		}
		order, err := repos.PurchaseOrders().FindByID(ctx, receipt.PurchaseOrderID)
		if err != nil {
			return err
		}
		orderLine, err := order.LineByID(req.OrderLineID)
		if err != nil {
			return err
		}
		if _, err := receipt.AddLine(orderLine, req.Quantity, req.UnitCost); err != nil {
			return err
		}
		return repos.GoodsReceipts().Save(ctx, receipt)
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// Confirm books a draft receipt: the order's lines advance by the
// received quantities (moving it to partially_received or received as
// the data dictates), each delivered quantity lands on its stock line at
// the receipt's unit cost, and an in movement referencing the receipt is
// appended per line. A store that never carried the product gets its
// stock line created on the spot.
func (s *GoodsReceiptService) Confirm(ctx context.Context, receiptID, actorID uuid.UUID) (*purchasing.GoodsReceipt, error) {
	var (
		receipt *purchasing.GoodsReceipt
		order   *purchasing.PurchaseOrder
		touched []*inventory.StockLine
	)
	err := appinventory.WithVersionRetry(ctx, appinventory.DefaultVersionRetries, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
			touched = touched[:0]
			var err error
			receipt, err = repos.GoodsReceipts().FindByID(ctx, receiptID)
			if err != nil {
				return err
			}
			order, err = repos.PurchaseOrders().FindByID(ctx, receipt.PurchaseOrderID)
			if err != nil {
				return err
			}

			if err := receipt.Confirm(actorID); err != nil {
				return err
			}
			if err := order.ApplyReceipt(receipt.ReceiptQuantities()); err != nil {
				return err
			}

			for _, item := range receipt.Items {
				line, err := repos.StockLines().FindByStoreAndRef(ctx, order.StoreID, item.ProductRef)
				if err != nil {
					if !errors.Is(err, shared.ErrNotFound) {
						return err
					}
					line, err = inventory.NewStockLine(order.StoreID, item.ProductRef)
					if err != nil {
						return err
					}
					if err := repos.StockLines().Create(ctx, line); err != nil {
						return err
					}
				}

				balanceBefore := line.Quantity
				if err := line.Receive(item.QuantityReceived, valueobject.NewMoneyHNL(item.UnitCost)); err != nil {
					return err
				}
				if err := repos.StockLines().SaveWithVersion(ctx, line); err != nil {
					return err
				}

				movement, err := inventory.NewMovement(
					line.ID,
					inventory.MovementKindIn,
					item.QuantityReceived,
					balanceBefore,
					line.Quantity,
					inventory.ReferenceTypeGoodsReceipt,
					receipt.ID,
					actorID,
				)
				if err != nil {
					return err
				}
				movement.WithUnitCost(valueobject.NewMoneyHNL(item.UnitCost))
				if err := repos.Movements().Append(ctx, movement); err != nil {
					return err
				}
				touched = append(touched, line)
			}

			if err := repos.PurchaseOrders().SaveWithVersion(ctx, order); err != nil {
				return err
			}
			return repos.GoodsReceipts().SaveWithVersion(ctx, receipt)
		})
	})
	if err != nil {
		return nil, err
	}

	for _, line := range touched {
		publishDomainEvents(ctx, s.eventPublisher, line)
	}
	publishDomainEvents(ctx, s.eventPublisher, order)
	publishDomainEvents(ctx, s.eventPublisher, receipt)
	return receipt, nil
}

// Cancel abandons a draft receipt; nothing has touched the ledger yet
func (s *GoodsReceiptService) Cancel(ctx context.Context, receiptID, actorID uuid.UUID, reason string) (*purchasing.GoodsReceipt, error) {
	var receipt *purchasing.GoodsReceipt
	err := appinventory.WithVersionRetry(ctx, appinventory.DefaultVersionRetries, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
			var err error
			receipt, err = repos.GoodsReceipts().FindByID(ctx, receiptID)
			if err != nil {
				return err
			}
			if err := receipt.Cancel(actorID, reason); err != nil {
				return err
			}
			return repos.GoodsReceipts().SaveWithVersion(ctx, receipt)
		})
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// GetByID retrieves a receipt with its lines
func (s *GoodsReceiptService) GetByID(ctx context.Context, id uuid.UUID) (*purchasing.GoodsReceipt, error) {
	var receipt *purchasing.GoodsReceipt
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		var err error
		receipt, err = repos.GoodsReceipts().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// ListByPurchaseOrder lists the receipts recorded against an order
func (s *GoodsReceiptService) ListByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) ([]purchasing.GoodsReceipt, error) {
	var receipts []purchasing.GoodsReceipt
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		var err error
		receipts, err = repos.GoodsReceipts().FindByPurchaseOrder(ctx, purchaseOrderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return receipts, nil
}
