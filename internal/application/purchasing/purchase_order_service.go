// Package purchasing coordinates the replenishment workflows: purchase
// orders through their approval chain, and goods receipts that bring the
// delivered stock onto the ledger at the received cost.
package purchasing

import (
	"context"

	"github.com/google/uuid"

	appinventory "github.com/kardexhq/backend/internal/application/inventory"
	"github.com/kardexhq/backend/internal/domain/purchasing"
	"github.com/kardexhq/backend/internal/domain/shared"
)

// DocTypePurchaseOrder is the document number prefix for purchase orders
const DocTypePurchaseOrder = "PO"

// PurchaseOrderService drives a purchase order from draft through
// approval to received and closed. Stock never moves here: deliveries
// land through the GoodsReceiptService, which advances the order as a
// side effect of confirming a receipt.
type PurchaseOrderService struct {
	scope          appinventory.TransactionScope
	sequencer      shared.DocumentNumberSequencer
	eventPublisher shared.EventPublisher
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(scope appinventory.TransactionScope, sequencer shared.DocumentNumberSequencer) *PurchaseOrderService {
	return &PurchaseOrderService{scope: scope, sequencer: sequencer}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PurchaseOrderService) SetEventPublisher(publisher shared.EventPublisher) {
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

// Create opens a draft order and assigns its document number
func (s *PurchaseOrderService) Create(ctx context.Context, req CreatePurchaseOrderRequest) (*purchasing.PurchaseOrder, error) {
	order, err := purchasing.NewPurchaseOrder(req.StoreID, req.VendorID, req.ActorID)
	if err != nil {
		return nil, err
	}

	number, err := s.sequencer.Next(ctx, req.StoreID, DocTypePurchaseOrder)
	if err != nil {
		return nil, err
	}
	order.SetDocumentNumber(number)

	err = s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		return repos.PurchaseOrders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// AddLine adds a product to a draft order
func (s *PurchaseOrderService) AddLine(ctx context.Context, orderID uuid.UUID, req PurchaseOrderLineRequest) (*purchasing.PurchaseOrder, error) {
	var order *purchasing.PurchaseOrder
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		var err error
		order, err = repos.PurchaseOrders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if _, err := order.AddLine(req.Ref, req.Quantity, req.UnitCost); err != nil {
			return err
		}
		return repos.PurchaseOrders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// RemoveLine takes a product off a draft order
func (s *PurchaseOrderService) RemoveLine(ctx context.Context, orderID, lineID uuid.UUID) (*purchasing.PurchaseOrder, error) {
	var order *purchasing.PurchaseOrder
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		var err error
		order, err = repos.PurchaseOrders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.RemoveLine(lineID); err != nil {
			return err
		}
		return repos.PurchaseOrders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Submit sends a draft order for approval
func (s *PurchaseOrderService) Submit(ctx context.Context, orderID, actorID uuid.UUID) (*purchasing.PurchaseOrder, error) {
	return s.transition(ctx, orderID, func(o *purchasing.PurchaseOrder) error {
		return o.Submit(actorID)
	})
}

// Approve clears a submitted order for receiving
func (s *PurchaseOrderService) Approve(ctx context.Context, orderID, actorID uuid.UUID) (*purchasing.PurchaseOrder, error) {
	return s.transition(ctx, orderID, func(o *purchasing.PurchaseOrder) error {
		return o.Approve(actorID)
	})
}

// Reject declines a submitted order
func (s *PurchaseOrderService) Reject(ctx context.Context, orderID, actorID uuid.UUID, reason string) (*purchasing.PurchaseOrder, error) {
	return s.transition(ctx, orderID, func(o *purchasing.PurchaseOrder) error {
		return o.Reject(actorID, reason)
	})
}

// Cancel abandons an order before it is fully received
func (s *PurchaseOrderService) Cancel(ctx context.Context, orderID, actorID uuid.UUID, reason string) (*purchasing.PurchaseOrder, error) {
	return s.transition(ctx, orderID, func(o *purchasing.PurchaseOrder) error {
		return o.Cancel(actorID, reason)
	})
}

// Close archives a fully received order
func (s *PurchaseOrderService) Close(ctx context.Context, orderID, actorID uuid.UUID) (*purchasing.PurchaseOrder, error) {
	return s.transition(ctx, orderID, func(o *purchasing.PurchaseOrder) error {
		return o.Close(actorID)
	})
}

// transition applies a document-only status change under a version check
func (s *PurchaseOrderService) transition(ctx context.Context, orderID uuid.UUID, step func(*purchasing.PurchaseOrder) error) (*purchasing.PurchaseOrder, error) {
	var order *purchasing.PurchaseOrder
	err := appinventory.WithVersionRetry(ctx, appinventory.DefaultVersionRetries, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
			var err error
			order, err = repos.PurchaseOrders().FindByID(ctx, orderID)
			if err != nil {
				return err
			}
			if err := step(order); err != nil {
				return err
			}
			return repos.PurchaseOrders().SaveWithVersion(ctx, order)
		})
	})
	if err != nil {
		return nil, err
	}

	publishDomainEvents(ctx, s.eventPublisher, order)
	return order, nil
}

// GetByID retrieves an order with its lines
func (s *PurchaseOrderService) GetByID(ctx context.Context, id uuid.UUID) (*purchasing.PurchaseOrder, error) {
	var order *purchasing.PurchaseOrder
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		var err error
		order, err = repos.PurchaseOrders().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ListByStore lists a store's orders with the total count
func (s *PurchaseOrderService) ListByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]purchasing.PurchaseOrder, int64, error) {
	var (
		list  []purchasing.PurchaseOrder
		count int64
	)
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		var err error
		list, err = repos.PurchaseOrders().FindByStore(ctx, storeID, filter)
		if err != nil {
			return err
		}
		count, err = repos.PurchaseOrders().CountByStore(ctx, storeID, filter)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return list, count, nil
}

// ListByVendor lists the orders placed against a vendor
func (s *PurchaseOrderService) ListByVendor(ctx context.Context, vendorID uuid.UUID, filter shared.Filter) ([]purchasing.PurchaseOrder, error) {
	var list []purchasing.PurchaseOrder
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		var err error
		list, err = repos.PurchaseOrders().FindByVendor(ctx, vendorID, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}
