package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/domain/shared/valueobject"
)

// DocTypeAdjustment is the document-number type for stock adjustments
const DocTypeAdjustment = "ADJ"

// AdjustmentService drives the stock adjustment workflow. Drafting and
// approval touch only the document; the apply transition is where stock
// moves — every line's ledger change, its movement, and the status change
// commit or roll back together.
type AdjustmentService struct {
	scope          TransactionScope
	sequencer      shared.DocumentNumberSequencer
	storage        AttachmentStore
	eventPublisher shared.EventPublisher
}

// AttachmentStore verifies that an attachment object exists before its key
// is recorded on a document. Uploads happen outside the engine.
type AttachmentStore interface {
	Exists(ctx context.Context, objectKey string) (bool, error)
}

// NewAdjustmentService creates a new AdjustmentService
func NewAdjustmentService(scope TransactionScope, sequencer shared.DocumentNumberSequencer) *AdjustmentService {
	return &AdjustmentService{scope: scope, sequencer: sequencer}
}

// SetAttachmentStore sets the object store used to validate attachments
func (s *AdjustmentService) SetAttachmentStore(store AttachmentStore) {
	s.storage = store
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *AdjustmentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create opens a draft adjustment, optionally pre-populated with lines
func (s *AdjustmentService) Create(ctx context.Context, req CreateAdjustmentRequest) (*inventory.StockAdjustment, error) {
	adjustment, err := inventory.NewStockAdjustment(req.StoreID, req.ActorID, req.Reason)
	if err != nil {
		return nil, err
	}
	adjustment.Notes = req.Notes
	for _, lr := range req.Lines {
		if _, err := adjustment.AddLine(lr.StockLineID, lr.Direction, lr.Quantity, lr.UnitCost); err != nil {
			return nil, err
		}
	}

	if s.sequencer != nil {
		number, err := s.sequencer.Next(ctx, req.StoreID, DocTypeAdjustment)
		if err != nil {
			return nil, fmt.Errorf("issue adjustment document number: %w", err)
		}
		adjustment.SetDocumentNumber(number)
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.Adjustments().Save(ctx, adjustment)
	})
	if err != nil {
		return nil, err
	}
	return adjustment, nil
}

// AddLine appends a correction line to a draft adjustment
func (s *AdjustmentService) AddLine(ctx context.Context, adjustmentID uuid.UUID, req AdjustmentLineRequest) (*inventory.StockAdjustment, error) {
	var adjustment *inventory.StockAdjustment
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		adjustment, err = repos.Adjustments().FindByID(ctx, adjustmentID)
		if err != nil {
			return err
		}
		// The stock line must exist; its quantity is checked on apply.
		if _, err := repos.StockLines().FindByID(ctx, req.StockLineID); err != nil {
			return err
		}
		line, err := adjustment.AddLine(req.StockLineID, req.Direction, req.Quantity, req.UnitCost)
		if err != nil {
			return err
		}
		line.Reason = req.Reason
		return repos.Adjustments().Save(ctx, adjustment)
	})
	if err != nil {
		return nil, err
	}
	return adjustment, nil
}

// AttachDocument validates an object key against the store and records it
// on the adjustment
func (s *AdjustmentService) AttachDocument(ctx context.Context, adjustmentID uuid.UUID, objectKey string) error {
	if s.storage != nil {
		exists, err := s.storage.Exists(ctx, objectKey)
		if err != nil {
			return fmt.Errorf("check attachment %s: %w", objectKey, err)
		}
		if !exists {
			return shared.NewDomainError(shared.ErrNotFound.Code, "attachment object not found in storage")
		}
	}

	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		adjustment, err := repos.Adjustments().FindByID(ctx, adjustmentID)
		if err != nil {
			return err
		}
		if err := adjustment.AttachDocument(objectKey); err != nil {
			return err
		}
		return repos.Adjustments().Save(ctx, adjustment)
	})
}

// Submit sends a draft adjustment to approval
func (s *AdjustmentService) Submit(ctx context.Context, adjustmentID, actorID uuid.UUID) (*inventory.StockAdjustment, error) {
	return s.transition(ctx, adjustmentID, func(a *inventory.StockAdjustment) error {
		return a.Submit(actorID)
	})
}

// Approve clears a pending adjustment for application
func (s *AdjustmentService) Approve(ctx context.Context, adjustmentID, actorID uuid.UUID) (*inventory.StockAdjustment, error) {
	return s.transition(ctx, adjustmentID, func(a *inventory.StockAdjustment) error {
		return a.Approve(actorID)
	})
}

// Reject declines a pending adjustment
func (s *AdjustmentService) Reject(ctx context.Context, adjustmentID, actorID uuid.UUID, reason string) (*inventory.StockAdjustment, error) {
	return s.transition(ctx, adjustmentID, func(a *inventory.StockAdjustment) error {
		return a.Reject(actorID, reason)
	})
}

// transition applies a document-only status change under a version check
func (s *AdjustmentService) transition(ctx context.Context, adjustmentID uuid.UUID, step func(*inventory.StockAdjustment) error) (*inventory.StockAdjustment, error) {
	var adjustment *inventory.StockAdjustment
	err := WithVersionRetry(ctx, DefaultVersionRetries, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			adjustment, err = repos.Adjustments().FindByID(ctx, adjustmentID)
			if err != nil {
				return err
			}
			if err := step(adjustment); err != nil {
				return err
			}
			return repos.Adjustments().SaveWithVersion(ctx, adjustment)
		})
	})
	if err != nil {
		return nil, err
	}
	return adjustment, nil
}

// Apply executes an approved adjustment: every line's signed delta hits
// its stock line through a version-checked save, an adjustment movement is
// appended with the balances around the change, the per-line balances are
// captured on the document, and the status moves to applied — all in one
// transaction. Increase lines move stock in at the recorded unit cost
// (folding it into the average); decrease lines move stock out at the
// line's current average.
func (s *AdjustmentService) Apply(ctx context.Context, adjustmentID, actorID uuid.UUID) (*inventory.StockAdjustment, error) {
	var (
		adjustment *inventory.StockAdjustment
		touched    []*inventory.StockLine
	)
	err := WithVersionRetry(ctx, DefaultVersionRetries, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			touched = touched[:0]
			var err error
			adjustment, err = repos.Adjustments().FindByID(ctx, adjustmentID)
			if err != nil {
				return err
			}
			// Check the transition before any stock line is touched.
			if !adjustment.CanApply() {
				return shared.NewDomainError(shared.ErrInvalidTransition.Code,
					fmt.Sprintf("cannot apply adjustment in status %s", adjustment.Status))
			}

			for _, item := range adjustment.Items {
				line, err := repos.StockLines().FindByID(ctx, item.StockLineID)
				if err != nil {
					return err
				}

				balanceBefore := line.Quantity
				unitCost := line.AverageUnitCost
				if item.Direction == inventory.AdjustmentIncrease {
					unitCost = item.UnitCost
					if err := line.Receive(item.Quantity, valueobject.NewMoneyHNL(item.UnitCost)); err != nil {
						return err
					}
				} else {
					if err := line.AdjustQuantity(item.SignedDelta()); err != nil {
						return err
					}
				}
				if err := repos.StockLines().SaveWithVersion(ctx, line); err != nil {
					return err
				}

				movement, err := inventory.NewMovement(
					line.ID,
					inventory.MovementKindAdjustment,
					item.SignedDelta(),
					balanceBefore,
					line.Quantity,
					inventory.ReferenceTypeAdjustment,
					adjustment.ID,
					actorID,
				)
				if err != nil {
					return err
				}
				movement.WithReason(item.Reason).WithUnitCost(valueobject.NewMoneyHNL(unitCost))
				if err := repos.Movements().Append(ctx, movement); err != nil {
					return err
				}

				item.CaptureBalances(balanceBefore, line.Quantity)
				touched = append(touched, line)
			}

			if err := adjustment.MarkApplied(actorID); err != nil {
				return err
			}
			return repos.Adjustments().SaveWithVersion(ctx, adjustment)
		})
	})
	if err != nil {
		return nil, err
	}

	for _, line := range touched {
		publishDomainEvents(ctx, s.eventPublisher, line)
	}
	publishDomainEvents(ctx, s.eventPublisher, adjustment)
	return adjustment, nil
}

// GetByID retrieves an adjustment with its lines
func (s *AdjustmentService) GetByID(ctx context.Context, id uuid.UUID) (*inventory.StockAdjustment, error) {
	var adjustment *inventory.StockAdjustment
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		adjustment, err = repos.Adjustments().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return adjustment, nil
}

// ListByStore lists a store's adjustments
func (s *AdjustmentService) ListByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]inventory.StockAdjustment, int64, error) {
	var (
		adjustments []inventory.StockAdjustment
		total       int64
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		adjustments, err = repos.Adjustments().FindByStore(ctx, storeID, filter)
		if err != nil {
			return err
		}
		total, err = repos.Adjustments().CountByStore(ctx, storeID, filter)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return adjustments, total, nil
}
