package sales

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	appinventory "github.com/kardexhq/backend/internal/application/inventory"
	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/sales"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/domain/shared/valueobject"
)

// DocTypeCreditNote is the document number prefix for credit notes
const DocTypeCreditNote = "CN"

// CreditNoteService drives a credit note from draft through approval to
// applied. Applying the note restocks the flagged lines and marks the
// original sale returned in the same transaction.
type CreditNoteService struct {
	scope          appinventory.TransactionScope
	sequencer      shared.DocumentNumberSequencer
	eventPublisher shared.EventPublisher
}

// NewCreditNoteService creates a new CreditNoteService
func NewCreditNoteService(scope appinventory.TransactionScope, sequencer shared.DocumentNumberSequencer) *CreditNoteService {
	return &CreditNoteService{scope: scope, sequencer: sequencer}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *CreditNoteService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create drafts a credit note against a completed sale
func (s *CreditNoteService) Create(ctx context.Context, saleID, actorID uuid.UUID, reason string) (*sales.CreditNote, error) {
	var note *sales.CreditNote
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		sale, err := repos.Sales().FindByID(ctx, saleID)
		if err != nil {
			return err
		}
		note, err = sales.NewCreditNote(sale, actorID, reason)
		if err != nil {
			return err
		}

		number, err := s.sequencer.Next(ctx, sale.StoreID, DocTypeCreditNote)
		if err != nil {
			return err
		}
		note.SetDocumentNumber(number)

		return repos.CreditNotes().Save(ctx, note)
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// AddLine credits part of a sale line on a draft note
func (s *CreditNoteService) AddLine(ctx context.Context, noteID uuid.UUID, req CreditNoteLineRequest) (*sales.CreditNote, error) {
	var note *sales.CreditNote
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		var err error
		note, err = repos.CreditNotes().FindByID(ctx, noteID)
		if err != nil {
			return err
		}
		sale, err := repos.Sales().FindByID(ctx, note.SaleID)
		if err != nil {
			return err
		}
		saleLine, err := sale.LineByID(req.SaleLineID)
		if err != nil {
			return err
		}
		if _, err := note.AddLine(saleLine, req.Quantity, req.Restock, req.Reason); err != nil {
			return err
		}
		return repos.CreditNotes().Save(ctx, note)
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// Submit sends a draft note for approval
func (s *CreditNoteService) Submit(ctx context.Context, noteID, actorID uuid.UUID) (*sales.CreditNote, error) {
	return s.transition(ctx, noteID, func(n *sales.CreditNote) error {
		return n.Submit(actorID)
	})
}

// Approve clears a pending note for application
func (s *CreditNoteService) Approve(ctx context.Context, noteID, actorID uuid.UUID) (*sales.CreditNote, error) {
	return s.transition(ctx, noteID, func(n *sales.CreditNote) error {
		return n.Approve(actorID)
	})
}

// Cancel abandons a note before it is applied
func (s *CreditNoteService) Cancel(ctx context.Context, noteID, actorID uuid.UUID, reason string) (*sales.CreditNote, error) {
	return s.transition(ctx, noteID, func(n *sales.CreditNote) error {
		return n.Cancel(actorID, reason)
	})
}

// transition applies a document-only status change under a version check
func (s *CreditNoteService) transition(ctx context.Context, noteID uuid.UUID, step func(*sales.CreditNote) error) (*sales.CreditNote, error) {
	var note *sales.CreditNote
	err := appinventory.WithVersionRetry(ctx, appinventory.DefaultVersionRetries, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
			var err error
			note, err = repos.CreditNotes().FindByID(ctx, noteID)
			if err != nil {
				return err
			}
			if err := step(note); err != nil {
				return err
			}
			return repos.CreditNotes().SaveWithVersion(ctx, note)
		})
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// Apply executes an approved note: every restock line moves its quantity
// back onto the shelf at the stock line's current average cost (so the
// average is undisturbed), an in movement referencing the note is
// appended, the original sale flips to returned, and the note to applied,
// all in one transaction. Lines not flagged for restock are credited
// without touching stock.
func (s *CreditNoteService) Apply(ctx context.Context, noteID, actorID uuid.UUID) (*sales.CreditNote, error) {
	var (
		note    *sales.CreditNote
		sale    *sales.Sale
		touched []*inventory.StockLine
	)
	err := appinventory.WithVersionRetry(ctx, appinventory.DefaultVersionRetries, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
			touched = touched[:0]
			var err error
			note, err = repos.CreditNotes().FindByID(ctx, noteID)
			if err != nil {
				return err
			}
			// Check the transition before anything goes back on the shelf.
			if !note.CanApply() {
				return shared.NewDomainError(shared.ErrInvalidTransition.Code,
					fmt.Sprintf("cannot apply credit note in status %s", note.Status))
			}

			for _, item := range note.RestockLines() {
				line, err := repos.StockLines().FindByID(ctx, item.StockLineID)
				if err != nil {
					return err
				}
				balanceBefore := line.Quantity
				unitCost := line.AverageUnitCost
				if err := line.Receive(item.Quantity, valueobject.NewMoneyHNL(unitCost)); err != nil {
					return err
				}
				if err := repos.StockLines().SaveWithVersion(ctx, line); err != nil {
					return err
				}

				movement, err := inventory.NewMovement(
					line.ID,
					inventory.MovementKindIn,
					item.Quantity,
					balanceBefore,
					line.Quantity,
					inventory.ReferenceTypeCreditNote,
					note.ID,
					actorID,
				)
				if err != nil {
					return err
				}
				movement.WithReason(item.Reason).WithUnitCost(valueobject.NewMoneyHNL(unitCost))
				if err := repos.Movements().Append(ctx, movement); err != nil {
					return err
				}
				touched = append(touched, line)
			}

			sale, err = repos.Sales().FindByID(ctx, note.SaleID)
			if err != nil {
				return err
			}
			if err := sale.MarkReturned(actorID); err != nil {
				return err
			}
			if err := repos.Sales().SaveWithVersion(ctx, sale); err != nil {
				return err
			}

			if err := note.MarkApplied(actorID); err != nil {
				return err
			}
			return repos.CreditNotes().SaveWithVersion(ctx, note)
		})
	})
	if err != nil {
		return nil, err
	}

	for _, line := range touched {
		publishDomainEvents(ctx, s.eventPublisher, line)
	}
	publishDomainEvents(ctx, s.eventPublisher, sale)
	publishDomainEvents(ctx, s.eventPublisher, note)
	return note, nil
}

// GetByID retrieves a credit note with its lines
func (s *CreditNoteService) GetByID(ctx context.Context, id uuid.UUID) (*sales.CreditNote, error) {
	var note *sales.CreditNote
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		var err error
		note, err = repos.CreditNotes().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// ListBySale lists the credit notes raised against a sale
func (s *CreditNoteService) ListBySale(ctx context.Context, saleID uuid.UUID) ([]sales.CreditNote, error) {
	var notes []sales.CreditNote
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		var err error
		notes, err = repos.CreditNotes().FindBySale(ctx, saleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return notes, nil
}
