package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
)

// MovementService is the read side of the ledger: chronological Kardex
// queries and the replay check that proves the ledger and the stock line
// still agree. It never writes movements — those are appended by the
// workflow services inside their transactions.
type MovementService struct {
	scope  TransactionScope
	kardex *inventory.KardexService
}

// NewMovementService creates a new MovementService
func NewMovementService(scope TransactionScope) *MovementService {
	return &MovementService{
		scope:  scope,
		kardex: inventory.NewKardexService(),
	}
}

// ListByStockLine lists a line's movements oldest first
func (s *MovementService) ListByStockLine(ctx context.Context, stockLineID uuid.UUID, filter shared.Filter) ([]MovementResponse, int64, error) {
	var (
		responses []MovementResponse
		total     int64
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		movements, err := repos.Movements().FindByStockLine(ctx, stockLineID, filter)
		if err != nil {
			return err
		}
		total, err = repos.Movements().CountByStockLine(ctx, stockLineID)
		if err != nil {
			return err
		}
		responses = ToMovementResponses(movements)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return responses, total, nil
}

// ListByPeriod lists a line's movements inside a time window, oldest first
func (s *MovementService) ListByPeriod(ctx context.Context, stockLineID uuid.UUID, from, to time.Time, filter shared.Filter) ([]MovementResponse, error) {
	if !to.After(from) {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "period end must be after its start")
	}

	var responses []MovementResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		movements, err := repos.Movements().FindByStockLineAndPeriod(ctx, stockLineID, from, to, filter)
		if err != nil {
			return err
		}
		responses = ToMovementResponses(movements)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// ListByReference lists the movements caused by one workflow document
func (s *MovementService) ListByReference(ctx context.Context, refType inventory.ReferenceType, refID uuid.UUID) ([]MovementResponse, error) {
	if !refType.IsValid() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "invalid reference type")
	}

	var responses []MovementResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		movements, err := repos.Movements().FindByReference(ctx, refType, refID)
		if err != nil {
			return err
		}
		responses = ToMovementResponses(movements)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// VerifyLedger replays a stock line's complete movement history from zero
// and reports whether the replayed balance matches the line's current
// quantity. Both are read in one transaction so traffic during the check
// cannot produce a false mismatch.
func (s *MovementService) VerifyLedger(ctx context.Context, stockLineID uuid.UUID) (*inventory.LedgerReport, error) {
	var report *inventory.LedgerReport
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		line, err := repos.StockLines().FindByID(ctx, stockLineID)
		if err != nil {
			return err
		}
		filter := shared.DefaultFilter()
		filter.PageSize = 0 // complete history, never a page
		movements, err := repos.Movements().FindByStockLine(ctx, stockLineID, filter)
		if err != nil {
			return err
		}
		report, err = s.kardex.Replay(line, movements)
		return err
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
