package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/infrastructure/persistence/models"
)

// GormMovementRepository implements inventory.MovementRepository using GORM.
// The movements table is insert-only; nothing here updates or deletes rows.
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Append inserts a new movement record
func (r *GormMovementRepository) Append(ctx context.Context, movement *inventory.Movement) error {
	m := models.MovementModelFromDomain(movement)
	return r.db.WithContext(ctx).Create(m).Error
}

// AppendAll inserts a batch of movement records
func (r *GormMovementRepository) AppendAll(ctx context.Context, movements []*inventory.Movement) error {
	if len(movements) == 0 {
		return nil
	}
	rows := make([]*models.MovementModel, len(movements))
	for i, movement := range movements {
		rows[i] = models.MovementModelFromDomain(movement)
	}
	return r.db.WithContext(ctx).Create(rows).Error
}

// FindByID finds a movement by its ID
func (r *GormMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Movement, error) {
	var m models.MovementModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByStockLine lists a stock line's movements oldest first so the
// Kardex balance chain can be replayed in order
func (r *GormMovementRepository) FindByStockLine(ctx context.Context, stockLineID uuid.UUID, filter shared.Filter) ([]inventory.Movement, error) {
	var rows []models.MovementModel
	query := r.applyPagination(
		r.db.WithContext(ctx).Model(&models.MovementModel{}).Where("stock_line_id = ?", stockLineID),
		filter,
	)
	if err := query.Order("occurred_at ASC, created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return movementsToDomain(rows), nil
}

// FindByStockLineAndPeriod lists a stock line's movements within
// [from, to), oldest first
func (r *GormMovementRepository) FindByStockLineAndPeriod(ctx context.Context, stockLineID uuid.UUID, from, to time.Time, filter shared.Filter) ([]inventory.Movement, error) {
	var rows []models.MovementModel
	query := r.applyPagination(
		r.db.WithContext(ctx).Model(&models.MovementModel{}).
			Where("stock_line_id = ? AND occurred_at >= ? AND occurred_at < ?", stockLineID, from, to),
		filter,
	)
	if err := query.Order("occurred_at ASC, created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return movementsToDomain(rows), nil
}

// FindByReference lists the movements a document produced
func (r *GormMovementRepository) FindByReference(ctx context.Context, refType inventory.ReferenceType, refID uuid.UUID) ([]inventory.Movement, error) {
	var rows []models.MovementModel
	if err := r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Order("occurred_at ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return movementsToDomain(rows), nil
}

// CountByStockLine counts the movements of a stock line
func (r *GormMovementRepository) CountByStockLine(ctx context.Context, stockLineID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.MovementModel{}).
		Where("stock_line_id = ?", stockLineID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyPagination applies only offset/limit; ordering is fixed to the
// chronological Kardex order by each caller
func (r *GormMovementRepository) applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query
}

func movementsToDomain(rows []models.MovementModel) []inventory.Movement {
	out := make([]inventory.Movement, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out
}

// Ensure GormMovementRepository implements MovementRepository
var _ inventory.MovementRepository = (*GormMovementRepository)(nil)
