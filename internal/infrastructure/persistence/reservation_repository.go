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

// GormReservationRepository implements inventory.ReservationRepository using GORM
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// FindByID finds a reservation by its ID
func (r *GormReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Reservation, error) {
	var m models.ReservationModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByReference lists reservations held by one workflow document
func (r *GormReservationRepository) FindByReference(ctx context.Context, refType inventory.ReferenceType, refID uuid.UUID) ([]inventory.Reservation, error) {
	var rows []models.ReservationModel
	if err := r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return reservationsToDomain(rows), nil
}

// FindPendingByStockLine lists a stock line's live holds
func (r *GormReservationRepository) FindPendingByStockLine(ctx context.Context, stockLineID uuid.UUID) ([]inventory.Reservation, error) {
	var rows []models.ReservationModel
	if err := r.db.WithContext(ctx).
		Where("stock_line_id = ? AND status = ?", stockLineID, inventory.ReservationStatusPending).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return reservationsToDomain(rows), nil
}

// FindExpired lists pending holds whose deadline lies at or before now,
// oldest deadline first, up to limit (0 = no cap). The composite index
// on (status, expires_at) serves this scan.
func (r *GormReservationRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]inventory.Reservation, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", inventory.ReservationStatusPending, now).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.ReservationModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return reservationsToDomain(rows), nil
}

// Create inserts a new hold
func (r *GormReservationRepository) Create(ctx context.Context, reservation *inventory.Reservation) error {
	m := models.ReservationModelFromDomain(reservation)
	return r.db.WithContext(ctx).Create(m).Error
}

// SaveWithVersion persists a status transition with a compare-and-swap on
// the version the caller read. The sweep treats the resulting conflict as
// already-swept, so a lost race here is not an error path for callers.
func (r *GormReservationRepository) SaveWithVersion(ctx context.Context, reservation *inventory.Reservation) error {
	result := r.db.WithContext(ctx).
		Model(&models.ReservationModel{}).
		Where("id = ? AND version = ?", reservation.ID, reservation.Version-1).
		Updates(map[string]interface{}{
			"status":       reservation.Status,
			"expires_at":   reservation.ExpiresAt,
			"confirmed_at": reservation.ConfirmedAt,
			"cancelled_at": reservation.CancelledAt,
			"expired_at":   reservation.ExpiredAt,
			"version":      reservation.Version,
			"updated_at":   reservation.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.ErrConflict.Code, "reservation was modified by another transaction")
	}
	return nil
}

func reservationsToDomain(rows []models.ReservationModel) []inventory.Reservation {
	out := make([]inventory.Reservation, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out
}

// Ensure GormReservationRepository implements ReservationRepository
var _ inventory.ReservationRepository = (*GormReservationRepository)(nil)
