package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kardexhq/backend/internal/domain/sales"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/infrastructure/persistence/models"
)

// GormCreditNoteRepository implements sales.CreditNoteRepository using GORM
type GormCreditNoteRepository struct {
	db *gorm.DB
}

// NewGormCreditNoteRepository creates a new GormCreditNoteRepository
func NewGormCreditNoteRepository(db *gorm.DB) *GormCreditNoteRepository {
	return &GormCreditNoteRepository{db: db}
}

// FindByID finds a credit note with its lines by ID
func (r *GormCreditNoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.CreditNote, error) {
	var m models.CreditNoteModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain()
}

// FindBySale lists credit notes raised against a sale
func (r *GormCreditNoteRepository) FindBySale(ctx context.Context, saleID uuid.UUID) ([]sales.CreditNote, error) {
	var rows []models.CreditNoteModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("sale_id = ?", saleID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return creditNotesToDomain(rows)
}

// FindByStore lists credit notes for a store
func (r *GormCreditNoteRepository) FindByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]sales.CreditNote, error) {
	var rows []models.CreditNoteModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.CreditNoteModel{}).
			Preload("Items").
			Where("store_id = ?", storeID),
		filter,
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return creditNotesToDomain(rows)
}

// Save creates or updates a credit note and its lines
func (r *GormCreditNoteRepository) Save(ctx context.Context, note *sales.CreditNote) error {
	m := models.CreditNoteModelFromDomain(note)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.NewDomainError(shared.ErrAlreadyExists.Code, "document number already in use")
			}
			return err
		}
		return replaceCreditNoteLines(tx, m)
	})
}

// SaveWithVersion persists a status transition with a compare-and-swap on
// the version the caller read
func (r *GormCreditNoteRepository) SaveWithVersion(ctx context.Context, note *sales.CreditNote) error {
	m := models.CreditNoteModelFromDomain(note)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.CreditNoteModel{}).
			Where("id = ? AND version = ?", m.ID, m.Version-1).
			Select("status", "total", "reason",
				"submitted_by", "submitted_at", "approved_by", "approved_at",
				"applied_by", "applied_at", "cancelled_by", "cancelled_at",
				"cancel_reason", "version", "updated_at").
			Updates(m)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError(shared.ErrConflict.Code, "credit note was modified by another transaction")
		}
		return replaceCreditNoteLines(tx, m)
	})
}

func replaceCreditNoteLines(tx *gorm.DB, m *models.CreditNoteModel) error {
	if len(m.Items) > 0 {
		currentIDs := make([]uuid.UUID, len(m.Items))
		for i, item := range m.Items {
			currentIDs[i] = item.ID
		}
		if err := tx.Where("credit_note_id = ? AND id NOT IN ?", m.ID, currentIDs).
			Delete(&models.CreditNoteLineModel{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("credit_note_id = ?", m.ID).
			Delete(&models.CreditNoteLineModel{}).Error; err != nil {
			return err
		}
	}

	for i := range m.Items {
		m.Items[i].CreditNoteID = m.ID
		if err := tx.Save(&m.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormCreditNoteRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "sale_id":
			query = query.Where("sale_id = ?", value)
		}
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderBy := ValidateSortField(filter.OrderBy, DocumentSortFields, "created_at")
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(orderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

func creditNotesToDomain(rows []models.CreditNoteModel) ([]sales.CreditNote, error) {
	out := make([]sales.CreditNote, 0, len(rows))
	for i := range rows {
		note, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *note)
	}
	return out, nil
}

// Ensure GormCreditNoteRepository implements CreditNoteRepository
var _ sales.CreditNoteRepository = (*GormCreditNoteRepository)(nil)
