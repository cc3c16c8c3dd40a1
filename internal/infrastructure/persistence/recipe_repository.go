package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kardexhq/backend/internal/domain/costing"
	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/infrastructure/persistence/models"
)

// GormRecipeRepository implements costing.RecipeRepository using GORM
type GormRecipeRepository struct {
	db *gorm.DB
}

// NewGormRecipeRepository creates a new GormRecipeRepository
func NewGormRecipeRepository(db *gorm.DB) *GormRecipeRepository {
	return &GormRecipeRepository{db: db}
}

// FindByID finds a recipe with its ingredients and substitutes
func (r *GormRecipeRepository) FindByID(ctx context.Context, id uuid.UUID) (*costing.Recipe, error) {
	var m models.RecipeModel
	if err := r.db.WithContext(ctx).
		Preload("Ingredients.Substitutes").
		Preload("Ingredients").
		First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain()
}

// FindActiveByRef finds the active recipe for a product or variant, if any
func (r *GormRecipeRepository) FindActiveByRef(ctx context.Context, ref inventory.ProductRef) (*costing.Recipe, error) {
	query := r.db.WithContext(ctx).
		Preload("Ingredients.Substitutes").
		Preload("Ingredients").
		Where("active = ?", true)
	query = whereRecipeRef(query, ref)

	var m models.RecipeModel
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain()
}

// FindByRef lists every recipe version for a product or variant
func (r *GormRecipeRepository) FindByRef(ctx context.Context, ref inventory.ProductRef, filter shared.Filter) ([]costing.Recipe, error) {
	query := r.db.WithContext(ctx).Model(&models.RecipeModel{}).
		Preload("Ingredients.Substitutes").
		Preload("Ingredients")
	query = whereRecipeRef(query, ref)
	query = r.applyFilter(query, filter)

	var rows []models.RecipeModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]costing.Recipe, 0, len(rows))
	for i := range rows {
		recipe, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *recipe)
	}
	return out, nil
}

// Save creates or updates a recipe with its ingredient tree
func (r *GormRecipeRepository) Save(ctx context.Context, recipe *costing.Recipe) error {
	m := models.RecipeModelFromDomain(recipe)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Ingredients").Save(m).Error; err != nil {
			return err
		}
		return replaceIngredientTree(tx, m)
	})
}

// SaveWithVersion persists an activation change with a compare-and-swap
// on the version the caller read
func (r *GormRecipeRepository) SaveWithVersion(ctx context.Context, recipe *costing.Recipe) error {
	m := models.RecipeModelFromDomain(recipe)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.RecipeModel{}).
			Where("id = ? AND version = ?", m.ID, m.Version-1).
			Select("name", "yield_quantity", "active", "version", "updated_at").
			Updates(m)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError(shared.ErrConflict.Code, "recipe was modified by another transaction")
		}
		return replaceIngredientTree(tx, m)
	})
}

// Delete removes a recipe and its ingredient tree
func (r *GormRecipeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ingredient_line_id IN (?)",
			tx.Session(&gorm.Session{NewDB: true}).
				Model(&models.IngredientLineModel{}).
				Select("id").
				Where("recipe_id = ?", id),
		).Delete(&models.SubstituteModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).
			Delete(&models.IngredientLineModel{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.RecipeModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// whereRecipeRef narrows the query to one product ref's recipe versions
func whereRecipeRef(query *gorm.DB, ref inventory.ProductRef) *gorm.DB {
	productID, variantID := ref.Columns()
	if productID != nil {
		return query.Where("product_id = ?", *productID)
	}
	return query.Where("variant_id = ?", *variantID)
}

// replaceIngredientTree makes the stored ingredient tree match the
// aggregate's: substitutes are rewritten wholesale under each kept line.
func replaceIngredientTree(tx *gorm.DB, m *models.RecipeModel) error {
	currentLineIDs := make([]uuid.UUID, len(m.Ingredients))
	for i, line := range m.Ingredients {
		currentLineIDs[i] = line.ID
	}

	removed := tx.Session(&gorm.Session{NewDB: true}).
		Model(&models.IngredientLineModel{}).
		Select("id").
		Where("recipe_id = ?", m.ID)
	if len(currentLineIDs) > 0 {
		removed = removed.Where("id NOT IN ?", currentLineIDs)
	}
	if err := tx.Where("ingredient_line_id IN (?)", removed).
		Delete(&models.SubstituteModel{}).Error; err != nil {
		return err
	}

	if len(currentLineIDs) > 0 {
		if err := tx.Where("recipe_id = ? AND id NOT IN ?", m.ID, currentLineIDs).
			Delete(&models.IngredientLineModel{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("recipe_id = ?", m.ID).
			Delete(&models.IngredientLineModel{}).Error; err != nil {
			return err
		}
	}

	for i := range m.Ingredients {
		line := &m.Ingredients[i]
		line.RecipeID = m.ID
		substitutes := line.Substitutes
		line.Substitutes = nil
		if err := tx.Save(line).Error; err != nil {
			return err
		}

		if err := tx.Where("ingredient_line_id = ?", line.ID).
			Delete(&models.SubstituteModel{}).Error; err != nil {
			return err
		}
		for j := range substitutes {
			substitutes[j].IngredientLineID = line.ID
			if err := tx.Create(&substitutes[j]).Error; err != nil {
				return err
			}
		}
		line.Substitutes = substitutes
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormRecipeRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "active":
			query = query.Where("active = ?", value)
		case "name":
			query = query.Where("name = ?", value)
		}
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderBy := ValidateSortField(filter.OrderBy, RecipeSortFields, "created_at")
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

// Ensure GormRecipeRepository implements RecipeRepository
var _ costing.RecipeRepository = (*GormRecipeRepository)(nil)
