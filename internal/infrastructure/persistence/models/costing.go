package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/costing"
	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared/valueobject"
)

// RecipeModel is the persistence model for the Recipe aggregate. The
// partial unique index over (product_id, variant_id) WHERE active keeps
// at most one active recipe per ref; the migration owns that index since
// GORM tags cannot express the predicate.
type RecipeModel struct {
	AggregateModel
	ProductID     *uuid.UUID      `gorm:"type:uuid;index:idx_recipe_ref,priority:1"`
	VariantID     *uuid.UUID      `gorm:"type:uuid;index:idx_recipe_ref,priority:2"`
	Name          string          `gorm:"type:varchar(255);not null"`
	YieldQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Active        bool            `gorm:"not null;default:false"`
	Ingredients   []IngredientLineModel `gorm:"foreignKey:RecipeID;references:ID"`
}

// TableName returns the table name for GORM
func (RecipeModel) TableName() string {
	return "recipes"
}

// IngredientLineModel is the persistence model for one recipe ingredient
type IngredientLineModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	RecipeID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID       *uuid.UUID      `gorm:"type:uuid"`
	VariantID       *uuid.UUID      `gorm:"type:uuid"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit            string          `gorm:"type:varchar(32)"`
	WastePercentage decimal.Decimal `gorm:"type:decimal(5,4);not null;default:0"`
	Optional        bool            `gorm:"not null;default:false"`
	CanSubstitute   bool            `gorm:"not null;default:false"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
	Substitutes     []SubstituteModel `gorm:"foreignKey:IngredientLineID;references:ID"`
}

// TableName returns the table name for GORM
func (IngredientLineModel) TableName() string {
	return "recipe_ingredients"
}

// SubstituteModel is the persistence model for one ingredient substitute
type SubstituteModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	IngredientLineID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID        *uuid.UUID      `gorm:"type:uuid"`
	VariantID        *uuid.UUID      `gorm:"type:uuid"`
	Priority         int             `gorm:"not null;default:0"`
	ConversionRatio  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1"`
	CreatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SubstituteModel) TableName() string {
	return "recipe_ingredient_substitutes"
}

// ToDomain converts the persistence model to a domain Recipe
func (m *RecipeModel) ToDomain() (*costing.Recipe, error) {
	ref, err := inventory.ProductRefFromColumns(m.ProductID, m.VariantID)
	if err != nil {
		return nil, err
	}
	recipe := &costing.Recipe{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Ref:               ref,
		Name:              m.Name,
		YieldQuantity:     m.YieldQuantity,
		Active:            m.Active,
		Ingredients:       make([]*costing.IngredientLine, len(m.Ingredients)),
	}
	for i := range m.Ingredients {
		ing := m.Ingredients[i]
		ingRef, err := inventory.ProductRefFromColumns(ing.ProductID, ing.VariantID)
		if err != nil {
			return nil, err
		}
		quantity, err := valueobject.NewQuantity(ing.Quantity, ing.Unit)
		if err != nil {
			return nil, err
		}
		line := &costing.IngredientLine{
			ID:              ing.ID,
			RecipeID:        ing.RecipeID,
			Ref:             ingRef,
			Quantity:        quantity,
			WastePercentage: ing.WastePercentage,
			Optional:        ing.Optional,
			CanSubstitute:   ing.CanSubstitute,
			CreatedAt:       ing.CreatedAt,
			UpdatedAt:       ing.UpdatedAt,
			Substitutes:     make([]*costing.Substitute, len(ing.Substitutes)),
		}
		for j := range ing.Substitutes {
			sub := ing.Substitutes[j]
			subRef, err := inventory.ProductRefFromColumns(sub.ProductID, sub.VariantID)
			if err != nil {
				return nil, err
			}
			line.Substitutes[j] = &costing.Substitute{
				ID:               sub.ID,
				IngredientLineID: sub.IngredientLineID,
				Ref:              subRef,
				Priority:         sub.Priority,
				ConversionRatio:  sub.ConversionRatio,
				CreatedAt:        sub.CreatedAt,
			}
		}
		recipe.Ingredients[i] = line
	}
	return recipe, nil
}

// RecipeModelFromDomain converts a domain Recipe to its persistence model
func RecipeModelFromDomain(recipe *costing.Recipe) *RecipeModel {
	m := &RecipeModel{
		Name:          recipe.Name,
		YieldQuantity: recipe.YieldQuantity,
		Active:        recipe.Active,
		Ingredients:   make([]IngredientLineModel, len(recipe.Ingredients)),
	}
	m.FromDomainAggregateRoot(recipe.BaseAggregateRoot)
	m.ProductID, m.VariantID = recipe.Ref.Columns()
	for i, line := range recipe.Ingredients {
		productID, variantID := line.Ref.Columns()
		ing := IngredientLineModel{
			ID:              line.ID,
			RecipeID:        line.RecipeID,
			ProductID:       productID,
			VariantID:       variantID,
			Quantity:        line.Quantity.Amount(),
			Unit:            line.Quantity.Unit(),
			WastePercentage: line.WastePercentage,
			Optional:        line.Optional,
			CanSubstitute:   line.CanSubstitute,
			CreatedAt:       line.CreatedAt,
			UpdatedAt:       line.UpdatedAt,
			Substitutes:     make([]SubstituteModel, len(line.Substitutes)),
		}
		for j, sub := range line.Substitutes {
			subProductID, subVariantID := sub.Ref.Columns()
			ing.Substitutes[j] = SubstituteModel{
				ID:               sub.ID,
				IngredientLineID: sub.IngredientLineID,
				ProductID:        subProductID,
				VariantID:        subVariantID,
				Priority:         sub.Priority,
				ConversionRatio:  sub.ConversionRatio,
				CreatedAt:        sub.CreatedAt,
			}
		}
		m.Ingredients[i] = ing
	}
	return m
}
