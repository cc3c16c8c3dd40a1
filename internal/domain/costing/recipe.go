// Package costing holds recipe (bill-of-materials) definitions for
// composite products and the weighted-average / rollup cost computations
// over them.
package costing

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/domain/shared/valueobject"
)

// Substitute is a ranked alternative for an ingredient. ConversionRatio
// converts the primary ingredient's quantity into the substitute's:
// using 1.5 means every unit of the primary is replaced by 1.5 units of
// the substitute.
type Substitute struct {
	ID               uuid.UUID
	IngredientLineID uuid.UUID
	Ref              inventory.ProductRef
	Priority         int
	ConversionRatio  decimal.Decimal
	CreatedAt        time.Time
}

// NewSubstitute creates a ranked substitute for an ingredient line
func NewSubstitute(ingredientLineID uuid.UUID, ref inventory.ProductRef, priority int, conversionRatio decimal.Decimal) (*Substitute, error) {
	if ref.IsZero() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "substitute must reference a product or a variant")
	}
	if priority < 0 {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "substitute priority cannot be negative")
	}
	if !conversionRatio.IsPositive() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "substitute conversion ratio must be positive")
	}

	return &Substitute{
		ID:               uuid.New(),
		IngredientLineID: ingredientLineID,
		Ref:              ref,
		Priority:         priority,
		ConversionRatio:  conversionRatio,
		CreatedAt:        time.Now(),
	}, nil
}

// IngredientLine is one component of a recipe. Quantity carries both the
// amount and the unit of measure it is expressed in. WastePercentage is
// the expected loss in preparation, 0 <= w < 1, folded into the rolled-up
// cost as quantity * cost * (1 + w).
type IngredientLine struct {
	ID              uuid.UUID
	RecipeID        uuid.UUID
	Ref             inventory.ProductRef
	Quantity        valueobject.Quantity
	WastePercentage decimal.Decimal
	Optional        bool
	CanSubstitute   bool
	Substitutes     []*Substitute
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewIngredientLine creates an ingredient line for a recipe
func NewIngredientLine(recipeID uuid.UUID, ref inventory.ProductRef, quantity valueobject.Quantity, wastePercentage decimal.Decimal) (*IngredientLine, error) {
	if ref.IsZero() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "ingredient must reference a product or a variant")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "ingredient quantity must be positive")
	}
	if wastePercentage.IsNegative() || wastePercentage.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "waste percentage must lie in [0, 1)")
	}

	now := time.Now()
	return &IngredientLine{
		ID:              uuid.New(),
		RecipeID:        recipeID,
		Ref:             ref,
		Quantity:        quantity,
		WastePercentage: wastePercentage,
		Substitutes:     make([]*Substitute, 0),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// AddSubstitute registers a ranked alternative and marks the line
// substitutable
func (l *IngredientLine) AddSubstitute(ref inventory.ProductRef, priority int, conversionRatio decimal.Decimal) (*Substitute, error) {
	if ref.Equals(l.Ref) {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "an ingredient cannot substitute itself")
	}
	for _, s := range l.Substitutes {
		if s.Ref.Equals(ref) {
			return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "substitute already registered for this ingredient")
		}
	}

	sub, err := NewSubstitute(l.ID, ref, priority, conversionRatio)
	if err != nil {
		return nil, err
	}
	l.Substitutes = append(l.Substitutes, sub)
	l.CanSubstitute = true
	l.UpdatedAt = time.Now()
	return sub, nil
}

// RankedSubstitutes returns the substitutes ordered by priority, lowest
// value first
func (l *IngredientLine) RankedSubstitutes() []*Substitute {
	ranked := make([]*Substitute, len(l.Substitutes))
	copy(ranked, l.Substitutes)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Priority < ranked[j].Priority })
	return ranked
}

// Recipe is the bill of materials of one composite product. At most one
// recipe per product-or-variant may be active at a time; the repository
// enforces that along with the activation methods here. YieldQuantity is
// how many sellable units one batch of the listed ingredients produces.
type Recipe struct {
	shared.BaseAggregateRoot
	Ref           inventory.ProductRef
	Name          string
	YieldQuantity decimal.Decimal
	Active        bool
	Ingredients   []*IngredientLine
}

// NewRecipe creates an inactive recipe for a composite product
func NewRecipe(ref inventory.ProductRef, name string, yieldQuantity decimal.Decimal) (*Recipe, error) {
	if ref.IsZero() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "recipe must reference a product or a variant")
	}
	if name == "" {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "recipe name is required")
	}
	if !yieldQuantity.IsPositive() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "recipe yield quantity must be positive")
	}

	return &Recipe{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Ref:               ref,
		Name:              name,
		YieldQuantity:     yieldQuantity,
		Ingredients:       make([]*IngredientLine, 0),
	}, nil
}

// AddIngredient appends a component to the recipe
func (r *Recipe) AddIngredient(ref inventory.ProductRef, quantity valueobject.Quantity, wastePercentage decimal.Decimal, optional bool) (*IngredientLine, error) {
	for _, ing := range r.Ingredients {
		if ing.Ref.Equals(ref) {
			return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "recipe already lists this ingredient")
		}
	}

	line, err := NewIngredientLine(r.ID, ref, quantity, wastePercentage)
	if err != nil {
		return nil, err
	}
	line.Optional = optional
	r.Ingredients = append(r.Ingredients, line)
	r.Touch()
	return line, nil
}

// RemoveIngredient removes a component from the recipe
func (r *Recipe) RemoveIngredient(lineID uuid.UUID) error {
	for i, ing := range r.Ingredients {
		if ing.ID == lineID {
			r.Ingredients = append(r.Ingredients[:i], r.Ingredients[i+1:]...)
			r.Touch()
			return nil
		}
	}
	return shared.NewDomainError(shared.ErrNotFound.Code, "ingredient line not found")
}

// Activate marks the recipe as the one in use for its product. The
// caller deactivates any previously active recipe for the same ref in
// the same transaction.
func (r *Recipe) Activate() error {
	if len(r.Ingredients) == 0 {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "cannot activate a recipe without ingredients")
	}
	if r.Active {
		return nil
	}
	r.Active = true
	r.IncrementVersion()
	return nil
}

// Deactivate retires the recipe
func (r *Recipe) Deactivate() {
	if !r.Active {
		return
	}
	r.Active = false
	r.IncrementVersion()
}
