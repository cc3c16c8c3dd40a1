package costing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
)

// IngredientStock is what the cost engine needs to know about one
// ingredient in one store: its current weighted-average unit cost,
// whether that cost has ever been established, and how much is available.
type IngredientStock struct {
	UnitCost  decimal.Decimal
	Available decimal.Decimal
	Costed    bool
}

// IngredientResolver supplies ingredient stock data for cost rollups.
// Implementations look the ref up in the store's stock lines; a ref with
// no stock line resolves to the zero IngredientStock, not an error.
type IngredientResolver interface {
	Resolve(ctx context.Context, ref inventory.ProductRef) (IngredientStock, error)
}

// ComponentCost is the costed contribution of one ingredient line
type ComponentCost struct {
	IngredientLineID string               `json:"ingredient_line_id"`
	Ref              inventory.ProductRef `json:"ref"`
	UsedRef          inventory.ProductRef `json:"used_ref"`
	Quantity         decimal.Decimal      `json:"quantity"`
	UnitCost         decimal.Decimal      `json:"unit_cost"`
	WastePercentage  decimal.Decimal      `json:"waste_percentage"`
	Cost             decimal.Decimal      `json:"cost"`
	Substituted      bool                 `json:"substituted"`
	Skipped          bool                 `json:"skipped"`
}

// RecipeCost is the rolled-up cost of one recipe batch
type RecipeCost struct {
	RecipeID    string          `json:"recipe_id"`
	BatchCost   decimal.Decimal `json:"batch_cost"`
	PerUnitCost decimal.Decimal `json:"per_unit_cost"`
	Components  []ComponentCost `json:"components"`
}

// CostEngine rolls composite-product costs up from ingredient stock data
type CostEngine struct {
	resolver IngredientResolver
}

// NewCostEngine creates a cost engine over an ingredient resolver
func NewCostEngine(resolver IngredientResolver) *CostEngine {
	return &CostEngine{resolver: resolver}
}

// ComputeRecipeCost sums quantity x unit cost x (1 + waste) over the
// recipe's ingredient lines. When a substitutable primary lacks available
// stock, the ranked substitutes are tried in priority order (lowest value
// first) and the first one with stock and an established cost is used,
// with its conversion ratio applied to the quantity; a primary that
// cannot be resolved at all falls back to its own cost when it has one.
// A required line with no resolvable cost anywhere fails with
// MissingIngredientCost; an optional one is skipped. The batch cost
// divided by the yield quantity gives the per-unit cost; both round to 4
// places.
func (e *CostEngine) ComputeRecipeCost(ctx context.Context, recipe *Recipe) (*RecipeCost, error) {
	if recipe == nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "recipe cannot be nil")
	}

	result := &RecipeCost{
		RecipeID:   recipe.ID.String(),
		BatchCost:  decimal.Zero,
		Components: make([]ComponentCost, 0, len(recipe.Ingredients)),
	}

	for _, line := range recipe.Ingredients {
		component, err := e.costLine(ctx, line)
		if err != nil {
			return nil, err
		}
		result.Components = append(result.Components, *component)
		result.BatchCost = result.BatchCost.Add(component.Cost)
	}

	result.BatchCost = result.BatchCost.Round(4)
	result.PerUnitCost = result.BatchCost.Div(recipe.YieldQuantity).Round(4)
	return result, nil
}

func (e *CostEngine) costLine(ctx context.Context, line *IngredientLine) (*ComponentCost, error) {
	component := &ComponentCost{
		IngredientLineID: line.ID.String(),
		Ref:              line.Ref,
		UsedRef:          line.Ref,
		Quantity:         line.Quantity.Amount(),
		WastePercentage:  line.WastePercentage,
	}

	primary, err := e.resolver.Resolve(ctx, line.Ref)
	if err != nil {
		return nil, fmt.Errorf("resolve ingredient %s: %w", line.Ref, err)
	}

	required := line.Quantity.Amount()
	if primary.Costed && primary.Available.GreaterThanOrEqual(required) {
		return e.fill(component, required, primary.UnitCost, line.WastePercentage), nil
	}

	if line.CanSubstitute {
		for _, sub := range line.RankedSubstitutes() {
			stock, err := e.resolver.Resolve(ctx, sub.Ref)
			if err != nil {
				return nil, fmt.Errorf("resolve substitute %s: %w", sub.Ref, err)
			}
			subQty := required.Mul(sub.ConversionRatio)
			if stock.Costed && stock.Available.GreaterThanOrEqual(subQty) {
				component.UsedRef = sub.Ref
				component.Substituted = true
				return e.fill(component, subQty, stock.UnitCost, line.WastePercentage), nil
			}
		}
	}

	// No stocked alternative: a primary with an established cost still
	// prices the line; the rollup is a projection, not a stock check.
	if primary.Costed {
		return e.fill(component, required, primary.UnitCost, line.WastePercentage), nil
	}

	if line.Optional {
		component.Skipped = true
		component.Cost = decimal.Zero
		return component, nil
	}

	return nil, shared.NewDomainError(
		shared.ErrMissingIngredientCost.Code,
		fmt.Sprintf("no cost resolvable for ingredient %s", line.Ref),
	)
}

func (e *CostEngine) fill(component *ComponentCost, quantity, unitCost, waste decimal.Decimal) *ComponentCost {
	component.Quantity = quantity
	component.UnitCost = unitCost
	component.Cost = quantity.Mul(unitCost).Mul(decimal.NewFromInt(1).Add(waste)).Round(4)
	return component
}
