// Package costing exposes recipe maintenance and cost rollups. Recipes
// are store-independent; resolving a rollup binds the recipe's
// ingredients to one store's stock lines for their costs and
// availability.
package costing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appinventory "github.com/kardexhq/backend/internal/application/inventory"
	"github.com/kardexhq/backend/internal/domain/costing"
	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/domain/shared/valueobject"
)

// CreateRecipeRequest drafts a bill of materials for a composite product
type CreateRecipeRequest struct {
	Ref           inventory.ProductRef
	Name          string
	YieldQuantity decimal.Decimal
}

// IngredientRequest adds a component to a recipe
type IngredientRequest struct {
	Ref             inventory.ProductRef
	Quantity        decimal.Decimal
	Unit            string
	WastePercentage decimal.Decimal
	Optional        bool
}

// SubstituteRequest registers a ranked alternative for an ingredient
type SubstituteRequest struct {
	IngredientLineID uuid.UUID
	Ref              inventory.ProductRef
	Priority         int
	ConversionRatio  decimal.Decimal
}

// RecipeService maintains recipes and rolls their costs up against one
// store's stock. Recipes live in their own repository; only the rollup
// reads stock lines, through the shared transaction scope.
type RecipeService struct {
	recipes costing.RecipeRepository
	scope   appinventory.TransactionScope
}

// NewRecipeService creates a new RecipeService
func NewRecipeService(recipes costing.RecipeRepository, scope appinventory.TransactionScope) *RecipeService {
	return &RecipeService{recipes: recipes, scope: scope}
}

// Create drafts an inactive recipe
func (s *RecipeService) Create(ctx context.Context, req CreateRecipeRequest) (*costing.Recipe, error) {
	recipe, err := costing.NewRecipe(req.Ref, req.Name, req.YieldQuantity)
	if err != nil {
		return nil, err
	}
	if err := s.recipes.Save(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// AddIngredient appends a component to a recipe
func (s *RecipeService) AddIngredient(ctx context.Context, recipeID uuid.UUID, req IngredientRequest) (*costing.Recipe, error) {
	recipe, err := s.recipes.FindByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	quantity, err := valueobject.NewQuantity(req.Quantity, req.Unit)
	if err != nil {
		return nil, err
	}
	if _, err := recipe.AddIngredient(req.Ref, quantity, req.WastePercentage, req.Optional); err != nil {
		return nil, err
	}
	if err := s.recipes.Save(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// RemoveIngredient removes a component from a recipe
func (s *RecipeService) RemoveIngredient(ctx context.Context, recipeID, lineID uuid.UUID) (*costing.Recipe, error) {
	recipe, err := s.recipes.FindByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if err := recipe.RemoveIngredient(lineID); err != nil {
		return nil, err
	}
	if err := s.recipes.Save(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// AddSubstitute registers a ranked alternative for an ingredient line
func (s *RecipeService) AddSubstitute(ctx context.Context, recipeID uuid.UUID, req SubstituteRequest) (*costing.Recipe, error) {
	recipe, err := s.recipes.FindByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	var target *costing.IngredientLine
	for _, line := range recipe.Ingredients {
		if line.ID == req.IngredientLineID {
			target = line
			break
		}
	}
	if target == nil {
		return nil, shared.NewDomainError(shared.ErrNotFound.Code, "ingredient line not found")
	}
	if _, err := target.AddSubstitute(req.Ref, req.Priority, req.ConversionRatio); err != nil {
		return nil, err
	}
	if err := s.recipes.Save(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// Activate makes a recipe the one in use for its product, retiring any
// previously active recipe for the same ref under a version check.
func (s *RecipeService) Activate(ctx context.Context, recipeID uuid.UUID) (*costing.Recipe, error) {
	recipe, err := s.recipes.FindByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	current, err := s.recipes.FindActiveByRef(ctx, recipe.Ref)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if current != nil && current.ID != recipe.ID {
		current.Deactivate()
		if err := s.recipes.SaveWithVersion(ctx, current); err != nil {
			return nil, err
		}
	}

	if err := recipe.Activate(); err != nil {
		return nil, err
	}
	if err := s.recipes.SaveWithVersion(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// Deactivate retires a recipe without activating a replacement
func (s *RecipeService) Deactivate(ctx context.Context, recipeID uuid.UUID) (*costing.Recipe, error) {
	recipe, err := s.recipes.FindByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	recipe.Deactivate()
	if err := s.recipes.SaveWithVersion(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// GetByID retrieves a recipe with its ingredient tree
func (s *RecipeService) GetByID(ctx context.Context, id uuid.UUID) (*costing.Recipe, error) {
	return s.recipes.FindByID(ctx, id)
}

// ListByRef lists every recipe version for a product or variant
func (s *RecipeService) ListByRef(ctx context.Context, ref inventory.ProductRef, filter shared.Filter) ([]costing.Recipe, error) {
	return s.recipes.FindByRef(ctx, ref, filter)
}

// ComputeCost rolls a recipe's cost up against one store's stock lines
func (s *RecipeService) ComputeCost(ctx context.Context, recipeID, storeID uuid.UUID) (*costing.RecipeCost, error) {
	recipe, err := s.recipes.FindByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	var result *costing.RecipeCost
	err = s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		engine := costing.NewCostEngine(&stockLineResolver{
			storeID: storeID,
			lines:   repos.StockLines(),
		})
		result, err = engine.ComputeRecipeCost(ctx, recipe)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ComputeCostForRef rolls up the active recipe of a product or variant
func (s *RecipeService) ComputeCostForRef(ctx context.Context, ref inventory.ProductRef, storeID uuid.UUID) (*costing.RecipeCost, error) {
	recipe, err := s.recipes.FindActiveByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.ComputeCost(ctx, recipe.ID, storeID)
}

// stockLineResolver binds ingredient refs to one store's stock lines. A
// ref the store never carried resolves to the zero IngredientStock; a
// line whose average cost is still zero has no established cost.
type stockLineResolver struct {
	storeID uuid.UUID
	lines   inventory.StockLineRepository
}

func (r *stockLineResolver) Resolve(ctx context.Context, ref inventory.ProductRef) (costing.IngredientStock, error) {
	line, err := r.lines.FindByStoreAndRef(ctx, r.storeID, ref)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return costing.IngredientStock{}, nil
		}
		return costing.IngredientStock{}, err
	}
	return costing.IngredientStock{
		UnitCost:  line.AverageUnitCost,
		Available: line.Available(),
		Costed:    !line.AverageUnitCost.IsZero(),
	}, nil
}
