package costing

import (
	"context"

	"github.com/google/uuid"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
)

// RecipeRepository defines the interface for recipe persistence
type RecipeRepository interface {
	// FindByID finds a recipe with its ingredients and substitutes
	FindByID(ctx context.Context, id uuid.UUID) (*Recipe, error)

	// FindActiveByRef finds the active recipe for a product or variant,
	// if any
	FindActiveByRef(ctx context.Context, ref inventory.ProductRef) (*Recipe, error)

	// FindByRef lists every recipe version for a product or variant
	FindByRef(ctx context.Context, ref inventory.ProductRef, filter shared.Filter) ([]Recipe, error)

	// Save creates or updates a recipe with its ingredient tree
	Save(ctx context.Context, recipe *Recipe) error

	// SaveWithVersion persists an activation change with a
	// compare-and-swap on the version the caller read
	SaveWithVersion(ctx context.Context, recipe *Recipe) error

	// Delete removes a recipe and its ingredient tree
	Delete(ctx context.Context, id uuid.UUID) error
}
