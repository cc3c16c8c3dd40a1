package costing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/domain/shared/valueobject"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func qty(t *testing.T, s string) valueobject.Quantity {
	t.Helper()
	q, err := valueobject.NewQuantityFromString(s, "KG")
	require.NoError(t, err)
	return q
}

// stubResolver maps refs to ingredient stock
type stubResolver struct {
	stocks map[inventory.ProductRef]IngredientStock
}

func (s *stubResolver) Resolve(_ context.Context, ref inventory.ProductRef) (IngredientStock, error) {
	return s.stocks[ref], nil
}

func newTestRecipe(t *testing.T, yield string) *Recipe {
	t.Helper()
	recipe, err := NewRecipe(inventory.MustProductRef(uuid.New()), "house blend", d(yield))
	require.NoError(t, err)
	return recipe
}

func TestRecipe_Structure(t *testing.T) {
	recipe := newTestRecipe(t, "10")
	flour := inventory.MustProductRef(uuid.New())

	t.Run("ingredients are unique per ref", func(t *testing.T) {
		_, err := recipe.AddIngredient(flour, qty(t, "2"), d("0.05"), false)
		require.NoError(t, err)

		_, err = recipe.AddIngredient(flour, qty(t, "1"), d("0"), false)
		assert.ErrorIs(t, err, shared.ErrConstraintViolation)
	})

	t.Run("waste must lie in [0,1)", func(t *testing.T) {
		_, err := recipe.AddIngredient(inventory.MustProductRef(uuid.New()), qty(t, "1"), d("1"), false)
		assert.ErrorIs(t, err, shared.ErrConstraintViolation)

		_, err = recipe.AddIngredient(inventory.MustProductRef(uuid.New()), qty(t, "1"), d("-0.1"), false)
		assert.ErrorIs(t, err, shared.ErrConstraintViolation)
	})

	t.Run("cannot activate without ingredients", func(t *testing.T) {
		empty := newTestRecipe(t, "1")
		assert.ErrorIs(t, empty.Activate(), shared.ErrConstraintViolation)
	})

	t.Run("adding a substitute marks the line substitutable", func(t *testing.T) {
		line := recipe.Ingredients[0]
		require.False(t, line.CanSubstitute)

		_, err := line.AddSubstitute(inventory.MustProductRef(uuid.New()), 1, d("1.5"))
		require.NoError(t, err)
		assert.True(t, line.CanSubstitute)
	})

	t.Run("an ingredient cannot substitute itself", func(t *testing.T) {
		line := recipe.Ingredients[0]
		_, err := line.AddSubstitute(line.Ref, 0, d("1"))
		assert.ErrorIs(t, err, shared.ErrConstraintViolation)
	})
}

func TestCostEngine_ComputeRecipeCost(t *testing.T) {
	ctx := context.Background()

	t.Run("sums waste-adjusted component costs and divides by yield", func(t *testing.T) {
		recipe := newTestRecipe(t, "10")
		flour := inventory.MustProductRef(uuid.New())
		sugar := inventory.MustVariantRef(uuid.New())
		_, err := recipe.AddIngredient(flour, qty(t, "2"), d("0.10"), false)
		require.NoError(t, err)
		_, err = recipe.AddIngredient(sugar, qty(t, "1"), d("0"), false)
		require.NoError(t, err)

		resolver := &stubResolver{stocks: map[inventory.ProductRef]IngredientStock{
			flour: {UnitCost: d("5.00"), Available: d("100"), Costed: true},
			sugar: {UnitCost: d("3.00"), Available: d("100"), Costed: true},
		}}
		engine := NewCostEngine(resolver)

		cost, err := engine.ComputeRecipeCost(ctx, recipe)

		require.NoError(t, err)
		// 2*5*1.10 + 1*3 = 11 + 3 = 14; per unit 14/10 = 1.4
		assert.True(t, cost.BatchCost.Equal(d("14")), "got %s", cost.BatchCost)
		assert.True(t, cost.PerUnitCost.Equal(d("1.4")), "got %s", cost.PerUnitCost)
		require.Len(t, cost.Components, 2)
		assert.False(t, cost.Components[0].Substituted)
	})

	t.Run("substitutes by priority when primary lacks stock", func(t *testing.T) {
		recipe := newTestRecipe(t, "1")
		butter := inventory.MustProductRef(uuid.New())
		margarine := inventory.MustProductRef(uuid.New())
		ghee := inventory.MustProductRef(uuid.New())
		line, err := recipe.AddIngredient(butter, qty(t, "2"), d("0"), false)
		require.NoError(t, err)
		_, err = line.AddSubstitute(margarine, 2, d("1"))
		require.NoError(t, err)
		_, err = line.AddSubstitute(ghee, 1, d("0.5"))
		require.NoError(t, err)

		resolver := &stubResolver{stocks: map[inventory.ProductRef]IngredientStock{
			butter:    {UnitCost: d("8.00"), Available: d("0"), Costed: true},
			margarine: {UnitCost: d("4.00"), Available: d("50"), Costed: true},
			ghee:      {UnitCost: d("12.00"), Available: d("50"), Costed: true},
		}}
		engine := NewCostEngine(resolver)

		cost, err := engine.ComputeRecipeCost(ctx, recipe)

		require.NoError(t, err)
		require.Len(t, cost.Components, 1)
		c := cost.Components[0]
		assert.True(t, c.Substituted)
		assert.True(t, c.UsedRef.Equals(ghee), "priority 1 wins over priority 2")
		assert.True(t, c.Quantity.Equal(d("1")), "conversion ratio applied: 2 * 0.5")
		assert.True(t, c.Cost.Equal(d("12")), "got %s", c.Cost)
	})

	t.Run("skips exhausted substitutes and keeps trying", func(t *testing.T) {
		recipe := newTestRecipe(t, "1")
		a := inventory.MustProductRef(uuid.New())
		b := inventory.MustProductRef(uuid.New())
		c := inventory.MustProductRef(uuid.New())
		line, err := recipe.AddIngredient(a, qty(t, "5"), d("0"), false)
		require.NoError(t, err)
		_, err = line.AddSubstitute(b, 1, d("1"))
		require.NoError(t, err)
		_, err = line.AddSubstitute(c, 2, d("1"))
		require.NoError(t, err)

		resolver := &stubResolver{stocks: map[inventory.ProductRef]IngredientStock{
			a: {Costed: false},
			b: {UnitCost: d("2"), Available: d("3"), Costed: true}, // not enough for 5
			c: {UnitCost: d("3"), Available: d("10"), Costed: true},
		}}
		engine := NewCostEngine(resolver)

		cost, err := engine.ComputeRecipeCost(ctx, recipe)

		require.NoError(t, err)
		assert.True(t, cost.Components[0].UsedRef.Equals(c))
		assert.True(t, cost.BatchCost.Equal(d("15")))
	})

	t.Run("costed but out-of-stock primary without substitutes still prices", func(t *testing.T) {
		recipe := newTestRecipe(t, "1")
		salt := inventory.MustProductRef(uuid.New())
		_, err := recipe.AddIngredient(salt, qty(t, "1"), d("0"), false)
		require.NoError(t, err)

		resolver := &stubResolver{stocks: map[inventory.ProductRef]IngredientStock{
			salt: {UnitCost: d("0.50"), Available: d("0"), Costed: true},
		}}

		cost, err := NewCostEngine(resolver).ComputeRecipeCost(ctx, recipe)

		require.NoError(t, err)
		assert.True(t, cost.BatchCost.Equal(d("0.5")))
	})

	t.Run("uncosted required ingredient fails", func(t *testing.T) {
		recipe := newTestRecipe(t, "1")
		mystery := inventory.MustProductRef(uuid.New())
		_, err := recipe.AddIngredient(mystery, qty(t, "1"), d("0"), false)
		require.NoError(t, err)

		resolver := &stubResolver{stocks: map[inventory.ProductRef]IngredientStock{}}

		_, err = NewCostEngine(resolver).ComputeRecipeCost(ctx, recipe)

		assert.ErrorIs(t, err, shared.ErrMissingIngredientCost)
	})

	t.Run("uncosted optional ingredient is skipped", func(t *testing.T) {
		recipe := newTestRecipe(t, "1")
		base := inventory.MustProductRef(uuid.New())
		garnish := inventory.MustProductRef(uuid.New())
		_, err := recipe.AddIngredient(base, qty(t, "1"), d("0"), false)
		require.NoError(t, err)
		_, err = recipe.AddIngredient(garnish, qty(t, "1"), d("0"), true)
		require.NoError(t, err)

		resolver := &stubResolver{stocks: map[inventory.ProductRef]IngredientStock{
			base: {UnitCost: d("2"), Available: d("10"), Costed: true},
		}}

		cost, err := NewCostEngine(resolver).ComputeRecipeCost(ctx, recipe)

		require.NoError(t, err)
		assert.True(t, cost.BatchCost.Equal(d("2")))
		assert.True(t, cost.Components[1].Skipped)
	})
}
