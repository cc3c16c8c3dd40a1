package costing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kardexhq/backend/internal/domain/costing"
	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
)

func TestRecipeService_Create(t *testing.T) {
	env := newTestEnv(t)
	svc := NewRecipeService(env.recipes, env.scope)
	ctx := context.Background()

	ref := inventory.MustProductRef(uuid.New())
	recipe, err := svc.Create(ctx, CreateRecipeRequest{
		Ref:           ref,
		Name:          "Lemonade",
		YieldQuantity: d("4"),
	})
	require.NoError(t, err)
	assert.False(t, recipe.Active)
	assert.Empty(t, recipe.Ingredients)

	stored, err := svc.GetByID(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lemonade", stored.Name)

	t.Run("name is required", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateRecipeRequest{Ref: ref, YieldQuantity: d("1")})
		assert.ErrorIs(t, err, shared.ErrConstraintViolation)
	})

	t.Run("yield must be positive", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateRecipeRequest{Ref: ref, Name: "Flat", YieldQuantity: d("0")})
		assert.ErrorIs(t, err, shared.ErrConstraintViolation)
	})
}

func TestRecipeService_Ingredients(t *testing.T) {
	env := newTestEnv(t)
	svc := NewRecipeService(env.recipes, env.scope)
	ctx := context.Background()

	recipe, err := svc.Create(ctx, CreateRecipeRequest{
		Ref:           inventory.MustProductRef(uuid.New()),
		Name:          "Lemonade",
		YieldQuantity: d("4"),
	})
	require.NoError(t, err)

	sugar := inventory.MustProductRef(uuid.New())
	recipe, err = svc.AddIngredient(ctx, recipe.ID, IngredientRequest{
		Ref: sugar, Quantity: d("2"), Unit: "kg", WastePercentage: d("0.1"),
	})
	require.NoError(t, err)
	recipe, err = svc.AddIngredient(ctx, recipe.ID, IngredientRequest{
		Ref: inventory.MustProductRef(uuid.New()), Quantity: d("3"), Unit: "pcs",
	})
	require.NoError(t, err)
	require.Len(t, recipe.Ingredients, 2)
	assert.Equal(t, "2", recipe.Ingredients[0].Quantity.Amount().String())
	assert.Equal(t, "kg", recipe.Ingredients[0].Quantity.Unit())

	t.Run("duplicate ingredient rejected", func(t *testing.T) {
		_, err := svc.AddIngredient(ctx, recipe.ID, IngredientRequest{
			Ref: sugar, Quantity: d("1"), Unit: "kg",
		})
		assert.ErrorIs(t, err, shared.ErrConstraintViolation)
	})

	t.Run("remove ingredient", func(t *testing.T) {
		updated, err := svc.RemoveIngredient(ctx, recipe.ID, recipe.Ingredients[1].ID)
		require.NoError(t, err)
		require.Len(t, updated.Ingredients, 1)
		assert.True(t, updated.Ingredients[0].Ref.Equals(sugar))
	})

	t.Run("remove unknown line fails", func(t *testing.T) {
		_, err := svc.RemoveIngredient(ctx, recipe.ID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestRecipeService_AddSubstitute(t *testing.T) {
	env := newTestEnv(t)
	svc := NewRecipeService(env.recipes, env.scope)
	ctx := context.Background()

	recipe, err := svc.Create(ctx, CreateRecipeRequest{
		Ref:           inventory.MustProductRef(uuid.New()),
		Name:          "Shortbread",
		YieldQuantity: d("12"),
	})
	require.NoError(t, err)

	butter := inventory.MustProductRef(uuid.New())
	recipe, err = svc.AddIngredient(ctx, recipe.ID, IngredientRequest{
		Ref: butter, Quantity: d("0.5"), Unit: "kg",
	})
	require.NoError(t, err)
	lineID := recipe.Ingredients[0].ID

	margarine := inventory.MustProductRef(uuid.New())
	recipe, err = svc.AddSubstitute(ctx, recipe.ID, SubstituteRequest{
		IngredientLineID: lineID,
		Ref:              margarine,
		Priority:         1,
		ConversionRatio:  d("1.2"),
	})
	require.NoError(t, err)
	require.Len(t, recipe.Ingredients[0].Substitutes, 1)
	assert.True(t, recipe.Ingredients[0].CanSubstitute)

	t.Run("unknown ingredient line", func(t *testing.T) {
		_, err := svc.AddSubstitute(ctx, recipe.ID, SubstituteRequest{
			IngredientLineID: uuid.New(),
			Ref:              inventory.MustProductRef(uuid.New()),
			ConversionRatio:  d("1"),
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("ingredient cannot substitute itself", func(t *testing.T) {
		_, err := svc.AddSubstitute(ctx, recipe.ID, SubstituteRequest{
			IngredientLineID: lineID,
			Ref:              butter,
			ConversionRatio:  d("1"),
		})
		assert.ErrorIs(t, err, shared.ErrConstraintViolation)
	})
}

func TestRecipeService_Activate(t *testing.T) {
	env := newTestEnv(t)
	svc := NewRecipeService(env.recipes, env.scope)
	ctx := context.Background()

	product := inventory.MustProductRef(uuid.New())
	flour := inventory.MustProductRef(uuid.New())

	draft := func(name string) *costing.Recipe {
		recipe, err := svc.Create(ctx, CreateRecipeRequest{Ref: product, Name: name, YieldQuantity: d("1")})
		require.NoError(t, err)
		recipe, err = svc.AddIngredient(ctx, recipe.ID, IngredientRequest{
			Ref: flour, Quantity: d("1"), Unit: "kg",
		})
		require.NoError(t, err)
		return recipe
	}

	v1 := draft("Bread v1")
	v2 := draft("Bread v2")

	activated, err := svc.Activate(ctx, v1.ID)
	require.NoError(t, err)
	assert.True(t, activated.Active)

	// Activating the second version retires the first.
	activated, err = svc.Activate(ctx, v2.ID)
	require.NoError(t, err)
	assert.True(t, activated.Active)

	retired, err := svc.GetByID(ctx, v1.ID)
	require.NoError(t, err)
	assert.False(t, retired.Active)

	current, err := env.recipes.FindActiveByRef(ctx, product)
	require.NoError(t, err)
	assert.Equal(t, v2.ID, current.ID)

	versions, err := svc.ListByRef(ctx, product, shared.Filter{})
	require.NoError(t, err)
	assert.Len(t, versions, 2)

	t.Run("empty recipe cannot activate", func(t *testing.T) {
		empty, err := svc.Create(ctx, CreateRecipeRequest{
			Ref:           inventory.MustProductRef(uuid.New()),
			Name:          "Hollow",
			YieldQuantity: d("1"),
		})
		require.NoError(t, err)
		_, err = svc.Activate(ctx, empty.ID)
		assert.ErrorIs(t, err, shared.ErrConstraintViolation)
	})

	t.Run("deactivate", func(t *testing.T) {
		recipe, err := svc.Deactivate(ctx, v2.ID)
		require.NoError(t, err)
		assert.False(t, recipe.Active)
		_, err = env.recipes.FindActiveByRef(ctx, product)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestRecipeService_ComputeCost(t *testing.T) {
	env := newTestEnv(t)
	svc := NewRecipeService(env.recipes, env.scope)
	ctx := context.Background()
	storeID := uuid.New()

	sugar := inventory.MustProductRef(uuid.New())
	lemon := inventory.MustProductRef(uuid.New())
	seedStockLine(t, env, storeID, sugar, "10", "1.50")
	seedStockLine(t, env, storeID, lemon, "20", "0.40")

	recipe, err := svc.Create(ctx, CreateRecipeRequest{
		Ref:           inventory.MustProductRef(uuid.New()),
		Name:          "Lemonade",
		YieldQuantity: d("4"),
	})
	require.NoError(t, err)
	_, err = svc.AddIngredient(ctx, recipe.ID, IngredientRequest{
		Ref: sugar, Quantity: d("2"), Unit: "kg", WastePercentage: d("0.1"),
	})
	require.NoError(t, err)
	_, err = svc.AddIngredient(ctx, recipe.ID, IngredientRequest{
		Ref: lemon, Quantity: d("3"), Unit: "pcs",
	})
	require.NoError(t, err)

	cost, err := svc.ComputeCost(ctx, recipe.ID, storeID)
	require.NoError(t, err)

	// 2 * 1.50 * 1.1 + 3 * 0.40 = 3.3 + 1.2
	assert.Equal(t, d("4.5").String(), cost.BatchCost.String())
	assert.Equal(t, d("1.125").String(), cost.PerUnitCost.String())
	require.Len(t, cost.Components, 2)
	assert.Equal(t, d("3.3").String(), cost.Components[0].Cost.String())
	assert.Equal(t, d("1.5").String(), cost.Components[0].UnitCost.String())
	assert.False(t, cost.Components[0].Substituted)
	assert.False(t, cost.Components[0].Skipped)
	assert.Equal(t, d("1.2").String(), cost.Components[1].Cost.String())
}

func TestRecipeService_ComputeCostSubstitution(t *testing.T) {
	env := newTestEnv(t)
	svc := NewRecipeService(env.recipes, env.scope)
	ctx := context.Background()

	butter := inventory.MustProductRef(uuid.New())
	margarine := inventory.MustProductRef(uuid.New())
	shortening := inventory.MustProductRef(uuid.New())

	build := func(t *testing.T) *costing.Recipe {
		t.Helper()
		recipe, err := svc.Create(ctx, CreateRecipeRequest{
			Ref:           inventory.MustProductRef(uuid.New()),
			Name:          "Croissant",
			YieldQuantity: d("1"),
		})
		require.NoError(t, err)
		recipe, err = svc.AddIngredient(ctx, recipe.ID, IngredientRequest{
			Ref: butter, Quantity: d("5"), Unit: "kg",
		})
		require.NoError(t, err)
		lineID := recipe.Ingredients[0].ID
		_, err = svc.AddSubstitute(ctx, recipe.ID, SubstituteRequest{
			IngredientLineID: lineID, Ref: margarine, Priority: 1, ConversionRatio: d("1.5"),
		})
		require.NoError(t, err)
		recipe, err = svc.AddSubstitute(ctx, recipe.ID, SubstituteRequest{
			IngredientLineID: lineID, Ref: shortening, Priority: 2, ConversionRatio: d("1"),
		})
		require.NoError(t, err)
		return recipe
	}

	t.Run("short primary takes the top-ranked stocked substitute", func(t *testing.T) {
		storeID := uuid.New()
		seedStockLine(t, env, storeID, butter, "2", "2.00")
		seedStockLine(t, env, storeID, margarine, "20", "1.00")
		seedStockLine(t, env, storeID, shortening, "20", "0.50")
		recipe := build(t)

		cost, err := svc.ComputeCost(ctx, recipe.ID, storeID)
		require.NoError(t, err)
		require.Len(t, cost.Components, 1)
		component := cost.Components[0]
		assert.True(t, component.Substituted)
		assert.True(t, component.UsedRef.Equals(margarine))
		// 5 kg of butter becomes 7.5 kg of margarine at 1.00.
		assert.Equal(t, d("7.5").String(), component.Quantity.String())
		assert.Equal(t, d("7.5").String(), component.Cost.String())
	})

	t.Run("substitute without stock is skipped for the next rank", func(t *testing.T) {
		storeID := uuid.New()
		seedStockLine(t, env, storeID, butter, "2", "2.00")
		seedStockLine(t, env, storeID, margarine, "5", "1.00")
		seedStockLine(t, env, storeID, shortening, "20", "0.50")
		recipe := build(t)

		cost, err := svc.ComputeCost(ctx, recipe.ID, storeID)
		require.NoError(t, err)
		component := cost.Components[0]
		assert.True(t, component.UsedRef.Equals(shortening))
		assert.Equal(t, d("2.5").String(), component.Cost.String())
	})

	t.Run("costed primary prices the line when no substitute is stocked", func(t *testing.T) {
		storeID := uuid.New()
		seedStockLine(t, env, storeID, butter, "1", "2.00")
		recipe := build(t)

		cost, err := svc.ComputeCost(ctx, recipe.ID, storeID)
		require.NoError(t, err)
		component := cost.Components[0]
		assert.False(t, component.Substituted)
		assert.True(t, component.UsedRef.Equals(butter))
		assert.Equal(t, d("10").String(), component.Cost.String())
	})
}

func TestRecipeService_ComputeCostMissingIngredients(t *testing.T) {
	env := newTestEnv(t)
	svc := NewRecipeService(env.recipes, env.scope)
	ctx := context.Background()
	storeID := uuid.New()

	flour := inventory.MustProductRef(uuid.New())
	saffron := inventory.MustProductRef(uuid.New())
	seedStockLine(t, env, storeID, flour, "10", "0.80")

	recipe, err := svc.Create(ctx, CreateRecipeRequest{
		Ref:           inventory.MustProductRef(uuid.New()),
		Name:          "Saffron bun",
		YieldQuantity: d("8"),
	})
	require.NoError(t, err)
	_, err = svc.AddIngredient(ctx, recipe.ID, IngredientRequest{
		Ref: flour, Quantity: d("2"), Unit: "kg",
	})
	require.NoError(t, err)

	t.Run("optional uncostable line is skipped", func(t *testing.T) {
		_, err := svc.AddIngredient(ctx, recipe.ID, IngredientRequest{
			Ref: saffron, Quantity: d("0.01"), Unit: "kg", Optional: true,
		})
		require.NoError(t, err)

		cost, err := svc.ComputeCost(ctx, recipe.ID, storeID)
		require.NoError(t, err)
		require.Len(t, cost.Components, 2)
		assert.True(t, cost.Components[1].Skipped)
		assert.True(t, cost.Components[1].Cost.IsZero())
		// Batch cost is the flour alone: 2 * 0.80.
		assert.Equal(t, d("1.6").String(), cost.BatchCost.String())
	})

	t.Run("required uncostable line fails the rollup", func(t *testing.T) {
		_, err := svc.AddIngredient(ctx, recipe.ID, IngredientRequest{
			Ref: inventory.MustProductRef(uuid.New()), Quantity: d("1"), Unit: "pcs",
		})
		require.NoError(t, err)

		_, err = svc.ComputeCost(ctx, recipe.ID, storeID)
		assert.ErrorIs(t, err, shared.ErrMissingIngredientCost)
	})
}

func TestRecipeService_ComputeCostForRef(t *testing.T) {
	env := newTestEnv(t)
	svc := NewRecipeService(env.recipes, env.scope)
	ctx := context.Background()
	storeID := uuid.New()

	product := inventory.MustProductRef(uuid.New())
	milk := inventory.MustProductRef(uuid.New())
	seedStockLine(t, env, storeID, milk, "30", "0.90")

	recipe, err := svc.Create(ctx, CreateRecipeRequest{Ref: product, Name: "Latte", YieldQuantity: d("2")})
	require.NoError(t, err)
	_, err = svc.AddIngredient(ctx, recipe.ID, IngredientRequest{
		Ref: milk, Quantity: d("0.4"), Unit: "l",
	})
	require.NoError(t, err)
	_, err = svc.Activate(ctx, recipe.ID)
	require.NoError(t, err)

	cost, err := svc.ComputeCostForRef(ctx, product, storeID)
	require.NoError(t, err)
	assert.Equal(t, d("0.36").String(), cost.BatchCost.String())
	assert.Equal(t, d("0.18").String(), cost.PerUnitCost.String())

	t.Run("ref without an active recipe", func(t *testing.T) {
		_, err := svc.ComputeCostForRef(ctx, inventory.MustProductRef(uuid.New()), storeID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
