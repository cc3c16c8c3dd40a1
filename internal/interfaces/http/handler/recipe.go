package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	costingapp "github.com/kardexhq/backend/internal/application/costing"
)

// RecipeHandler exposes bill-of-materials maintenance and cost rollups
type RecipeHandler struct {
	BaseHandler
	recipeService *costingapp.RecipeService
}

// NewRecipeHandler creates a new RecipeHandler
func NewRecipeHandler(recipeService *costingapp.RecipeService) *RecipeHandler {
	return &RecipeHandler{recipeService: recipeService}
}

// CreateRecipeRequest drafts a recipe for a composite product
type CreateRecipeRequest struct {
	Ref           ProductRefRequest `json:"ref" binding:"required"`
	Name          string            `json:"name" binding:"required"`
	YieldQuantity decimal.Decimal   `json:"yield_quantity" binding:"required"`
}

// IngredientBody adds a component to a recipe
type IngredientBody struct {
	Ref             ProductRefRequest `json:"ref" binding:"required"`
	Quantity        decimal.Decimal   `json:"quantity" binding:"required"`
	Unit            string            `json:"unit" binding:"required"`
	WastePercentage decimal.Decimal   `json:"waste_percentage"`
	Optional        bool              `json:"optional"`
}

// SubstituteBody registers a ranked alternative for an ingredient line.
// Lower priority values are tried first.
type SubstituteBody struct {
	Ref             ProductRefRequest `json:"ref" binding:"required"`
	Priority        int               `json:"priority" binding:"min=0"`
	ConversionRatio decimal.Decimal   `json:"conversion_ratio" binding:"required"`
}

// Create drafts an inactive recipe
// POST /recipes
func (h *RecipeHandler) Create(c *gin.Context) {
	var req CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	ref, err := req.Ref.toProductRef()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	recipe, err := h.recipeService.Create(c.Request.Context(), costingapp.CreateRecipeRequest{
		Ref:           ref,
		Name:          req.Name,
		YieldQuantity: req.YieldQuantity,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toRecipeResponse(recipe))
}

// Get returns one recipe by id
// GET /recipes/:id
func (h *RecipeHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	recipe, err := h.recipeService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRecipeResponse(recipe))
}

// ListByRef returns the recipes registered for a product
// GET /recipes?ref_kind=&ref_id=
func (h *RecipeHandler) ListByRef(c *gin.Context) {
	ref, err := parseProductRefQuery(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	filter := parseFilter(c)

	recipes, err := h.recipeService.ListByRef(c.Request.Context(), ref, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRecipeResponses(recipes))
}

// AddIngredient adds a component to an inactive recipe
// POST /recipes/:id/ingredients
func (h *RecipeHandler) AddIngredient(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var body IngredientBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	ref, err := body.Ref.toProductRef()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	recipe, err := h.recipeService.AddIngredient(c.Request.Context(), id, costingapp.IngredientRequest{
		Ref:             ref,
		Quantity:        body.Quantity,
		Unit:            body.Unit,
		WastePercentage: body.WastePercentage,
		Optional:        body.Optional,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRecipeResponse(recipe))
}

// RemoveIngredient drops a component from an inactive recipe
// DELETE /recipes/:id/ingredients/:line_id
func (h *RecipeHandler) RemoveIngredient(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	lineID, err := parseUUIDParam(c, "line_id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	recipe, err := h.recipeService.RemoveIngredient(c.Request.Context(), id, lineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRecipeResponse(recipe))
}

// AddSubstitute registers a ranked alternative on an ingredient line
// POST /recipes/:id/ingredients/:line_id/substitutes
func (h *RecipeHandler) AddSubstitute(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	lineID, err := parseUUIDParam(c, "line_id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var body SubstituteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	ref, err := body.Ref.toProductRef()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	recipe, err := h.recipeService.AddSubstitute(c.Request.Context(), id, costingapp.SubstituteRequest{
		IngredientLineID: lineID,
		Ref:              ref,
		Priority:         body.Priority,
		ConversionRatio:  body.ConversionRatio,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRecipeResponse(recipe))
}

// Activate makes a recipe the live bill of materials for its product
// POST /recipes/:id/activate
func (h *RecipeHandler) Activate(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	recipe, err := h.recipeService.Activate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRecipeResponse(recipe))
}

// Deactivate retires a recipe
// POST /recipes/:id/deactivate
func (h *RecipeHandler) Deactivate(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	recipe, err := h.recipeService.Deactivate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRecipeResponse(recipe))
}

// ComputeCost rolls a recipe's cost up against a store's stock
// GET /recipes/:id/cost?store_id=
func (h *RecipeHandler) ComputeCost(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	storeID, err := parseUUIDQuery(c, "store_id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cost, err := h.recipeService.ComputeCost(c.Request.Context(), id, storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cost)
}

// ComputeCostForRef rolls the active recipe's cost up for a product
// GET /recipes/cost?ref_kind=&ref_id=&store_id=
func (h *RecipeHandler) ComputeCostForRef(c *gin.Context) {
	ref, err := parseProductRefQuery(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	storeID, err := parseUUIDQuery(c, "store_id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cost, err := h.recipeService.ComputeCostForRef(c.Request.Context(), ref, storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cost)
}
