package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	inventoryapp "github.com/kardexhq/backend/internal/application/inventory"
)

// StockHandler exposes stock line endpoints
type StockHandler struct {
	BaseHandler
	stockService *inventoryapp.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stockService *inventoryapp.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// CreateStockLineRequest opens an empty stock line for a store
type CreateStockLineRequest struct {
	StoreID       string            `json:"store_id" binding:"required,uuid"`
	Ref           ProductRefRequest `json:"ref" binding:"required"`
	MinStockLevel decimal.Decimal   `json:"min_stock_level"`
}

// SetStockLevelsRequest changes a line's min/max alert levels
type SetStockLevelsRequest struct {
	MinStockLevel decimal.Decimal  `json:"min_stock_level"`
	MaxStockLevel *decimal.Decimal `json:"max_stock_level"`
}

// AdjustQuantityRequest applies a signed on-hand delta to a line
type AdjustQuantityRequest struct {
	Delta  decimal.Decimal `json:"delta" binding:"required"`
	Reason string          `json:"reason" binding:"required"`
}

// InitializeStockLineRequest is one entry of a bulk initialization
type InitializeStockLineRequest struct {
	Ref           ProductRefRequest `json:"ref" binding:"required"`
	Quantity      decimal.Decimal   `json:"quantity"`
	UnitCost      decimal.Decimal   `json:"unit_cost"`
	MinStockLevel decimal.Decimal   `json:"min_stock_level"`
}

// InitializeStockLinesRequest seeds stock lines for a store
type InitializeStockLinesRequest struct {
	StoreID string                       `json:"store_id" binding:"required,uuid"`
	Lines   []InitializeStockLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// Create opens an empty stock line
// POST /stock-lines
func (h *StockHandler) Create(c *gin.Context) {
	var req CreateStockLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		h.BadRequest(c, "invalid store_id")
		return
	}
	ref, err := req.Ref.toProductRef()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	line, err := h.stockService.CreateLine(c.Request.Context(), storeID, ref, req.MinStockLevel)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, line)
}

// Get returns one stock line by id
// GET /stock-lines/:id
func (h *StockHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	line, err := h.stockService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, line)
}

// GetByRef looks a line up by store and product reference
// GET /stock-lines/lookup?store_id=&ref_kind=&ref_id=
func (h *StockHandler) GetByRef(c *gin.Context) {
	storeID, err := parseUUIDQuery(c, "store_id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	ref, err := parseProductRefQuery(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	line, err := h.stockService.GetByStoreAndRef(c.Request.Context(), storeID, ref)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, line)
}

// List returns a store's stock lines, paginated
// GET /stock-lines?store_id=
func (h *StockHandler) List(c *gin.Context) {
	storeID, err := parseUUIDQuery(c, "store_id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	filter := parseFilter(c)

	lines, total, err := h.stockService.List(c.Request.Context(), storeID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, lines, total, filter.Page, filter.PageSize)
}

// ListLowStock returns the store's lines at or below their minimum level
// GET /stock-lines/low-stock?store_id=
func (h *StockHandler) ListLowStock(c *gin.Context) {
	storeID, err := parseUUIDQuery(c, "store_id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	lines, err := h.stockService.ListLowStock(c.Request.Context(), storeID, parseFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lines)
}

// SetLevels changes a line's min/max stock levels
// PATCH /stock-lines/:id/levels
func (h *StockHandler) SetLevels(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req SetStockLevelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	line, err := h.stockService.SetStockLevels(c.Request.Context(), id, req.MinStockLevel, req.MaxStockLevel)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, line)
}

// Adjust applies a signed quantity delta directly to a line. Document
// driven corrections go through the adjustment workflow instead.
// POST /stock-lines/:id/adjust
func (h *StockHandler) Adjust(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, err.Error())
		return
	}

	var req AdjustQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	line, err := h.stockService.AdjustQuantity(c.Request.Context(), id, req.Delta, req.Reason, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, line)
}

// Initialize bulk-creates missing stock lines for a store
// POST /stock-lines/initialize
func (h *StockHandler) Initialize(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, err.Error())
		return
	}

	var req InitializeStockLinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		h.BadRequest(c, "invalid store_id")
		return
	}

	appReq := inventoryapp.InitializeStockRequest{
		StoreID: storeID,
		ActorID: actorID,
		Lines:   make([]inventoryapp.InitialStockLine, 0, len(req.Lines)),
	}
	for _, l := range req.Lines {
		ref, err := l.Ref.toProductRef()
		if err != nil {
			h.BadRequest(c, err.Error())
			return
		}
		appReq.Lines = append(appReq.Lines, inventoryapp.InitialStockLine{
			ProductRef:    ref,
			Quantity:      l.Quantity,
			UnitCost:      l.UnitCost,
			MinStockLevel: l.MinStockLevel,
		})
	}

	result, err := h.stockService.InitializeLines(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Valuation sums quantity x average cost over a store's lines
// GET /stock-lines/valuation?store_id=
func (h *StockHandler) Valuation(c *gin.Context) {
	storeID, err := parseUUIDQuery(c, "store_id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	valuation, err := h.stockService.Valuate(c.Request.Context(), storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, valuation)
}
