package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	salesapp "github.com/kardexhq/backend/internal/application/sales"
)

// SaleHandler exposes the sale workflow (draft -> completed, or voided).
// Adding a line places a TTL hold on the stock; completing the sale
// converts the holds into deductions.
type SaleHandler struct {
	BaseHandler
	saleService       *salesapp.SaleService
	creditNoteService *salesapp.CreditNoteService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService *salesapp.SaleService, creditNoteService *salesapp.CreditNoteService) *SaleHandler {
	return &SaleHandler{saleService: saleService, creditNoteService: creditNoteService}
}

// CreateSaleRequest opens a draft sale for a store
type CreateSaleRequest struct {
	StoreID    string `json:"store_id" binding:"required,uuid"`
	CustomerID string `json:"customer_id" binding:"omitempty,uuid"`
	Notes      string `json:"notes"`
}

// SaleLineBody adds a sold product to a draft sale
type SaleLineBody struct {
	Ref            ProductRefRequest `json:"ref" binding:"required"`
	Quantity       decimal.Decimal   `json:"quantity" binding:"required"`
	UnitPrice      decimal.Decimal   `json:"unit_price" binding:"required"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	TaxAmount      decimal.Decimal   `json:"tax_amount"`
	TTLSeconds     int               `json:"ttl_seconds" binding:"omitempty,min=1"`
}

// VoidSaleRequest voids a completed sale
type VoidSaleRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CreateCreditNoteRequest opens a draft credit note against a sale
type CreateCreditNoteRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Create opens a draft sale
// POST /sales
func (h *SaleHandler) Create(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, err.Error())
		return
	}

	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		h.BadRequest(c, "invalid store_id")
		return
	}

	appReq := salesapp.CreateSaleRequest{
		StoreID: storeID,
		ActorID: actorID,
		Notes:   req.Notes,
	}
	if req.CustomerID != "" {
		customerID, err := uuid.Parse(req.CustomerID)
		if err != nil {
			h.BadRequest(c, "invalid customer_id")
			return
		}
		appReq.CustomerID = &customerID
	}

	sale, err := h.saleService.Create(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toSaleResponse(sale))
}

// Get returns one sale by id
// GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sale, err := h.saleService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSaleResponse(sale))
}

// List returns a store's sales, paginated
// GET /sales?store_id=
func (h *SaleHandler) List(c *gin.Context) {
	storeID, err := parseUUIDQuery(c, "store_id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	filter := parseFilter(c)

	sales, total, err := h.saleService.ListByStore(c.Request.Context(), storeID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toSaleResponses(sales), total, filter.Page, filter.PageSize)
}

// AddLine adds a sold product and places a TTL hold for it
// POST /sales/:id/lines
func (h *SaleHandler) AddLine(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var body SaleLineBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	ref, err := body.Ref.toProductRef()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sale, err := h.saleService.AddLine(c.Request.Context(), id, salesapp.SaleLineRequest{
		Ref:            ref,
		Quantity:       body.Quantity,
		UnitPrice:      body.UnitPrice,
		DiscountAmount: body.DiscountAmount,
		TaxAmount:      body.TaxAmount,
		TTL:            time.Duration(body.TTLSeconds) * time.Second,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSaleResponse(sale))
}

// RemoveLine drops a draft line and releases its hold
// DELETE /sales/:id/lines/:line_id
func (h *SaleHandler) RemoveLine(c *gin.Context) {
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
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, err.Error())
		return
	}

	sale, err := h.saleService.RemoveLine(c.Request.Context(), id, lineID, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSaleResponse(sale))
}

// Complete confirms the holds and deducts the sold stock
// POST /sales/:id/complete
func (h *SaleHandler) Complete(c *gin.Context) {
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

	sale, err := h.saleService.Complete(c.Request.Context(), id, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSaleResponse(sale))
}

// Void cancels a sale; draft holds are released
// POST /sales/:id/void
func (h *SaleHandler) Void(c *gin.Context) {
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

	var req VoidSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sale, err := h.saleService.Void(c.Request.Context(), id, actorID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSaleResponse(sale))
}

// CreateCreditNote opens a draft credit note against a completed sale
// POST /sales/:id/credit-notes
func (h *SaleHandler) CreateCreditNote(c *gin.Context) {
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

	var req CreateCreditNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	note, err := h.creditNoteService.Create(c.Request.Context(), id, actorID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toCreditNoteResponse(note))
}

// ListCreditNotes returns the credit notes raised against a sale
// GET /sales/:id/credit-notes
func (h *SaleHandler) ListCreditNotes(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	notes, err := h.creditNoteService.ListBySale(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCreditNoteResponses(notes))
}
