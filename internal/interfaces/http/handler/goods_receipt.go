package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	purchasingapp "github.com/kardexhq/backend/internal/application/purchasing"
)

// GoodsReceiptHandler exposes goods receipt booking against approved purchase orders
type GoodsReceiptHandler struct {
	BaseHandler
	receiptService *purchasingapp.GoodsReceiptService
}

// NewGoodsReceiptHandler creates a new GoodsReceiptHandler
func NewGoodsReceiptHandler(receiptService *purchasingapp.GoodsReceiptService) *GoodsReceiptHandler {
	return &GoodsReceiptHandler{receiptService: receiptService}
}

// GoodsReceiptLineBody records an arrived quantity against an order line.
// UnitCost overrides the ordered cost when the invoice differs.
type GoodsReceiptLineBody struct {
	OrderLineID string           `json:"order_line_id" binding:"required,uuid"`
	Quantity    decimal.Decimal  `json:"quantity" binding:"required"`
	UnitCost    *decimal.Decimal `json:"unit_cost,omitempty"`
}

// Get returns one goods receipt by id
// GET /goods-receipts/:id
func (h *GoodsReceiptHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	receipt, err := h.receiptService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toGoodsReceiptResponse(receipt))
}

// AddLine records an arrived quantity on a draft receipt
// POST /goods-receipts/:id/lines
func (h *GoodsReceiptHandler) AddLine(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var body GoodsReceiptLineBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	orderLineID, err := uuid.Parse(body.OrderLineID)
	if err != nil {
		h.BadRequest(c, "invalid order_line_id")
		return
	}

	receipt, err := h.receiptService.AddLine(c.Request.Context(), id, purchasingapp.GoodsReceiptLineRequest{
		OrderLineID: orderLineID,
		Quantity:    body.Quantity,
		UnitCost:    body.UnitCost,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toGoodsReceiptResponse(receipt))
}

// Confirm books the receipt: stock in, weighted-average cost update,
// and the order moves to partially received or received
// POST /goods-receipts/:id/confirm
func (h *GoodsReceiptHandler) Confirm(c *gin.Context) {
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

	receipt, err := h.receiptService.Confirm(c.Request.Context(), id, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toGoodsReceiptResponse(receipt))
}

// Cancel drops a draft receipt
// POST /goods-receipts/:id/cancel
func (h *GoodsReceiptHandler) Cancel(c *gin.Context) {
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

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	receipt, err := h.receiptService.Cancel(c.Request.Context(), id, actorID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toGoodsReceiptResponse(receipt))
}
