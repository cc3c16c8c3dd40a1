package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	purchasingapp "github.com/kardexhq/backend/internal/application/purchasing"
	"github.com/kardexhq/backend/internal/domain/purchasing"
)

// PurchaseOrderHandler exposes the purchase order workflow
// (draft -> submitted -> approved -> partially received -> received -> closed)
type PurchaseOrderHandler struct {
	BaseHandler
	orderService   *purchasingapp.PurchaseOrderService
	receiptService *purchasingapp.GoodsReceiptService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(
	orderService *purchasingapp.PurchaseOrderService,
	receiptService *purchasingapp.GoodsReceiptService,
) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orderService: orderService, receiptService: receiptService}
}

// CreatePurchaseOrderRequest opens a draft order against a vendor
type CreatePurchaseOrderRequest struct {
	StoreID  string `json:"store_id" binding:"required,uuid"`
	VendorID string `json:"vendor_id" binding:"required,uuid"`
}

// PurchaseOrderLineBody adds a product to a draft order
type PurchaseOrderLineBody struct {
	Ref      ProductRefRequest `json:"ref" binding:"required"`
	Quantity decimal.Decimal   `json:"quantity" binding:"required"`
	UnitCost decimal.Decimal   `json:"unit_cost" binding:"required"`
}

// Create opens a draft purchase order
// POST /purchase-orders
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, err.Error())
		return
	}

	var req CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		h.BadRequest(c, "invalid store_id")
		return
	}
	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		h.BadRequest(c, "invalid vendor_id")
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), purchasingapp.CreatePurchaseOrderRequest{
		StoreID:  storeID,
		VendorID: vendorID,
		ActorID:  actorID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toPurchaseOrderResponse(order))
}

// Get returns one purchase order by id
// GET /purchase-orders/:id
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPurchaseOrderResponse(order))
}

// List returns a store's or a vendor's purchase orders
// GET /purchase-orders?store_id= or ?vendor_id=
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	filter := parseFilter(c)

	if vendorIDStr := c.Query("vendor_id"); vendorIDStr != "" {
		vendorID, err := uuid.Parse(vendorIDStr)
		if err != nil {
			h.BadRequest(c, "invalid vendor_id")
			return
		}
		orders, err := h.orderService.ListByVendor(c.Request.Context(), vendorID, filter)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, toPurchaseOrderResponses(orders))
		return
	}

	storeID, err := parseUUIDQuery(c, "store_id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	orders, total, err := h.orderService.ListByStore(c.Request.Context(), storeID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toPurchaseOrderResponses(orders), total, filter.Page, filter.PageSize)
}

// AddLine adds a product to a draft order
// POST /purchase-orders/:id/lines
func (h *PurchaseOrderHandler) AddLine(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var body PurchaseOrderLineBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	ref, err := body.Ref.toProductRef()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.AddLine(c.Request.Context(), id, purchasingapp.PurchaseOrderLineRequest{
		Ref:      ref,
		Quantity: body.Quantity,
		UnitCost: body.UnitCost,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPurchaseOrderResponse(order))
}

// RemoveLine drops a line from a draft order
// DELETE /purchase-orders/:id/lines/:line_id
func (h *PurchaseOrderHandler) RemoveLine(c *gin.Context) {
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

	order, err := h.orderService.RemoveLine(c.Request.Context(), id, lineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPurchaseOrderResponse(order))
}

// Submit moves a draft order into review
// POST /purchase-orders/:id/submit
func (h *PurchaseOrderHandler) Submit(c *gin.Context) {
	h.step(c, h.orderService.Submit)
}

// Approve accepts a submitted order; it becomes receivable
// POST /purchase-orders/:id/approve
func (h *PurchaseOrderHandler) Approve(c *gin.Context) {
	h.step(c, h.orderService.Approve)
}

// Close closes a fully received order
// POST /purchase-orders/:id/close
func (h *PurchaseOrderHandler) Close(c *gin.Context) {
	h.step(c, h.orderService.Close)
}

// Reject turns a submitted order down
// POST /purchase-orders/:id/reject
func (h *PurchaseOrderHandler) Reject(c *gin.Context) {
	h.stepWithReason(c, h.orderService.Reject)
}

// Cancel drops an order before any goods arrive
// POST /purchase-orders/:id/cancel
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	h.stepWithReason(c, h.orderService.Cancel)
}

// CreateReceipt opens a draft goods receipt against a receivable order
// POST /purchase-orders/:id/receipts
func (h *PurchaseOrderHandler) CreateReceipt(c *gin.Context) {
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

	receipt, err := h.receiptService.Create(c.Request.Context(), id, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toGoodsReceiptResponse(receipt))
}

// ListReceipts returns the receipts booked against an order
// GET /purchase-orders/:id/receipts
func (h *PurchaseOrderHandler) ListReceipts(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	receipts, err := h.receiptService.ListByPurchaseOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toGoodsReceiptResponses(receipts))
}

func (h *PurchaseOrderHandler) step(
	c *gin.Context,
	action func(ctx context.Context, id, actorID uuid.UUID) (*purchasing.PurchaseOrder, error),
) {
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

	order, err := action(c.Request.Context(), id, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPurchaseOrderResponse(order))
}

func (h *PurchaseOrderHandler) stepWithReason(
	c *gin.Context,
	action func(ctx context.Context, id, actorID uuid.UUID, reason string) (*purchasing.PurchaseOrder, error),
) {
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

	order, err := action(c.Request.Context(), id, actorID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPurchaseOrderResponse(order))
}
