package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	inventoryapp "github.com/kardexhq/backend/internal/application/inventory"
	"github.com/kardexhq/backend/internal/domain/inventory"
)

// AdjustmentHandler exposes the stock adjustment workflow
// (draft -> submitted -> approved -> applied, or rejected)
type AdjustmentHandler struct {
	BaseHandler
	adjustmentService *inventoryapp.AdjustmentService
}

// NewAdjustmentHandler creates a new AdjustmentHandler
func NewAdjustmentHandler(adjustmentService *inventoryapp.AdjustmentService) *AdjustmentHandler {
	return &AdjustmentHandler{adjustmentService: adjustmentService}
}

// AdjustmentLineBody is one correction line of an adjustment
type AdjustmentLineBody struct {
	StockLineID string          `json:"stock_line_id" binding:"required,uuid"`
	Direction   string          `json:"direction" binding:"required,oneof=increase decrease"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Reason      string          `json:"reason"`
}

func (b AdjustmentLineBody) toRequest() (inventoryapp.AdjustmentLineRequest, error) {
	stockLineID, err := uuid.Parse(b.StockLineID)
	if err != nil {
		return inventoryapp.AdjustmentLineRequest{}, err
	}
	return inventoryapp.AdjustmentLineRequest{
		StockLineID: stockLineID,
		Direction:   inventory.AdjustmentDirection(b.Direction),
		Quantity:    b.Quantity,
		UnitCost:    b.UnitCost,
		Reason:      b.Reason,
	}, nil
}

// CreateAdjustmentRequest opens a draft adjustment, optionally with lines
type CreateAdjustmentRequest struct {
	StoreID string               `json:"store_id" binding:"required,uuid"`
	Reason  string               `json:"reason" binding:"required"`
	Notes   string               `json:"notes"`
	Lines   []AdjustmentLineBody `json:"lines" binding:"omitempty,dive"`
}

// AttachDocumentRequest links an uploaded object to an adjustment
type AttachDocumentRequest struct {
	ObjectKey string `json:"object_key" binding:"required"`
}

// RejectRequest carries the reason a reviewer turned a document down
type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CancelRequest carries the reason a document was cancelled
type CancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Create opens a draft adjustment
// POST /adjustments
func (h *AdjustmentHandler) Create(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, err.Error())
		return
	}

	var req CreateAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		h.BadRequest(c, "invalid store_id")
		return
	}

	appReq := inventoryapp.CreateAdjustmentRequest{
		StoreID: storeID,
		ActorID: actorID,
		Reason:  req.Reason,
		Notes:   req.Notes,
	}
	for _, l := range req.Lines {
		lineReq, err := l.toRequest()
		if err != nil {
			h.BadRequest(c, err.Error())
			return
		}
		appReq.Lines = append(appReq.Lines, lineReq)
	}

	adjustment, err := h.adjustmentService.Create(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toAdjustmentResponse(adjustment))
}

// Get returns one adjustment by id
// GET /adjustments/:id
func (h *AdjustmentHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	adjustment, err := h.adjustmentService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAdjustmentResponse(adjustment))
}

// List returns a store's adjustments, paginated
// GET /adjustments?store_id=
func (h *AdjustmentHandler) List(c *gin.Context) {
	storeID, err := parseUUIDQuery(c, "store_id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	filter := parseFilter(c)

	adjustments, total, err := h.adjustmentService.ListByStore(c.Request.Context(), storeID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toAdjustmentResponses(adjustments), total, filter.Page, filter.PageSize)
}

// AddLine adds a correction line to a draft adjustment
// POST /adjustments/:id/lines
func (h *AdjustmentHandler) AddLine(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var body AdjustmentLineBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	lineReq, err := body.toRequest()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	adjustment, err := h.adjustmentService.AddLine(c.Request.Context(), id, lineReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAdjustmentResponse(adjustment))
}

// AttachDocument links an uploaded object key to a draft adjustment.
// The upload itself goes straight to object storage via presigned URL.
// POST /adjustments/:id/attachments
func (h *AdjustmentHandler) AttachDocument(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req AttachDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.adjustmentService.AttachDocument(c.Request.Context(), id, req.ObjectKey); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Submit moves a draft adjustment into review
// POST /adjustments/:id/submit
func (h *AdjustmentHandler) Submit(c *gin.Context) {
	h.transition(c, h.adjustmentService.Submit)
}

// Approve accepts a submitted adjustment
// POST /adjustments/:id/approve
func (h *AdjustmentHandler) Approve(c *gin.Context) {
	h.transition(c, h.adjustmentService.Approve)
}

// Apply posts an approved adjustment's lines against stock
// POST /adjustments/:id/apply
func (h *AdjustmentHandler) Apply(c *gin.Context) {
	h.transition(c, h.adjustmentService.Apply)
}

// Reject turns a submitted adjustment down
// POST /adjustments/:id/reject
func (h *AdjustmentHandler) Reject(c *gin.Context) {
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

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	adjustment, err := h.adjustmentService.Reject(c.Request.Context(), id, actorID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAdjustmentResponse(adjustment))
}

func (h *AdjustmentHandler) transition(
	c *gin.Context,
	step func(ctx context.Context, id, actorID uuid.UUID) (*inventory.StockAdjustment, error),
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

	adjustment, err := step(c.Request.Context(), id, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAdjustmentResponse(adjustment))
}
