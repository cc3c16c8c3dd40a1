package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	inventoryapp "github.com/kardexhq/backend/internal/application/inventory"
)

// TransferHandler exposes the inter-store transfer workflow
// (draft -> submitted -> shipped -> received, or cancelled)
type TransferHandler struct {
	BaseHandler
	transferService *inventoryapp.TransferService
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(transferService *inventoryapp.TransferService) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

// TransferLineBody is one product line of a transfer
type TransferLineBody struct {
	Ref      ProductRefRequest `json:"ref" binding:"required"`
	Quantity decimal.Decimal   `json:"quantity" binding:"required"`
}

func (b TransferLineBody) toRequest() (inventoryapp.TransferLineRequest, error) {
	ref, err := b.Ref.toProductRef()
	if err != nil {
		return inventoryapp.TransferLineRequest{}, err
	}
	return inventoryapp.TransferLineRequest{ProductRef: ref, Quantity: b.Quantity}, nil
}

// CreateTransferRequest opens a draft transfer between two stores
type CreateTransferRequest struct {
	FromStoreID string             `json:"from_store_id" binding:"required,uuid"`
	ToStoreID   string             `json:"to_store_id" binding:"required,uuid"`
	Notes       string             `json:"notes"`
	Lines       []TransferLineBody `json:"lines" binding:"omitempty,dive"`
}

// ReceiveTransferLineBody fixes the arrived quantity for one line
type ReceiveTransferLineBody struct {
	LineID   string          `json:"line_id" binding:"required,uuid"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// ReceiveTransferRequest closes a shipped transfer with the quantities
// that actually arrived
type ReceiveTransferRequest struct {
	Lines []ReceiveTransferLineBody `json:"lines" binding:"required,min=1,dive"`
}

// Create opens a draft transfer
// POST /transfers
func (h *TransferHandler) Create(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, err.Error())
		return
	}

	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	fromStoreID, err := uuid.Parse(req.FromStoreID)
	if err != nil {
		h.BadRequest(c, "invalid from_store_id")
		return
	}
	toStoreID, err := uuid.Parse(req.ToStoreID)
	if err != nil {
		h.BadRequest(c, "invalid to_store_id")
		return
	}

	appReq := inventoryapp.CreateTransferRequest{
		FromStoreID: fromStoreID,
		ToStoreID:   toStoreID,
		ActorID:     actorID,
		Notes:       req.Notes,
	}
	for _, l := range req.Lines {
		lineReq, err := l.toRequest()
		if err != nil {
			h.BadRequest(c, err.Error())
			return
		}
		appReq.Lines = append(appReq.Lines, lineReq)
	}

	transfer, err := h.transferService.Create(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toTransferResponse(transfer))
}

// Get returns one transfer by id
// GET /transfers/:id
func (h *TransferHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	transfer, err := h.transferService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTransferResponse(transfer))
}

// List returns a source store's transfers, paginated
// GET /transfers?store_id=
func (h *TransferHandler) List(c *gin.Context) {
	storeID, err := parseUUIDQuery(c, "store_id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	filter := parseFilter(c)

	transfers, total, err := h.transferService.ListByStore(c.Request.Context(), storeID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toTransferResponses(transfers), total, filter.Page, filter.PageSize)
}

// AddLine adds a product line to a draft transfer
// POST /transfers/:id/lines
func (h *TransferHandler) AddLine(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var body TransferLineBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	lineReq, err := body.toRequest()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	transfer, err := h.transferService.AddLine(c.Request.Context(), id, lineReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTransferResponse(transfer))
}

// Submit moves a draft transfer into the shippable state
// POST /transfers/:id/submit
func (h *TransferHandler) Submit(c *gin.Context) {
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

	transfer, err := h.transferService.Submit(c.Request.Context(), id, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTransferResponse(transfer))
}

// Ship deducts the source store's stock and marks the goods in transit
// POST /transfers/:id/ship
func (h *TransferHandler) Ship(c *gin.Context) {
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

	transfer, err := h.transferService.Ship(c.Request.Context(), id, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTransferResponse(transfer))
}

// Receive books the arrived quantities into the destination store.
// Discrepancies against the shipped quantity are recorded, not rejected.
// POST /transfers/:id/receive
func (h *TransferHandler) Receive(c *gin.Context) {
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

	var req ReceiveTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	received := make([]inventoryapp.ReceiveTransferLineRequest, 0, len(req.Lines))
	for _, l := range req.Lines {
		lineID, err := uuid.Parse(l.LineID)
		if err != nil {
			h.BadRequest(c, "invalid line_id")
			return
		}
		received = append(received, inventoryapp.ReceiveTransferLineRequest{
			LineID:   lineID,
			Quantity: l.Quantity,
		})
	}

	transfer, err := h.transferService.Receive(c.Request.Context(), id, actorID, received)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTransferResponse(transfer))
}

// Cancel drops a transfer that has not shipped yet
// POST /transfers/:id/cancel
func (h *TransferHandler) Cancel(c *gin.Context) {
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

	transfer, err := h.transferService.Cancel(c.Request.Context(), id, actorID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTransferResponse(transfer))
}
