package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	salesapp "github.com/kardexhq/backend/internal/application/sales"
	"github.com/kardexhq/backend/internal/domain/sales"
)

// CreditNoteHandler exposes the credit note workflow
// (draft -> submitted -> approved -> applied, or cancelled)
type CreditNoteHandler struct {
	BaseHandler
	creditNoteService *salesapp.CreditNoteService
}

// NewCreditNoteHandler creates a new CreditNoteHandler
func NewCreditNoteHandler(creditNoteService *salesapp.CreditNoteService) *CreditNoteHandler {
	return &CreditNoteHandler{creditNoteService: creditNoteService}
}

// CreditNoteLineBody credits part of a sale line
type CreditNoteLineBody struct {
	SaleLineID string          `json:"sale_line_id" binding:"required,uuid"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
	Restock    bool            `json:"restock"`
	Reason     string          `json:"reason"`
}

// Get returns one credit note by id
// GET /credit-notes/:id
func (h *CreditNoteHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	note, err := h.creditNoteService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCreditNoteResponse(note))
}

// AddLine credits part of a sale line on a draft note
// POST /credit-notes/:id/lines
func (h *CreditNoteHandler) AddLine(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var body CreditNoteLineBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	saleLineID, err := uuid.Parse(body.SaleLineID)
	if err != nil {
		h.BadRequest(c, "invalid sale_line_id")
		return
	}

	note, err := h.creditNoteService.AddLine(c.Request.Context(), id, salesapp.CreditNoteLineRequest{
		SaleLineID: saleLineID,
		Quantity:   body.Quantity,
		Restock:    body.Restock,
		Reason:     body.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCreditNoteResponse(note))
}

// Submit moves a draft note into review
// POST /credit-notes/:id/submit
func (h *CreditNoteHandler) Submit(c *gin.Context) {
	h.step(c, h.creditNoteService.Submit)
}

// Approve accepts a submitted note
// POST /credit-notes/:id/approve
func (h *CreditNoteHandler) Approve(c *gin.Context) {
	h.step(c, h.creditNoteService.Approve)
}

// Apply posts the note: restock lines go back on the shelf
// POST /credit-notes/:id/apply
func (h *CreditNoteHandler) Apply(c *gin.Context) {
	h.step(c, h.creditNoteService.Apply)
}

// Cancel drops a note before it is applied
// POST /credit-notes/:id/cancel
func (h *CreditNoteHandler) Cancel(c *gin.Context) {
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

	note, err := h.creditNoteService.Cancel(c.Request.Context(), id, actorID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCreditNoteResponse(note))
}

func (h *CreditNoteHandler) step(
	c *gin.Context,
	action func(ctx context.Context, id, actorID uuid.UUID) (*sales.CreditNote, error),
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

	note, err := action(c.Request.Context(), id, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCreditNoteResponse(note))
}
