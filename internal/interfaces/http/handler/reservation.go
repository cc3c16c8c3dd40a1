package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	inventoryapp "github.com/kardexhq/backend/internal/application/inventory"
	"github.com/kardexhq/backend/internal/domain/inventory"
)

// ReservationHandler exposes TTL stock holds
type ReservationHandler struct {
	BaseHandler
	reservationService *inventoryapp.ReservationService
}

// NewReservationHandler creates a new ReservationHandler
func NewReservationHandler(reservationService *inventoryapp.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService}
}

// CreateReservationRequest places a hold on a stock line. TTLSeconds of
// zero uses the service default.
type CreateReservationRequest struct {
	StockLineID   string          `json:"stock_line_id" binding:"required,uuid"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	ReferenceType string          `json:"reference_type" binding:"required"`
	ReferenceID   string          `json:"reference_id" binding:"required,uuid"`
	TTLSeconds    int             `json:"ttl_seconds" binding:"omitempty,min=1"`
}

// Create places a hold against a stock line's available quantity
// POST /reservations
func (h *ReservationHandler) Create(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, err.Error())
		return
	}

	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	stockLineID, err := uuid.Parse(req.StockLineID)
	if err != nil {
		h.BadRequest(c, "invalid stock_line_id")
		return
	}
	referenceID, err := uuid.Parse(req.ReferenceID)
	if err != nil {
		h.BadRequest(c, "invalid reference_id")
		return
	}

	reservation, err := h.reservationService.Create(c.Request.Context(), inventoryapp.CreateReservationRequest{
		StockLineID:   stockLineID,
		Quantity:      req.Quantity,
		ReferenceType: inventory.ReferenceType(req.ReferenceType),
		ReferenceID:   referenceID,
		TTL:           time.Duration(req.TTLSeconds) * time.Second,
		ActorID:       actorID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, reservation)
}

// Get returns one reservation by id
// GET /reservations/:id
func (h *ReservationHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	reservation, err := h.reservationService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, reservation)
}

// Confirm marks a hold as claimed by its owning workflow
// POST /reservations/:id/confirm
func (h *ReservationHandler) Confirm(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	reservation, err := h.reservationService.Confirm(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, reservation)
}

// Cancel releases a hold and returns its quantity to available
// POST /reservations/:id/cancel
func (h *ReservationHandler) Cancel(c *gin.Context) {
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

	reservation, err := h.reservationService.Cancel(c.Request.Context(), id, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, reservation)
}
