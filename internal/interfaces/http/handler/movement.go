package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	inventoryapp "github.com/kardexhq/backend/internal/application/inventory"
	"github.com/kardexhq/backend/internal/domain/inventory"
)

// MovementHandler exposes the Kardex: the append-only movement ledger
type MovementHandler struct {
	BaseHandler
	movementService *inventoryapp.MovementService
}

// NewMovementHandler creates a new MovementHandler
func NewMovementHandler(movementService *inventoryapp.MovementService) *MovementHandler {
	return &MovementHandler{movementService: movementService}
}

// ListByStockLine returns a stock line's movements oldest-first. With
// from/to query parameters the listing is restricted to that period.
// GET /stock-lines/:id/movements?from=&to=
func (h *MovementHandler) ListByStockLine(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	filter := parseFilter(c)

	fromStr, toStr := c.Query("from"), c.Query("to")
	if fromStr != "" || toStr != "" {
		from, to, err := parsePeriod(fromStr, toStr)
		if err != nil {
			h.BadRequest(c, err.Error())
			return
		}
		movements, err := h.movementService.ListByPeriod(c.Request.Context(), id, from, to, filter)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, movements)
		return
	}

	movements, total, err := h.movementService.ListByStockLine(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, movements, total, filter.Page, filter.PageSize)
}

// ListByReference returns every movement a source document produced
// GET /movements?reference_type=&reference_id=
func (h *MovementHandler) ListByReference(c *gin.Context) {
	refType := inventory.ReferenceType(c.Query("reference_type"))
	if refType == "" {
		h.BadRequest(c, "reference_type is required")
		return
	}
	refID, err := parseUUIDQuery(c, "reference_id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	movements, err := h.movementService.ListByReference(c.Request.Context(), refType, refID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, movements)
}

// VerifyLedger replays a line's movements from zero and reports whether
// they reproduce the current on-hand quantity
// GET /stock-lines/:id/ledger
func (h *MovementHandler) VerifyLedger(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	report, err := h.movementService.VerifyLedger(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// parsePeriod parses the from/to bounds of a Kardex period query.
// A missing bound defaults to the epoch or to now.
func parsePeriod(fromStr, toStr string) (time.Time, time.Time, error) {
	from := time.Time{}
	to := time.Now().UTC()

	if fromStr != "" {
		t, err := parseDateTime(fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = t
	}
	if toStr != "" {
		t, err := parseDateTime(toStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = t
	}
	return from, to, nil
}
