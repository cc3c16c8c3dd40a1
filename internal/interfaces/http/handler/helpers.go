package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/interfaces/http/dto"
)

// parseUUIDParam parses a uuid path parameter
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return id, nil
}

// parseUUIDQuery parses a required uuid query parameter
func parseUUIDQuery(c *gin.Context, name string) (uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%s is required", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return id, nil
}

// parseFilter builds a list filter from the common query parameters,
// falling back to defaults for anything absent
func parseFilter(c *gin.Context) shared.Filter {
	filter := shared.DefaultFilter()

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		return filter
	}
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	filter.Search = req.Search
	return filter
}

// parseDateTime parses a datetime string in various formats
func parseDateTime(s string) (time.Time, error) {
	// Try RFC3339 first
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	// Try ISO date format
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	// Try datetime without timezone
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t, nil
	}
	// Default to RFC3339 parsing error
	return time.Parse(time.RFC3339, s)
}

// ProductRefRequest identifies a product or a variant in request bodies
type ProductRefRequest struct {
	Kind string `json:"kind" binding:"required,oneof=product variant"`
	ID   string `json:"id" binding:"required,uuid"`
}

// toProductRef converts a request ref into the domain value object
func (r ProductRefRequest) toProductRef() (inventory.ProductRef, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return inventory.ProductRef{}, err
	}
	if r.Kind == string(inventory.RefKindVariant) {
		return inventory.NewVariantRef(id)
	}
	return inventory.NewProductRef(id)
}

// parseProductRefQuery builds a product ref from ref_kind/ref_id query
// parameters. An absent kind defaults to product.
func parseProductRefQuery(c *gin.Context) (inventory.ProductRef, error) {
	id, err := parseUUIDQuery(c, "ref_id")
	if err != nil {
		return inventory.ProductRef{}, err
	}
	kind := c.DefaultQuery("ref_kind", string(inventory.RefKindProduct))
	if kind == string(inventory.RefKindVariant) {
		return inventory.NewVariantRef(id)
	}
	if kind != string(inventory.RefKindProduct) {
		return inventory.ProductRef{}, fmt.Errorf("invalid ref_kind %q", kind)
	}
	return inventory.NewProductRef(id)
}

// parseDecimal parses a decimal from its string form
func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
