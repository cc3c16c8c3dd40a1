package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/costing"
	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/purchasing"
	"github.com/kardexhq/backend/internal/domain/sales"
)

// Response views for the workflow documents. Domain aggregates stay
// behind these so the wire format does not change when the aggregates
// grow fields.

// AdjustmentLineResponse is one correction line of an adjustment
type AdjustmentLineResponse struct {
	ID            uuid.UUID                     `json:"id"`
	StockLineID   uuid.UUID                     `json:"stock_line_id"`
	Direction     inventory.AdjustmentDirection `json:"direction"`
	Quantity      decimal.Decimal               `json:"quantity"`
	UnitCost      decimal.Decimal               `json:"unit_cost"`
	BalanceBefore *decimal.Decimal              `json:"balance_before,omitempty"`
	BalanceAfter  *decimal.Decimal              `json:"balance_after,omitempty"`
	Reason        string                        `json:"reason,omitempty"`
}

// AdjustmentResponse is the API view of a stock adjustment
type AdjustmentResponse struct {
	ID             uuid.UUID                  `json:"id"`
	DocumentNumber string                     `json:"document_number"`
	StoreID        uuid.UUID                  `json:"store_id"`
	Status         inventory.AdjustmentStatus `json:"status"`
	Reason         string                     `json:"reason"`
	Notes          string                     `json:"notes,omitempty"`
	Attachments    []string                   `json:"attachments,omitempty"`
	Lines          []AdjustmentLineResponse   `json:"lines"`
	CreatedBy      uuid.UUID                  `json:"created_by"`
	AppliedBy      *uuid.UUID                 `json:"applied_by,omitempty"`
	AppliedAt      *time.Time                 `json:"applied_at,omitempty"`
	RejectReason   string                     `json:"reject_reason,omitempty"`
	CreatedAt      time.Time                  `json:"created_at"`
	UpdatedAt      time.Time                  `json:"updated_at"`
	Version        int                        `json:"version"`
}

func toAdjustmentResponse(a *inventory.StockAdjustment) AdjustmentResponse {
	lines := make([]AdjustmentLineResponse, 0, len(a.Items))
	for _, l := range a.Items {
		lines = append(lines, AdjustmentLineResponse{
			ID:            l.ID,
			StockLineID:   l.StockLineID,
			Direction:     l.Direction,
			Quantity:      l.Quantity,
			UnitCost:      l.UnitCost,
			BalanceBefore: l.BalanceBefore,
			BalanceAfter:  l.BalanceAfter,
			Reason:        l.Reason,
		})
	}
	return AdjustmentResponse{
		ID:             a.ID,
		DocumentNumber: a.DocumentNumber,
		StoreID:        a.StoreID,
		Status:         a.Status,
		Reason:         a.Reason,
		Notes:          a.Notes,
		Attachments:    a.Attachments,
		Lines:          lines,
		CreatedBy:      a.CreatedBy,
		AppliedBy:      a.AppliedBy,
		AppliedAt:      a.AppliedAt,
		RejectReason:   a.RejectReason,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
		Version:        a.Version,
	}
}

func toAdjustmentResponses(items []inventory.StockAdjustment) []AdjustmentResponse {
	out := make([]AdjustmentResponse, 0, len(items))
	for i := range items {
		out = append(out, toAdjustmentResponse(&items[i]))
	}
	return out
}

// TransferLineResponse is one product line of a transfer
type TransferLineResponse struct {
	ID               uuid.UUID            `json:"id"`
	ProductRef       inventory.ProductRef `json:"product_ref"`
	Quantity         decimal.Decimal      `json:"quantity"`
	QuantityShipped  decimal.Decimal      `json:"quantity_shipped"`
	QuantityReceived *decimal.Decimal     `json:"quantity_received,omitempty"`
	UnitCost         decimal.Decimal      `json:"unit_cost"`
}

// TransferResponse is the API view of a stock transfer
type TransferResponse struct {
	ID             uuid.UUID                `json:"id"`
	DocumentNumber string                   `json:"document_number"`
	FromStoreID    uuid.UUID                `json:"from_store_id"`
	ToStoreID      uuid.UUID                `json:"to_store_id"`
	Status         inventory.TransferStatus `json:"status"`
	Notes          string                   `json:"notes,omitempty"`
	Lines          []TransferLineResponse   `json:"lines"`
	CreatedBy      uuid.UUID                `json:"created_by"`
	ShippedAt      *time.Time               `json:"shipped_at,omitempty"`
	ReceivedAt     *time.Time               `json:"received_at,omitempty"`
	CancelReason   string                   `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
	Version        int                      `json:"version"`
}

func toTransferResponse(t *inventory.StockTransfer) TransferResponse {
	lines := make([]TransferLineResponse, 0, len(t.Items))
	for _, l := range t.Items {
		lines = append(lines, TransferLineResponse{
			ID:               l.ID,
			ProductRef:       l.ProductRef,
			Quantity:         l.Quantity,
			QuantityShipped:  l.QuantityShipped,
			QuantityReceived: l.QuantityReceived,
			UnitCost:         l.UnitCost,
		})
	}
	return TransferResponse{
		ID:             t.ID,
		DocumentNumber: t.DocumentNumber,
		FromStoreID:    t.FromStoreID,
		ToStoreID:      t.ToStoreID,
		Status:         t.Status,
		Notes:          t.Notes,
		Lines:          lines,
		CreatedBy:      t.CreatedBy,
		ShippedAt:      t.ShippedAt,
		ReceivedAt:     t.ReceivedAt,
		CancelReason:   t.CancelReason,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		Version:        t.Version,
	}
}

func toTransferResponses(items []inventory.StockTransfer) []TransferResponse {
	out := make([]TransferResponse, 0, len(items))
	for i := range items {
		out = append(out, toTransferResponse(&items[i]))
	}
	return out
}

// SaleLineResponse is one sold line of a sale
type SaleLineResponse struct {
	ID             uuid.UUID            `json:"id"`
	ProductRef     inventory.ProductRef `json:"product_ref"`
	StockLineID    uuid.UUID            `json:"stock_line_id"`
	ReservationID  *uuid.UUID           `json:"reservation_id,omitempty"`
	Quantity       decimal.Decimal      `json:"quantity"`
	UnitPrice      decimal.Decimal      `json:"unit_price"`
	DiscountAmount decimal.Decimal      `json:"discount_amount"`
	TaxAmount      decimal.Decimal      `json:"tax_amount"`
	LineTotal      decimal.Decimal      `json:"line_total"`
}

// SaleResponse is the API view of a sale
type SaleResponse struct {
	ID             uuid.UUID          `json:"id"`
	DocumentNumber string             `json:"document_number"`
	StoreID        uuid.UUID          `json:"store_id"`
	CustomerID     *uuid.UUID         `json:"customer_id,omitempty"`
	Status         sales.SaleStatus   `json:"status"`
	Lines          []SaleLineResponse `json:"lines"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	DiscountTotal  decimal.Decimal    `json:"discount_total"`
	TaxTotal       decimal.Decimal    `json:"tax_total"`
	Total          decimal.Decimal    `json:"total"`
	Notes          string             `json:"notes,omitempty"`
	CreatedBy      uuid.UUID          `json:"created_by"`
	CompletedAt    *time.Time         `json:"completed_at,omitempty"`
	VoidedAt       *time.Time         `json:"voided_at,omitempty"`
	VoidReason     string             `json:"void_reason,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	Version        int                `json:"version"`
}

func toSaleResponse(s *sales.Sale) SaleResponse {
	lines := make([]SaleLineResponse, 0, len(s.Items))
	for _, l := range s.Items {
		lines = append(lines, SaleLineResponse{
			ID:             l.ID,
			ProductRef:     l.ProductRef,
			StockLineID:    l.StockLineID,
			ReservationID:  l.ReservationID,
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			DiscountAmount: l.DiscountAmount,
			TaxAmount:      l.TaxAmount,
			LineTotal:      l.LineTotal,
		})
	}
	return SaleResponse{
		ID:             s.ID,
		DocumentNumber: s.DocumentNumber,
		StoreID:        s.StoreID,
		CustomerID:     s.CustomerID,
		Status:         s.Status,
		Lines:          lines,
		Subtotal:       s.Subtotal,
		DiscountTotal:  s.DiscountTotal,
		TaxTotal:       s.TaxTotal,
		Total:          s.Total,
		Notes:          s.Notes,
		CreatedBy:      s.CreatedBy,
		CompletedAt:    s.CompletedAt,
		VoidedAt:       s.VoidedAt,
		VoidReason:     s.VoidReason,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
		Version:        s.Version,
	}
}

func toSaleResponses(items []sales.Sale) []SaleResponse {
	out := make([]SaleResponse, 0, len(items))
	for i := range items {
		out = append(out, toSaleResponse(&items[i]))
	}
	return out
}

// CreditNoteLineResponse is one credited line of a credit note
type CreditNoteLineResponse struct {
	ID         uuid.UUID            `json:"id"`
	SaleLineID uuid.UUID            `json:"sale_line_id"`
	ProductRef inventory.ProductRef `json:"product_ref"`
	Quantity   decimal.Decimal      `json:"quantity"`
	UnitPrice  decimal.Decimal      `json:"unit_price"`
	Amount     decimal.Decimal      `json:"amount"`
	Restock    bool                 `json:"restock"`
	Reason     string               `json:"reason,omitempty"`
}

// CreditNoteResponse is the API view of a credit note
type CreditNoteResponse struct {
	ID             uuid.UUID                `json:"id"`
	DocumentNumber string                   `json:"document_number"`
	SaleID         uuid.UUID                `json:"sale_id"`
	StoreID        uuid.UUID                `json:"store_id"`
	Status         sales.CreditNoteStatus   `json:"status"`
	Lines          []CreditNoteLineResponse `json:"lines"`
	Total          decimal.Decimal          `json:"total"`
	Reason         string                   `json:"reason,omitempty"`
	CreatedBy      uuid.UUID                `json:"created_by"`
	AppliedAt      *time.Time               `json:"applied_at,omitempty"`
	CancelReason   string                   `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
	Version        int                      `json:"version"`
}

func toCreditNoteResponse(n *sales.CreditNote) CreditNoteResponse {
	lines := make([]CreditNoteLineResponse, 0, len(n.Items))
	for _, l := range n.Items {
		lines = append(lines, CreditNoteLineResponse{
			ID:         l.ID,
			SaleLineID: l.SaleLineID,
			ProductRef: l.ProductRef,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			Amount:     l.Amount,
			Restock:    l.Restock,
			Reason:     l.Reason,
		})
	}
	return CreditNoteResponse{
		ID:             n.ID,
		DocumentNumber: n.DocumentNumber,
		SaleID:         n.SaleID,
		StoreID:        n.StoreID,
		Status:         n.Status,
		Lines:          lines,
		Total:          n.Total,
		Reason:         n.Reason,
		CreatedBy:      n.CreatedBy,
		AppliedAt:      n.AppliedAt,
		CancelReason:   n.CancelReason,
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.UpdatedAt,
		Version:        n.Version,
	}
}

func toCreditNoteResponses(items []sales.CreditNote) []CreditNoteResponse {
	out := make([]CreditNoteResponse, 0, len(items))
	for i := range items {
		out = append(out, toCreditNoteResponse(&items[i]))
	}
	return out
}

// PurchaseOrderLineResponse is one ordered line of a purchase order
type PurchaseOrderLineResponse struct {
	ID               uuid.UUID            `json:"id"`
	ProductRef       inventory.ProductRef `json:"product_ref"`
	QuantityOrdered  decimal.Decimal      `json:"quantity_ordered"`
	QuantityReceived decimal.Decimal      `json:"quantity_received"`
	UnitCost         decimal.Decimal      `json:"unit_cost"`
	LineTotal        decimal.Decimal      `json:"line_total"`
}

// PurchaseOrderResponse is the API view of a purchase order
type PurchaseOrderResponse struct {
	ID             uuid.UUID                      `json:"id"`
	DocumentNumber string                         `json:"document_number"`
	StoreID        uuid.UUID                      `json:"store_id"`
	VendorID       uuid.UUID                      `json:"vendor_id"`
	Status         purchasing.PurchaseOrderStatus `json:"status"`
	Lines          []PurchaseOrderLineResponse    `json:"lines"`
	Total          decimal.Decimal                `json:"total"`
	Notes          string                         `json:"notes,omitempty"`
	CreatedBy      uuid.UUID                      `json:"created_by"`
	ApprovedAt     *time.Time                     `json:"approved_at,omitempty"`
	ReceivedAt     *time.Time                     `json:"received_at,omitempty"`
	RejectReason   string                         `json:"reject_reason,omitempty"`
	CancelReason   string                         `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time                      `json:"created_at"`
	UpdatedAt      time.Time                      `json:"updated_at"`
	Version        int                            `json:"version"`
}

func toPurchaseOrderResponse(o *purchasing.PurchaseOrder) PurchaseOrderResponse {
	lines := make([]PurchaseOrderLineResponse, 0, len(o.Items))
	for _, l := range o.Items {
		lines = append(lines, PurchaseOrderLineResponse{
			ID:               l.ID,
			ProductRef:       l.ProductRef,
			QuantityOrdered:  l.QuantityOrdered,
			QuantityReceived: l.QuantityReceived,
			UnitCost:         l.UnitCost,
			LineTotal:        l.LineTotal,
		})
	}
	return PurchaseOrderResponse{
		ID:             o.ID,
		DocumentNumber: o.DocumentNumber,
		StoreID:        o.StoreID,
		VendorID:       o.VendorID,
		Status:         o.Status,
		Lines:          lines,
		Total:          o.Total,
		Notes:          o.Notes,
		CreatedBy:      o.CreatedBy,
		ApprovedAt:     o.ApprovedAt,
		ReceivedAt:     o.ReceivedAt,
		RejectReason:   o.RejectReason,
		CancelReason:   o.CancelReason,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
		Version:        o.Version,
	}
}

func toPurchaseOrderResponses(items []purchasing.PurchaseOrder) []PurchaseOrderResponse {
	out := make([]PurchaseOrderResponse, 0, len(items))
	for i := range items {
		out = append(out, toPurchaseOrderResponse(&items[i]))
	}
	return out
}

// GoodsReceiptLineResponse is one delivered line of a goods receipt
type GoodsReceiptLineResponse struct {
	ID               uuid.UUID            `json:"id"`
	OrderLineID      uuid.UUID            `json:"order_line_id"`
	ProductRef       inventory.ProductRef `json:"product_ref"`
	QuantityReceived decimal.Decimal      `json:"quantity_received"`
	UnitCost         decimal.Decimal      `json:"unit_cost"`
}

// GoodsReceiptResponse is the API view of a goods receipt
type GoodsReceiptResponse struct {
	ID              uuid.UUID                     `json:"id"`
	DocumentNumber  string                        `json:"document_number"`
	PurchaseOrderID uuid.UUID                     `json:"purchase_order_id"`
	StoreID         uuid.UUID                     `json:"store_id"`
	Status          purchasing.GoodsReceiptStatus `json:"status"`
	Lines           []GoodsReceiptLineResponse    `json:"lines"`
	Notes           string                        `json:"notes,omitempty"`
	CreatedBy       uuid.UUID                     `json:"created_by"`
	ConfirmedAt     *time.Time                    `json:"confirmed_at,omitempty"`
	CancelReason    string                        `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time                     `json:"created_at"`
	UpdatedAt       time.Time                     `json:"updated_at"`
	Version         int                           `json:"version"`
}

func toGoodsReceiptResponse(r *purchasing.GoodsReceipt) GoodsReceiptResponse {
	lines := make([]GoodsReceiptLineResponse, 0, len(r.Items))
	for _, l := range r.Items {
		lines = append(lines, GoodsReceiptLineResponse{
			ID:               l.ID,
			OrderLineID:      l.OrderLineID,
			ProductRef:       l.ProductRef,
			QuantityReceived: l.QuantityReceived,
			UnitCost:         l.UnitCost,
		})
	}
	return GoodsReceiptResponse{
		ID:              r.ID,
		DocumentNumber:  r.DocumentNumber,
		PurchaseOrderID: r.PurchaseOrderID,
		StoreID:         r.StoreID,
		Status:          r.Status,
		Lines:           lines,
		Notes:           r.Notes,
		CreatedBy:       r.CreatedBy,
		ConfirmedAt:     r.ConfirmedAt,
		CancelReason:    r.CancelReason,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		Version:         r.Version,
	}
}

func toGoodsReceiptResponses(items []purchasing.GoodsReceipt) []GoodsReceiptResponse {
	out := make([]GoodsReceiptResponse, 0, len(items))
	for i := range items {
		out = append(out, toGoodsReceiptResponse(&items[i]))
	}
	return out
}

// SubstituteResponse is a ranked alternative for a recipe ingredient
type SubstituteResponse struct {
	ID              uuid.UUID            `json:"id"`
	Ref             inventory.ProductRef `json:"ref"`
	Priority        int                  `json:"priority"`
	ConversionRatio decimal.Decimal      `json:"conversion_ratio"`
}

// IngredientLineResponse is one component of a recipe
type IngredientLineResponse struct {
	ID              uuid.UUID            `json:"id"`
	Ref             inventory.ProductRef `json:"ref"`
	Quantity        decimal.Decimal      `json:"quantity"`
	Unit            string               `json:"unit"`
	WastePercentage decimal.Decimal      `json:"waste_percentage"`
	Optional        bool                 `json:"optional"`
	Substitutes     []SubstituteResponse `json:"substitutes,omitempty"`
}

// RecipeResponse is the API view of a recipe
type RecipeResponse struct {
	ID            uuid.UUID                `json:"id"`
	Ref           inventory.ProductRef     `json:"ref"`
	Name          string                   `json:"name"`
	YieldQuantity decimal.Decimal          `json:"yield_quantity"`
	Active        bool                     `json:"active"`
	Ingredients   []IngredientLineResponse `json:"ingredients"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
	Version       int                      `json:"version"`
}

func toRecipeResponse(r *costing.Recipe) RecipeResponse {
	ingredients := make([]IngredientLineResponse, 0, len(r.Ingredients))
	for _, line := range r.Ingredients {
		subs := make([]SubstituteResponse, 0, len(line.Substitutes))
		for _, s := range line.Substitutes {
			subs = append(subs, SubstituteResponse{
				ID:              s.ID,
				Ref:             s.Ref,
				Priority:        s.Priority,
				ConversionRatio: s.ConversionRatio,
			})
		}
		ingredients = append(ingredients, IngredientLineResponse{
			ID:              line.ID,
			Ref:             line.Ref,
			Quantity:        line.Quantity.Amount(),
			Unit:            line.Quantity.Unit(),
			WastePercentage: line.WastePercentage,
			Optional:        line.Optional,
			Substitutes:     subs,
		})
	}
	return RecipeResponse{
		ID:            r.ID,
		Ref:           r.Ref,
		Name:          r.Name,
		YieldQuantity: r.YieldQuantity,
		Active:        r.Active,
		Ingredients:   ingredients,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		Version:       r.Version,
	}
}

func toRecipeResponses(items []costing.Recipe) []RecipeResponse {
	out := make([]RecipeResponse, 0, len(items))
	for i := range items {
		out = append(out, toRecipeResponse(&items[i]))
	}
	return out
}
