package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kardexhq/backend/internal/domain/costing"
	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/purchasing"
	"github.com/kardexhq/backend/internal/domain/sales"
	"github.com/kardexhq/backend/internal/domain/shared"
)

// AdjustmentRepository is an in-memory inventory.AdjustmentRepository
type AdjustmentRepository struct {
	mu   sync.Mutex
	docs map[uuid.UUID]inventory.StockAdjustment
}

// NewAdjustmentRepository creates an empty in-memory adjustment store
func NewAdjustmentRepository() *AdjustmentRepository {
	return &AdjustmentRepository{docs: make(map[uuid.UUID]inventory.StockAdjustment)}
}

// FindByID finds an adjustment with its lines
func (r *AdjustmentRepository) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockAdjustment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, errNotFound("adjustment")
	}
	return &doc, nil
}

// FindByStore lists a store's adjustments
func (r *AdjustmentRepository) FindByStore(_ context.Context, storeID uuid.UUID, filter shared.Filter) ([]inventory.StockAdjustment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.StockAdjustment
	for _, doc := range r.docs {
		if doc.StoreID == storeID {
			out = append(out, doc)
		}
	}
	sortByCreated(out, func(d inventory.StockAdjustment) time.Time { return d.CreatedAt })
	return paginate(out, filter), nil
}

// FindByStatus lists adjustments in a status
func (r *AdjustmentRepository) FindByStatus(_ context.Context, status inventory.AdjustmentStatus, filter shared.Filter) ([]inventory.StockAdjustment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.StockAdjustment
	for _, doc := range r.docs {
		if doc.Status == status {
			out = append(out, doc)
		}
	}
	sortByCreated(out, func(d inventory.StockAdjustment) time.Time { return d.CreatedAt })
	return paginate(out, filter), nil
}

// Save upserts a draft document
func (r *AdjustmentRepository) Save(_ context.Context, adjustment *inventory.StockAdjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[adjustment.ID] = *adjustment
	return nil
}

// SaveWithVersion persists a status change with a compare-and-swap on
// the version the caller read.
func (r *AdjustmentRepository) SaveWithVersion(_ context.Context, adjustment *inventory.StockAdjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.docs[adjustment.ID]
	if !ok {
		return errNotFound("adjustment")
	}
	if err := casCheck(stored.Version, adjustment.Version); err != nil {
		return err
	}
	r.docs[adjustment.ID] = *adjustment
	return nil
}

// CountByStore counts a store's adjustments
func (r *AdjustmentRepository) CountByStore(_ context.Context, storeID uuid.UUID, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, doc := range r.docs {
		if doc.StoreID == storeID {
			count++
		}
	}
	return count, nil
}

// TransferRepository is an in-memory inventory.TransferRepository
type TransferRepository struct {
	mu   sync.Mutex
	docs map[uuid.UUID]inventory.StockTransfer
}

// NewTransferRepository creates an empty in-memory transfer store
func NewTransferRepository() *TransferRepository {
	return &TransferRepository{docs: make(map[uuid.UUID]inventory.StockTransfer)}
}

// FindByID finds a transfer with its lines
func (r *TransferRepository) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockTransfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, errNotFound("transfer")
	}
	return &doc, nil
}

// FindByStore lists the transfers a store ships or receives
func (r *TransferRepository) FindByStore(_ context.Context, storeID uuid.UUID, filter shared.Filter) ([]inventory.StockTransfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.StockTransfer
	for _, doc := range r.docs {
		if doc.FromStoreID == storeID || doc.ToStoreID == storeID {
			out = append(out, doc)
		}
	}
	sortByCreated(out, func(d inventory.StockTransfer) time.Time { return d.CreatedAt })
	return paginate(out, filter), nil
}

// FindByStatus lists transfers in a status
func (r *TransferRepository) FindByStatus(_ context.Context, status inventory.TransferStatus, filter shared.Filter) ([]inventory.StockTransfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.StockTransfer
	for _, doc := range r.docs {
		if doc.Status == status {
			out = append(out, doc)
		}
	}
	sortByCreated(out, func(d inventory.StockTransfer) time.Time { return d.CreatedAt })
	return paginate(out, filter), nil
}

// Save upserts a draft document
func (r *TransferRepository) Save(_ context.Context, transfer *inventory.StockTransfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[transfer.ID] = *transfer
	return nil
}

// SaveWithVersion persists a status change with a compare-and-swap on
// the version the caller read.
func (r *TransferRepository) SaveWithVersion(_ context.Context, transfer *inventory.StockTransfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.docs[transfer.ID]
	if !ok {
		return errNotFound("transfer")
	}
	if err := casCheck(stored.Version, transfer.Version); err != nil {
		return err
	}
	r.docs[transfer.ID] = *transfer
	return nil
}

// CountByStore counts the transfers a store ships or receives
func (r *TransferRepository) CountByStore(_ context.Context, storeID uuid.UUID, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, doc := range r.docs {
		if doc.FromStoreID == storeID || doc.ToStoreID == storeID {
			count++
		}
	}
	return count, nil
}

// SaleRepository is an in-memory sales.SaleRepository
type SaleRepository struct {
	mu   sync.Mutex
	docs map[uuid.UUID]sales.Sale
}

// NewSaleRepository creates an empty in-memory sale store
func NewSaleRepository() *SaleRepository {
	return &SaleRepository{docs: make(map[uuid.UUID]sales.Sale)}
}

// FindByID finds a sale with its lines
func (r *SaleRepository) FindByID(_ context.Context, id uuid.UUID) (*sales.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, errNotFound("sale")
	}
	return &doc, nil
}

// FindByStore lists a store's sales
func (r *SaleRepository) FindByStore(_ context.Context, storeID uuid.UUID, filter shared.Filter) ([]sales.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sales.Sale
	for _, doc := range r.docs {
		if doc.StoreID == storeID {
			out = append(out, doc)
		}
	}
	sortByCreated(out, func(d sales.Sale) time.Time { return d.CreatedAt })
	return paginate(out, filter), nil
}

// FindByStatus lists sales in a status
func (r *SaleRepository) FindByStatus(_ context.Context, status sales.SaleStatus, filter shared.Filter) ([]sales.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sales.Sale
	for _, doc := range r.docs {
		if doc.Status == status {
			out = append(out, doc)
		}
	}
	sortByCreated(out, func(d sales.Sale) time.Time { return d.CreatedAt })
	return paginate(out, filter), nil
}

// Save upserts a draft document
func (r *SaleRepository) Save(_ context.Context, sale *sales.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[sale.ID] = *sale
	return nil
}

// SaveWithVersion persists a status change with a compare-and-swap on
// the version the caller read.
func (r *SaleRepository) SaveWithVersion(_ context.Context, sale *sales.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.docs[sale.ID]
	if !ok {
		return errNotFound("sale")
	}
	if err := casCheck(stored.Version, sale.Version); err != nil {
		return err
	}
	r.docs[sale.ID] = *sale
	return nil
}

// CountByStore counts a store's sales
func (r *SaleRepository) CountByStore(_ context.Context, storeID uuid.UUID, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, doc := range r.docs {
		if doc.StoreID == storeID {
			count++
		}
	}
	return count, nil
}

// CreditNoteRepository is an in-memory sales.CreditNoteRepository
type CreditNoteRepository struct {
	mu   sync.Mutex
	docs map[uuid.UUID]sales.CreditNote
}

// NewCreditNoteRepository creates an empty in-memory credit note store
func NewCreditNoteRepository() *CreditNoteRepository {
	return &CreditNoteRepository{docs: make(map[uuid.UUID]sales.CreditNote)}
}

// FindByID finds a credit note with its lines
func (r *CreditNoteRepository) FindByID(_ context.Context, id uuid.UUID) (*sales.CreditNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, errNotFound("credit note")
	}
	return &doc, nil
}

// FindBySale lists the notes raised against a sale
func (r *CreditNoteRepository) FindBySale(_ context.Context, saleID uuid.UUID) ([]sales.CreditNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sales.CreditNote
	for _, doc := range r.docs {
		if doc.SaleID == saleID {
			out = append(out, doc)
		}
	}
	sortByCreated(out, func(d sales.CreditNote) time.Time { return d.CreatedAt })
	return out, nil
}

// FindByStore lists a store's credit notes
func (r *CreditNoteRepository) FindByStore(_ context.Context, storeID uuid.UUID, filter shared.Filter) ([]sales.CreditNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sales.CreditNote
	for _, doc := range r.docs {
		if doc.StoreID == storeID {
			out = append(out, doc)
		}
	}
	sortByCreated(out, func(d sales.CreditNote) time.Time { return d.CreatedAt })
	return paginate(out, filter), nil
}

// Save upserts a draft document
func (r *CreditNoteRepository) Save(_ context.Context, note *sales.CreditNote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[note.ID] = *note
	return nil
}

// SaveWithVersion persists a status change with a compare-and-swap on
// the version the caller read.
func (r *CreditNoteRepository) SaveWithVersion(_ context.Context, note *sales.CreditNote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.docs[note.ID]
	if !ok {
		return errNotFound("credit note")
	}
	if err := casCheck(stored.Version, note.Version); err != nil {
		return err
	}
	r.docs[note.ID] = *note
	return nil
}

// PurchaseOrderRepository is an in-memory purchasing.PurchaseOrderRepository
type PurchaseOrderRepository struct {
	mu   sync.Mutex
	docs map[uuid.UUID]purchasing.PurchaseOrder
}

// NewPurchaseOrderRepository creates an empty in-memory order store
func NewPurchaseOrderRepository() *PurchaseOrderRepository {
	return &PurchaseOrderRepository{docs: make(map[uuid.UUID]purchasing.PurchaseOrder)}
}

// FindByID finds an order with its lines
func (r *PurchaseOrderRepository) FindByID(_ context.Context, id uuid.UUID) (*purchasing.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, errNotFound("purchase order")
	}
	return &doc, nil
}

// FindByDocumentNumber finds an order by its document number
func (r *PurchaseOrderRepository) FindByDocumentNumber(_ context.Context, number string) (*purchasing.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.docs {
		if doc.DocumentNumber == number {
			out := doc
			return &out, nil
		}
	}
	return nil, errNotFound("purchase order")
}

// FindByStore lists a store's orders
func (r *PurchaseOrderRepository) FindByStore(_ context.Context, storeID uuid.UUID, filter shared.Filter) ([]purchasing.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []purchasing.PurchaseOrder
	for _, doc := range r.docs {
		if doc.StoreID == storeID {
			out = append(out, doc)
		}
	}
	sortByCreated(out, func(d purchasing.PurchaseOrder) time.Time { return d.CreatedAt })
	return paginate(out, filter), nil
}

// FindByVendor lists the orders placed against a vendor
func (r *PurchaseOrderRepository) FindByVendor(_ context.Context, vendorID uuid.UUID, filter shared.Filter) ([]purchasing.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []purchasing.PurchaseOrder
	for _, doc := range r.docs {
		if doc.VendorID == vendorID {
			out = append(out, doc)
		}
	}
	sortByCreated(out, func(d purchasing.PurchaseOrder) time.Time { return d.CreatedAt })
	return paginate(out, filter), nil
}

// FindByStatus lists orders in a status
func (r *PurchaseOrderRepository) FindByStatus(_ context.Context, status purchasing.PurchaseOrderStatus, filter shared.Filter) ([]purchasing.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []purchasing.PurchaseOrder
	for _, doc := range r.docs {
		if doc.Status == status {
			out = append(out, doc)
		}
	}
	sortByCreated(out, func(d purchasing.PurchaseOrder) time.Time { return d.CreatedAt })
	return paginate(out, filter), nil
}

// Save upserts a draft document
func (r *PurchaseOrderRepository) Save(_ context.Context, order *purchasing.PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[order.ID] = *order
	return nil
}

// SaveWithVersion persists a status change with a compare-and-swap on
// the version the caller read.
func (r *PurchaseOrderRepository) SaveWithVersion(_ context.Context, order *purchasing.PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.docs[order.ID]
	if !ok {
		return errNotFound("purchase order")
	}
	if err := casCheck(stored.Version, order.Version); err != nil {
		return err
	}
	r.docs[order.ID] = *order
	return nil
}

// CountByStore counts a store's orders
func (r *PurchaseOrderRepository) CountByStore(_ context.Context, storeID uuid.UUID, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, doc := range r.docs {
		if doc.StoreID == storeID {
			count++
		}
	}
	return count, nil
}

// GoodsReceiptRepository is an in-memory purchasing.GoodsReceiptRepository
type GoodsReceiptRepository struct {
	mu   sync.Mutex
	docs map[uuid.UUID]purchasing.GoodsReceipt
}

// NewGoodsReceiptRepository creates an empty in-memory receipt store
func NewGoodsReceiptRepository() *GoodsReceiptRepository {
	return &GoodsReceiptRepository{docs: make(map[uuid.UUID]purchasing.GoodsReceipt)}
}

// FindByID finds a receipt with its lines
func (r *GoodsReceiptRepository) FindByID(_ context.Context, id uuid.UUID) (*purchasing.GoodsReceipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, errNotFound("goods receipt")
	}
	return &doc, nil
}

// FindByPurchaseOrder lists the receipts recorded against an order
func (r *GoodsReceiptRepository) FindByPurchaseOrder(_ context.Context, purchaseOrderID uuid.UUID) ([]purchasing.GoodsReceipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []purchasing.GoodsReceipt
	for _, doc := range r.docs {
		if doc.PurchaseOrderID == purchaseOrderID {
			out = append(out, doc)
		}
	}
	sortByCreated(out, func(d purchasing.GoodsReceipt) time.Time { return d.CreatedAt })
	return out, nil
}

// Save upserts a draft document
func (r *GoodsReceiptRepository) Save(_ context.Context, receipt *purchasing.GoodsReceipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[receipt.ID] = *receipt
	return nil
}

// SaveWithVersion persists a status change with a compare-and-swap on
// the version the caller read.
func (r *GoodsReceiptRepository) SaveWithVersion(_ context.Context, receipt *purchasing.GoodsReceipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.docs[receipt.ID]
	if !ok {
		return errNotFound("goods receipt")
	}
	if err := casCheck(stored.Version, receipt.Version); err != nil {
		return err
	}
	r.docs[receipt.ID] = *receipt
	return nil
}

// RecipeRepository is an in-memory costing.RecipeRepository
type RecipeRepository struct {
	mu      sync.Mutex
	recipes map[uuid.UUID]costing.Recipe
}

// NewRecipeRepository creates an empty in-memory recipe store
func NewRecipeRepository() *RecipeRepository {
	return &RecipeRepository{recipes: make(map[uuid.UUID]costing.Recipe)}
}

// FindByID finds a recipe with its ingredient tree
func (r *RecipeRepository) FindByID(_ context.Context, id uuid.UUID) (*costing.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	recipe, ok := r.recipes[id]
	if !ok {
		return nil, errNotFound("recipe")
	}
	return &recipe, nil
}

// FindActiveByRef finds the active recipe for a product or variant
func (r *RecipeRepository) FindActiveByRef(_ context.Context, ref inventory.ProductRef) (*costing.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, recipe := range r.recipes {
		if recipe.Active && recipe.Ref.Equals(ref) {
			out := recipe
			return &out, nil
		}
	}
	return nil, errNotFound("active recipe")
}

// FindByRef lists every recipe version for a product or variant
func (r *RecipeRepository) FindByRef(_ context.Context, ref inventory.ProductRef, filter shared.Filter) ([]costing.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []costing.Recipe
	for _, recipe := range r.recipes {
		if recipe.Ref.Equals(ref) {
			out = append(out, recipe)
		}
	}
	sortByCreated(out, func(rec costing.Recipe) time.Time { return rec.CreatedAt })
	return paginate(out, filter), nil
}

// Save upserts a recipe with its ingredient tree
func (r *RecipeRepository) Save(_ context.Context, recipe *costing.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recipes[recipe.ID] = *recipe
	return nil
}

// SaveWithVersion persists an activation change with a compare-and-swap
// on the version the caller read.
func (r *RecipeRepository) SaveWithVersion(_ context.Context, recipe *costing.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.recipes[recipe.ID]
	if !ok {
		return errNotFound("recipe")
	}
	if err := casCheck(stored.Version, recipe.Version); err != nil {
		return err
	}
	r.recipes[recipe.ID] = *recipe
	return nil
}

// Delete removes a recipe and its ingredient tree
func (r *RecipeRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recipes[id]; !ok {
		return errNotFound("recipe")
	}
	delete(r.recipes, id)
	return nil
}

var (
	_ inventory.StockLineRepository      = (*StockLineRepository)(nil)
	_ inventory.MovementRepository       = (*MovementRepository)(nil)
	_ inventory.ReservationRepository    = (*ReservationRepository)(nil)
	_ inventory.AdjustmentRepository     = (*AdjustmentRepository)(nil)
	_ inventory.TransferRepository       = (*TransferRepository)(nil)
	_ sales.SaleRepository               = (*SaleRepository)(nil)
	_ sales.CreditNoteRepository         = (*CreditNoteRepository)(nil)
	_ purchasing.PurchaseOrderRepository = (*PurchaseOrderRepository)(nil)
	_ purchasing.GoodsReceiptRepository  = (*GoodsReceiptRepository)(nil)
	_ costing.RecipeRepository           = (*RecipeRepository)(nil)
)
