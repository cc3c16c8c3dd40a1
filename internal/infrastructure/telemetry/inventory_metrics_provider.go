// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInventoryMetricsProvider implements InventoryMetricsProvider using GORM.
// It queries the stock_lines table directly for aggregated metrics.
type GormInventoryMetricsProvider struct {
	db *gorm.DB
}

// NewGormInventoryMetricsProvider creates a new GormInventoryMetricsProvider.
func NewGormInventoryMetricsProvider(db *gorm.DB) *GormInventoryMetricsProvider {
	return &GormInventoryMetricsProvider{db: db}
}

// GetReservedQuantity returns total reserved quantity for a store.
func (p *GormInventoryMetricsProvider) GetReservedQuantity(ctx context.Context, storeID uuid.UUID) (float64, error) {
	var reserved float64
	err := p.db.WithContext(ctx).
		Table("stock_lines").
		Select("COALESCE(SUM(reserved_quantity), 0)").
		Where("store_id = ?", storeID).
		Scan(&reserved).Error

	return reserved, err
}

// GetLowStockCount returns how many stock lines sit at or below their
// minimum stock level for a store.
func (p *GormInventoryMetricsProvider) GetLowStockCount(ctx context.Context, storeID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("stock_lines").
		Where("store_id = ?", storeID).
		Where("min_stock_level > 0 AND (quantity - reserved_quantity) <= min_stock_level").
		Count(&count).Error

	return count, err
}

// GormStoreProvider implements StoreProvider using GORM.
type GormStoreProvider struct {
	db *gorm.DB
}

// NewGormStoreProvider creates a new GormStoreProvider.
func NewGormStoreProvider(db *gorm.DB) *GormStoreProvider {
	return &GormStoreProvider{db: db}
}

// GetActiveStoreIDs returns every store that holds at least one stock line.
func (p *GormStoreProvider) GetActiveStoreIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("stock_lines").
		Distinct("store_id").
		Find(&ids).Error

	return ids, err
}
