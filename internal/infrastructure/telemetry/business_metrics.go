// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides domain metrics for the stock ledger engine.
// It tracks workflow activity, ledger growth and inventory health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	workflowSubmittedTotal  *Counter
	movementAppendedTotal   *Counter
	reservationExpiredTotal *Counter
	versionConflictTotal    *Counter

	// Gauge metrics (point-in-time values)
	reservedQuantity *FloatGauge
	lowStockCount    *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	inventoryProvider InventoryMetricsProvider
}

// InventoryMetricsProvider provides inventory data for periodic metrics
// collection. The interface keeps the telemetry layer off the inventory
// domain; implementations query the stock_lines table directly.
type InventoryMetricsProvider interface {
	// GetReservedQuantity returns total reserved quantity for a store
	GetReservedQuantity(ctx context.Context, storeID uuid.UUID) (float64, error)

	// GetLowStockCount returns how many stock lines sit at or below their
	// minimum stock level for a store
	GetLowStockCount(ctx context.Context, storeID uuid.UUID) (int64, error)
}

// StoreProvider provides store IDs for periodic metrics collection.
type StoreProvider interface {
	GetActiveStoreIDs(ctx context.Context) ([]uuid.UUID, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter             metric.Meter
	Logger            *zap.Logger
	CollectInterval   time.Duration // Default: 5 minutes
	InventoryProvider InventoryMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:             cfg.Meter,
		logger:            logger,
		stopChan:          make(chan struct{}),
		inventoryProvider: cfg.InventoryProvider,
	}

	var err error

	bm.workflowSubmittedTotal, err = NewCounter(
		cfg.Meter,
		"kardex_workflow_submitted_total",
		"Total number of workflow documents submitted",
		"{documents}",
	)
	if err != nil {
		return nil, err
	}

	bm.movementAppendedTotal, err = NewCounter(
		cfg.Meter,
		"kardex_movement_appended_total",
		"Total number of ledger movements appended",
		"{movements}",
	)
	if err != nil {
		return nil, err
	}

	bm.reservationExpiredTotal, err = NewCounter(
		cfg.Meter,
		"kardex_reservation_expired_total",
		"Total number of reservations released by the TTL sweep",
		"{reservations}",
	)
	if err != nil {
		return nil, err
	}

	bm.versionConflictTotal, err = NewCounter(
		cfg.Meter,
		"kardex_version_conflict_total",
		"Total number of optimistic concurrency conflicts",
		"{conflicts}",
	)
	if err != nil {
		return nil, err
	}

	bm.reservedQuantity, err = NewFloatGauge(
		cfg.Meter,
		"kardex_stock_reserved_quantity",
		"Current reserved stock quantity per store",
		"{units}",
	)
	if err != nil {
		return nil, err
	}

	bm.lowStockCount, err = NewGauge(
		cfg.Meter,
		"kardex_low_stock_count",
		"Number of stock lines at or below their minimum stock level",
		"{lines}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Workflow Metrics
// =============================================================================

// RecordWorkflowSubmitted records a workflow document submission.
// workflowType is the document type (sale, transfer, adjustment, ...).
func (bm *BusinessMetrics) RecordWorkflowSubmitted(ctx context.Context, storeID uuid.UUID, workflowType string) {
	bm.workflowSubmittedTotal.Inc(ctx,
		AttrStoreID.String(storeID.String()),
		AttrWorkflowType.String(workflowType),
	)
}

// RecordMovementsAppended records movements appended to the ledger.
func (bm *BusinessMetrics) RecordMovementsAppended(ctx context.Context, storeID uuid.UUID, referenceType string, count int64) {
	bm.movementAppendedTotal.Add(ctx, count,
		AttrStoreID.String(storeID.String()),
		AttrReferenceType.String(referenceType),
	)
}

// RecordReservationsExpired records reservations released by a sweep pass.
func (bm *BusinessMetrics) RecordReservationsExpired(ctx context.Context, count int64) {
	bm.reservationExpiredTotal.Add(ctx, count)
}

// RecordVersionConflict records an optimistic concurrency conflict.
func (bm *BusinessMetrics) RecordVersionConflict(ctx context.Context, workflowType string) {
	bm.versionConflictTotal.Inc(ctx,
		AttrWorkflowType.String(workflowType),
	)
}

// =============================================================================
// Inventory Metrics
// =============================================================================

// RecordReservedQuantity records the current reserved quantity for a store.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordReservedQuantity(ctx context.Context, storeID uuid.UUID, quantity float64) {
	bm.reservedQuantity.Record(ctx, quantity,
		AttrStoreID.String(storeID.String()),
	)
}

// RecordLowStockCount records the number of lines at or below minimum level.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordLowStockCount(ctx context.Context, storeID uuid.UUID, count int64) {
	bm.lowStockCount.Record(ctx, count,
		AttrStoreID.String(storeID.String()),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects inventory metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, storeProvider StoreProvider, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, storeProvider, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, storeProvider StoreProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectInventoryMetrics(ctx, storeProvider)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectInventoryMetrics(ctx, storeProvider)
		}
	}
}

// collectInventoryMetrics collects inventory gauge metrics for all stores.
func (bm *BusinessMetrics) collectInventoryMetrics(ctx context.Context, storeProvider StoreProvider) {
	if bm.inventoryProvider == nil {
		bm.logger.Debug("No inventory provider configured, skipping inventory metrics collection")
		return
	}

	storeIDs, err := storeProvider.GetActiveStoreIDs(ctx)
	if err != nil {
		bm.logger.Error("Failed to get store IDs for metrics collection", zap.Error(err))
		return
	}

	for _, storeID := range storeIDs {
		bm.collectStoreInventoryMetrics(ctx, storeID)
	}
}

// collectStoreInventoryMetrics collects inventory metrics for a single store.
func (bm *BusinessMetrics) collectStoreInventoryMetrics(ctx context.Context, storeID uuid.UUID) {
	reserved, err := bm.inventoryProvider.GetReservedQuantity(ctx, storeID)
	if err != nil {
		bm.logger.Warn("Failed to get reserved quantity for store",
			zap.String("store_id", storeID.String()),
			zap.Error(err),
		)
	} else {
		bm.RecordReservedQuantity(ctx, storeID, reserved)
	}

	lowStockCount, err := bm.inventoryProvider.GetLowStockCount(ctx, storeID)
	if err != nil {
		bm.logger.Warn("Failed to get low stock count for store",
			zap.String("store_id", storeID.String()),
			zap.Error(err),
		)
	} else {
		bm.RecordLowStockCount(ctx, storeID, lowStockCount)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
