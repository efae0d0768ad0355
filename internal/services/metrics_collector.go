package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"fnh-backend/internal/metrics"
)

// lowStockThreshold is the unit count at which an item shows up on the
// reorder gauge.
const lowStockThreshold = 10

// MetricsCollector refreshes the business gauges from the database on a
// fixed interval. Counters are bumped inline by the services; gauges
// describe current state and have to be recomputed.
type MetricsCollector struct {
	db       *pgxpool.Pool
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewMetricsCollector(db *pgxpool.Pool) *MetricsCollector {
	return &MetricsCollector{
		db:       db,
		interval: 30 * time.Second,
		stopChan: make(chan struct{}),
	}
}

// Start begins the collection loop. The first collection runs
// immediately so the gauges are populated before the first scrape.
func (c *MetricsCollector) Start() {
	c.collect()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopChan:
				return
			}
		}
	}()
}

func (c *MetricsCollector) Stop() {
	close(c.stopChan)
	c.wg.Wait()
}

func (c *MetricsCollector) collect() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c.gauge(ctx, metrics.OpenShifts,
		`SELECT COUNT(*) FROM shifts WHERE status = 'open'`)

	c.gauge(ctx, metrics.LowStockItems,
		`SELECT COUNT(*) FROM stock_items WHERE current_stock <= $1`, lowStockThreshold)

	c.gauge(ctx, metrics.ActiveAdmissions,
		`SELECT COUNT(*) FROM admissions WHERE status = 'admitted'`)

	c.gauge(ctx, metrics.DriftedAccounts, `
		SELECT COUNT(*) FROM accounts a
		WHERE ABS(a.total_charges - COALESCE((
			SELECT SUM(c.final_amount) FROM charges c WHERE c.patient_id = a.patient_id
		), 0)) > 0.005
		OR ABS(a.total_paid - COALESCE((
			SELECT SUM(p.amount) FROM payments p WHERE p.patient_id = a.patient_id
		), 0)) > 0.005`)
}

type gaugeSetter interface {
	Set(float64)
}

func (c *MetricsCollector) gauge(ctx context.Context, g gaugeSetter, query string, args ...interface{}) {
	var n int64
	if err := c.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		log.Printf("metrics collector: %v", err)
		return
	}
	g.Set(float64(n))
}
