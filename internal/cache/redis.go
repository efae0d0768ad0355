package cache

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keys for the front-desk hot paths.
const (
	DashboardKey         = "dashboard:snapshot"
	StockItemsKey        = "stock:items"
	AccountSummaryKeyFmt = "account:summary:%d"
)

// TTLs are short; the drawer and stock change constantly during a shift.
const (
	DashboardTTL      = 1 * time.Minute
	StockListTTL      = 2 * time.Minute
	AccountSummaryTTL = 5 * time.Minute
)

var client *redis.Client

// Init initializes the Redis connection
func Init() error {
	// K8s sets REDIS_SERVICE_HOST and REDIS_SERVICE_PORT for services
	host := os.Getenv("REDIS_SERVICE_HOST")
	if host == "" {
		host = "redis" // fallback to service name
	}
	port := os.Getenv("REDIS_SERVICE_PORT")
	if port == "" {
		port = "6379"
	}

	client = redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Close the failed client and set to nil for graceful degradation
		client.Close()
		client = nil
		return err
	}
	return nil
}

// AccountSummaryKey builds the cache key for one patient's summary.
func AccountSummaryKey(patientID int) string {
	return fmt.Sprintf(AccountSummaryKeyFmt, patientID)
}

// GetCached returns cached data for a key
func GetCached(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores data with a TTL
func SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, data, ttl)
}

// InvalidatePattern removes all keys matching a glob pattern
func InvalidatePattern(ctx context.Context, pattern string) {
	if client == nil {
		return
	}
	keys, err := client.Keys(ctx, pattern).Result()
	if err == nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateKeys removes specific cache keys
func InvalidateKeys(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// InvalidatePatientCaches clears one patient's account summary plus the
// dashboard snapshot. Called after every financial operation touching
// the patient.
func InvalidatePatientCaches(ctx context.Context, patientID int) {
	InvalidateKeys(ctx, AccountSummaryKey(patientID), DashboardKey)
}

// InvalidateStockCaches clears the stock list and dashboard snapshot.
// Called when: CreateItem, ReceiveStock, SellMedicine, DeleteSale
func InvalidateStockCaches(ctx context.Context) {
	InvalidateKeys(ctx, StockItemsKey, DashboardKey)
}

// InvalidateShiftCaches clears shift-derived report caches.
// Called when: CloseShift, standalone refunds
func InvalidateShiftCaches(ctx context.Context) {
	InvalidatePattern(ctx, "reports:*")
	InvalidateKeys(ctx, DashboardKey)
}

// PreWarmKey pre-warms a specific cache key in the background, called
// after invalidation so the next request is fast. Non-blocking.
func PreWarmKey(key string, fetcher func(ctx context.Context) ([]byte, error), ttl time.Duration) {
	if client == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		data, err := fetcher(ctx)
		if err != nil {
			// Next request will just fetch from the database
			return
		}

		SetCached(ctx, key, data, ttl)
	}()
}

// IsHealthy returns true if Redis connection is working
func IsHealthy() bool {
	if client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}
