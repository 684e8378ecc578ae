package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockroom_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ObjectStoreLatency records object store call latency by operation.
	ObjectStoreLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockroom_object_store_latency_seconds",
		Help:    "Object store call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// ObjectStoreErrors counts failed object store calls by operation.
	ObjectStoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockroom_object_store_errors_total",
		Help: "Total number of failed object store calls",
	}, []string{"operation"})

	// NotificationsPublished counts notification publishes by driver and outcome.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockroom_notifications_published_total",
		Help: "Total number of notification publish attempts",
	}, []string{"driver", "outcome"})

	// AuthFailures counts rejected credentials by reason.
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockroom_auth_failures_total",
		Help: "Total number of rejected authentication attempts",
	}, []string{"scheme", "reason"})

	// VerificationOutcomes counts email verification attempts by outcome.
	VerificationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockroom_email_verifications_total",
		Help: "Total number of email verification attempts by outcome",
	}, []string{"outcome"})
)

// TrackObjectStore returns a function that records latency, and the error if
// any, of an object store call when invoked (e.g. defer).
func TrackObjectStore(operation string) func(err error) {
	start := time.Now()
	return func(err error) {
		ObjectStoreLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		if err != nil {
			ObjectStoreErrors.WithLabelValues(operation).Inc()
		}
	}
}

const queryStartKey = "stockroom:query_start"

// RegisterQueryMetrics installs GORM callbacks that feed DatabaseQueryLatency.
func RegisterQueryMetrics(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	steps := []struct {
		name string
		err  error
	}{
		{"create:before", cb.Create().Before("gorm:create").Register("metrics:before_create", before)},
		{"create:after", cb.Create().After("gorm:create").Register("metrics:after_create", after("create"))},
		{"query:before", cb.Query().Before("gorm:query").Register("metrics:before_query", before)},
		{"query:after", cb.Query().After("gorm:query").Register("metrics:after_query", after("query"))},
		{"update:before", cb.Update().Before("gorm:update").Register("metrics:before_update", before)},
		{"update:after", cb.Update().After("gorm:update").Register("metrics:after_update", after("update"))},
		{"delete:before", cb.Delete().Before("gorm:delete").Register("metrics:before_delete", before)},
		{"delete:after", cb.Delete().After("gorm:delete").Register("metrics:after_delete", after("delete"))},
		{"row:before", cb.Row().Before("gorm:row").Register("metrics:before_row", before)},
		{"row:after", cb.Row().After("gorm:row").Register("metrics:after_row", after("row"))},
		{"raw:before", cb.Raw().Before("gorm:raw").Register("metrics:before_raw", before)},
		{"raw:after", cb.Raw().After("gorm:raw").Register("metrics:after_raw", after("raw"))},
	}
	for _, s := range steps {
		if s.err != nil {
			return s.err
		}
	}
	return nil
}
