package migrator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MigrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chsync_migrations_total",
			Help: "Total number of table migrations by outcome",
		},
		[]string{"status"},
	)

	MigrationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chsync_migration_duration_seconds",
			Help:    "Duration of table migrations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14), // 50ms to ~410s
		},
	)

	StatementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chsync_statements_total",
			Help: "Total number of statements issued against the target",
		},
		[]string{"kind", "status"}, // kind: "drop", "create", "copy"
	)
)

func recordMigration(status State, duration time.Duration) {
	MigrationsTotal.WithLabelValues(string(status)).Inc()
	MigrationDuration.Observe(duration.Seconds())
}

func recordStatement(kind string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StatementsTotal.WithLabelValues(kind, status).Inc()
}
