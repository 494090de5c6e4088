package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// The counters increment as the work is performed inside the surrounding
// transaction. A rollback does not take them back, so on a failed batch they
// overcount relative to the committed rows.
var (
	// StockAdjustmentsTotal counts stock writes by direction.
	StockAdjustmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_stock_adjustments_total",
		Help: "Number of stock adjustment writes, labeled by direction.",
	}, []string{"direction"})

	// InsufficientStockTotal counts adjustments rejected because they would
	// have driven stock negative.
	InsufficientStockTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_insufficient_stock_total",
		Help: "Number of stock adjustments rejected for insufficient stock.",
	})

	// ProjectTransitionsTotal counts project status transition attempts that
	// passed validation.
	ProjectTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_project_transitions_total",
		Help: "Number of project status transition writes, labeled by target status.",
	}, []string{"to"})

	// ActivityEntriesTotal counts audit-trail writes by action.
	ActivityEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_activity_entries_total",
		Help: "Number of activity log writes, labeled by action.",
	}, []string{"action"})
)
