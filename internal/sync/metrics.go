package sync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rowsInserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pixiu_sync_rows_inserted_total",
		Help: "Rows actually inserted per source (duplicates excluded)",
	}, []string{"source"})

	cyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pixiu_sync_cycles_total",
		Help: "Sync cycle outcomes per source",
	}, []string{"source", "status"})
)

const (
	statusOK      = "ok"
	statusNoop    = "noop"
	statusFetch   = "fetch_error"
	statusPersist = "persist_error"
	statusSkipped = "skipped"
)
