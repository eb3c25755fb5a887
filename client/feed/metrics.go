package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var rollbacksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "memopad_client",
		Subsystem: "feed",
		Name:      "rollbacks_total",
		Help:      "Optimistic mutations rolled back after a failed request.",
	},
	[]string{"op"},
)
