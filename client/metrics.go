package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var retriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "memopad_client",
		Name:      "retries_total",
		Help:      "Fetch attempts repeated after a recoverable failure.",
	},
	[]string{"op"},
)
