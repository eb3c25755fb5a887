package swr

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "memopad_client",
		Subsystem: "swr",
		Name:      "cache_hits_total",
		Help:      "Fetches served from a fresh cache entry.",
	})

	missesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "memopad_client",
		Subsystem: "swr",
		Name:      "cache_misses_total",
		Help:      "Fetches that had to block on the network.",
	})

	dedupedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "memopad_client",
		Subsystem: "swr",
		Name:      "deduped_fetches_total",
		Help:      "Fetches collapsed into an already in-flight request.",
	})

	discardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "memopad_client",
		Subsystem: "swr",
		Name:      "discarded_responses_total",
		Help:      "Responses dropped because a newer request superseded them.",
	})
)
