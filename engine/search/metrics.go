package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var reindexOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "snout_reindex_ops_total",
	Help: "Vector index operations by kind and result.",
}, []string{"op", "result"})
