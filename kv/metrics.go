package kv

import (
	"strconv"

	"github.com/VictoriaMetrics/metrics"
)

// envMetrics are the operational counters exposed per open Environment,
// grounded on the erigon-lib kv package's use of VictoriaMetrics/metrics
// for DB-level counters.
type envMetrics struct {
	commits        *metrics.Counter
	mapFullRetries *metrics.Counter
	rtxAllocs      *metrics.Counter
}

func newEnvMetrics(path string) *envMetrics {
	label := strconv.Quote(path)
	return &envMetrics{
		commits:        metrics.GetOrCreateCounter(`kv_transact_commits_total{path=` + label + `}`),
		mapFullRetries: metrics.GetOrCreateCounter(`kv_mapfull_retries_total{path=` + label + `}`),
		rtxAllocs:      metrics.GetOrCreateCounter(`kv_rtx_allocs_total{path=` + label + `}`),
	}
}
