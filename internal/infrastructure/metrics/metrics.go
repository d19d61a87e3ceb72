package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// QuoteRequests 行情源调用次数，result: ok / error / rejected
	QuoteRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_quote_requests_total",
			Help: "Quote source calls by source and result",
		},
		[]string{"source", "result"},
	)

	// QuoteLatency 行情源调用耗时
	QuoteLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_quote_request_duration_seconds",
			Help:    "Quote source call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// CacheLookups 缓存命中统计
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_cache_lookups_total",
			Help: "Cache lookups by cache name and result",
		},
		[]string{"cache", "result"},
	)

	// SummaryDuration 组合估值耗时
	SummaryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "folio_summary_duration_seconds",
			Help:    "Portfolio summary computation latency",
			Buckets: prometheus.DefBuckets,
		},
	)

	// LedgerWrites 账本写入次数，op: append / replace
	LedgerWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_ledger_writes_total",
			Help: "Ledger writes by operation",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(QuoteRequests, QuoteLatency, CacheLookups, SummaryDuration, LedgerWrites)
}

// Hit 记录一次缓存命中或未命中
func Hit(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(cache, result).Inc()
}
