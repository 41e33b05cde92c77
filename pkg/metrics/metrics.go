package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TileRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pmtiles_tile_requests_total",
		Help: "Total number of tile requests by response status",
	}, []string{"status"})

	MetadataRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pmtiles_metadata_requests_total",
		Help: "Total number of TileJSON metadata requests by response status",
	}, []string{"status"})

	ArchiveFetches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pmtiles_archive_fetches_total",
		Help: "Total number of range reads issued against remote storage",
	})

	ArchiveFetchBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pmtiles_archive_fetch_bytes_total",
		Help: "Total bytes fetched from remote storage",
	})

	ArchiveFetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pmtiles_archive_fetch_latency_seconds",
		Help:    "Latency of remote range reads in seconds",
		Buckets: prometheus.DefBuckets,
	})

	StaleRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pmtiles_stale_retries_total",
		Help: "Total number of logical accesses retried after a stale archive read",
	})

	TileCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pmtiles_tile_cache_hits_total",
		Help: "Total number of decoded-tile cache hits",
	})

	TileCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pmtiles_tile_cache_misses_total",
		Help: "Total number of decoded-tile cache misses",
	})
)
