package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FilesSelected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promptpack_files_selected_total",
		Help: "Total number of files accepted by the selection filters.",
	})

	FilesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptpack_files_skipped_total",
		Help: "Total number of paths dropped during selection or rendering, by reason.",
	}, []string{"reason"})

	WalkDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "promptpack_walk_seconds",
		Help:    "Time spent walking a single root.",
		Buckets: prometheus.DefBuckets,
	})

	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "promptpack_parsing_seconds",
		Help:    "Time spent reading and parsing a source file for imports.",
		Buckets: prometheus.DefBuckets,
	})

	ImportsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptpack_imports_total",
		Help: "Import references seen during dependency closure, by outcome.",
	}, []string{"result"})

	ParseFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promptpack_parse_failures_total",
		Help: "Files whose imports could not be extracted.",
	})

	ImportCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promptpack_import_cache_hits_total",
		Help: "Import extractions served from the persistent cache.",
	})

	ClosureFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "promptpack_closure_files",
		Help: "Number of files in the most recent dependency closure.",
	})

	BundleBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "promptpack_bundle_bytes",
		Help: "Size of the most recently rendered bundle.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promptpack_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RebuildsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promptpack_rebuilds_total",
		Help: "Bundles re-rendered in watch mode.",
	})
)

// WriteTextfile dumps the default registry in the node-exporter textfile
// format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
