package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Bucket operation metrics
	PutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mojokv_bucket_puts_total",
			Help: "Total number of bucket Put calls by bucket name",
		},
		[]string{"bucket"},
	)

	GetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mojokv_bucket_gets_total",
			Help: "Total number of bucket Get calls by bucket name",
		},
		[]string{"bucket"},
	)

	KeyNotFoundTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mojokv_bucket_key_not_found_total",
			Help: "Total number of Get calls that missed the index",
		},
		[]string{"bucket"},
	)

	BytesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mojokv_bucket_bytes_written_total",
			Help: "Total payload bytes appended or overwritten in data files",
		},
		[]string{"bucket"},
	)

	PagesAppendedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mojokv_bucket_pages_appended_total",
			Help: "Total number of pages appended to a version's data file",
		},
		[]string{"bucket"},
	)

	// Store-level gauges
	OpenPageFiles = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mojokv_open_page_files",
			Help: "Number of PageFile handles currently open for a bucket",
		},
		[]string{"bucket"},
	)

	ActiveVersion = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mojokv_active_version",
			Help: "Active (writable) store version",
		},
	)

	BucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mojokv_buckets_total",
			Help: "Total number of buckets registered in the bucket map",
		},
	)

	// Latency metrics
	PutDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mojokv_put_duration_seconds",
			Help:    "Time spent performing a single bucket Put",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"bucket"},
	)

	GetDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mojokv_get_duration_seconds",
			Help:    "Time spent performing a single bucket Get",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"bucket"},
	)

	SyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mojokv_bucket_sync_duration_seconds",
			Help:    "Time spent fsyncing and re-serializing a bucket's Index",
			Buckets: prometheus.DefBuckets,
		},
	)

	CommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mojokv_store_commit_duration_seconds",
			Help:    "Time spent in the store commit critical section, lock acquisition included",
			Buckets: prometheus.DefBuckets,
		},
	)

	CommitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mojokv_store_commits_total",
			Help: "Total number of successful store commits",
		},
	)

	CommitLockContentionTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mojokv_store_commit_lock_contention_total",
			Help: "Total number of commit attempts that found mojo.lock already held",
		},
	)
)

func init() {
	// Register bucket operation metrics
	prometheus.MustRegister(PutsTotal)
	prometheus.MustRegister(GetsTotal)
	prometheus.MustRegister(KeyNotFoundTotal)
	prometheus.MustRegister(BytesWrittenTotal)
	prometheus.MustRegister(PagesAppendedTotal)

	// Register store-level gauges
	prometheus.MustRegister(OpenPageFiles)
	prometheus.MustRegister(ActiveVersion)
	prometheus.MustRegister(BucketsTotal)

	// Register latency metrics
	prometheus.MustRegister(PutDuration)
	prometheus.MustRegister(GetDuration)
	prometheus.MustRegister(SyncDuration)
	prometheus.MustRegister(CommitDuration)
	prometheus.MustRegister(CommitsTotal)
	prometheus.MustRegister(CommitLockContentionTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
