/*
Package metrics provides Prometheus metrics collection and exposition for mojokv.

The metrics package defines and registers every mojokv metric using the
Prometheus client library, providing observability into bucket throughput,
commit latency, and open file-descriptor pressure. Metrics are exposed via
an HTTP endpoint for scraping by Prometheus servers.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │              Metric Types                   │          │
	│  │                                              │          │
	│  │  Gauge: Instant values (open PageFiles)     │          │
	│  │  Counter: Monotonic increases (puts, gets)  │          │
	│  │  Histogram: Distributions (commit latency)  │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                 │          │
	│  │                                              │          │
	│  │  Bucket: puts, gets, misses, bytes written  │          │
	│  │  Store: active version, bucket count        │          │
	│  │  Commit: duration, count, lock contention   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint              │          │
	│  │  - Path: /metrics                           │          │
	│  │  - Format: Prometheus text exposition       │          │
	│  │  - Handler: promhttp.Handler()              │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Metrics Catalog

Bucket Metrics:

mojokv_bucket_puts_total{bucket}:
  - Type: Counter
  - Description: Total Put calls per bucket

mojokv_bucket_gets_total{bucket}:
  - Type: Counter
  - Description: Total Get calls per bucket

mojokv_bucket_key_not_found_total{bucket}:
  - Type: Counter
  - Description: Total Get calls that missed the index

mojokv_bucket_bytes_written_total{bucket}:
  - Type: Counter
  - Description: Total payload bytes appended or overwritten

mojokv_bucket_pages_appended_total{bucket}:
  - Type: Counter
  - Description: Total pages appended to a version's data file

Store Metrics:

mojokv_open_page_files{bucket}:
  - Type: Gauge
  - Description: Open PageFile handles for a bucket

mojokv_active_version:
  - Type: Gauge
  - Description: Active writable store version

mojokv_buckets_total:
  - Type: Gauge
  - Description: Total buckets registered in the bucket map

Commit Metrics:

mojokv_store_commit_duration_seconds:
  - Type: Histogram
  - Description: Time spent in the commit critical section

mojokv_store_commits_total:
  - Type: Counter
  - Description: Total successful commits

mojokv_store_commit_lock_contention_total:
  - Type: Counter
  - Description: Commit attempts that found mojo.lock already held

# Usage

	import "github.com/cuemby/mojokv/pkg/metrics"

	metrics.PutsTotal.WithLabelValues("accounts").Inc()
	metrics.BytesWrittenTotal.WithLabelValues("accounts").Add(float64(n))

	// Store.Commit times itself this way and counts successful commits;
	// callers of Commit record neither.
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.CommitDuration)

	http.Handle("/metrics", metrics.Handler())
	http.ListenAndServe(":9090", nil)

# Integration Points

This package integrates with:

  - pkg/kv: records bucket put/get/sync/commit metrics
  - cmd/mojokv: the metrics-serve subcommand exposes /metrics

# See Also

  - Prometheus documentation: https://prometheus.io/docs/
  - Prometheus client library: https://github.com/prometheus/client_golang
*/
package metrics
