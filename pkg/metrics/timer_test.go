package metrics_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/cuemby/mojokv/pkg/kv"
	"github.com/cuemby/mojokv/pkg/metrics"
)

// histogramSampleCount reads the observation count out of a registered
// histogram, the way a scrape would see it.
func histogramSampleCount(t *testing.T, m prometheus.Metric) uint64 {
	t.Helper()

	var pb dto.Metric
	if err := m.Write(&pb); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	return pb.GetHistogram().GetSampleCount()
}

func openTestBucket(t *testing.T) (*kv.Store, *kv.Bucket) {
	t.Helper()

	dir := t.TempDir()
	pageSz := uint32(8)
	pps := uint32(16)

	store, err := kv.Writable(dir, true, &pageSz, &pps)
	if err != nil {
		t.Fatalf("Writable() error = %v", err)
	}
	b, err := store.Open("accounts", kv.ModeWrite)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return store, b
}

// Put and Get time themselves through Timer.ObserveDurationVec into the
// per-bucket duration histograms; drive them through a real bucket and
// check the samples landed under the right label.
func TestTimerObservesPutGetDurations(t *testing.T) {
	_, b := openTestBucket(t)
	defer b.Close()

	putHist := metrics.PutDuration.WithLabelValues("accounts").(prometheus.Metric)
	getHist := metrics.GetDuration.WithLabelValues("accounts").(prometheus.Metric)

	putBefore := histogramSampleCount(t, putHist)
	getBefore := histogramSampleCount(t, getHist)

	payload := bytes.Repeat([]byte{0x7}, 8)
	if err := b.Put(0, 0, payload); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := b.Get(0, 0, make([]byte, 8)); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if got := histogramSampleCount(t, putHist); got != putBefore+1 {
		t.Errorf("put duration samples = %d, want %d", got, putBefore+1)
	}
	if got := histogramSampleCount(t, getHist); got != getBefore+1 {
		t.Errorf("get duration samples = %d, want %d", got, getBefore+1)
	}
}

// Sync and Commit go through Timer.ObserveDuration into the plain
// histograms.
func TestTimerObservesSyncCommitDurations(t *testing.T) {
	store, b := openTestBucket(t)
	defer b.Close()

	syncBefore := histogramSampleCount(t, metrics.SyncDuration)
	commitBefore := histogramSampleCount(t, metrics.CommitDuration)

	if err := b.Put(0, 0, bytes.Repeat([]byte{1}, 8)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := b.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if _, err := store.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	if got := histogramSampleCount(t, metrics.SyncDuration); got <= syncBefore {
		t.Errorf("sync duration samples = %d, want > %d", got, syncBefore)
	}
	if got := histogramSampleCount(t, metrics.CommitDuration); got != commitBefore+1 {
		t.Errorf("commit duration samples = %d, want %d", got, commitBefore+1)
	}
}

func TestTimerDurationIncreases(t *testing.T) {
	timer := metrics.NewTimer()

	time.Sleep(10 * time.Millisecond)
	first := timer.Duration()

	time.Sleep(10 * time.Millisecond)
	second := timer.Duration()

	if first <= 0 {
		t.Errorf("Duration() = %v, want > 0", first)
	}
	if second <= first {
		t.Errorf("Duration() should keep growing: first=%v second=%v", first, second)
	}
}
