// Package metrics gives a Cluster the observability its go.mod already
// pays for: cluster-wide request/retry/bootstrap counters exported in
// Prometheus text format, and one latency EWMA per Recorder (so one per
// Cluster) sampled on every get resolved through Cluster.Get. The EWMA is observation only — it never feeds
// back into the transport package's fixed 5s request timeout.
package metrics

import (
	"fmt"
	"io"
	"sync"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
	gm "github.com/rcrowley/go-metrics"
)

// tickInterval is the cadence go-metrics expects NewEWMA1 to be ticked at;
// running it at any other interval skews the decay constant.
const tickInterval = 5 * time.Second

// Recorder owns one Cluster's metrics. Each Recorder gets its own
// VictoriaMetrics Set rather than writing into the package-level default
// set, so a process that opens more than one Cluster does not have their
// counters collide under the same series names.
type Recorder struct {
	set *vm.Set

	requests   *vm.Counter
	retries    *vm.Counter
	bootstraps *vm.Counter

	latency gm.EWMA

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a Recorder and starts its EWMA tick loop.
func New() *Recorder {
	set := vm.NewSet()
	r := &Recorder{
		set:        set,
		requests:   set.NewCounter("vldm_requests_total"),
		retries:    set.NewCounter("vldm_replica_retries_total"),
		bootstraps: set.NewCounter("vldm_bootstrap_attempts_total"),
		latency:    gm.NewEWMA1(),
		stop:       make(chan struct{}),
	}
	go r.tickLoop()
	return r
}

func (r *Recorder) tickLoop() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.latency.Tick()
		case <-r.stop:
			return
		}
	}
}

// Close stops the tick loop. Close is idempotent.
func (r *Recorder) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// RecordRequest increments the total-requests counter.
func (r *Recorder) RecordRequest() {
	r.requests.Inc()
}

// RecordReplicaRetry increments the replica-retry counter, once per
// replica a get had to fall through to after a ServerError.
func (r *Recorder) RecordReplicaRetry() {
	r.retries.Inc()
}

// RecordBootstrapAttempt increments the bootstrap-attempt counter, once
// per call to bootstrapOnce regardless of outcome.
func (r *Recorder) RecordBootstrapAttempt() {
	r.bootstraps.Inc()
}

// RecordLatency feeds a resolved request's round-trip time into the
// latency EWMA.
func (r *Recorder) RecordLatency(d time.Duration) {
	r.latency.Update(d.Microseconds())
}

// WritePrometheus writes this Recorder's counters to w in Prometheus text
// exposition format.
func (r *Recorder) WritePrometheus(w io.Writer) {
	r.set.WritePrometheus(w)
}

// Snapshot is a point-in-time read of a Recorder, returned by
// cluster.Cluster.Metrics().
type Snapshot struct {
	Requests          uint64
	ReplicaRetries    uint64
	BootstrapAttempts uint64
	LatencyEWMA1      time.Duration
}

// Snapshot reads the current counter values and EWMA rate.
func (r *Recorder) Snapshot() Snapshot {
	return Snapshot{
		Requests:          r.requests.Get(),
		ReplicaRetries:    r.retries.Get(),
		BootstrapAttempts: r.bootstraps.Get(),
		LatencyEWMA1:      time.Duration(r.latency.Rate()) * time.Microsecond,
	}
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"requests=%d replica_retries=%d bootstrap_attempts=%d latency_ewma1=%s",
		s.Requests, s.ReplicaRetries, s.BootstrapAttempts, s.LatencyEWMA1,
	)
}
