package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpDurationHistogram  *prometheus.HistogramVec
	swapOutcomeCounter     *prometheus.CounterVec
	compensationCounter    *prometheus.CounterVec
	ledgerImbalanceCounter *prometheus.CounterVec
	snapshotFailureCounter prometheus.Counter
	idempotencyCounter     *prometheus.CounterVec
	gatewayCallHistogram   *prometheus.HistogramVec
	workerRunCounter       *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		swapOutcomeCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swap_executions_total",
			Help: "Swap execution outcomes",
		}, []string{"result"})

		compensationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swap_compensations_total",
			Help: "Compensation (rollback) outcomes after failed swap payments",
		}, []string{"result"})

		ledgerImbalanceCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_imbalance_total",
			Help: "Number of times per-asset conservation diverged",
		}, []string{"asset"})

		snapshotFailureCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_snapshot_failures_total",
			Help: "Failed ledger snapshot writes",
		})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency middleware outcomes",
		}, []string{"outcome"})

		gatewayCallHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_call_duration_seconds",
			Help:    "Escrow gateway call latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"node", "operation", "result"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			swapOutcomeCounter,
			compensationCounter,
			ledgerImbalanceCounter,
			snapshotFailureCounter,
			idempotencyCounter,
			gatewayCallHistogram,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementSwapOutcome(result string) {
	if swapOutcomeCounter == nil {
		return
	}
	swapOutcomeCounter.WithLabelValues(result).Inc()
}

func IncrementCompensation(result string) {
	if compensationCounter == nil {
		return
	}
	compensationCounter.WithLabelValues(result).Inc()
}

func IncrementLedgerImbalance(asset string) {
	if ledgerImbalanceCounter == nil {
		return
	}
	ledgerImbalanceCounter.WithLabelValues(asset).Inc()
}

func IncrementSnapshotFailure() {
	if snapshotFailureCounter == nil {
		return
	}
	snapshotFailureCounter.Inc()
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}

func ObserveGatewayCall(node, operation, result string, duration time.Duration) {
	if gatewayCallHistogram == nil {
		return
	}
	gatewayCallHistogram.WithLabelValues(node, operation, result).Observe(duration.Seconds())
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
