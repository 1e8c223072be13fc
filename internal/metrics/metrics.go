package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/snglth/rc-monitor/internal/logging"
)

// Prometheus counters
var (
	SerialRxBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "serial_rx_bytes_total",
		Help: "Total raw bytes read from the receiver's serial link.",
	})
	FramesDecoded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frames_decoded_total",
		Help: "Total controller-push frames successfully decoded.",
	})
	FramesResynced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frames_resynced_total",
		Help: "Total times the parser dropped a leading byte and resynchronized.",
	})
	FramesMalformed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frames_malformed_total",
		Help: "Total fully-buffered frames rejected for a bad body checksum.",
	})
	FramesOtherCommand = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frames_other_command_total",
		Help: "Total well-formed frames that were not a controller-push and were dropped silently.",
	})
	SerialTxFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "serial_tx_frames_total",
		Help: "Total command frames written to the serial link.",
	})
	TCPTxSnapshots = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tcp_tx_snapshots_total",
		Help: "Total snapshots broadcast to TCP subscribers.",
	})
	HubDroppedSnapshots = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hub_dropped_snapshots_total",
		Help: "Total snapshots dropped by the fanout hub due to a slow subscriber.",
	})
	HubKickedSubscribers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hub_kicked_subscribers_total",
		Help: "Total subscribers disconnected due to the backpressure kick policy.",
	})
	HubActiveSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hub_active_subscribers",
		Help: "Current number of connected fanout subscribers.",
	})
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build metadata (value is always 1).",
	}, []string{"version", "commit", "date"})
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "errors_total",
		Help: "Error counters by subsystem.",
	}, []string{"where"})

	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Error label constants (stable label values to bound cardinality)
const (
	ErrSerialRead  = "serial_read"
	ErrSerialWrite = "serial_write"
	ErrSerialOver  = "serial_tx_overflow"
	ErrTCPWrite    = "tcp_write"
	ErrHandshake   = "handshake"
)

// StartHTTP serves Prometheus metrics at /metrics and readiness at /ready.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

// Local mirrored counters, cheap to read for periodic log lines.
var (
	localSerialRx   uint64
	localDecoded    uint64
	localResynced   uint64
	localMalformed  uint64
	localOtherCmd   uint64
	localSerialTx   uint64
	localTCPTx      uint64
	localHubDrop    uint64
	localHubKick    uint64
	localErrors     uint64
	localSubs       uint64
)

// Snapshot is a cheap copy of local counters.
type Snapshot struct {
	SerialRxBytes   uint64
	FramesDecoded   uint64
	FramesResynced  uint64
	FramesMalformed uint64
	OtherCommand    uint64
	SerialTx        uint64
	TCPTx           uint64
	HubDrops        uint64
	HubKicks        uint64
	Errors          uint64
	Subscribers     uint64
}

func Snap() Snapshot {
	return Snapshot{
		SerialRxBytes:   atomic.LoadUint64(&localSerialRx),
		FramesDecoded:   atomic.LoadUint64(&localDecoded),
		FramesResynced:  atomic.LoadUint64(&localResynced),
		FramesMalformed: atomic.LoadUint64(&localMalformed),
		OtherCommand:    atomic.LoadUint64(&localOtherCmd),
		SerialTx:        atomic.LoadUint64(&localSerialTx),
		TCPTx:           atomic.LoadUint64(&localTCPTx),
		HubDrops:        atomic.LoadUint64(&localHubDrop),
		HubKicks:        atomic.LoadUint64(&localHubKick),
		Errors:          atomic.LoadUint64(&localErrors),
		Subscribers:     atomic.LoadUint64(&localSubs),
	}
}

func AddSerialRx(n int) {
	SerialRxBytes.Add(float64(n))
	atomic.AddUint64(&localSerialRx, uint64(n))
}

func IncDecoded() {
	FramesDecoded.Inc()
	atomic.AddUint64(&localDecoded, 1)
}

func IncResynced() {
	FramesResynced.Inc()
	atomic.AddUint64(&localResynced, 1)
}

func IncMalformed() {
	FramesMalformed.Inc()
	atomic.AddUint64(&localMalformed, 1)
}

func IncOtherCommand() {
	FramesOtherCommand.Inc()
	atomic.AddUint64(&localOtherCmd, 1)
}

func IncSerialTx() {
	SerialTxFrames.Inc()
	atomic.AddUint64(&localSerialTx, 1)
}

func IncTCPTx() {
	TCPTxSnapshots.Inc()
	atomic.AddUint64(&localTCPTx, 1)
}

func IncHubDrop() {
	HubDroppedSnapshots.Inc()
	atomic.AddUint64(&localHubDrop, 1)
}

func IncHubKick() {
	HubKickedSubscribers.Inc()
	atomic.AddUint64(&localHubKick, 1)
}

func SetSubscribers(n int) {
	HubActiveSubscribers.Set(float64(n))
	atomic.StoreUint64(&localSubs, uint64(n))
}

func IncError(label string) {
	Errors.WithLabelValues(label).Inc()
	atomic.AddUint64(&localErrors, 1)
}

// InitBuildInfo sets the build info gauge (should be called once at startup).
func InitBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
	for _, lbl := range []string{ErrSerialRead, ErrSerialWrite, ErrSerialOver, ErrTCPWrite, ErrHandshake} {
		Errors.WithLabelValues(lbl).Add(0)
	}
}

// SetReadinessFunc registers a function used by /ready and IsReady.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function if present.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil {
		return true
	}
	return fn()
}
