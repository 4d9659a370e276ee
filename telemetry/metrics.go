// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	ChatMessages    prometheus.Counter
	CommunityEvents *prometheus.CounterVec // labels: type, source
	FramesDropped   prometheus.Counter
	PongsSent       prometheus.Counter
	Reconnects      prometheus.Counter
	MessagesEvicted prometheus.Counter

	// Gauges
	MessageCountGauge   prometheus.Gauge
	AlertQueueDepth     prometheus.Gauge
	StreamlabsConnected prometheus.Gauge // 1=connected,0=not

	// Histograms
	SSEWriteSeconds prometheus.Histogram
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		ChatMessages = promauto.NewCounter(prometheus.CounterOpts{Name: "overlay_chat_messages_total", Help: "Chat messages ingested"})
		CommunityEvents = promauto.NewCounterVec(prometheus.CounterOpts{Name: "overlay_community_events_total", Help: "Community events ingested by type and source"}, []string{"type", "source"})
		FramesDropped = promauto.NewCounter(prometheus.CounterOpts{Name: "overlay_streamlabs_frames_dropped_total", Help: "Streamlabs frames dropped as malformed or unrecognized"})
		PongsSent = promauto.NewCounter(prometheus.CounterOpts{Name: "overlay_streamlabs_pongs_total", Help: "Keep-alive pongs answered"})
		Reconnects = promauto.NewCounter(prometheus.CounterOpts{Name: "overlay_streamlabs_reconnects_total", Help: "Streamlabs reconnect attempts"})
		MessagesEvicted = promauto.NewCounter(prometheus.CounterOpts{Name: "overlay_messages_evicted_total", Help: "Chat messages evicted by the capacity bound"})
		MessageCountGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "overlay_message_count", Help: "Messages currently visible"})
		AlertQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{Name: "overlay_alert_queue_depth", Help: "Alerts queued including the active one"})
		StreamlabsConnected = promauto.NewGauge(prometheus.GaugeOpts{Name: "overlay_streamlabs_connected", Help: "Streamlabs socket connected=1 disconnected=0"})
		SSEWriteSeconds = promauto.NewHistogram(prometheus.HistogramOpts{Name: "overlay_sse_write_seconds", Help: "Latency of writing one state snapshot to an SSE subscriber", Buckets: prometheus.DefBuckets})
	})
}

// CountCommunityEvent bumps the per-type counter. Safe before Init (no-op).
func CountCommunityEvent(eventType, source string) {
	if CommunityEvents != nil {
		CommunityEvents.WithLabelValues(eventType, source).Inc()
	}
}

// CountChatMessage bumps the chat counter. Safe before Init (no-op).
func CountChatMessage() {
	if ChatMessages != nil {
		ChatMessages.Inc()
	}
}

// CountFrameDropped bumps the dropped-frame counter. Safe before Init (no-op).
func CountFrameDropped() {
	if FramesDropped != nil {
		FramesDropped.Inc()
	}
}

// CountPong bumps the pong counter. Safe before Init (no-op).
func CountPong() {
	if PongsSent != nil {
		PongsSent.Inc()
	}
}

// CountReconnect bumps the reconnect counter. Safe before Init (no-op).
func CountReconnect() {
	if Reconnects != nil {
		Reconnects.Inc()
	}
}

// CountEvicted bumps the eviction counter. Safe before Init (no-op).
func CountEvicted() {
	if MessagesEvicted != nil {
		MessagesEvicted.Inc()
	}
}

// SetMessageCount records the current visible message count.
func SetMessageCount(n int) {
	if MessageCountGauge != nil {
		MessageCountGauge.Set(float64(n))
	}
}

// SetAlertQueueDepth records the current alert queue length.
func SetAlertQueueDepth(n int) {
	if AlertQueueDepth != nil {
		AlertQueueDepth.Set(float64(n))
	}
}

// SetStreamlabsConnected flips the connection gauge.
func SetStreamlabsConnected(connected bool) {
	if StreamlabsConnected != nil {
		if connected {
			StreamlabsConnected.Set(1)
		} else {
			StreamlabsConnected.Set(0)
		}
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
