package obs

import "github.com/prometheus/client_golang/prometheus"

// Metrics collects the operational counters for both stages. Nothing here
// changes data-plane behavior; it exists so backpressure drops and
// best-effort persistence failures are observable instead of silent.
var (
	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tickmesh_fanout_sessions_active",
		Help: "Number of live stage A subscriber sessions.",
	})
	FramesBroadcast = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tickmesh_fanout_frames_broadcast_total",
		Help: "Total frames enqueued for delivery across all subscriber sessions.",
	})
	SessionFramesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tickmesh_fanout_session_frames_dropped_total",
		Help: "Frames dropped because a session's outbound queue exceeded its high watermark.",
	})
	RingDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tickmesh_ingress_ring_dropped_total",
		Help: "Ticks dropped because the ingress ring was full.",
	})
	FramesRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tickmesh_upstream_frames_rejected_total",
		Help: "Frames dropped by the upstream client due to a protocol error.",
	})
	UpstreamReconnects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tickmesh_upstream_reconnects_total",
		Help: "Number of times an established upstream connection was lost and the client went back to reconnecting.",
	})
	BarsEmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tickmesh_aggregator_bars_emitted_total",
		Help: "Total bars closed out by the aggregator.",
	})
	PersistErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tickmesh_store_insert_errors_total",
		Help: "Total insert errors from the persister. Persistence is best-effort.",
	})
	BroadcastClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tickmesh_broadcast_clients_active",
		Help: "Number of live stage B push-channel subscribers.",
	})
)

func init() {
	prometheus.MustRegister(
		SessionsActive,
		FramesBroadcast,
		SessionFramesDropped,
		RingDropped,
		FramesRejected,
		UpstreamReconnects,
		BarsEmitted,
		PersistErrors,
		BroadcastClientsActive,
	)
}
