package prom

import (
	"net/http"

	"osmo-gateway/observability"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 返回一个独立的 Prometheus registry。
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// Handler 返回绑定到 registry 的 /metrics HTTP handler。
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// GatewayObserver 将网关事件导出为 Prometheus 指标。
type GatewayObserver struct {
	connGauge    *prometheus.GaugeVec
	connTotal    *prometheus.CounterVec
	dialFailures *prometheus.CounterVec
	bridgeBytes  *prometheus.CounterVec
	queueDrops   *prometheus.CounterVec
	controlReqs  *prometheus.CounterVec
	btsLocked    prometheus.Gauge
	portsLeased  prometheus.Gauge
	mediaSeqGaps prometheus.Counter
}

// NewGatewayObserver 在 registry 上注册网关指标。
func NewGatewayObserver(reg *prometheus.Registry) *GatewayObserver {
	o := &GatewayObserver{
		connGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "osmo_gateway_connections",
			Help: "Current websocket connections by route.",
		}, []string{"route"}),
		connTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "osmo_gateway_connections_total",
			Help: "Accepted websocket connections by route.",
		}, []string{"route"}),
		dialFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "osmo_gateway_backend_dial_failures_total",
			Help: "Backend connect failures by route.",
		}, []string{"route"}),
		bridgeBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "osmo_gateway_bridge_bytes_total",
			Help: "Bytes forwarded across bridges by route and direction.",
		}, []string{"route", "direction"}),
		queueDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "osmo_gateway_queue_drops_total",
			Help: "Chunks dropped by full bridge queues.",
		}, []string{"route"}),
		controlReqs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "osmo_gateway_control_requests_total",
			Help: "Control protocol requests by event and result.",
		}, []string{"event", "result"}),
		btsLocked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "osmo_gateway_bts_locked",
			Help: "Currently locked BTS slots.",
		}),
		portsLeased: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "osmo_gateway_ports_leased",
			Help: "Currently leased media UDP ports.",
		}),
		mediaSeqGaps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "osmo_gateway_media_seq_gaps_total",
			Help: "Missing RTP sequence numbers observed on media bridges.",
		}),
	}
	reg.MustRegister(
		o.connGauge,
		o.connTotal,
		o.dialFailures,
		o.bridgeBytes,
		o.queueDrops,
		o.controlReqs,
		o.btsLocked,
		o.portsLeased,
		o.mediaSeqGaps,
	)
	return o
}

func (o *GatewayObserver) ConnOpened(route string) {
	o.connGauge.WithLabelValues(route).Inc()
	o.connTotal.WithLabelValues(route).Inc()
}

func (o *GatewayObserver) ConnClosed(route string) {
	o.connGauge.WithLabelValues(route).Dec()
}

func (o *GatewayObserver) DialFailed(route string) {
	o.dialFailures.WithLabelValues(route).Inc()
}

func (o *GatewayObserver) BridgeBytes(route string, dir observability.Direction, n int) {
	o.bridgeBytes.WithLabelValues(route, string(dir)).Add(float64(n))
}

func (o *GatewayObserver) QueueDropped(route string) {
	o.queueDrops.WithLabelValues(route).Inc()
}

func (o *GatewayObserver) ControlRequest(event string, result observability.ControlResult) {
	o.controlReqs.WithLabelValues(event, string(result)).Inc()
}

func (o *GatewayObserver) BtsLocked(n int)   { o.btsLocked.Set(float64(n)) }
func (o *GatewayObserver) PortsLeased(n int) { o.portsLeased.Set(float64(n)) }
func (o *GatewayObserver) MediaSeqGap(n int) { o.mediaSeqGaps.Add(float64(n)) }
