package observability

import "sync/atomic"

type Direction string

const (
	DirToBackend Direction = "to_backend"
	DirToClient  Direction = "to_client"
)

type ControlResult string

const (
	ControlOK       ControlResult = "ok"
	ControlRejected ControlResult = "rejected"
	ControlInvalid  ControlResult = "invalid"
)

// Observer 接收网关各组件的指标事件；route 为路由 token（control/abis_oml/abis_rsl/media）。
type Observer interface {
	ConnOpened(route string)
	ConnClosed(route string)
	DialFailed(route string)
	BridgeBytes(route string, dir Direction, n int)
	QueueDropped(route string)
	ControlRequest(event string, result ControlResult)
	BtsLocked(n int)
	PortsLeased(n int)
	MediaSeqGap(n int)
}

type noopObserver struct{}

func (noopObserver) ConnOpened(string)                    {}
func (noopObserver) ConnClosed(string)                    {}
func (noopObserver) DialFailed(string)                    {}
func (noopObserver) BridgeBytes(string, Direction, int)   {}
func (noopObserver) QueueDropped(string)                  {}
func (noopObserver) ControlRequest(string, ControlResult) {}
func (noopObserver) BtsLocked(int)                        {}
func (noopObserver) PortsLeased(int)                      {}
func (noopObserver) MediaSeqGap(int)                      {}

// Noop 在关闭指标时使用，零开销。
var Noop Observer = noopObserver{}

// OrNoop 在 obs 为 nil 时返回 Noop。
func OrNoop(obs Observer) Observer {
	if obs == nil {
		return Noop
	}
	return obs
}

// ConnTracker 在转发给下游 Observer 的同时统计各路由的在线连接数（供 /status 使用）。
type ConnTracker struct {
	Observer

	control atomic.Int64
	oml     atomic.Int64
	rsl     atomic.Int64
	media   atomic.Int64
	other   atomic.Int64
}

// NewConnTracker 包装下游 Observer（可为 nil）。
func NewConnTracker(next Observer) *ConnTracker {
	return &ConnTracker{Observer: OrNoop(next)}
}

func (t *ConnTracker) counter(route string) *atomic.Int64 {
	switch route {
	case "control":
		return &t.control
	case "abis_oml":
		return &t.oml
	case "abis_rsl":
		return &t.rsl
	case "media":
		return &t.media
	default:
		return &t.other
	}
}

func (t *ConnTracker) ConnOpened(route string) {
	t.counter(route).Add(1)
	t.Observer.ConnOpened(route)
}

func (t *ConnTracker) ConnClosed(route string) {
	t.counter(route).Add(-1)
	t.Observer.ConnClosed(route)
}

// Active 返回各路由当前在线连接数。
func (t *ConnTracker) Active() map[string]int64 {
	return map[string]int64{
		"control":  t.control.Load(),
		"abis_oml": t.oml.Load(),
		"abis_rsl": t.rsl.Load(),
		"media":    t.media.Load(),
		"other":    t.other.Load(),
	}
}
