package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"osmo-gateway/bridge"
	"osmo-gateway/config"
	"osmo-gateway/observability"
	"osmo-gateway/status"
)

// Abis 是 OML/RSL 的原始 TCP 双向桥接处理器。
type Abis struct {
	route string
	addr  config.ServiceAddress
	opts  bridge.Options
	slots *DialSlots
	obs   observability.Observer
}

// NewAbis 创建 Abis 处理器。
// 参数：
// - kind: config.ServiceAbisOML 或 config.ServiceAbisRSL
// - deps: 共享依赖
func NewAbis(kind config.ServiceKind, deps Deps) *Abis {
	addr, _ := deps.Config.Services.Get(kind)
	route := kind.String()
	return &Abis{
		route: route,
		addr:  addr,
		opts:  bridge.OptionsFromConfig(route, deps.Config.Bridge, deps.observer()),
		slots: deps.Slots,
		obs:   deps.observer(),
	}
}

// Handle 连接后端后双向转发：二进制帧写入后端，后端数据作为二进制帧写回；任一侧关闭时两侧一起关闭。
func (h *Abis) Handle(ctx context.Context, conn Conn, _ *http.Request) {
	s := newSession(h.route, remoteID(conn), h.obs)
	defer s.close()

	cl := bridge.NewTCPClient(h.route, h.addr, h.opts)
	if err := h.slots.Do(ctx, cl.Connect); err != nil {
		s.log.WithError(err).Warn("后端不可达，关闭 WebSocket")
		cl.Disconnect()
		closeWS(conn, websocket.CloseTryAgainLater, reasonBackendUnreachable)
		return
	}
	s.setState(status.SessionBridging)

	done := readLoop(conn, func(mt int, data []byte) {
		if mt != websocket.BinaryMessage {
			s.log.WithField("type", mt).Debug("忽略非二进制消息")
			return
		}
		_ = cl.Send(data)
	}, cl.Disconnect)
	forward(ctx, conn, cl, done, nil)
}
