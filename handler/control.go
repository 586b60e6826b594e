package handler

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"osmo-gateway/bridge"
	"osmo-gateway/bts"
	"osmo-gateway/config"
	"osmo-gateway/control"
	"osmo-gateway/observability"
	"osmo-gateway/status"
)

// BackendSink 接收 HLR/BSC 后端发来的数据；默认丢弃。
type BackendSink func(kind config.ServiceKind, owner bts.OwnerID, chunk []byte)

func discardSink(config.ServiceKind, bts.OwnerID, []byte) {}

// Control 处理控制通道：JSON 请求分派到 BTS 槽位池，连接关闭时释放该连接持有的全部槽位。
type Control struct {
	dispatcher *control.Dispatcher
	pool       *bts.Pool
	services   config.ServicesConfig
	attach     bool
	bridgeCfg  config.BridgeConfig
	slots      *DialSlots
	obs        observability.Observer
	sink       BackendSink
}

const routeControl = "control"

// NewControl 创建控制处理器。
// 参数：
// - deps: 共享依赖
// - sink: HLR/BSC 数据回调（nil 表示丢弃）
func NewControl(deps Deps, sink BackendSink) *Control {
	if sink == nil {
		sink = discardSink
	}
	return &Control{
		dispatcher: control.NewDispatcher(deps.BTS, deps.observer()),
		pool:       deps.BTS,
		services:   deps.Config.Services,
		attach:     deps.Config.Control.AttachBackends,
		bridgeCfg:  deps.Config.Bridge,
		slots:      deps.Slots,
		obs:        deps.observer(),
		sink:       sink,
	}
}

// Handle 为连接分配 owner，按需连接 HLR/BSC，然后按序应答控制请求直到连接关闭。
func (h *Control) Handle(ctx context.Context, conn Conn, _ *http.Request) {
	owner := bts.OwnerID(uuid.NewString())
	s := newSession(routeControl, remoteID(conn), h.obs)
	s.log = s.log.WithField("owner", owner)
	defer s.close()

	backends, err := h.connectBackends(ctx, s)
	if err != nil {
		s.log.WithError(err).Warn("控制通道后端不可达，关闭 WebSocket")
		closeWS(conn, websocket.CloseTryAgainLater, reasonBackendUnreachable)
		return
	}
	s.setState(status.SessionBridging)

	var wg sync.WaitGroup
	for kind, cl := range backends {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for chunk := range cl.Receive() {
				h.sink(kind, owner, chunk)
			}
			// 后端断开时关闭 WebSocket，结束下面的读循环
			closeWS(conn, websocket.CloseNormalClosure, reasonBackendClosed)
		}()
	}
	stop := context.AfterFunc(ctx, func() { closeWS(conn, websocket.CloseGoingAway, reasonShutdown) })

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		out, mtOut, ok := h.respond(s, mt, data, owner)
		if !ok {
			continue
		}
		if err := conn.WriteMessage(mtOut, out); err != nil {
			s.log.WithError(err).Warn("控制响应写入失败")
			break
		}
	}

	stop()
	closeWS(conn, websocket.CloseNormalClosure, "")
	for _, cl := range backends {
		cl.Disconnect()
	}
	wg.Wait()
	if held := h.pool.OwnedBy(owner); len(held) > 0 {
		n := h.pool.ReleaseAllOwnedBy(owner)
		s.log.WithFields(logrus.Fields{"bts": held, "released": n}).Info("连接关闭，已释放持有的 BTS")
	}
	_, locked := h.pool.Stats()
	h.obs.BtsLocked(locked)
}

// respond 处理一条消息：文本帧为 JSON 请求，二进制帧为 4 字节 id 分帧请求。
func (h *Control) respond(s *session, mt int, data []byte, owner bts.OwnerID) ([]byte, int, bool) {
	switch mt {
	case websocket.TextMessage:
		s.log.WithField("request", string(data)).Debug("收到控制请求")
		out, err := h.dispatcher.HandleText(data, owner)
		if err != nil {
			s.log.WithError(err).Error("控制响应编码失败")
			return nil, 0, false
		}
		return out, websocket.TextMessage, true
	case websocket.BinaryMessage:
		out, err := h.dispatcher.HandleFrame(data, owner)
		if err != nil {
			s.log.WithError(err).Warn("分帧控制请求解析失败")
			return nil, 0, false
		}
		return out, websocket.BinaryMessage, true
	default:
		return nil, 0, false
	}
}

func (h *Control) connectBackends(ctx context.Context, s *session) (map[config.ServiceKind]*bridge.TCPClient, error) {
	out := map[config.ServiceKind]*bridge.TCPClient{}
	if !h.attach {
		return out, nil
	}
	for _, kind := range []config.ServiceKind{config.ServiceHLR, config.ServiceBSC} {
		addr, _ := h.services.Get(kind)
		cl := bridge.NewTCPClient(kind.String(), addr, bridge.OptionsFromConfig(routeControl, h.bridgeCfg, h.obs))
		if err := h.slots.Do(ctx, cl.Connect); err != nil {
			cl.Disconnect()
			for _, c := range out {
				c.Disconnect()
			}
			return nil, err
		}
		s.log.WithFields(logrus.Fields{"backend": kind.String(), "remote": addr.String()}).Debug("控制通道后端已连接")
		out[kind] = cl
	}
	return out, nil
}
