package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"osmo-gateway/bridge"
	"osmo-gateway/bts"
	"osmo-gateway/config"
	"osmo-gateway/observability"
	"osmo-gateway/ports"
	"osmo-gateway/status"
)

const routeMedia = "media"

// selection 是客户端选择 BTS 的文本消息：{"bts": <index>}。
type selection struct {
	BTS *int `json:"bts"`
}

// Media 处理媒体通道：客户端先选择 BTS，再以该 BTS 的 osmux_port（为 0 时从端口池租用）绑定 UDP 与媒体服务桥接。
type Media struct {
	addr          config.ServiceAddress
	bindHost      string
	selectTimeout time.Duration
	pollInterval  time.Duration
	opts          bridge.Options
	pool          *bts.Pool
	ports         *ports.Pool
	slots         *DialSlots
	obs           observability.Observer
}

// NewMedia 创建媒体处理器。
func NewMedia(deps Deps) *Media {
	addr, _ := deps.Config.Services.Get(config.ServiceMedia)
	return &Media{
		addr:          addr,
		bindHost:      deps.Config.Media.BindHost,
		selectTimeout: deps.Config.Media.SelectTimeout,
		pollInterval:  time.Second,
		opts:          bridge.OptionsFromConfig(routeMedia, deps.Config.Bridge, deps.observer()),
		pool:          deps.BTS,
		ports:         deps.Ports,
		slots:         deps.Slots,
		obs:           deps.observer(),
	}
}

// Handle 等待 BTS 选择后建立 UDP 桥接；选择前收到的二进制帧被丢弃。
func (h *Media) Handle(ctx context.Context, conn Conn, _ *http.Request) {
	s := newSession(routeMedia, remoteID(conn), h.obs)
	defer s.close()

	var (
		udp      atomic.Pointer[bridge.UDPClient]
		selected atomic.Bool
		sel      = make(chan int, 1)
	)
	done := readLoop(conn, func(mt int, data []byte) {
		switch mt {
		case websocket.TextMessage:
			if selected.Load() {
				s.log.Debug("已选择 BTS，忽略文本消息")
				return
			}
			idx, ok := h.parseSelection(s, data)
			if ok && selected.CompareAndSwap(false, true) {
				sel <- idx
			}
		case websocket.BinaryMessage:
			if cl := udp.Load(); cl != nil {
				_ = cl.Send(data)
				return
			}
			s.log.WithField("bytes", len(data)).Debug("尚未选择 BTS，丢弃二进制消息")
		}
	}, nil)
	closeCode, closeReason := websocket.CloseNormalClosure, ""
	defer func() {
		closeWS(conn, closeCode, closeReason)
		<-done
	}()

	idx, ok := h.waitSelection(ctx, s, sel, done)
	if !ok {
		return
	}
	cfg, _ := h.pool.Get(idx)
	port := cfg.OsmuxPort
	if port == 0 && h.ports != nil {
		leased, ok := h.ports.Reserve(s.id)
		if !ok {
			s.log.WithField("bts", idx).Warn("端口池已耗尽，关闭 WebSocket")
			closeCode, closeReason = websocket.CloseTryAgainLater, "no free media port"
			return
		}
		port = leased
		h.obs.PortsLeased(h.ports.Snapshot().Leased)
		defer func() {
			if !h.ports.Release(leased, s.id) {
				holder, _ := h.ports.Holder(leased)
				s.log.WithField("holder", holder).Warn("媒体端口已不属于本会话，跳过释放")
			}
			h.obs.PortsLeased(h.ports.Snapshot().Leased)
		}()
	}
	s.log = s.log.WithFields(logrus.Fields{"bts": idx, "port": port})
	s.log.Info("客户端已选择 BTS")

	cl := bridge.NewUDPClient(routeMedia+"("+s.id+")", h.bindHost, h.addr, h.opts)
	err := h.slots.Do(ctx, func(ctx context.Context) error { return cl.Connect(ctx, port) })
	if err != nil {
		s.log.WithError(err).Warn("媒体 UDP 绑定失败，关闭 WebSocket")
		closeCode, closeReason = websocket.CloseTryAgainLater, reasonBackendUnreachable
		return
	}
	udp.Store(cl)
	s.setState(status.SessionBridging)

	var seq seqTracker
	forward(ctx, conn, cl, done, func(chunk []byte) {
		if n := seq.observe(chunk); n > 0 {
			h.obs.MediaSeqGap(n)
		}
	})
	if seq.gaps > 0 {
		s.log.WithField("seq_gaps", seq.gaps).Info("媒体会话结束，存在 RTP 丢包")
	}
}

func (h *Media) parseSelection(s *session, data []byte) (int, bool) {
	var m selection
	if err := json.Unmarshal(data, &m); err != nil || m.BTS == nil {
		s.log.WithField("message", string(data)).Warn("无法识别的媒体选择消息")
		return 0, false
	}
	if _, ok := h.pool.Get(*m.BTS); !ok {
		s.log.WithField("bts", *m.BTS).Warn("选择的 BTS 不存在")
		return 0, false
	}
	return *m.BTS, true
}

// waitSelection 阻塞直到客户端选择 BTS、WebSocket 关闭、超时或服务关闭，期间按 pollInterval 记录等待日志。
func (h *Media) waitSelection(ctx context.Context, s *session, sel <-chan int, done <-chan struct{}) (int, bool) {
	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()
	var timeout <-chan time.Time
	if h.selectTimeout > 0 {
		t := time.NewTimer(h.selectTimeout)
		defer t.Stop()
		timeout = t.C
	}
	for {
		select {
		case idx := <-sel:
			return idx, true
		case <-ticker.C:
			s.log.Info("等待客户端选择 BTS")
		case <-done:
			return 0, false
		case <-timeout:
			s.log.WithField("timeout", h.selectTimeout).Warn("等待 BTS 选择超时")
			return 0, false
		case <-ctx.Done():
			return 0, false
		}
	}
}
