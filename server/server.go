package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"osmo-gateway/bts"
	"osmo-gateway/config"
	gwerrors "osmo-gateway/errors"
	"osmo-gateway/handler"
	gwlog "osmo-gateway/log"
	"osmo-gateway/observability"
	"osmo-gateway/ports"
	"osmo-gateway/router"
	"osmo-gateway/status"
)

// Options 是组装 Server 所需的依赖，均在 main 中构造后注入。
type Options struct {
	Config  config.Config
	Router  *router.Router
	Tracker *observability.ConnTracker
	BTS     *bts.Pool
	Ports   *ports.Pool
	Slots   *handler.DialSlots
	// Metrics 为 nil 时不注册指标路径。
	Metrics http.Handler
}

// Server 负责 HTTP 监听、WebSocket 升级与路由分发，并提供 /status 与 /metrics。
type Server struct {
	opts     Options
	paths    map[string]string
	upgrader websocket.Upgrader
	httpSrv  *http.Server
	started  time.Time
	state    atomic.Value

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// HealthStatus 是 GET /status 的响应体。
type HealthStatus struct {
	Status          status.GatewayStatus `json:"status"`
	StartedAtUnixMs int64                `json:"started_at_unix_ms"`
	NowUnixMs       int64                `json:"now_unix_ms"`
	Connections     map[string]int64     `json:"connections"`
	BTS             BTSStatus            `json:"bts"`
	Ports           *ports.Snapshot      `json:"ports,omitempty"`
	DialSlotsInUse  int                  `json:"dial_slots_in_use"`
	Routes          []string             `json:"routes"`
}

type BTSStatus struct {
	Total  int `json:"total"`
	Locked int `json:"locked"`
}

// New 创建 Server；监听由 Serve/ListenAndServe 开始。
func New(opts Options) *Server {
	g := opts.Config.Gateway
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		opts: opts,
		paths: map[string]string{
			g.ControlPath: router.TokenControl,
			g.OMLPath:     router.TokenAbisOML,
			g.RSLPath:     router.TokenAbisRSL,
			g.MediaPath:   router.TokenMedia,
		},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		started: time.Now(),
		ctx:     ctx,
		cancel:  cancel,
	}
	if s.opts.Tracker == nil {
		s.opts.Tracker = observability.NewConnTracker(nil)
	}
	s.state.Store(status.GatewayStarting)
	s.httpSrv = &http.Server{
		Addr:              net.JoinHostPort(g.ListenHost, strconv.Itoa(g.ListenPort)),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Status 返回当前网关状态。
func (s *Server) Status() status.GatewayStatus { return s.state.Load().(status.GatewayStatus) }

// Handler 返回完整的 HTTP 处理链（测试中可直接挂到 httptest.Server）。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	if s.opts.Metrics != nil && s.opts.Config.Metrics.Enabled {
		mux.Handle("GET "+s.opts.Config.Metrics.Path, s.opts.Metrics)
	}
	mux.HandleFunc("/", s.handleWebSocket)
	return mux
}

// ListenAndServe 在配置的地址上监听并阻塞服务，Shutdown 后返回 nil。
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.httpSrv.Addr)
	if err != nil {
		return gwerrors.Wrap(gwerrors.CodeUnavailable, "listen "+s.httpSrv.Addr, err)
	}
	return s.Serve(ln)
}

// Serve 在给定 listener 上服务。
func (s *Server) Serve(ln net.Listener) error {
	s.state.Store(status.GatewayRunning)
	gwlog.With(logrus.Fields{"addr": ln.Addr().String(), "status": status.GatewayRunning}).Info("网关开始监听")
	err := s.httpSrv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return gwerrors.WithMessage(err, "serve "+ln.Addr().String())
}

// Shutdown 停止接收新连接，取消所有处理器并等待其退出（受 ctx 超时约束）。
func (s *Server) Shutdown(ctx context.Context) error {
	s.state.Store(status.GatewayStopping)
	err := s.httpSrv.Shutdown(ctx)
	s.cancel()

	waited := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-ctx.Done():
		if err == nil {
			err = gwerrors.Wrap(gwerrors.CodeUnavailable, "wait handlers", ctx.Err())
		}
	}
	s.state.Store(status.GatewayStopped)
	gwlog.With(logrus.Fields{"status": status.GatewayStopped}).Info("网关已停止")
	return err
}

// resolve 优先按配置的完整路径匹配，否则取路径最后一段。
func (s *Server) resolve(path string) handler.Handler {
	if tok, ok := s.paths[path]; ok {
		return s.opts.Router.Resolve(tok)
	}
	return s.opts.Router.To(path)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.NotFound(w, r)
		return
	}
	if s.ctx.Err() != nil {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		gwlog.With(logrus.Fields{"path": r.URL.Path, "remote": r.RemoteAddr}).WithError(err).Warn("WebSocket 升级失败")
		return
	}
	s.wg.Add(1)
	defer s.wg.Done()
	s.resolve(r.URL.Path).Handle(s.ctx, conn, r)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	hs := HealthStatus{
		Status:          s.Status(),
		StartedAtUnixMs: s.started.UnixMilli(),
		NowUnixMs:       time.Now().UnixMilli(),
		Connections:     s.opts.Tracker.Active(),
		DialSlotsInUse:  s.opts.Slots.InUse(),
		Routes:          s.opts.Router.Tokens(),
	}
	if s.opts.BTS != nil {
		hs.BTS.Total, hs.BTS.Locked = s.opts.BTS.Stats()
	}
	if s.opts.Ports != nil {
		snap := s.opts.Ports.Snapshot()
		hs.Ports = &snap
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(hs)
}
