package handler

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"osmo-gateway/bts"
	"osmo-gateway/config"
	gwlog "osmo-gateway/log"
	"osmo-gateway/observability"
	"osmo-gateway/ports"
	"osmo-gateway/status"
)

// Conn 是已完成升级的 WebSocket 连接；*websocket.Conn 满足该接口。
// WriteMessage 只能由一个 goroutine 调用，WriteControl 与 Close 可并发调用。
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
	RemoteAddr() net.Addr
}

var _ Conn = (*websocket.Conn)(nil)

const closeWriteWait = time.Second

// 关闭原因，随关闭帧发给客户端。
const (
	reasonBackendClosed      = "backend closed"
	reasonBackendUnreachable = "backend unreachable"
	reasonShutdown           = "server shutting down"
)

// closeWS 先发送关闭帧再关闭连接，可重复调用；已发送过关闭帧或连接已断开时只关闭底层连接。
// 参数：
// - conn: WebSocket 连接
// - code: 关闭码（websocket.CloseNormalClosure 等）
// - reason: 关闭原因
func closeWS(conn Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(closeWriteWait))
	_ = conn.Close()
}

// Handler 负责一条 WebSocket 连接的完整生命周期，返回时连接与后端均已关闭。
type Handler interface {
	Handle(ctx context.Context, conn Conn, r *http.Request)
}

// HandlerFunc 允许普通函数作为 Handler。
type HandlerFunc func(ctx context.Context, conn Conn, r *http.Request)

func (f HandlerFunc) Handle(ctx context.Context, conn Conn, r *http.Request) { f(ctx, conn, r) }

// Deps 是所有处理器共享的依赖，在启动时构造一次后注入。
type Deps struct {
	Config   config.Config
	BTS      *bts.Pool
	Ports    *ports.Pool
	Observer observability.Observer
	Slots    *DialSlots
}

func (d Deps) observer() observability.Observer { return observability.OrNoop(d.Observer) }

// session 记录单条连接的状态流转 Idle -> Bridging -> Closed。
type session struct {
	route string
	id    string
	state status.SessionState
	obs   observability.Observer
	log   *logrus.Entry
}

func newSession(route, id string, obs observability.Observer) *session {
	s := &session{
		route: route,
		id:    id,
		state: status.SessionIdle,
		obs:   obs,
		log:   gwlog.With(logrus.Fields{"route": route, "session": id}),
	}
	obs.ConnOpened(route)
	s.log.WithField("status", s.state).Info("WebSocket 连接已接入")
	return s
}

func (s *session) setState(st status.SessionState) {
	s.state = st
	s.log.WithField("status", st).Info("会话状态变更")
}

func (s *session) close() {
	if s.state == status.SessionClosed {
		return
	}
	s.setState(status.SessionClosed)
	s.obs.ConnClosed(s.route)
}

func remoteID(conn Conn) string {
	if a := conn.RemoteAddr(); a != nil {
		return a.String()
	}
	return "unknown"
}
