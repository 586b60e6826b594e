package bridge

import (
	"errors"
	"io"
	"iter"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"osmo-gateway/config"
	gwerrors "osmo-gateway/errors"
	gwlog "osmo-gateway/log"
	"osmo-gateway/observability"
)

// Options 是 TCP/UDP 客户端共用的参数。
type Options struct {
	// Route 为指标/日志中使用的路由标识（如 abis_oml）。
	Route          string
	QueueSize      int
	ReadBufferSize int
	DialTimeout    time.Duration
	KeepAlive      time.Duration
	Observer       observability.Observer
}

// OptionsFromConfig 由 bridge 配置段构造 Options。
func OptionsFromConfig(route string, cfg config.BridgeConfig, obs observability.Observer) Options {
	return Options{
		Route:          route,
		QueueSize:      cfg.QueueSize,
		ReadBufferSize: int(cfg.ReadBufferSize.Int64()),
		DialTimeout:    cfg.DialTimeout,
		KeepAlive:      cfg.KeepAlive,
		Observer:       obs,
	}
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 100
	}
	if o.ReadBufferSize <= 0 {
		o.ReadBufferSize = 64 * 1024
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 5 * time.Second
	}
	if o.KeepAlive <= 0 {
		o.KeepAlive = 30 * time.Second
	}
	o.Observer = observability.OrNoop(o.Observer)
	return o
}

// client 是 TCPClient/UDPClient 的公共部分：连接状态、有界队列与读循环。
type client struct {
	name string
	addr config.ServiceAddress
	opts Options

	queue *Queue

	started   atomic.Bool
	connected atomic.Bool

	mu     sync.Mutex
	conn   net.Conn
	closed bool

	dropLimiter *rate.Limiter
	dropped     atomic.Int64
	// transient 判断读写错误是否可忽略（UDP 的 ICMP 端口不可达）。
	transient func(error) bool
}

func newClient(name string, addr config.ServiceAddress, opts Options, policy OverflowPolicy) *client {
	opts = opts.withDefaults()
	return &client{
		name:        name,
		addr:        addr,
		opts:        opts,
		queue:       NewQueue(opts.QueueSize, policy),
		dropLimiter: rate.NewLimiter(rate.Every(time.Second), 1),
		transient:   func(error) bool { return false },
	}
}

// Name 返回客户端名称（用于日志）。
func (c *client) Name() string { return c.name }

// Connected 返回当前是否处于已连接状态。
func (c *client) Connected() bool { return c.connected.Load() }

// Dropped 返回因队列溢出而丢弃的数据块数量。
func (c *client) Dropped() int64 { return c.dropped.Load() }

func (c *client) logger() *logrus.Entry {
	return gwlog.With(logrus.Fields{
		"client": c.name,
		"route":  c.opts.Route,
		"remote": c.addr.String(),
	})
}

// begin 确保 Connect 只被调用一次。
func (c *client) begin() error {
	if !c.started.CompareAndSwap(false, true) {
		return gwerrors.New(gwerrors.CodeConflict, "connect already called")
	}
	return nil
}

// attach 在拨号成功后登记连接并启动读循环；拨号期间已被断开时关闭新连接。
func (c *client) attach(conn net.Conn) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		c.queue.Finish()
		c.logger().Info("拨号期间已断开，丢弃新连接")
		return gwerrors.New(gwerrors.CodeUnavailable, c.name+" disconnected before connect completed")
	}
	c.conn = conn
	c.connected.Store(true)
	c.mu.Unlock()
	c.logger().WithField("local", conn.LocalAddr().String()).Info("后端连接已建立")
	go c.readLoop(conn)
	return nil
}

// fail 处理拨号失败：结束队列，使 Receive 立即返回。
func (c *client) fail(err error) error {
	c.queue.Finish()
	c.queue.Close()
	c.opts.Observer.DialFailed(c.opts.Route)
	c.logger().WithError(err).Warn("后端连接失败")
	return gwerrors.Wrap(gwerrors.CodeBackend, "connect "+c.name, err)
}

// Send 向后端写入一块数据；写失败时记录日志并断开。
// 参数：
// - b: 待发送数据
// 返回：
// - error: 未连接（CodeUnavailable）或写入失败（CodeBackend）
func (c *client) Send(b []byte) error {
	if !c.connected.Load() {
		return gwerrors.New(gwerrors.CodeUnavailable, c.name+" not connected")
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	n, err := conn.Write(b)
	if n > 0 {
		c.opts.Observer.BridgeBytes(c.opts.Route, observability.DirToBackend, n)
	}
	if err != nil {
		if c.transient(err) {
			c.logger().WithError(err).Debug("后端暂不可达，忽略本次发送错误")
			return nil
		}
		c.logger().WithError(err).Warn("后端写入失败，断开连接")
		c.Disconnect()
		return gwerrors.Wrap(gwerrors.CodeBackend, "send "+c.name, err)
	}
	return nil
}

// Disconnect 本地断开：关闭 socket、清除连接标志并丢弃队列中的数据，幂等。
func (c *client) Disconnect() {
	c.closeConn("local", nil)
	c.queue.Close()
}

// Receive 返回后端数据块的序列；本地断开后立即结束，对端关闭时先取完已排队的数据。
func (c *client) Receive() iter.Seq[[]byte] { return c.queue.Seq() }

// Done 在本地断开后关闭。
func (c *client) Done() <-chan struct{} { return c.queue.Done() }

func (c *client) closeConn(reason string, err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.connected.Store(false)
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}
	_ = conn.Close()
	l := c.logger().WithField("reason", reason)
	if err != nil {
		l = l.WithError(err)
	}
	l.Info("后端连接已关闭")
}

func (c *client) readLoop(conn net.Conn) {
	defer c.queue.Finish()
	buf := make([]byte, c.opts.ReadBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			c.opts.Observer.BridgeBytes(c.opts.Route, observability.DirToClient, n)
			dropped, ok := c.queue.Push(chunk)
			if dropped {
				c.onDrop()
			}
			if !ok {
				return
			}
		}
		if err == nil {
			continue
		}
		switch {
		case c.transient(err):
			continue
		case errors.Is(err, net.ErrClosed):
			return
		case errors.Is(err, io.EOF):
			c.closeConn("remote", nil)
			return
		default:
			c.closeConn("read_error", err)
			return
		}
	}
}

func (c *client) onDrop() {
	total := c.dropped.Add(1)
	c.opts.Observer.QueueDropped(c.opts.Route)
	if c.dropLimiter.Allow() {
		c.logger().WithFields(logrus.Fields{
			"dropped_total": total,
			"queue_cap":     c.queue.Cap(),
		}).Warn("接收队列已满，丢弃最旧数据")
	}
}
