package handler

import (
	"encoding/binary"
	"errors"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"osmo-gateway/bts"
	"osmo-gateway/config"
)

type message struct {
	mt   int
	data []byte
}

// fakeConn 模拟已升级的 WebSocket：in 为客户端发往处理器的消息，out 为处理器写回的消息。
type fakeConn struct {
	in     chan message
	out    chan message
	closed chan struct{}
	once   sync.Once

	mu        sync.Mutex
	closeCode int
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan message, 16),
		out:    make(chan message, 64),
		closed: make(chan struct{}),
	}
}

var errConnClosed = errors.New("websocket: close sent")

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case m := <-c.in:
		return m.mt, m.data, nil
	case <-c.closed:
		return 0, nil, errConnClosed
	}
}

func (c *fakeConn) WriteMessage(mt int, data []byte) error {
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}
	select {
	case c.out <- message{mt: mt, data: append([]byte(nil), data...)}:
		return nil
	case <-c.closed:
		return errConnClosed
	}
}

// WriteControl 只记录第一个关闭帧的关闭码。
func (c *fakeConn) WriteControl(mt int, data []byte, _ time.Time) error {
	if c.isClosed() {
		return errConnClosed
	}
	if mt != websocket.CloseMessage || len(data) < 2 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closeCode != 0 {
		return websocket.ErrCloseSent
	}
	c.closeCode = int(binary.BigEndian.Uint16(data))
	return nil
}

// sentCloseCode 返回处理器发出的关闭码，未发送时为 0。
func (c *fakeConn) sentCloseCode() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCode
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40000}
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) send(mt int, data string) { c.in <- message{mt: mt, data: []byte(data)} }

func (c *fakeConn) expect(t *testing.T) message {
	t.Helper()
	select {
	case m := <-c.out:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no message from handler")
		return message{}
	}
}

// runHandler 在后台运行 fn，返回其结束信号。
func runHandler(fn func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	return done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("handler did not return")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

func addrOf(t *testing.T, a net.Addr) config.ServiceAddress {
	t.Helper()
	host, port, err := net.SplitHostPort(a.String())
	if err != nil {
		t.Fatal(err)
	}
	p, _ := strconv.Atoi(port)
	return config.ServiceAddress{Host: host, Port: p}
}

// closedTCPAddr 返回一个当前无人监听的本地 TCP 地址。
func closedTCPAddr(t *testing.T) config.ServiceAddress {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	a := addrOf(t, ln.Addr())
	_ = ln.Close()
	return a
}

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Bridge.DialTimeout = time.Second
	cfg.Media.BindHost = "127.0.0.1"
	cfg.Control.AttachBackends = false
	return cfg
}

func testPool(ports ...int) *bts.Pool {
	cfgs := make([]bts.SlotConfig, len(ports))
	for i, p := range ports {
		cfgs[i] = bts.SlotConfig{Band: "GSM900", IPAccess: "1801/0/0", ARFCN: i + 1, CellIdentity: i, OsmuxPort: p}
	}
	return bts.NewPool(cfgs)
}
