package bridge

import (
	"context"
	"errors"
	"net"
	"strconv"
	"syscall"

	"osmo-gateway/config"
)

// UDPClient 是一路媒体会话的 UDP socket：绑定本地端口并 connect 到媒体服务，队列写满时丢弃最旧数据。
type UDPClient struct {
	*client
	bindHost string
}

// NewUDPClient 创建一个未连接的 UDP 客户端。
// 参数：
// - name: 客户端名称（日志字段）
// - bindHost: 本地绑定地址
// - addr: 媒体服务地址
// - opts: 队列/超时/指标参数
func NewUDPClient(name, bindHost string, addr config.ServiceAddress, opts Options) *UDPClient {
	c := &UDPClient{client: newClient(name, addr, opts, DropOldest), bindHost: bindHost}
	c.transient = isConnRefused
	return c
}

// Connect 绑定 bindHost:localPort（0 表示临时端口）并关联到媒体服务，只能调用一次。
// 参数：
// - ctx: 拨号上下文
// - localPort: 本地端口
// 返回：
// - error: 重复调用（CodeConflict）或绑定失败（CodeBackend）
func (c *UDPClient) Connect(ctx context.Context, localPort int) error {
	if err := c.begin(); err != nil {
		return err
	}
	laddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(c.bindHost, strconv.Itoa(localPort)))
	if err != nil {
		return c.fail(err)
	}
	d := net.Dialer{Timeout: c.opts.DialTimeout, LocalAddr: laddr}
	conn, err := d.DialContext(ctx, "udp", c.addr.String())
	if err != nil {
		return c.fail(err)
	}
	return c.attach(conn)
}

// LocalPort 返回实际绑定的本地端口（未连接时为 0）。
func (c *UDPClient) LocalPort() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return 0
	}
	if a, ok := c.conn.LocalAddr().(*net.UDPAddr); ok {
		return a.Port
	}
	return 0
}

func isConnRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}
