package bridge

import (
	"context"
	"net"

	"osmo-gateway/config"
)

// TCPClient 是到 Abis/HLR/BSC 后端的一条 TCP 连接，队列写满时阻塞读循环。
type TCPClient struct {
	*client
}

// NewTCPClient 创建一个未连接的 TCP 客户端。
// 参数：
// - name: 客户端名称（日志字段）
// - addr: 后端地址
// - opts: 队列/超时/指标参数
func NewTCPClient(name string, addr config.ServiceAddress, opts Options) *TCPClient {
	return &TCPClient{client: newClient(name, addr, opts, Block)}
}

// Connect 拨号到后端（超时 DialTimeout，开启 NoDelay 与 keepalive），只能调用一次。
// 参数：
// - ctx: 拨号上下文
// 返回：
// - error: 重复调用（CodeConflict）、拨号失败（CodeBackend）或拨号期间已断开（CodeUnavailable）
func (c *TCPClient) Connect(ctx context.Context) error {
	if err := c.begin(); err != nil {
		return err
	}
	d := net.Dialer{Timeout: c.opts.DialTimeout, KeepAlive: c.opts.KeepAlive}
	conn, err := d.DialContext(ctx, "tcp", c.addr.String())
	if err != nil {
		return c.fail(err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return c.attach(conn)
}
