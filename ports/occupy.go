package ports

import (
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// CheckUDPPortAvailable 检测 UDP 端口是否可用（通过尝试绑定并立即关闭）。
// 参数：
// - host: 绑定地址（空串表示 0.0.0.0）
// - port: 端口号
// 返回：
// - error: 端口不可用或绑定失败原因
func CheckUDPPortAvailable(host string, port int) error {
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, fmt.Sprint(port)))
	if err != nil {
		return err
	}
	c, err := net.ListenUDP("udp", addr)
	if err != nil {
		return err
	}
	_ = c.SetDeadline(time.Now())
	_ = c.Close()
	return nil
}

// ProbeRange 在启动时检测端口池内各端口，返回当前被其他进程占用的端口（仅告警，不阻止启动）。
func (p *Pool) ProbeRange(host string) []int {
	var busy []int
	for _, port := range p.ports {
		if err := CheckUDPPortAvailable(host, port); err != nil {
			logrus.WithFields(logrus.Fields{"port": port, "error": err}).Warn("端口池中的 UDP 端口已被占用")
			busy = append(busy, port)
		}
	}
	return busy
}
