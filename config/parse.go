package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type PortRange struct {
	Start int
	End   int
}

// Count 返回范围内的端口数量（含两端）。
func (r PortRange) Count() int { return r.End - r.Start + 1 }

// ParsePortRange 解析端口范围字符串（形如 "6000-6009"）。
// 参数：
// - s: 端口范围字符串
// 返回：
// - PortRange: 起止端口
// - error: 解析失败原因
func ParsePortRange(s string) (PortRange, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return PortRange{}, fmt.Errorf("invalid port_range: %q", s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return PortRange{}, fmt.Errorf("invalid port_range start: %q", parts[0])
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return PortRange{}, fmt.Errorf("invalid port_range end: %q", parts[1])
	}
	if start <= 0 || end <= 0 || end < start || end > 65535 {
		return PortRange{}, fmt.Errorf("invalid port_range values: %d-%d", start, end)
	}
	return PortRange{Start: start, End: end}, nil
}

type ByteSize int64

// Int64 返回字节数的 int64 表达。
func (b ByteSize) Int64() int64 { return int64(b) }

// UnmarshalYAML 支持从 YAML 中解析 ByteSize（如 100MB、64KB、1024B）。
// 参数：
// - value: YAML 节点
// 返回：
// - error: 解析失败原因
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		*b = 0
		return nil
	}
	v := strings.TrimSpace(value.Value)
	if v == "" {
		*b = 0
		return nil
	}
	n, err := parseByteSize(v)
	if err != nil {
		return err
	}
	*b = ByteSize(n)
	return nil
}

// parseByteSize 解析形如 "100MB"/"1.5GB" 的字节数文本。
// 参数：
// - s: 字节数文本
// 返回：
// - int64: 字节数
// - error: 解析失败原因
func parseByteSize(s string) (int64, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	mult := int64(1)
	switch {
	case strings.HasSuffix(s, "KB"):
		mult = 1024
		s = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "MB"):
		mult = 1024 * 1024
		s = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "GB"):
		mult = 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "B"):
		mult = 1
		s = strings.TrimSuffix(s, "B")
	}
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}
	if f < 0 {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}
	return int64(f * float64(mult)), nil
}

// DefaultConfig 返回一份可用的默认配置，地址与路径沿用现网部署的缺省值。
func DefaultConfig() Config {
	return Config{
		Gateway: GatewayConfig{
			ListenHost:      "0.0.0.0",
			ListenPort:      3000,
			ControlPath:     "/wsdr/osmo/control",
			OMLPath:         "/wsdr/osmo/abis_oml",
			RSLPath:         "/wsdr/osmo/abis_rsl",
			MediaPath:       "/wsdr/osmo/media",
			WorkerPoolSize:  4,
			BTSConfigPath:   "bts-config.json",
			ShutdownTimeout: 10 * time.Second,
		},
		Services: ServicesConfig{
			Media:   ServiceAddress{Host: "localhost", Port: 1984},
			AbisOML: ServiceAddress{Host: "localhost", Port: 3002},
			AbisRSL: ServiceAddress{Host: "localhost", Port: 3003},
			HLR:     ServiceAddress{Host: "localhost", Port: 4258},
			BSC:     ServiceAddress{Host: "localhost", Port: 4242},
		},
		PortPool: PortPoolConfig{
			PortRange: "6000-6009",
		},
		Bridge: BridgeConfig{
			QueueSize:      100,
			ReadBufferSize: ByteSize(64 * 1024),
			DialTimeout:    5 * time.Second,
			KeepAlive:      30 * time.Second,
		},
		Media: MediaConfig{
			BindHost: "127.0.0.1",
		},
		Control: ControlConfig{
			AttachBackends: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Output:     "console",
			FilePath:   "/var/log/osmo-gateway.log",
			MaxSize:    ByteSize(100 * 1024 * 1024),
			MaxAge:     7,
			MaxBackups: 3,
			Compress:   true,
		},
	}
}
