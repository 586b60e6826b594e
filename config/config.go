package config

import (
	"net"
	"strconv"
	"time"
)

type Config struct {
	Gateway  GatewayConfig  `yaml:"gateway"`
	Services ServicesConfig `yaml:"services"`
	PortPool PortPoolConfig `yaml:"port_pool"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	Media    MediaConfig    `yaml:"media"`
	Control  ControlConfig  `yaml:"control"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type GatewayConfig struct {
	ListenHost      string        `yaml:"listen_host"`
	ListenPort      int           `yaml:"listen_port"`
	ControlPath     string        `yaml:"control_path"`
	OMLPath         string        `yaml:"abis_oml_path"`
	RSLPath         string        `yaml:"abis_rsl_path"`
	MediaPath       string        `yaml:"media_path"`
	WorkerPoolSize  int           `yaml:"worker_pool_size"`
	BTSConfigPath   string        `yaml:"bts_config"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ServiceAddress 是一个后端服务的网络地址，启动后只读。
type ServiceAddress struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// String 返回 host:port 形式的地址（IPv6 自动加方括号）。
func (a ServiceAddress) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

type ServicesConfig struct {
	Media   ServiceAddress `yaml:"media"`
	AbisOML ServiceAddress `yaml:"abis_oml"`
	AbisRSL ServiceAddress `yaml:"abis_rsl"`
	HLR     ServiceAddress `yaml:"hlr"`
	BSC     ServiceAddress `yaml:"bsc"`
}

type PortPoolConfig struct {
	PortRange string `yaml:"port_range"`
}

type BridgeConfig struct {
	QueueSize      int           `yaml:"queue_size"`
	ReadBufferSize ByteSize      `yaml:"read_buffer_size"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	KeepAlive      time.Duration `yaml:"keep_alive"`
}

type MediaConfig struct {
	BindHost      string        `yaml:"bind_host"`
	SelectTimeout time.Duration `yaml:"select_timeout"`
}

type ControlConfig struct {
	AttachBackends bool `yaml:"attach_backends"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type LoggingConfig struct {
	Level      string   `yaml:"level"`
	Format     string   `yaml:"format"`
	Output     string   `yaml:"output"`
	FilePath   string   `yaml:"file_path"`
	MaxSize    ByteSize `yaml:"max_size"`
	MaxAge     int      `yaml:"max_age"`
	MaxBackups int      `yaml:"max_backups"`
	Compress   bool     `yaml:"compress"`
}
