package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	gwerrors "osmo-gateway/errors"
)

// Load 从 YAML 文件读取并解析配置，并做基础校验与默认值补齐。
// 参数：
// - path: 配置文件路径
// 返回：
// - Config: 合并默认值后的配置
// - error: 读取/解析/校验失败原因（CodeConfig）
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, gwerrors.Wrap(gwerrors.CodeConfig, "read config file", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, gwerrors.Wrap(gwerrors.CodeConfig, "unmarshal yaml", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadOptional 与 Load 相同，但文件不存在时返回默认配置（仅靠环境变量部署时使用）。
// 返回：
// - Config: 配置
// - bool: 是否实际读取了文件
// - error: 读取/解析/校验失败原因
func LoadOptional(path string) (Config, bool, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		cfg := DefaultConfig()
		return cfg, false, Validate(cfg)
	}
	cfg, err := Load(path)
	return cfg, err == nil, err
}

// Validate 校验配置字段合法性（端口、路径、池大小、日志输出等）。
// 参数：
// - cfg: 待校验配置
// 返回：
// - error: 校验失败原因（CodeConfig）
func Validate(cfg Config) error {
	bad := func(format string, args ...any) error {
		return gwerrors.Wrap(gwerrors.CodeConfig, "invalid config", fmt.Errorf(format, args...))
	}
	g := cfg.Gateway
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return bad("gateway.listen_port: %d", g.ListenPort)
	}
	if g.WorkerPoolSize <= 0 {
		return bad("gateway.worker_pool_size: %d", g.WorkerPoolSize)
	}
	if g.ShutdownTimeout <= 0 {
		return bad("gateway.shutdown_timeout: %s", g.ShutdownTimeout)
	}
	if strings.TrimSpace(g.BTSConfigPath) == "" {
		return bad("gateway.bts_config is required")
	}
	seen := make(map[string]string, 4)
	for name, p := range map[string]string{
		"control_path":  g.ControlPath,
		"abis_oml_path": g.OMLPath,
		"abis_rsl_path": g.RSLPath,
		"media_path":    g.MediaPath,
	} {
		if !strings.HasPrefix(p, "/") {
			return bad("gateway.%s must start with '/': %q", name, p)
		}
		if other, ok := seen[p]; ok {
			return bad("gateway.%s duplicates gateway.%s: %q", name, other, p)
		}
		seen[p] = name
	}
	for _, kind := range AllServices {
		addr, _ := cfg.Services.Get(kind)
		if strings.TrimSpace(addr.Host) == "" {
			return bad("services.%s.host is required", kind)
		}
		if addr.Port <= 0 || addr.Port > 65535 {
			return bad("services.%s.port: %d", kind, addr.Port)
		}
	}
	r, err := ParsePortRange(cfg.PortPool.PortRange)
	if err != nil {
		return gwerrors.Wrap(gwerrors.CodeConfig, "invalid port_pool.port_range", err)
	}
	if r.Count() <= 0 {
		return bad("port_pool.port_range is empty")
	}
	if cfg.Bridge.QueueSize <= 0 {
		return bad("bridge.queue_size: %d", cfg.Bridge.QueueSize)
	}
	if cfg.Bridge.ReadBufferSize.Int64() < 512 {
		return bad("bridge.read_buffer_size too small: %d", cfg.Bridge.ReadBufferSize.Int64())
	}
	if cfg.Bridge.DialTimeout <= 0 {
		return bad("bridge.dial_timeout: %s", cfg.Bridge.DialTimeout)
	}
	if cfg.Media.SelectTimeout < 0 {
		return bad("media.select_timeout: %s", cfg.Media.SelectTimeout)
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return bad("metrics.path must start with '/': %q", cfg.Metrics.Path)
	}
	switch strings.ToLower(cfg.Logging.Output) {
	case "", "console":
	case "file", "both":
		if cfg.Logging.FilePath == "" {
			return bad("logging.file_path is required when output=%s", cfg.Logging.Output)
		}
	default:
		return bad("logging.output: %q", cfg.Logging.Output)
	}
	return nil
}
