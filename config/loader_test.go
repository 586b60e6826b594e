package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gwerrors "osmo-gateway/errors"
)

// writeFile 在临时目录写入测试文件并返回路径。
func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// TestLoadMergesDefaults 验证 YAML 只覆盖给出的字段，其余保持默认值。
func TestLoadMergesDefaults(t *testing.T) {
	p := writeFile(t, "config.yaml", `
gateway:
  listen_port: 8080
  shutdown_timeout: 3s
services:
  abis_oml:
    host: 10.0.0.5
    port: 3102
bridge:
  queue_size: 16
  read_buffer_size: 8KB
logging:
  format: text
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Gateway.ListenPort != 8080 || cfg.Gateway.ShutdownTimeout != 3*time.Second {
		t.Fatalf("gateway=%+v", cfg.Gateway)
	}
	if cfg.Services.AbisOML.String() != "10.0.0.5:3102" {
		t.Fatalf("oml=%s", cfg.Services.AbisOML)
	}
	if cfg.Services.AbisRSL.Port != 3003 {
		t.Fatalf("rsl default lost: %+v", cfg.Services.AbisRSL)
	}
	if cfg.Bridge.QueueSize != 16 || cfg.Bridge.ReadBufferSize.Int64() != 8*1024 {
		t.Fatalf("bridge=%+v", cfg.Bridge)
	}
	if cfg.Gateway.MediaPath != "/wsdr/osmo/media" {
		t.Fatalf("media path=%q", cfg.Gateway.MediaPath)
	}
}

// TestLoadErrors 验证缺失文件、非法 YAML、非法字段均返回 CodeConfig。
func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); gwerrors.Code(err) != gwerrors.CodeConfig {
		t.Fatalf("missing file: %v", err)
	}
	if _, err := Load(writeFile(t, "bad.yaml", "gateway: [")); gwerrors.Code(err) != gwerrors.CodeConfig {
		t.Fatalf("bad yaml: %v", err)
	}
	cases := []string{
		"gateway:\n  worker_pool_size: 0\n",
		"gateway:\n  listen_port: 70000\n",
		"gateway:\n  media_path: /wsdr/osmo/control\n",
		"gateway:\n  control_path: control\n",
		"services:\n  hlr:\n    port: 0\n",
		"port_pool:\n  port_range: 6010-6000\n",
		"bridge:\n  queue_size: -1\n",
		"logging:\n  output: file\n  file_path: \"\"\n",
		"logging:\n  output: syslog\n",
	}
	for _, body := range cases {
		if _, err := Load(writeFile(t, "c.yaml", body)); gwerrors.Code(err) != gwerrors.CodeConfig {
			t.Fatalf("expected config error for %q, got %v", body, err)
		}
	}
}

// TestLoadOptional 验证文件不存在时回落到默认配置。
func TestLoadOptional(t *testing.T) {
	cfg, found, err := LoadOptional(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil || found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if cfg.Gateway.ListenPort != 3000 {
		t.Fatalf("port=%d", cfg.Gateway.ListenPort)
	}
	_, found, err = LoadOptional(writeFile(t, "c.yaml", "gateway:\n  listen_port: 3100\n"))
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
}

// TestApplyEnv 验证 OSMO_* 环境变量覆盖地址、端口与路径。
func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"OSMO_SERVER_PORT":       "3500",
		"OSMO_TCP_ABIS_RSL_URI":  "bts-host",
		"OSMO_TCP_ABIS_RSL_PORT": "13003",
		"OSMO_UDP_MEDIA_PORT":    "1985",
		"OSMO_MEDIA_URI":         "/gw/media",
		"OSMO_WORKER_POOL_SIZE":  "8",
		"OSMO_TCP_HLR_URI":       "   ",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	cfg := DefaultConfig()
	if err := ApplyEnv(&cfg, lookup); err != nil {
		t.Fatal(err)
	}
	if cfg.Gateway.ListenPort != 3500 || cfg.Gateway.WorkerPoolSize != 8 {
		t.Fatalf("gateway=%+v", cfg.Gateway)
	}
	if cfg.Services.AbisRSL.String() != "bts-host:13003" {
		t.Fatalf("rsl=%s", cfg.Services.AbisRSL)
	}
	if cfg.Services.Media.Port != 1985 || cfg.Services.Media.Host != "localhost" {
		t.Fatalf("media=%+v", cfg.Services.Media)
	}
	if cfg.Services.HLR.Host != "localhost" {
		t.Fatalf("blank env must not override: %+v", cfg.Services.HLR)
	}
	if cfg.Gateway.MediaPath != "/gw/media" {
		t.Fatalf("media path=%q", cfg.Gateway.MediaPath)
	}

	env = map[string]string{"OSMO_TCP_BSC_PORT": "abc"}
	cfg = DefaultConfig()
	if err := ApplyEnv(&cfg, lookup); gwerrors.Code(err) != gwerrors.CodeConfig {
		t.Fatalf("expected config error, got %v", err)
	}
	env = map[string]string{"OSMO_WORKER_POOL_SIZE": "0"}
	cfg = DefaultConfig()
	if err := ApplyEnv(&cfg, lookup); gwerrors.Code(err) != gwerrors.CodeConfig {
		t.Fatalf("expected validation error, got %v", err)
	}
}
