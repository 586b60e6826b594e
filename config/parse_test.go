package config

import (
	"testing"

	"gopkg.in/yaml.v3"
)

// TestParsePortRange 验证端口范围字符串解析行为。
func TestParsePortRange(t *testing.T) {
	r, err := ParsePortRange("6000-6009")
	if err != nil {
		t.Fatal(err)
	}
	if r.Start != 6000 || r.End != 6009 || r.Count() != 10 {
		t.Fatalf("bad range: %+v", r)
	}
	for _, s := range []string{"bad", "10-1", "0-5", "1-70000", "a-b"} {
		if _, err := ParsePortRange(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

// TestByteSizeUnmarshal 验证 ByteSize 支持从 YAML 文本解析（如 64KB）。
func TestByteSizeUnmarshal(t *testing.T) {
	var cfg struct {
		Size ByteSize `yaml:"size"`
	}
	if err := yaml.Unmarshal([]byte("size: 64KB\n"), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Size.Int64() != 64*1024 {
		t.Fatalf("got=%d", cfg.Size.Int64())
	}
	if err := yaml.Unmarshal([]byte("size: -1MB\n"), &cfg); err == nil {
		t.Fatalf("expected negative size error")
	}
}

// TestServiceKindTable 验证五类服务均可按 kind 取址且名称稳定。
func TestServiceKindTable(t *testing.T) {
	cfg := DefaultConfig()
	want := map[ServiceKind]int{
		ServiceMedia:   1984,
		ServiceAbisOML: 3002,
		ServiceAbisRSL: 3003,
		ServiceHLR:     4258,
		ServiceBSC:     4242,
	}
	for kind, port := range want {
		addr, ok := cfg.Services.Get(kind)
		if !ok || addr.Port != port {
			t.Fatalf("%s: got %+v ok=%v", kind, addr, ok)
		}
	}
	if _, ok := cfg.Services.Get(ServiceKind(9)); ok {
		t.Fatalf("expected unknown kind")
	}
	if ServiceAbisRSL.String() != "abis_rsl" {
		t.Fatalf("name=%s", ServiceAbisRSL)
	}
	if got := (ServiceAddress{Host: "::1", Port: 5}).String(); got != "[::1]:5" {
		t.Fatalf("addr=%s", got)
	}
}
