package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"osmo-gateway/config"
)

// TestInitJSONAndHookFields 验证 JSON 格式输出并由 Hook 补齐 service/goid/func/ts_ms 字段。
func TestInitJSONAndHookFields(t *testing.T) {
	cfg := config.DefaultConfig().Logging
	cfg.Level = "debug"
	cfg.Format = "json"
	cfg.Output = "console"
	if err := Init(cfg); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	SetOutput(&buf)

	With(map[string]any{"route": "control", "status": "test"}).Info("hello")

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("not json: %q", buf.String())
	}
	if m["route"] != "control" || m["msg"] != "hello" || m["service"] != Service {
		t.Fatalf("fields=%v", m)
	}
	if _, ok := m["goid"]; !ok {
		t.Fatalf("missing goid: %v", m)
	}
	if _, ok := m["ts_ms"]; !ok {
		t.Fatalf("missing ts_ms: %v", m)
	}
	if fn, _ := m["func"].(string); !strings.HasSuffix(fn, "TestInitJSONAndHookFields") {
		t.Fatalf("func=%v", m["func"])
	}
}

// TestExplicitFieldsKept 验证显式设置的字段不会被 Hook 覆盖。
func TestExplicitFieldsKept(t *testing.T) {
	cfg := config.DefaultConfig().Logging
	cfg.Format = "json"
	if err := Init(cfg); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	SetOutput(&buf)
	With(map[string]any{"service": "other", "ts_ms": 1}).Info("x")

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatal(err)
	}
	if m["service"] != "other" || m["ts_ms"] != float64(1) {
		t.Fatalf("fields=%v", m)
	}
}

// TestInitFileOutputAndRotate 验证 file 输出会创建目录、未知级别回退为 info，Rotate 生成备份文件。
func TestInitFileOutputAndRotate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	cfg := config.DefaultConfig().Logging
	cfg.Output = "file"
	cfg.FilePath = filepath.Join(dir, "gw.log")
	cfg.Level = "not-a-level"
	cfg.Compress = false
	if err := Init(cfg); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = Init(config.DefaultConfig().Logging); SetOutput(&bytes.Buffer{}) })
	if L().GetLevel().String() != "info" {
		t.Fatalf("level=%s", L().GetLevel())
	}
	L().Info("to file")
	if err := Rotate(); err != nil {
		t.Fatal(err)
	}
	L().Info("after rotate")

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected rotated backup, got %d files", len(entries))
	}
}

// TestRotateWithoutFile 验证未启用文件输出时 Rotate 为空操作。
func TestRotateWithoutFile(t *testing.T) {
	if err := Init(config.DefaultConfig().Logging); err != nil {
		t.Fatal(err)
	}
	SetOutput(&bytes.Buffer{})
	if err := Rotate(); err != nil {
		t.Fatal(err)
	}
}
