package log

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"osmo-gateway/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Service 是每条日志携带的 service 字段。
const Service = "osmo-gateway"

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

var (
	base = logrus.New()

	mu   sync.Mutex
	file *lumberjack.Logger
)

func init() {
	base.AddHook(gatewayHook{})
}

// Init 初始化网关日志系统。
// 参数：
// - cfg: 日志配置（级别、格式、输出 console/file/both 与文件滚动策略）
// 返回：
// - error: 初始化失败原因（如文件目录无法创建）
func Init(cfg config.LoggingConfig) error {
	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	if strings.ToLower(cfg.Format) == "json" {
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: timestampFormat})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: timestampFormat})
	}

	out := strings.ToLower(cfg.Output)
	var lj *lumberjack.Logger
	if out == "file" || out == "both" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return err
		}
		lj = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    max(1, int(cfg.MaxSize.Int64()/(1024*1024))),
			MaxAge:     max(1, cfg.MaxAge),
			MaxBackups: max(0, cfg.MaxBackups),
			Compress:   cfg.Compress,
			LocalTime:  true,
		}
	}
	mu.Lock()
	prev := file
	file = lj
	mu.Unlock()
	switch {
	case lj == nil:
		base.SetOutput(os.Stdout)
	case out == "both":
		base.SetOutput(io.MultiWriter(os.Stdout, lj))
	default:
		base.SetOutput(lj)
	}
	if prev != nil {
		_ = prev.Close()
	}
	if err != nil {
		base.WithField("level", cfg.Level).Warn("未知日志级别，使用 info")
	}
	return nil
}

// Rotate 在收到 SIGHUP 时滚动日志文件；未启用文件输出时什么也不做。
func Rotate() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	return file.Rotate()
}

// SetOutput 替换日志输出目标（测试中用于静默或捕获日志）。
func SetOutput(w io.Writer) { base.SetOutput(w) }

// L 返回底层 logrus Logger 指针（全局单例）。
func L() *logrus.Logger { return base }

// With 创建带字段的日志 Entry。
// 参数：
// - fields: 结构化字段（route/session/status/port/bts 等）
func With(fields logrus.Fields) *logrus.Entry { return base.WithFields(fields) }

type gatewayHook struct{}

func (gatewayHook) Levels() []logrus.Level { return logrus.AllLevels }

// Fire 补齐 service/goid/func/ts_ms 字段（已显式设置的保持不变）。
func (gatewayHook) Fire(e *logrus.Entry) error {
	setDefault(e, "service", func() any { return Service })
	setDefault(e, "goid", func() any { return goid() })
	setDefault(e, "func", func() any { return caller() })
	setDefault(e, "ts_ms", func() any { return e.Time.UnixMilli() })
	return nil
}

func setDefault(e *logrus.Entry, key string, v func() any) {
	if _, ok := e.Data[key]; !ok {
		e.Data[key] = v()
	}
}

// caller 返回 logrus 调用链之上的第一个函数名，即打日志的业务函数。
func caller() string {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	inLogrus := false
	for {
		f, more := frames.Next()
		switch {
		case strings.Contains(f.Function, "sirupsen/logrus"):
			inLogrus = true
		case inLogrus:
			return f.Function
		}
		if !more {
			return ""
		}
	}
}

// goid 解析当前 goroutine ID（仅用于日志辅助字段）。
func goid() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	s := strings.TrimPrefix(string(buf[:n]), "goroutine ")
	i := strings.IndexByte(s, ' ')
	if i < 0 {
		return 0
	}
	id, _ := strconv.ParseInt(s[:i], 10, 64)
	return id
}
