package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"

	"osmo-gateway/bts"
	"osmo-gateway/config"
	"osmo-gateway/handler"
	gwlog "osmo-gateway/log"
	"osmo-gateway/observability"
	"osmo-gateway/observability/prom"
	"osmo-gateway/ports"
	"osmo-gateway/router"
	"osmo-gateway/server"
)

const Version = "1.0"

func main() {
	flag.CommandLine.SetOutput(os.Stdout)
	configPathFlag := flag.String("config_path", "configs/config.yaml", "配置文件路径（YAML）。如果是目录，则默认读取该目录下的 config.yaml；文件不存在时使用默认值")
	versionFlag := flag.Bool("version", false, "输出版本并退出")
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stdout, "osmo-gateway %s\n\n", Version)
		_, _ = fmt.Fprintln(os.Stdout, "用法：")
		_, _ = fmt.Fprintln(os.Stdout, "  osmo-gateway [--config_path <path>] [--version] [--help]")
		_, _ = fmt.Fprintln(os.Stdout, "\n参数：")
		flag.PrintDefaults()
		_, _ = fmt.Fprintln(os.Stdout, "\n环境变量 OSMO_* 覆盖配置文件中的同名项。")
	}
	flag.Parse()

	if *versionFlag {
		_, _ = fmt.Fprintln(os.Stdout, Version)
		return
	}

	if err := run(resolveConfigPath(*configPathFlag)); err != nil {
		gwlog.L().WithError(err).Error("网关启动失败")
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, fromFile, err := config.LoadOptional(configPath)
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(&cfg, nil); err != nil {
		return err
	}
	if err := gwlog.Init(cfg.Logging); err != nil {
		return err
	}
	gwlog.With(logrus.Fields{"config": configPath, "from_file": fromFile, "version": Version}).Info("配置加载完成")

	btsPool, err := bts.LoadFile(cfg.Gateway.BTSConfigPath)
	if err != nil {
		return err
	}
	gwlog.With(logrus.Fields{"bts": btsPool.Len(), "file": cfg.Gateway.BTSConfigPath}).Info("BTS 配置加载完成")

	portRange, err := config.ParsePortRange(cfg.PortPool.PortRange)
	if err != nil {
		return err
	}
	portPool, err := ports.NewPool(portRange.Start, portRange.End)
	if err != nil {
		return err
	}
	if busy := portPool.ProbeRange(cfg.Media.BindHost); len(busy) > 0 {
		gwlog.With(logrus.Fields{"busy": busy, "range": cfg.PortPool.PortRange}).Warn("端口池中有端口被占用，租用时可能绑定失败")
	}

	var (
		next    observability.Observer
		metrics http.Handler
	)
	if cfg.Metrics.Enabled {
		reg := prom.NewRegistry()
		next = prom.NewGatewayObserver(reg)
		metrics = prom.Handler(reg)
	}
	tracker := observability.NewConnTracker(next)
	slots := handler.NewDialSlots(cfg.Gateway.WorkerPoolSize)

	deps := handler.Deps{
		Config:   cfg,
		BTS:      btsPool,
		Ports:    portPool,
		Observer: tracker,
		Slots:    slots,
	}
	opts := server.Options{
		Config:  cfg,
		Router:  router.Build(deps, nil),
		Tracker: tracker,
		BTS:     btsPool,
		Ports:   portPool,
		Slots:   slots,
		Metrics: metrics,
	}
	srv := server.New(opts)

	ctx, cancel := signalContext()
	defer cancel()
	stopRotate := rotateOnHangup()
	defer stopRotate()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	gwlog.With(logrus.Fields{"timeout": cfg.Gateway.ShutdownTimeout}).Info("收到退出信号，开始关闭")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Gateway.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		gwlog.L().WithError(err).Warn("关闭超时，仍有会话未退出")
	}
	return <-errCh
}

func resolveConfigPath(p string) string {
	if p == "" {
		return "configs/config.yaml"
	}
	st, err := os.Stat(p)
	if err != nil {
		return p
	}
	if st.IsDir() {
		return filepath.Join(p, "config.yaml")
	}
	return p
}

// signalContext 创建一个可被 SIGINT/SIGTERM 取消的 Context。
// 返回：
// - ctx: 监听信号并在收到信号时取消的上下文
// - cancel: 主动取消函数
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// rotateOnHangup 在收到 SIGHUP 时滚动日志文件，返回停止监听的函数。
func rotateOnHangup() func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
				if err := gwlog.Rotate(); err != nil {
					gwlog.L().WithError(err).Warn("日志滚动失败")
				} else {
					gwlog.L().Info("日志文件已滚动")
				}
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}
