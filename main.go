package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"drone-map/config"
	"drone-map/db"
	"drone-map/handler"
)

func main() {
	if err := run(); err != nil {
		slog.Error("服务器启动失败", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.ParseLogLevel(cfg.LogLevel)})))

	fmt.Println("=== Drone Map - 地图标点与连线服务 ===")

	// 1. 初始化数据库 (自动迁移 points / lines 表)
	gdb, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	// 2. 指标
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// 3. 可选认证
	var auth *handler.Auth
	if cfg.AuthEnabled() {
		auth = &handler.Auth{
			Secret:       []byte(cfg.AuthSecret),
			Username:     cfg.AdminUser,
			PasswordHash: cfg.AdminPasswordHash,
			TTL:          cfg.TokenTTL,
		}
	}

	// 4. 路由
	if config.ParseLogLevel(cfg.LogLevel) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := handler.NewRouter(handler.RouterOptions{
		Repo:     db.NewMapStore(gdb),
		Auth:     auth,
		Registry: reg,
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	fmt.Println("访问地址: http://localhost" + cfg.Addr)
	fmt.Println("API:")
	fmt.Println("  - GET    /map-data       - 获取 visible 的点和线")
	fmt.Println("  - POST   /add-point      - 保存点")
	fmt.Println("  - POST   /add-line       - 保存线")
	fmt.Println("  - POST   /remove-point   - 软删除点")
	fmt.Println("  - POST   /remove-line    - 软删除线")
	fmt.Println("\n按 Ctrl+C 退出")

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-exit:
		slog.Info("收到退出信号", "sig", sig)
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
