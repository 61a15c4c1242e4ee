package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/yuqie6/codepulse/internal/bootstrap"
	"github.com/yuqie6/codepulse/internal/httpapi"
	"github.com/yuqie6/codepulse/internal/pkg/buildinfo"
	"github.com/yuqie6/codepulse/internal/pkg/config"
)

const shutdownTimeout = 5 * time.Second

func main() {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:          "codepulse-server",
		Short:        "codepulse - 编码在线状态服务",
		Version:      buildinfo.Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfgFile)
		},
	}
	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径（默认为可执行文件旁的 config/config.yaml）")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfgPath == "" {
		if p, err := config.DefaultConfigPath(); err == nil {
			cfgPath = p
			// 首次启动写入默认配置，方便用户直接编辑
			if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
				if err := config.WriteFile(cfgPath, config.Default()); err != nil {
					slog.Warn("写入默认配置失败", "path", cfgPath, "error", err)
				}
			}
		}
	}

	core, err := bootstrap.NewCore(cfgPath)
	if err != nil {
		slog.Error("初始化失败", "error", err)
		return err
	}
	defer core.Close()

	slog.Info("codepulse 启动中...", "name", core.Cfg.App.Name, "version", buildinfo.Version, "commit", buildinfo.Commit)

	srv, err := httpapi.Start(ctx, core, httpapi.Options{
		ListenAddr:  core.Cfg.Server.ListenAddr,
		AllowOrigin: core.Cfg.Server.AllowOrigin,
	})
	if err != nil {
		slog.Error("启动 HTTP 服务失败", "addr", core.Cfg.Server.ListenAddr, "error", err)
		return err
	}

	if cfgPath != "" {
		if err := config.Watch(ctx, cfgPath, core.ApplyConfig); err != nil {
			slog.Warn("配置热更新不可用", "error", err)
		}
	}

	<-ctx.Done()
	slog.Info("收到退出信号，正在关闭...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP 服务关闭超时", "error", err)
	}
	slog.Info("codepulse 已退出")
	return nil
}
