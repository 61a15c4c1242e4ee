package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/yuqie6/codepulse/internal/bootstrap"
	"github.com/yuqie6/codepulse/internal/eventbus"
)

type LocalServer struct {
	ln      net.Listener
	srv     *http.Server
	baseURL string
}

type Options struct {
	ListenAddr  string // e.g. "127.0.0.1:8787"
	AllowOrigin string
}

// Start 在后台启动 HTTP 服务；ctx 结束时自动关闭
func Start(ctx context.Context, core *bootstrap.Core, opts Options) (*LocalServer, error) {
	if core == nil {
		return nil, fmt.Errorf("core 不能为空")
	}
	if strings.TrimSpace(opts.ListenAddr) == "" {
		opts.ListenAddr = "127.0.0.1:0"
	}

	ln, err := net.Listen("tcp", opts.ListenAddr)
	if err != nil {
		return nil, err
	}
	baseURL := "http://" + ln.Addr().String()

	hub := core.Hub
	if hub == nil {
		hub = eventbus.NewHub()
	}

	handler := NewHandler(Deps{
		App:         core.Cfg.App,
		AllowOrigin: opts.AllowOrigin,
		Activity:    core.Services.Activity,
		Sync:        core.Services.Sync,
		DB:          core.DB,
		Hub:         hub,
	})

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ls := &LocalServer{
		ln:      ln,
		srv:     srv,
		baseURL: baseURL,
	}

	go func() {
		<-ctx.Done()
		_ = ls.Shutdown(context.Background())
	}()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server 异常退出", "error", err)
		}
	}()

	slog.Info("HTTP 服务已启动", "base_url", baseURL)
	return ls, nil
}

func (s *LocalServer) BaseURL() string {
	if s == nil {
		return ""
	}
	return s.baseURL
}

func (s *LocalServer) Shutdown(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
