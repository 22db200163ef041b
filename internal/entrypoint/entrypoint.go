package entrypoint

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sunr3d/download-service/internal/api"
	"github.com/sunr3d/download-service/internal/config"
	"github.com/sunr3d/download-service/internal/infra/archiver"
	"github.com/sunr3d/download-service/internal/infra/fsroot"
	"github.com/sunr3d/download-service/internal/metrics"
	"github.com/sunr3d/download-service/internal/middleware"
	"github.com/sunr3d/download-service/internal/server"
	"github.com/sunr3d/download-service/internal/services/download_service"
)

func Run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if info, err := os.Stat(cfg.ArchiveRoot); err != nil || !info.IsDir() {
		log.Warn("каталог архивов недоступен, все запросы архивов будут получать 404",
			zap.String("path", cfg.ArchiveRoot),
		)
	}

	reg := metrics.NewRegistry()
	router := NewRouter(cfg, log, reg, archiver.ZipCommand(cfg.ArchiverPath))

	srv := server.New(cfg.Addr(), router, log, cfg.ShutdownTimeout)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("сервер остановлен с ошибкой: %w", err)
	}
	return nil
}

func NewRouter(cfg *config.Config, log *zap.Logger, reg *metrics.Registry, command archiver.CommandFunc) http.Handler {
	locator := fsroot.New(log, cfg.ArchiveRoot)
	launcher := archiver.New(log, command, reg)
	svc := download_service.New(log, cfg, locator, launcher, reg)
	controller := api.New(svc, log, cfg)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.ReqLogger(log))
	r.Use(metrics.HTTPMiddleware(reg))

	controller.Register(r)
	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	return r
}
