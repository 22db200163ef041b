package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sunr3d/download-service/internal/config"
	"github.com/sunr3d/download-service/internal/entrypoint"
	"github.com/sunr3d/download-service/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("не удалось загрузить .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("ошибка конфигурации: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel.Level(), cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("не удалось создать логгер: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := entrypoint.Run(ctx, cfg, zlog); err != nil {
		zlog.Error("сервис завершился с ошибкой", zap.Error(err))
		os.Exit(1)
	}
}
