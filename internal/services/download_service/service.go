package download_service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/sunr3d/download-service/internal/config"
	"github.com/sunr3d/download-service/internal/interfaces/infra"
	"github.com/sunr3d/download-service/internal/interfaces/services"
	"github.com/sunr3d/download-service/internal/logger"
	"github.com/sunr3d/download-service/internal/metrics"
	"github.com/sunr3d/download-service/models"
)

var _ services.DownloadService = (*downloadService)(nil)

type downloadService struct {
	locator  infra.ArchiveLocator
	launcher infra.ArchiveLauncher
	logger   *zap.Logger
	cfg      *config.Config
	metrics  *metrics.Registry
}

func New(
	log *zap.Logger,
	cfg *config.Config,
	locator infra.ArchiveLocator,
	launcher infra.ArchiveLauncher,
	reg *metrics.Registry,
) services.DownloadService {
	return &downloadService{
		locator:  locator,
		launcher: launcher,
		logger:   log,
		cfg:      cfg,
		metrics:  reg,
	}
}

func (s *downloadService) Open(ctx context.Context, identifier string) (services.Transfer, error) {
	select {
	case <-ctx.Done():
		s.metrics.RecordDownload(string(models.StreamOutcomeAborted))
		return nil, fmt.Errorf("%w: %v", ErrContextDone, ctx.Err())
	default:
	}

	log := logger.FromContext(ctx, s.logger).With(zap.String("identifier", identifier))

	src, err := s.locator.Locate(ctx, identifier)
	if err != nil {
		if errors.Is(err, infra.ErrArchiveNotFound) {
			s.metrics.RecordDownload("not_found")
			log.Info("запрошен несуществующий архив", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrArchiveNotFound, err)
		}
		s.metrics.RecordDownload(openFailure(ctx, "locate_failed"))
		log.Error("ошибка поиска архива", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrArchiveLocate, err)
	}

	proc, err := s.launcher.Launch(ctx, src)
	if err != nil {
		s.metrics.RecordDownload(openFailure(ctx, "start_failed"))
		return nil, fmt.Errorf("%w: %v", ErrArchiverStart, err)
	}

	log = log.With(zap.String("dir", src.Dir), zap.Int("pid", proc.Pid()))

	return &transfer{
		src:     src,
		proc:    proc,
		relay:   NewRelay(log, s.cfg.ChunkSize, s.cfg.Pause.Duration()),
		logger:  log,
		metrics: s.metrics,
	}, nil
}

// openFailure относит ошибку к отмене запроса, если контекст уже завершен.
func openFailure(ctx context.Context, outcome string) string {
	if ctx.Err() != nil {
		return string(models.StreamOutcomeAborted)
	}
	return outcome
}

type transfer struct {
	src     models.ArchiveSource
	proc    infra.ArchiveProcess
	relay   *Relay
	logger  *zap.Logger
	metrics *metrics.Registry
}

func (t *transfer) Source() models.ArchiveSource {
	return t.src
}

func (t *transfer) Stream(ctx context.Context, w io.Writer) models.StreamResult {
	t.logger.Info("начата отправка архива")
	start := time.Now()

	res := t.relay.Stream(ctx, t.proc, w)

	duration := time.Since(start)
	t.metrics.RecordStream(string(res.Outcome), res.Bytes, res.Chunks, duration.Seconds())

	fields := []zap.Field{
		zap.String("outcome", string(res.Outcome)),
		zap.Int64("bytes", res.Bytes),
		zap.String("size", humanize.IBytes(uint64(res.Bytes))),
		zap.Int("chunks", res.Chunks),
		zap.Duration("duration", duration),
	}

	switch res.Outcome {
	case models.StreamOutcomeCompleted:
		if res.ExitErr != nil {
			t.logger.Warn("архиватор завершился с ошибкой после отправки архива",
				append(fields, zap.Error(res.ExitErr))...,
			)
		} else {
			t.logger.Info("архив отправлен", fields...)
		}
	case models.StreamOutcomeAborted:
		t.logger.Info("скачивание прервано пользователем", append(fields, zap.Error(res.Err))...)
	default:
		t.logger.Error("внутренняя ошибка сервера при отправке архива", append(fields, zap.Error(res.Err))...)
	}

	return res
}

// Close останавливает архиватор. Повторный вызов ничего не делает.
func (t *transfer) Close() error {
	return t.proc.Stop()
}
