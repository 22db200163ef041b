package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sunr3d/download-service/internal/config"
	"github.com/sunr3d/download-service/internal/interfaces/services"
	"github.com/sunr3d/download-service/internal/logger"
	"github.com/sunr3d/download-service/internal/services/download_service"
	"github.com/sunr3d/download-service/models"
)

const notFoundMessage = "Архив не существует или был удален"

type ArchiveAPI struct {
	service services.DownloadService
	logger  *zap.Logger
	cfg     *config.Config
}

func New(service services.DownloadService, logger *zap.Logger, cfg *config.Config) *ArchiveAPI {
	return &ArchiveAPI{
		service: service,
		logger:  logger,
		cfg:     cfg,
	}
}

func (h *ArchiveAPI) Register(r chi.Router) {
	r.Get("/", h.IndexPage)
	r.Get("/archive/{identifier}/", h.DownloadArchive)
}

// GET /
func (h *ArchiveAPI) IndexPage(w http.ResponseWriter, r *http.Request) {
	contents, err := os.ReadFile(h.cfg.IndexPath)
	if err != nil {
		logger.FromContext(r.Context(), h.logger).Error("не удалось прочитать главную страницу",
			zap.String("path", h.cfg.IndexPath),
			zap.Error(err),
		)
		http.Error(w, "Внутренняя ошибка сервера при чтении главной страницы", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(contents)
}

// GET /archive/{identifier}/
//
// Заголовки отправляются только после успешного запуска архиватора.
// После этого статус уже не изменить: прерванная или сломанная отправка
// обрывает соединение через http.ErrAbortHandler.
func (h *ArchiveAPI) DownloadArchive(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	log := logger.FromContext(r.Context(), h.logger).With(zap.String("identifier", identifier))

	ctx := r.Context()
	if h.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.RequestTimeout)
		defer cancel()
	}

	transfer, err := h.service.Open(ctx, identifier)
	if err != nil {
		switch {
		case errors.Is(err, download_service.ErrArchiveNotFound):
			http.Error(w, notFoundMessage, http.StatusNotFound)
		case ctx.Err() != nil:
			log.Info("запрос отменен до начала отправки архива", zap.Error(err))
			panic(http.ErrAbortHandler)
		default:
			log.Error("ошибка подготовки архива", zap.Error(err))
			http.Error(w, "Внутренняя ошибка сервера при подготовке архива", http.StatusInternalServerError)
		}
		return
	}
	defer transfer.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", transfer.Source().Filename()))

	log.Debug("отправка заголовков ответа")
	w.WriteHeader(http.StatusOK)

	fw := newFlushWriter(w)
	if err := fw.Flush(); err != nil {
		log.Info("клиент отключился до начала отправки архива", zap.Error(err))
		panic(http.ErrAbortHandler)
	}

	res := transfer.Stream(ctx, fw)
	if res.Outcome != models.StreamOutcomeCompleted {
		panic(http.ErrAbortHandler)
	}
}

// flushWriter сбрасывает каждый кусок клиенту сразу после записи.
type flushWriter struct {
	w  io.Writer
	rc *http.ResponseController
}

func newFlushWriter(w http.ResponseWriter) *flushWriter {
	return &flushWriter{w: w, rc: http.NewResponseController(w)}
}

func (fw *flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if err != nil {
		return n, err
	}
	return n, fw.Flush()
}

func (fw *flushWriter) Flush() error {
	if err := fw.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}
