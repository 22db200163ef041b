package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const readHeaderTimeout = 10 * time.Second

type Server struct {
	server          *http.Server
	logger          *zap.Logger
	shutdownTimeout time.Duration

	// отменяет контексты всех запросов, в том числе идущих скачиваний
	cancelRequests context.CancelFunc
}

// New не задает WriteTimeout: отправка архива может длиться сколько угодно.
func New(addr string, handler http.Handler, logger *zap.Logger, shutdownTimeout time.Duration) *Server {
	baseCtx, cancel := context.WithCancel(context.Background())

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
			BaseContext: func(net.Listener) context.Context {
				return baseCtx
			},
			ErrorLog: zap.NewStdLog(logger.Named("http")),
		},
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
		cancelRequests:  cancel,
	}
}

// Run слушает Addr до отмены ctx.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("ошибка HTTP сервера: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve обслуживает ln до отмены ctx, затем прерывает текущие скачивания
// (архиваторы убиваются) и дожидается завершения обработчиков.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	serverErr := make(chan error, 1)

	go func() {
		s.logger.Info("Запуск HTTP сервера", zap.String("address", ln.Addr().String()))
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("ошибка HTTP сервера: %w", err)
		}
	}()

	select {
	case err := <-serverErr:
		s.cancelRequests()
		return err
	case <-ctx.Done():
		s.logger.Info("Получен сигнал завершения", zap.Error(context.Cause(ctx)))

		s.cancelRequests()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("ошибка при завершении сервера: %w", err)
		}

		s.logger.Info("HTTP сервер успешно остановлен")
		return nil
	}
}
