package download_service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/sunr3d/download-service/models"
)

// ChunkSource - поток архива с управлением жизненным циклом процесса.
type ChunkSource interface {
	io.Reader
	Wait() error
	Stop() error
}

// Relay перекачивает поток архиватора в ответ кусками фиксированного размера.
// Следующий кусок читается только после того, как предыдущий целиком записан,
// поэтому в памяти находится не больше одного куска.
type Relay struct {
	chunkSize int
	pause     time.Duration
	logger    *zap.Logger
}

func NewRelay(log *zap.Logger, chunkSize int, pause time.Duration) *Relay {
	return &Relay{
		chunkSize: chunkSize,
		pause:     pause,
		logger:    log,
	}
}

// Stream копирует src в dst до EOF, отмены ctx или ошибки.
// До возврата процесс всегда забран: Wait после EOF, Stop во всех остальных случаях.
func (r *Relay) Stream(ctx context.Context, src ChunkSource, dst io.Writer) (res models.StreamResult) {
	defer func() {
		if p := recover(); p != nil {
			res.Outcome = models.StreamOutcomeFailed
			res.Err = fmt.Errorf("%w: %v", ErrStreamPanic, p)
		}
		if res.Outcome != models.StreamOutcomeCompleted {
			if err := src.Stop(); err != nil {
				r.logger.Error("не удалось остановить архиватор", zap.Error(err))
			}
		}
	}()

	buf := make([]byte, r.chunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return aborted(res, err)
		}

		n, err := src.Read(buf)
		if n > 0 {
			r.logger.Debug("отправка куска архива", zap.Int("size", n))
			if werr := writeChunk(dst, buf[:n]); werr != nil {
				return aborted(res, fmt.Errorf("%w: %v", ErrClientGone, werr))
			}
			res.Bytes += int64(n)
			res.Chunks++

			if r.pause > 0 {
				if perr := sleep(ctx, r.pause); perr != nil {
					return aborted(res, perr)
				}
			}
		}

		switch {
		case err == nil:
			continue
		case ctx.Err() != nil:
			// EOF или ошибка чтения после убийства процесса по отмене
			return aborted(res, ctx.Err())
		case errors.Is(err, io.EOF):
			res.Outcome = models.StreamOutcomeCompleted
			res.ExitErr = src.Wait()
			return res
		default:
			res.Outcome = models.StreamOutcomeFailed
			res.Err = fmt.Errorf("%w: %v", ErrSourceRead, err)
			return res
		}
	}
}

func aborted(res models.StreamResult, err error) models.StreamResult {
	res.Outcome = models.StreamOutcomeAborted
	res.Err = err
	return res
}

func writeChunk(dst io.Writer, chunk []byte) error {
	n, err := dst.Write(chunk)
	if err == nil && n < len(chunk) {
		err = io.ErrShortWrite
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
