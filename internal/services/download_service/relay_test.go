package download_service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sunr3d/download-service/internal/infra/archiver/archivertest"
	"github.com/sunr3d/download-service/models"
)

type fakeSource struct {
	io.Reader
	waitErr error

	waits atomic.Int32
	stops atomic.Int32
}

func (s *fakeSource) Wait() error {
	s.waits.Add(1)
	return s.waitErr
}

func (s *fakeSource) Stop() error {
	s.stops.Add(1)
	return nil
}

type recordingWriter struct {
	bytes.Buffer
	chunks []int
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.chunks = append(w.chunks, len(p))
	return w.Buffer.Write(p)
}

// failingWriter принимает failAfter кусков, затем возвращает ошибку.
type failingWriter struct {
	failAfter int
	writes    int
	written   int
}

var errConnReset = errors.New("connection reset by peer")

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.writes >= w.failAfter {
		return 0, errConnReset
	}
	w.writes++
	w.written += len(p)
	return len(p), nil
}

type panicWriter struct{}

func (panicWriter) Write(p []byte) (int, error) {
	panic("boom")
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) {
	return len(p) / 2, nil
}

func newTestRelay(t *testing.T, chunkSize int, pause time.Duration) *Relay {
	return NewRelay(zaptest.NewLogger(t), chunkSize, pause)
}

func TestRelay_Stream_Completed(t *testing.T) {
	relay := newTestRelay(t, 4096, 0)
	payload := archivertest.Payload(10000)
	src := &fakeSource{Reader: bytes.NewReader(payload)}
	dst := &recordingWriter{}

	res := relay.Stream(context.Background(), src, dst)

	assert.Equal(t, models.StreamOutcomeCompleted, res.Outcome)
	assert.NoError(t, res.Err)
	assert.Equal(t, int64(10000), res.Bytes)
	assert.Equal(t, 3, res.Chunks)
	assert.Equal(t, []int{4096, 4096, 1808}, dst.chunks)
	assert.Equal(t, payload, dst.Bytes())
	assert.Equal(t, int32(1), src.waits.Load())
	assert.Equal(t, int32(0), src.stops.Load())
}

func TestRelay_Stream_ChunksNeverExceedLimit(t *testing.T) {
	relay := newTestRelay(t, 1000, 0)
	payload := archivertest.Payload(12345)
	src := &fakeSource{Reader: iotest.HalfReader(bytes.NewReader(payload))}
	dst := &recordingWriter{}

	res := relay.Stream(context.Background(), src, dst)

	require.Equal(t, models.StreamOutcomeCompleted, res.Outcome)
	assert.Equal(t, payload, dst.Bytes())
	assert.Equal(t, len(dst.chunks), res.Chunks)
	for _, size := range dst.chunks {
		assert.LessOrEqual(t, size, 1000)
		assert.Greater(t, size, 0)
	}
}

func TestRelay_Stream_DataWithEOF(t *testing.T) {
	relay := newTestRelay(t, 4096, 0)
	payload := archivertest.Payload(100)
	src := &fakeSource{Reader: iotest.DataErrReader(bytes.NewReader(payload))}
	dst := &recordingWriter{}

	res := relay.Stream(context.Background(), src, dst)

	assert.Equal(t, models.StreamOutcomeCompleted, res.Outcome)
	assert.Equal(t, payload, dst.Bytes())
	assert.Equal(t, 1, res.Chunks)
}

func TestRelay_Stream_EmptySource(t *testing.T) {
	relay := newTestRelay(t, 4096, 0)
	src := &fakeSource{Reader: bytes.NewReader(nil)}
	dst := &recordingWriter{}

	res := relay.Stream(context.Background(), src, dst)

	assert.Equal(t, models.StreamOutcomeCompleted, res.Outcome)
	assert.Zero(t, res.Bytes)
	assert.Empty(t, dst.chunks)
	assert.Equal(t, int32(1), src.waits.Load())
}

func TestRelay_Stream_ExitErrorAfterEOF(t *testing.T) {
	relay := newTestRelay(t, 4096, 0)
	exitErr := errors.New("exit status 12")
	src := &fakeSource{Reader: bytes.NewReader([]byte("zip")), waitErr: exitErr}

	res := relay.Stream(context.Background(), src, io.Discard)

	assert.Equal(t, models.StreamOutcomeCompleted, res.Outcome)
	assert.Equal(t, exitErr, res.ExitErr)
	assert.NoError(t, res.Err)
}

func TestRelay_Stream_WriteFailureAborts(t *testing.T) {
	relay := newTestRelay(t, 4096, 0)
	src := &fakeSource{Reader: bytes.NewReader(archivertest.Payload(10000))}
	dst := &failingWriter{failAfter: 1}

	res := relay.Stream(context.Background(), src, dst)

	assert.Equal(t, models.StreamOutcomeAborted, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrClientGone)
	assert.Equal(t, int64(4096), res.Bytes)
	assert.Equal(t, 4096, dst.written)
	assert.Equal(t, int32(1), src.stops.Load())
	assert.Equal(t, int32(0), src.waits.Load())
}

func TestRelay_Stream_ShortWriteAborts(t *testing.T) {
	relay := newTestRelay(t, 4096, 0)
	src := &fakeSource{Reader: bytes.NewReader(archivertest.Payload(10))}

	res := relay.Stream(context.Background(), src, shortWriter{})

	assert.Equal(t, models.StreamOutcomeAborted, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrClientGone)
	assert.Equal(t, int32(1), src.stops.Load())
}

func TestRelay_Stream_ContextCanceled(t *testing.T) {
	relay := newTestRelay(t, 4096, 0)
	src := &fakeSource{Reader: bytes.NewReader(archivertest.Payload(10))}
	dst := &recordingWriter{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := relay.Stream(ctx, src, dst)

	assert.Equal(t, models.StreamOutcomeAborted, res.Outcome)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Empty(t, dst.chunks)
	assert.Equal(t, int32(1), src.stops.Load())
}

func TestRelay_Stream_ReadErrorFails(t *testing.T) {
	relay := newTestRelay(t, 4096, 0)
	errBoom := errors.New("boom")
	src := &fakeSource{Reader: io.MultiReader(
		bytes.NewReader(archivertest.Payload(100)),
		iotest.ErrReader(errBoom),
	)}
	dst := &recordingWriter{}

	res := relay.Stream(context.Background(), src, dst)

	assert.Equal(t, models.StreamOutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrSourceRead)
	assert.Equal(t, int64(100), res.Bytes)
	assert.Equal(t, int32(1), src.stops.Load())
}

func TestRelay_Stream_PanicFails(t *testing.T) {
	relay := newTestRelay(t, 4096, 0)
	src := &fakeSource{Reader: bytes.NewReader(archivertest.Payload(100))}

	var res models.StreamResult
	assert.NotPanics(t, func() {
		res = relay.Stream(context.Background(), src, panicWriter{})
	})

	assert.Equal(t, models.StreamOutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrStreamPanic)
	assert.Equal(t, int32(1), src.stops.Load())
}

func TestRelay_Stream_Pacing(t *testing.T) {
	const interval = 20 * time.Millisecond

	relay := newTestRelay(t, 100, interval)
	src := &fakeSource{Reader: bytes.NewReader(archivertest.Payload(500))}

	start := time.Now()
	res := relay.Stream(context.Background(), src, io.Discard)
	elapsed := time.Since(start)

	require.Equal(t, models.StreamOutcomeCompleted, res.Outcome)
	require.Equal(t, 5, res.Chunks)
	assert.GreaterOrEqual(t, elapsed, time.Duration(res.Chunks-1)*interval)
}

func TestRelay_Stream_NoPacing(t *testing.T) {
	relay := newTestRelay(t, 100, 0)
	src := &fakeSource{Reader: bytes.NewReader(archivertest.Payload(100 * 100))}

	start := time.Now()
	res := relay.Stream(context.Background(), src, io.Discard)

	require.Equal(t, models.StreamOutcomeCompleted, res.Outcome)
	assert.Equal(t, 100, res.Chunks)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRelay_Stream_CancelDuringPause(t *testing.T) {
	relay := newTestRelay(t, 100, time.Hour)
	src := &fakeSource{Reader: bytes.NewReader(archivertest.Payload(500))}
	dst := &recordingWriter{}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res := relay.Stream(ctx, src, dst)

	assert.Equal(t, models.StreamOutcomeAborted, res.Outcome)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.Equal(t, []int{100}, dst.chunks)
	assert.Equal(t, int32(1), src.stops.Load())
}
