package archiver

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapio"

	"github.com/sunr3d/download-service/internal/interfaces/infra"
	"github.com/sunr3d/download-service/internal/metrics"
	"github.com/sunr3d/download-service/models"
)

var _ infra.ArchiveLauncher = (*Manager)(nil)

// После убийства процесса Wait ждет закрытия pipe'ов не дольше этого времени.
const waitDelay = 3 * time.Second

type Manager struct {
	logger  *zap.Logger
	command CommandFunc
	metrics *metrics.Registry
}

func New(log *zap.Logger, command CommandFunc, reg *metrics.Registry) *Manager {
	return &Manager{
		logger:  log,
		command: command,
		metrics: reg,
	}
}

// Launch запускает архиватор в корне архивов. Процесс привязан к ctx:
// отмена контекста убивает всю группу процессов.
// Вызывающий обязан вызвать Stop или Wait у результата.
func (m *Manager) Launch(ctx context.Context, src models.ArchiveSource) (infra.ArchiveProcess, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrContextDone, ctx.Err())
	default:
	}

	c := m.command(src)

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = src.Root
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.WaitDelay = waitDelay
	configure(cmd)

	log := m.logger.With(zap.String("identifier", src.Identifier))
	stderr := &zapio.Writer{Log: log.Named("archiver"), Level: zap.DebugLevel}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStdoutPipe, err)
	}

	if err := cmd.Start(); err != nil {
		log.Error("не удалось запустить архиватор",
			zap.String("archiver", c.Name),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrStartFailed, err)
	}

	m.metrics.ArchiverStarted()
	log = log.With(zap.Int("pid", cmd.Process.Pid))
	log.Debug("архиватор запущен", zap.String("archiver", c.Name), zap.Strings("args", c.Args))

	return &Process{
		cmd:     cmd,
		stdout:  stdout,
		stderr:  stderr,
		logger:  log,
		metrics: m.metrics,
	}, nil
}
