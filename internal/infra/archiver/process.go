package archiver

import (
	"fmt"
	"io"
	"os/exec"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapio"

	"github.com/sunr3d/download-service/internal/interfaces/infra"
	"github.com/sunr3d/download-service/internal/metrics"
)

var _ infra.ArchiveProcess = (*Process)(nil)

// Process владеет запущенным архиватором. Read читает поток архива,
// Wait и Stop забирают статус процесса ровно один раз.
type Process struct {
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	stderr  *zapio.Writer
	logger  *zap.Logger
	metrics *metrics.Registry

	once    sync.Once
	killErr error
	waitErr error
}

func (p *Process) Read(b []byte) (int, error) {
	return p.stdout.Read(b)
}

func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Wait забирает процесс, не убивая его. Вызывается после EOF.
// Возвращает ошибку выхода (например, ненулевой код).
func (p *Process) Wait() error {
	p.reap(false)
	return p.waitErr
}

// Stop убивает группу процессов, если процесс еще не забран, и забирает его.
// Безопасен при повторных и конкурентных вызовах, в том числе после Wait.
func (p *Process) Stop() error {
	p.reap(true)
	return p.killErr
}

func (p *Process) reap(kill bool) {
	p.once.Do(func() {
		reason := "exited"
		if kill {
			reason = "killed"
			if err := terminate(p.cmd); err != nil {
				p.killErr = fmt.Errorf("%w: %v", ErrKillFailed, err)
				p.logger.Error("не удалось остановить архиватор", zap.Error(err))
			}
		}

		// Wait закрывает stdout и дожидается копирования stderr
		p.waitErr = p.cmd.Wait()
		p.stderr.Close()
		p.metrics.ArchiverReaped(reason)

		p.logger.Debug("архиватор завершен",
			zap.String("reason", reason),
			zap.Stringer("state", p.cmd.ProcessState),
		)
	})
}
