package infra

import (
	"context"
	"io"

	"github.com/sunr3d/download-service/models"
)

// ArchiveProcess - запущенный архиватор, stdout которого и есть поток архива.
type ArchiveProcess interface {
	io.Reader

	Pid() int
	// Wait дожидается естественного завершения процесса после EOF.
	Wait() error
	// Stop убивает процесс, если он еще жив, и забирает его статус.
	// Повторные вызовы безопасны.
	Stop() error
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.2 --name=ArchiveLauncher --output=../../../mocks
type ArchiveLauncher interface {
	Launch(ctx context.Context, src models.ArchiveSource) (ArchiveProcess, error)
}
