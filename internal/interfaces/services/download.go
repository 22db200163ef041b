package services

import (
	"context"
	"io"

	"github.com/sunr3d/download-service/models"
)

//go:generate go run github.com/vektra/mockery/v2@v2.53.2 --name=DownloadService --output=../../../mocks
type DownloadService interface {
	// Open проверяет идентификатор и запускает архиватор. Ничего не пишет клиенту.
	Open(ctx context.Context, identifier string) (Transfer, error)
}

type Transfer interface {
	Source() models.ArchiveSource
	Stream(ctx context.Context, w io.Writer) models.StreamResult
	Close() error
}
