package infra

import (
	"context"
	"errors"

	"github.com/sunr3d/download-service/models"
)

var ErrArchiveNotFound = errors.New("архив не найден")

//go:generate go run github.com/vektra/mockery/v2@v2.53.2 --name=ArchiveLocator --output=../../../mocks
type ArchiveLocator interface {
	// Locate возвращает ErrArchiveNotFound, если каталога нет или идентификатор недопустим.
	Locate(ctx context.Context, identifier string) (models.ArchiveSource, error)
}
