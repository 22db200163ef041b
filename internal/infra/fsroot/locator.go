package fsroot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sunr3d/download-service/internal/interfaces/infra"
	"github.com/sunr3d/download-service/models"
)

var _ infra.ArchiveLocator = (*Locator)(nil)

const identifierTag = "required,max=128,archive_id"

// Первый символ не точка и не дефис: так отсекаются "..", скрытые каталоги
// и попытки передать архиватору опцию вместо имени.
var identifierRe = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9._-]*$`)

type Locator struct {
	root     string
	logger   *zap.Logger
	validate *validator.Validate
}

func New(log *zap.Logger, root string) *Locator {
	v := validator.New()
	_ = v.RegisterValidation("archive_id", func(fl validator.FieldLevel) bool {
		return identifierRe.MatchString(fl.Field().String())
	})

	return &Locator{
		root:     root,
		logger:   log,
		validate: v,
	}
}

func (l *Locator) Locate(ctx context.Context, identifier string) (models.ArchiveSource, error) {
	select {
	case <-ctx.Done():
		return models.ArchiveSource{}, fmt.Errorf("%w: %v", ErrContextDone, ctx.Err())
	default:
	}

	if err := l.validate.Var(identifier, identifierTag); err != nil {
		l.logger.Debug("отклонен идентификатор архива",
			zap.String("identifier", identifier),
			zap.Error(err),
		)
		return models.ArchiveSource{}, fmt.Errorf("%w: %w", infra.ErrArchiveNotFound, ErrInvalidIdentifier)
	}

	root, err := os.OpenRoot(l.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("корневой каталог архивов не существует", zap.String("root", l.root))
			return models.ArchiveSource{}, fmt.Errorf("%w: %w", infra.ErrArchiveNotFound, ErrRootUnavailable)
		}
		return models.ArchiveSource{}, fmt.Errorf("%w: %v", ErrRootUnavailable, err)
	}
	defer root.Close()

	info, err := root.Stat(identifier)
	if err != nil {
		// выход за пределы корня через симлинк тоже считается отсутствием архива
		return models.ArchiveSource{}, fmt.Errorf("%w: %v", infra.ErrArchiveNotFound, err)
	}
	if !info.IsDir() {
		return models.ArchiveSource{}, fmt.Errorf("%w: %w", infra.ErrArchiveNotFound, ErrNotDirectory)
	}

	return models.ArchiveSource{
		Identifier: identifier,
		Root:       l.root,
		Dir:        filepath.Join(l.root, identifier),
	}, nil
}
