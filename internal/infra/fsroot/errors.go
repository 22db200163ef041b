package fsroot

import "errors"

var (
	ErrContextDone       = errors.New("отмена контекста")
	ErrInvalidIdentifier = errors.New("недопустимый идентификатор архива")
	ErrNotDirectory      = errors.New("путь не является каталогом")
	ErrRootUnavailable   = errors.New("корневой каталог архивов недоступен")
)
