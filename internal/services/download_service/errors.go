package download_service

import "errors"

var (
	ErrContextDone = errors.New("отмена контекста")

	ErrArchiveNotFound = errors.New("архив не существует или был удален")
	ErrArchiveLocate   = errors.New("не удалось найти архив")
	ErrArchiverStart   = errors.New("не удалось запустить архиватор")

	ErrClientGone  = errors.New("клиент прервал скачивание")
	ErrSourceRead  = errors.New("ошибка чтения потока архиватора")
	ErrStreamPanic = errors.New("паника при отправке архива")
)
