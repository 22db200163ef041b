package archiver

import "errors"

var (
	ErrContextDone = errors.New("отмена контекста")
	ErrStdoutPipe  = errors.New("не удалось открыть stdout архиватора")
	ErrStartFailed = errors.New("не удалось запустить архиватор")
	ErrKillFailed  = errors.New("не удалось остановить архиватор")
)
