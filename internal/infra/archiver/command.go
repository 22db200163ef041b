package archiver

import "github.com/sunr3d/download-service/models"

// Command описывает запуск архиватора. Рабочий каталог всегда корень архивов.
type Command struct {
	Name string
	Args []string
	Env  []string
}

type CommandFunc func(src models.ArchiveSource) Command

// ZipCommand рекурсивно упаковывает каталог src.Identifier и пишет архив в stdout.
func ZipCommand(archiverPath string) CommandFunc {
	return func(src models.ArchiveSource) Command {
		return Command{
			Name: archiverPath,
			Args: []string{"-r", "-", src.Identifier},
		}
	}
}
