//go:build !unix

package archiver

import (
	"errors"
	"os"
	"os/exec"
)

func configure(cmd *exec.Cmd) {}

func terminate(cmd *exec.Cmd) error {
	err := cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
