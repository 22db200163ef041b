// Package archivertest turns the running test binary into a fake archiver.
//
// A test package that launches archivers declares
//
//	func TestHelperProcess(t *testing.T) { archivertest.Main() }
//
// and passes Command(...) to archiver.New. The child re-executes the test
// binary with -test.run=^TestHelperProcess$ and behaves according to mode.
package archivertest

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sunr3d/download-service/internal/infra/archiver"
	"github.com/sunr3d/download-service/models"
)

const helperEnv = "ARCHIVERTEST_HELPER_PROCESS"

const (
	// ModeEmit writes Payload(n) to stdout and exits 0. Args: n.
	ModeEmit = "emit"
	// ModeHang writes Payload(n) and then blocks until killed. Args: n.
	ModeHang = "hang"
	// ModeFail writes Payload(n) and exits with the given code. Args: n, code.
	ModeFail = "fail"
	// ModeDescribe writes "<cwd>\n<identifier>" and exits 0.
	ModeDescribe = "describe"
)

// Command returns a CommandFunc launching the test binary in the given mode.
// The archive identifier is always passed as the last argument.
func Command(mode string, args ...string) archiver.CommandFunc {
	return func(src models.ArchiveSource) archiver.Command {
		a := append([]string{"-test.run=^TestHelperProcess$", "--", mode}, args...)
		a = append(a, src.Identifier)
		return archiver.Command{
			Name: os.Args[0],
			Args: a,
			Env:  []string{helperEnv + "=1"},
		}
	}
}

// Payload is the deterministic byte sequence written by the helper.
func Payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*31 + i/251)
	}
	return b
}

// Main runs the fake archiver when the binary was started by Command.
// It returns immediately in a regular test run.
func Main() {
	if os.Getenv(helperEnv) != "1" {
		return
	}

	args := os.Args
	for len(args) > 0 {
		if args[0] == "--" {
			args = args[1:]
			break
		}
		args = args[1:]
	}
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "archivertest: no mode")
		os.Exit(2)
	}

	mode, rest := args[0], args[1:]
	identifier := rest[len(rest)-1]

	switch mode {
	case ModeEmit:
		emit(atoi(rest, 0))
		os.Exit(0)
	case ModeHang:
		emit(atoi(rest, 0))
		time.Sleep(time.Hour)
		os.Exit(0)
	case ModeFail:
		emit(atoi(rest, 0))
		fmt.Fprintln(os.Stderr, "archivertest: failing on purpose")
		os.Exit(atoi(rest, 1))
	case ModeDescribe:
		cwd, _ := os.Getwd()
		fmt.Fprintf(os.Stdout, "%s\n%s", cwd, identifier)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "archivertest: unknown mode %q\n", mode)
		os.Exit(2)
	}
}

func emit(n int) {
	if _, err := os.Stdout.Write(Payload(n)); err != nil {
		os.Exit(3)
	}
}

func atoi(args []string, i int) int {
	n, err := strconv.Atoi(args[i])
	if err != nil {
		fmt.Fprintf(os.Stderr, "archivertest: bad argument %q\n", args[i])
		os.Exit(2)
	}
	return n
}
