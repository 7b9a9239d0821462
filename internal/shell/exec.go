package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
)

// maxDebugStderr bounds the stderr text sent as a debug query.
const maxDebugStderr = 8000

func systemShell(ctx context.Context, line string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", line)
	}
	return exec.CommandContext(ctx, "sh", "-c", line)
}

// passthrough runs line in the system shell from the current directory. A
// non-zero exit is the command's own business and is not reported as an
// error.
func (s *Shell) passthrough(ctx context.Context, line string) error {
	cmd := systemShell(ctx, line)
	cmd.Dir = s.cwd
	if s.stdin != nil {
		cmd.Stdin = s.stdin
	}
	cmd.Stdout = s.out
	cmd.Stderr = s.errOut
	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		s.sess.Logger.Debug("command exited", zap.String("command", firstWord(line)), zap.Int("code", exitErr.ExitCode()))
		return nil
	}
	return err
}

// cd changes the passthrough directory. No argument returns to the project
// root.
func (s *Shell) cd(dir string) error {
	switch {
	case dir == "":
		dir = s.sess.Workspace.Root()
	case dir == "~" || strings.HasPrefix(dir, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	case !filepath.IsAbs(dir):
		dir = filepath.Join(s.cwd, dir)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("directory not found: %s", dir)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}
	s.cwd = filepath.Clean(dir)
	return nil
}

// runProject runs the profile's run command from the project root,
// streaming its output. It returns the captured stderr and whether the
// command failed.
func (s *Shell) runProject(ctx context.Context, command string) (stderr string, failed bool, err error) {
	var errBuf bytes.Buffer
	cmd := systemShell(ctx, command)
	cmd.Dir = s.sess.Workspace.Root()
	if s.stdin != nil {
		cmd.Stdin = s.stdin
	}
	cmd.Stdout = s.out
	cmd.Stderr = io.MultiWriter(s.errOut, &errBuf)
	runErr := cmd.Run()

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		return "", false, nil
	case errors.As(runErr, &exitErr):
		text := strings.TrimSpace(errBuf.String())
		if text == "" {
			text = fmt.Sprintf("%s exited with status %d", command, exitErr.ExitCode())
		}
		if len(text) > maxDebugStderr {
			text = text[len(text)-maxDebugStderr:]
		}
		return text, true, nil
	default:
		return "", false, fmt.Errorf("running %q: %w", command, runErr)
	}
}
