package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/aidebug/aidebug/internal/output"
	"github.com/aidebug/aidebug/internal/session"
	"github.com/aidebug/aidebug/internal/suggest"
)

// Options configures a Shell.
type Options struct {
	In     *os.File
	Out    io.Writer
	ErrOut io.Writer
	// Input replaces In with a plain line source, for scripts and tests.
	Input io.Reader
	// AssumeYes skips the cost confirmation before a provider call.
	AssumeYes bool
	// Version is shown in the banner.
	Version string
}

// Shell is the interactive console.
type Shell struct {
	sess      *session.Session
	reader    lineReader
	stdin     *os.File
	out       io.Writer
	errOut    io.Writer
	cwd       string
	assumeYes bool
	version   string
	commands  map[string]*command
	last      *suggest.Request
	done      bool
}

// New creates a Shell over sess. The working directory for passthrough
// commands starts at the project root.
func New(sess *session.Session, opts Options) *Shell {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ErrOut == nil {
		opts.ErrOut = os.Stderr
	}
	s := &Shell{
		sess:      sess,
		out:       opts.Out,
		errOut:    opts.ErrOut,
		stdin:     opts.In,
		cwd:       sess.Workspace.Root(),
		assumeYes: opts.AssumeYes,
		version:   opts.Version,
	}
	s.commands = s.commandTable()

	comp := completer{files: s.completionFiles}
	switch {
	case opts.Input != nil:
		s.reader = newPlainReader(opts.Input, opts.Out)
	case opts.In != nil && isTerminal(opts.In, opts.Out):
		s.reader = newTTYReader(opts.In, opts.Out, comp.Complete)
	case opts.In != nil:
		s.reader = newPlainReader(opts.In, opts.Out)
	default:
		s.reader = newPlainReader(os.Stdin, opts.Out)
	}
	return s
}

// Run prints the banner and reads commands until exit or end of input.
func (s *Shell) Run(ctx context.Context) error {
	s.banner()
	for !s.done {
		line, err := s.reader.ReadLine(s.prompt())
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out)
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		_ = s.Exec(ctx, line)
	}
	return nil
}

// Exec runs one input line. A failure is printed and logged before it is
// returned; the console ignores it and keeps running.
func (s *Shell) Exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	// Ctrl-C cancels the running command, not the console.
	cmdCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	err := s.dispatch(cmdCtx, line)
	if err != nil {
		fmt.Fprintln(s.errOut, output.Error("Error: %v", err))
		s.sess.Logger.Error("command failed", zap.String("line", firstWord(line)), zap.Error(err))
	}
	return err
}

// Watch answers req once, then again whenever a selected file changes,
// until ctx is cancelled or Ctrl-C is pressed.
func (s *Shell) Watch(ctx context.Context, req suggest.Request) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	if err := s.runSuggest(ctx, req, false); err != nil {
		return err
	}
	return s.watch(ctx, req)
}

func (s *Shell) dispatch(ctx context.Context, line string) error {
	name, rest := splitWord(line)
	if cmd, ok := s.commands[name]; ok {
		return cmd.run(ctx, rest)
	}
	return s.passthrough(ctx, line)
}

func (s *Shell) prompt() string {
	var b strings.Builder
	b.WriteString(output.Green("AIDebug "))
	if venv := s.virtualEnv(); venv != "" {
		b.WriteString(output.Red("@ "))
		b.WriteString(output.Green("(" + venv + ") "))
	}
	b.WriteString(output.Yellow("> "))
	return b.String()
}

// virtualEnv names the active Python virtual environment, or a venv
// directory in the project root.
func (s *Shell) virtualEnv() string {
	if v := os.Getenv("VIRTUAL_ENV"); v != "" {
		return filepath.Base(v)
	}
	for _, name := range []string{"venv", ".venv", "env"} {
		info, err := s.sess.Workspace.Fs().Stat(filepath.Join(s.sess.Workspace.Root(), name, "pyvenv.cfg"))
		if err == nil && !info.IsDir() {
			return name
		}
	}
	return ""
}

func (s *Shell) banner() {
	fmt.Fprintln(s.out, output.Blue(`
    _    ___ ____       _
   / \  |_ _|  _ \  ___| |__  _   _  __ _
  / _ \  | || | | |/ _ \ '_ \| | | |/ _' |
 / ___ \ | || |_| |  __/ |_) | |_| | (_| |
/_/   \_\___|____/ \___|_.__/ \__,_|\__, |
                                    |___/`))
	fmt.Fprintf(s.out, "AIDebug Console %s. Type help for commands, exit to leave.\n", s.version)
	fmt.Fprintf(s.out, "Project: %s (%s/%s)\n\n", s.sess.Workspace.Root(), s.sess.Config.Provider, s.sess.Config.Model)
}

// confirm asks a yes/no question. Anything but y or yes is no.
func (s *Shell) confirm(question string) (bool, error) {
	answer, err := s.reader.ReadLine(question + " (y/n) ")
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

func (s *Shell) completionFiles(deselect bool) []string {
	if deselect {
		return s.sess.Workspace.Selection().Paths()
	}
	files, err := s.sess.Workspace.Candidates()
	if err != nil {
		return nil
	}
	return files
}

func splitWord(line string) (string, string) {
	line = strings.TrimSpace(line)
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i+1:])
}

func firstWord(line string) string {
	w, _ := splitWord(line)
	return w
}
