package shell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aidebug/aidebug/internal/config"
	"github.com/aidebug/aidebug/internal/output"
	"github.com/aidebug/aidebug/internal/suggest"
	"github.com/aidebug/aidebug/internal/watch"
	"github.com/aidebug/aidebug/internal/workspace"
)

type command struct {
	name  string
	usage string
	help  string
	run   func(ctx context.Context, args string) error
}

func (s *Shell) commandTable() map[string]*command {
	cmds := []*command{
		{name: "help", usage: "help [command]", help: "Show commands, or the details of one command.", run: s.cmdHelp},
		{name: "exit", usage: "exit", help: "Exit AIDebug Console.", run: s.cmdExit},
		{name: "quit", usage: "quit", help: "Exit AIDebug Console.", run: s.cmdExit},
		{name: "cd", usage: "cd [dir]", help: "Change the directory used by shell commands. No argument returns to the project root.", run: s.cmdCd},
		{name: "project", usage: "project select|deselect|files|ls|run", run: s.cmdProject, help: `Perform project related operations.

  project ls                      List selectable files with their numbers.
  project select [file...]        Select files by number, path, directory or glob.
                                  Without arguments, list the files and ask.
  project select --changed        Select the files changed in git.
  project deselect [file...]      Remove files by number in the selection, path or glob.
  project files [paths|contents]  Print the selected paths or their contents.
  project run                     Run the project; offer to debug a failure.`},
		{name: "config", usage: "config project|model|provider|temperature|show", run: s.cmdConfig, help: `Change settings for this session.

  config project language|type|framework|run [value]
  config model <name>
  config provider <name>
  config temperature <0-2>
  config show`},
		{name: "debug", usage: "debug <error message>", help: "Ask the model to explain and fix an error in the selected files.", run: s.cmdMode(suggest.ModeDebug)},
		{name: "feature", usage: "feature <request>", help: "Ask the model to implement a change in the selected files.", run: s.cmdMode(suggest.ModeFeature)},
		{name: "readme", usage: "readme [request]", help: "Ask the model to write or update the README for the selected files.", run: s.cmdMode(suggest.ModeReadme)},
		{name: "cache", usage: "cache clear|show", help: "Clear the suggestion cache, or show its contents and this session's hit rate.", run: s.cmdCache},
		{name: "watch", usage: "watch", help: "Repeat the last request whenever a selected file changes. Ctrl-C stops.", run: s.cmdWatch},
	}
	m := make(map[string]*command, len(cmds))
	for _, c := range cmds {
		m[c.name] = c
	}
	return m
}

func (s *Shell) cmdHelp(_ context.Context, args string) error {
	if args != "" {
		c, ok := s.commands[args]
		if !ok {
			return fmt.Errorf("unknown command: %s", args)
		}
		fmt.Fprintf(s.out, "%s\n\n%s\n", c.usage, c.help)
		return nil
	}
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := s.commands[name]
		summary, _, _ := strings.Cut(c.help, "\n")
		fmt.Fprintf(s.out, "  %-48s %s\n", c.usage, summary)
	}
	fmt.Fprintln(s.out, "\nAny other line runs in the system shell.")
	return nil
}

func (s *Shell) cmdExit(context.Context, string) error {
	s.done = true
	return nil
}

func (s *Shell) cmdCd(_ context.Context, args string) error {
	return s.cd(args)
}

func (s *Shell) cmdProject(ctx context.Context, args string) error {
	sub, rest := splitWord(args)
	ws := s.sess.Workspace
	switch sub {
	case "ls":
		return s.listCandidates()
	case "select":
		return s.selectFiles(rest)
	case "deselect":
		if rest == "" {
			if ws.Selection().Len() == 0 {
				fmt.Fprintln(s.out, "No files selected.")
				return nil
			}
			s.listSelection()
			line, err := s.reader.ReadLine("Remove: ")
			if err != nil {
				return err
			}
			rest = line
		}
		if strings.TrimSpace(rest) == "" {
			fmt.Fprintln(s.out, "No files selected for removal.")
			return nil
		}
		if err := ws.Deselect(strings.Fields(rest)...); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Files removed.")
		return s.sess.SaveProject()
	case "files":
		return s.showFiles(rest)
	case "run":
		return s.runProjectCommand(ctx)
	default:
		return fmt.Errorf("usage: %s", s.commands["project"].usage)
	}
}

func (s *Shell) listCandidates() error {
	ws := s.sess.Workspace
	files, err := ws.Candidates()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(s.out, "No selectable files under", ws.Root())
		return nil
	}
	for i, f := range files {
		mark := " "
		if ws.Selection().Contains(f) {
			mark = output.Green("*")
		}
		fmt.Fprintf(s.out, "%s %3d. %s\n", mark, i+1, f)
	}
	return nil
}

func (s *Shell) listSelection() {
	for i, f := range s.sess.Workspace.Selection().Paths() {
		fmt.Fprintf(s.out, "%d. %s\n", i+1, f)
	}
}

func (s *Shell) selectFiles(args string) error {
	ws := s.sess.Workspace
	var (
		added []string
		err   error
	)
	switch strings.TrimSpace(args) {
	case "--changed":
		if s.sess.Repo == nil {
			return errors.New("project is not in a git repository")
		}
		changed, cerr := s.sess.Repo.ChangedFiles(ws.Root())
		if cerr != nil {
			return cerr
		}
		added, err = ws.SelectPaths(changed)
	case "":
		if err := s.listCandidates(); err != nil {
			return err
		}
		line, rerr := s.reader.ReadLine("Files: ")
		if rerr != nil {
			return rerr
		}
		if strings.TrimSpace(line) == "" {
			return nil
		}
		added, err = ws.Select(strings.Fields(line)...)
	default:
		added, err = ws.Select(strings.Fields(args)...)
	}
	if err != nil {
		return err
	}
	switch len(added) {
	case 0:
		fmt.Fprintln(s.out, "No new files selected.")
	case 1:
		fmt.Fprintf(s.out, "File selected: %s\n", added[0])
	default:
		fmt.Fprintf(s.out, "%d files selected.\n", len(added))
	}
	return s.sess.SaveProject()
}

func (s *Shell) showFiles(mode string) error {
	ws := s.sess.Workspace
	switch mode {
	case "", "paths":
		if ws.Selection().Len() == 0 {
			fmt.Fprintln(s.out, "No files selected.")
			return nil
		}
		s.listSelection()
		return nil
	case "contents", "content":
		files, missing, err := ws.Files()
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintf(s.out, "%s:\n\n%s\n\n", output.Red(f.Path), strings.TrimRight(f.Content, "\n"))
		}
		for _, m := range missing {
			fmt.Fprintln(s.errOut, output.Warn("File no longer exists: %s", m))
		}
		return nil
	default:
		return errors.New("usage: project files [paths|contents]")
	}
}

func (s *Shell) runProjectCommand(ctx context.Context) error {
	command := s.sess.Workspace.Profile().RunCommand
	if command == "" {
		return errors.New("no run command set; use: config project run <command>")
	}
	stderr, failed, err := s.runProject(ctx, command)
	if err != nil || !failed {
		return err
	}
	fmt.Fprintln(s.out, output.Warn("Command failed."))
	ok, err := s.confirm("Debug this error?")
	if err != nil || !ok {
		return err
	}
	return s.runSuggest(ctx, suggest.Request{Mode: suggest.ModeDebug, Query: stderr}, false)
}

func (s *Shell) cmdConfig(_ context.Context, args string) error {
	sub, rest := splitWord(args)
	switch sub {
	case "project":
		return s.configProject(rest)
	case "model", "provider", "temperature":
		if rest == "" {
			return fmt.Errorf("usage: config %s <value>", sub)
		}
		cfg := s.sess.Config
		if err := config.SetField(&cfg, sub, rest); err != nil {
			return err
		}
		if err := s.sess.Apply(cfg); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s set to %s.\n", sub, rest)
		return nil
	case "show", "":
		return s.showConfig()
	default:
		return fmt.Errorf("usage: %s", s.commands["config"].usage)
	}
}

var profileQuestions = map[string]string{
	"language":  "What language does the project use? ",
	"type":      "What type of project is it? ",
	"framework": "What framework is your project using? ",
	"run":       "Enter command used to run project: ",
}

func (s *Shell) configProject(args string) error {
	key, value := splitWord(args)
	question, ok := profileQuestions[key]
	if !ok {
		return fmt.Errorf("usage: config project %s [value]", strings.Join(workspace.ProfileKeys, "|"))
	}
	if value == "" {
		line, err := s.reader.ReadLine(question)
		if err != nil {
			return err
		}
		value = line
	}
	if err := s.sess.Workspace.Profile().Set(key, value); err != nil {
		return err
	}
	return s.sess.SaveProject()
}

func (s *Shell) showConfig() error {
	cfg := s.sess.Config
	p := s.sess.Workspace.Profile()
	fmt.Fprintf(s.out, "provider:     %s\n", cfg.Provider)
	fmt.Fprintf(s.out, "model:        %s\n", cfg.Model)
	fmt.Fprintf(s.out, "temperature:  %g\n", cfg.Temperature)
	fmt.Fprintf(s.out, "cache:        %s (%s keying, enabled=%t)\n", cfg.Cache.Backend, cfg.Cache.Keying, cfg.Cache.Enabled)
	fmt.Fprintf(s.out, "redaction:    %t\n", cfg.Privacy.RedactSecrets)
	fmt.Fprintf(s.out, "project root: %s\n", s.sess.Workspace.Root())
	fmt.Fprintf(s.out, "language:     %s\n", p.Language)
	fmt.Fprintf(s.out, "type:         %s\n", p.Type)
	fmt.Fprintf(s.out, "framework:    %s\n", p.Framework)
	fmt.Fprintf(s.out, "run:          %s\n", p.RunCommand)
	return nil
}

func (s *Shell) cmdMode(mode suggest.Mode) func(context.Context, string) error {
	return func(ctx context.Context, args string) error {
		if args == "" && mode != suggest.ModeReadme {
			return fmt.Errorf("usage: %s", s.commands[string(mode)].usage)
		}
		return s.runSuggest(ctx, suggest.Request{Mode: mode, Query: args}, false)
	}
}

// runSuggest prepares req, confirms the estimated cost of a provider call
// unless the answer is cached, and prints the suggestion.
func (s *Shell) runSuggest(ctx context.Context, req suggest.Request, unattended bool) error {
	engine := s.sess.Engine
	p, err := engine.Prepare(req)
	if err != nil {
		return err
	}
	if !s.assumeYes && !unattended && !engine.Cached(p) {
		fmt.Fprintf(s.out, "Estimated: %s\n", p.Estimate)
		ok, err := s.confirm("Continue?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(s.out, "Cancelled.")
			return nil
		}
	}

	report, err := engine.Execute(ctx, p, output.StreamPrinter(s.out))
	if report == nil {
		return err
	}
	s.last = &p.Request
	if werr := (&output.TextWriter{}).Write(s.out, report); werr != nil {
		return werr
	}
	if err != nil {
		fmt.Fprintln(s.errOut, output.Warn("Warning: suggestion was not cached: %v", err))
	}
	return nil
}

func (s *Shell) cmdCache(_ context.Context, args string) error {
	switch args {
	case "clear":
		removed, err := s.sess.ClearCache()
		if err != nil {
			return err
		}
		if removed {
			fmt.Fprintln(s.out, "Cache cleared.")
		} else {
			fmt.Fprintln(s.out, "Cache is already empty.")
		}
		return nil
	case "show", "":
		rep, err := s.sess.CacheReport()
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, string(data))
		return nil
	default:
		return fmt.Errorf("usage: %s", s.commands["cache"].usage)
	}
}

func (s *Shell) cmdWatch(ctx context.Context, _ string) error {
	if s.last == nil {
		return errors.New("nothing to repeat yet; run debug, feature or readme first")
	}
	return s.watch(ctx, *s.last)
}

func (s *Shell) watch(ctx context.Context, req suggest.Request) error {
	paths := s.sess.Workspace.Selection().Paths()
	fmt.Fprintf(s.out, "Watching %d file(s) for %q. Press Ctrl-C to stop.\n", len(paths), req.Key())
	return watch.Run(ctx, watch.Options{
		Root:     s.sess.Workspace.Root(),
		Paths:    paths,
		Debounce: s.sess.DebounceInterval(),
		Logger:   s.sess.Logger.Named("watch"),
	}, func(ctx context.Context, changed []string) {
		fmt.Fprintf(s.out, "\nChanged: %s\n", strings.Join(changed, ", "))
		if err := s.runSuggest(ctx, req, true); err != nil {
			fmt.Fprintln(s.errOut, output.Error("Error: %v", err))
		}
	})
}
