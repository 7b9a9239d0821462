package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aidebug/aidebug/internal/output"
	"github.com/aidebug/aidebug/internal/suggest"
)

// maxPipedQuery bounds the error text read from stdin.
const maxPipedQuery = 1 << 20

var debugCmd = &cobra.Command{
	Use:   "debug [error message]",
	Short: "Explain and fix an error in the selected files",
	Long: `Send the selected files and an error message to the model.

The message may be given as arguments or piped on stdin:

  python main.py 2>&1 | aidebug debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSuggestion(cmd, suggest.ModeDebug, args)
	},
}

var featureCmd = &cobra.Command{
	Use:   "feature <request>",
	Short: "Ask the model to implement a change in the selected files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSuggestion(cmd, suggest.ModeFeature, args)
	},
}

var readmeCmd = &cobra.Command{
	Use:   "readme [request]",
	Short: "Ask the model to write or update the README for the selected files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSuggestion(cmd, suggest.ModeReadme, args)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{debugCmd, featureCmd, readmeCmd, watchCmd} {
		cmd.Flags().StringSliceVarP(&flagFiles, "file", "f", nil, "Files to include, in addition to the saved selection (repeatable)")
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// readPiped returns the text piped on r, or "" when r is a terminal.
func readPiped(r io.Reader) (string, error) {
	if r == nil || isTerminal(r) {
		return "", nil
	}
	data, err := io.ReadAll(io.LimitReader(r, maxPipedQuery))
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s (y/n) ", question)
	var answer string
	if _, err := fmt.Fscanln(in, &answer); err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func runSuggestion(cmd *cobra.Command, mode suggest.Mode, args []string) error {
	query := strings.Join(args, " ")
	if query == "" && mode == suggest.ModeDebug {
		piped, err := readPiped(cmd.InOrStdin())
		if err != nil {
			return err
		}
		query = piped
	}

	sess, err := openSession()
	if err != nil {
		return err
	}
	defer func() { _ = sess.Logger.Sync() }()

	if len(flagFiles) > 0 {
		if _, err := sess.Workspace.Select(flagFiles...); err != nil {
			return err
		}
	}

	engine := sess.Engine
	p, err := engine.Prepare(suggest.Request{Mode: mode, Query: query})
	if err != nil {
		fail(cmd, err)
		return nil
	}

	// Only ask when someone can answer.
	if !flagYes && isTerminal(cmd.InOrStdin()) && !engine.Cached(p) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Estimated: %s\n", p.Estimate)
		if !confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), "Continue?") {
			fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
			return nil
		}
	}

	var onDelta func(string)
	if flagOut == "" && (sess.Config.Format == "text" || sess.Config.Format == "") {
		onDelta = output.StreamPrinter(cmd.OutOrStdout())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	report, err := engine.Execute(ctx, p, onDelta)
	if report == nil {
		fail(cmd, err)
		return nil
	}
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), output.Warn("Warning: suggestion was not cached: %v", err))
	}

	if err := writeReport(cmd, report, sess.Config.Format); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
	}
	return nil
}

func writeReport(cmd *cobra.Command, report *suggest.Report, format string) error {
	if flagOut != "" {
		return output.WriteReport(report, format, flagOut)
	}
	writer, err := output.GetWriter(format)
	if err != nil {
		return err
	}
	return writer.Write(cmd.OutOrStdout(), report)
}
