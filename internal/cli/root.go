package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidebug/aidebug/internal/output"
	"github.com/aidebug/aidebug/internal/providers"
	"github.com/aidebug/aidebug/internal/suggest"
	"github.com/aidebug/aidebug/internal/workspace"
)

const version = "1.0.0"

// Exit codes.
const (
	ExitSuccess      = 0
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

// Shared flags
var (
	flagProvider    string
	flagModel       string
	flagTemperature string
	flagFormat      string
	flagOut         string
	flagDir         string
	flagColor       string
	flagFiles       []string
	flagNoRedact    bool
	flagYes         bool
)

var rootCmd = &cobra.Command{
	Use:   "aidebug",
	Short: "AI debugging console",
	Long: `AIDebug sends the files you select, together with an error message or a
request, to an LLM and prints its suggestions. Answers are cached against a
fingerprint of the selected files, so asking again about unchanged code is
instant and free.

Run without arguments to start the interactive console.`,
	Args: cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		output.ConfigureColor(flagColor, os.Stdout)
	},
	RunE: runConsole,
}

// Run executes the root command and returns an exit code.
func Run() int {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}
	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print aidebug version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "aidebug version %s\n", version)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagProvider, "provider", "", "LLM provider (openai, anthropic, gemini, ollama)")
	pf.StringVar(&flagModel, "model", "", "Model name")
	pf.StringVar(&flagTemperature, "temperature", "", "Sampling temperature (0-2)")
	pf.StringVar(&flagFormat, "format", "", "Output format (text, json, markdown)")
	pf.StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	pf.StringVarP(&flagDir, "dir", "C", "", "Project directory (default: current directory)")
	pf.StringVar(&flagColor, "color", "auto", "Colour output: auto, always or never")
	pf.BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	pf.BoolVarP(&flagYes, "yes", "y", false, "Do not ask before calling the provider")

	rootCmd.AddCommand(debugCmd, featureCmd, readmeCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func runConsole(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer func() { _ = sess.Logger.Sync() }()

	sh := newShell(cmd, sess)
	if err := sh.Run(cmd.Context()); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), output.Error("Error: %v", err))
		exitCode = ExitRuntimeError
	}
	return nil
}

// exitCodeFor maps a handler error to a process exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case providers.IsAuthError(err), errors.Is(err, providers.ErrNoAPIKey):
		return ExitAuthError
	case errors.Is(err, suggest.ErrEmptyQuery), errors.Is(err, suggest.ErrNoFiles),
		errors.Is(err, workspace.ErrNotSelected):
		return ExitUsageError
	default:
		return ExitRuntimeError
	}
}

// fail reports err on stderr and records its exit code.
func fail(cmd *cobra.Command, err error) {
	fmt.Fprintln(cmd.ErrOrStderr(), output.Error("Error: %v", err))
	exitCode = exitCodeFor(err)
}
