package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Select the files sent with each request",
	Long: `Manage the project file selection. The selection is saved in
.aidebug.yaml in the project root and reused by every command.`,
}

var flagChanged bool

var projectLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List selectable files; selected files are marked with *",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsoleLine(cmd, "project ls")
	},
}

var projectSelectCmd = &cobra.Command{
	Use:   "select [file|dir|glob|number...]",
	Short: "Add files to the selection",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagChanged {
			return runConsoleLine(cmd, "project select --changed")
		}
		return runConsoleLine(cmd, "project select "+strings.Join(args, " "))
	},
}

var projectDeselectCmd = &cobra.Command{
	Use:   "deselect [file|glob|number...]",
	Short: "Remove files from the selection",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsoleLine(cmd, "project deselect "+strings.Join(args, " "))
	},
}

var projectFilesCmd = &cobra.Command{
	Use:       "files [paths|contents]",
	Short:     "Print the selected paths or their contents",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"paths", "contents"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsoleLine(cmd, "project files "+strings.Join(args, " "))
	},
}

var projectRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the project and offer to debug a failure",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsoleLine(cmd, "project run")
	},
}

func init() {
	projectSelectCmd.Flags().BoolVar(&flagChanged, "changed", false, "Select the files changed in git")
	projectCmd.AddCommand(projectLsCmd, projectSelectCmd, projectDeselectCmd, projectFilesCmd, projectRunCmd)
}

// runConsoleLine runs one console command against the project. The console
// prints its own errors; only the exit code is recorded here.
func runConsoleLine(cmd *cobra.Command, line string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer func() { _ = sess.Logger.Sync() }()

	sh := newShell(cmd, sess)
	if err := sh.Exec(cmd.Context(), line); err != nil {
		exitCode = exitCodeFor(err)
	}
	return nil
}
