package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidebug/aidebug/internal/suggest"
)

var watchCmd = &cobra.Command{
	Use:   "watch <debug|feature|readme> [text]",
	Short: "Answer a request, then again whenever a selected file changes",
	Long: `Answer a request once, then watch the selected files and repeat it each
time they change. Unchanged files are answered from the cache; edits make a
new provider call without asking. Stop with Ctrl-C.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := suggest.ParseMode(args[0])
		if err != nil {
			return err
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
		sh := newShell(cmd, sess)
		req := suggest.Request{Mode: mode, Query: strings.Join(args[1:], " ")}
		if err := sh.Watch(cmd.Context(), req); err != nil {
			fail(cmd, err)
		}
		return nil
	},
}
