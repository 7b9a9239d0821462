package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aidebug/aidebug/internal/config"
	"github.com/aidebug/aidebug/internal/logging"
	"github.com/aidebug/aidebug/internal/output"
	"github.com/aidebug/aidebug/internal/session"
	"github.com/aidebug/aidebug/internal/shell"
)

// newClient creates provider clients. Nil uses providers.New; tests swap in
// a stub.
var newClient session.ClientFactory

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagTemperature != "" {
		m["temperature"] = flagTemperature
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	return m
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(buildOverrides())
	if err != nil {
		return cfg, err
	}
	if flagNoRedact {
		cfg.Privacy.RedactSecrets = false
		fmt.Fprintln(os.Stderr, output.Warn("WARNING: secret redaction is disabled"))
	}
	return cfg, nil
}

// newLogger writes to aidebug.log in the config directory. Logging is
// best effort: a logger that cannot be built is replaced by a no-op.
func newLogger() *zap.Logger {
	dir, err := config.ConfigDir()
	if err != nil {
		return zap.NewNop()
	}
	logger, err := logging.New(logging.Options{Path: filepath.Join(dir, "aidebug.log")})
	if err != nil {
		return zap.NewNop()
	}
	logging.SetDefault(logger)
	return logger
}

func projectRoot() (string, error) {
	if flagDir != "" {
		return filepath.Abs(flagDir)
	}
	return os.Getwd()
}

// openSession loads the configuration and opens the project directory.
func openSession() (*session.Session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}
	return session.New(cfg, root, session.Options{
		Logger:    newLogger(),
		NewClient: newClient,
	})
}

// newShell creates a console over sess that reads from the command's input.
func newShell(cmd *cobra.Command, sess *session.Session) *shell.Shell {
	opts := shell.Options{
		Out:       cmd.OutOrStdout(),
		ErrOut:    cmd.ErrOrStderr(),
		AssumeYes: flagYes,
		Version:   version,
	}
	if f, ok := cmd.InOrStdin().(*os.File); ok {
		opts.In = f
	} else {
		opts.Input = cmd.InOrStdin()
	}
	return shell.New(sess, opts)
}
