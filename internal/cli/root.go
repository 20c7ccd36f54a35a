// Package cli implements the davstore command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/davstore/internal/auth"
	"github.com/mesh-intelligence/davstore/internal/logging"
	"github.com/mesh-intelligence/davstore/internal/paths"
	"github.com/mesh-intelligence/davstore/internal/sqlite"
	"github.com/mesh-intelligence/davstore/pkg/dav"
	"github.com/mesh-intelligence/davstore/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(format string, args ...any) error {
	return &exitError{code: exitUserError, err: fmt.Errorf(format, args...)}
}

func sysError(format string, args ...any) error {
	return &exitError{code: exitSysError, err: fmt.Errorf(format, args...)}
}

// exitCode maps a command error to a process exit code. Errors without a
// code come from argument parsing and count as user errors.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// app holds global flag values and the lazily opened store shared by all
// subcommands of one invocation.
type app struct {
	configDir string
	dataDir   string
	logLevel  string

	cfg     *viper.Viper
	log     *zap.Logger
	backend *sqlite.Backend
	session *auth.Session
	db      *dav.Database
}

// NewRootCmd creates the top-level "davstore" command with global flags
// and all subcommands registered. The returned func releases the store and
// must be called after the command has run.
func NewRootCmd() (*cobra.Command, func() error) {
	a := &app{}
	return newRootCmd(a), a.close
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:     "davstore",
		Short:   "Local table-object store with upload tracking",
		Long:    "davstore keeps table objects, their properties and attached files in a local\ndatabase and tracks which of them still need to be uploaded.",
		Version: Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/davstore)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory (default: $XDG_DATA_HOME/davstore)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newCreateCmd(a),
		newGetCmd(a),
		newListCmd(a),
		newSetCmd(a),
		newAttachCmd(a),
		newStatusCmd(a),
		newDeleteCmd(a),
		newPendingCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root, closeStore := NewRootCmd()
	err := root.ExecuteContext(ctx)
	if cerr := closeStore(); err == nil && cerr != nil {
		err = sysError("close store: %w", cerr)
	}
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "davstore:", err)
	}
	os.Exit(exitCode(err))
}

// config loads config.yaml once per invocation.
func (a *app) config() (*viper.Viper, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return nil, sysError("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return nil, sysError("%w", err)
	}
	if a.logLevel != "" {
		v.Set(cfgKeyLogLevel, a.logLevel)
	}
	a.cfg = v
	return v, nil
}

// storeConfig resolves the backend configuration: --data-dir flag, then
// config.yaml, then DAVSTORE_DATA_DIR, then the platform default.
func (a *app) storeConfig() (types.Config, error) {
	v, err := a.config()
	if err != nil {
		return types.Config{}, err
	}
	dataDir, err := paths.ResolveDataDir(a.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, sysError("resolve data dir: %w", err)
	}
	return types.Config{
		Backend: v.GetString(cfgKeyBackend),
		DataDir: dataDir,
	}, nil
}

// open attaches the backend and builds the Database on first use.
func (a *app) open() (*dav.Database, error) {
	if a.db != nil {
		return a.db, nil
	}
	cfg, err := a.storeConfig()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(a.cfg.GetString(cfgKeyLogLevel))
	if err != nil {
		return nil, userError("%w", err)
	}

	backend := sqlite.NewBackend()
	if err := backend.Attach(cfg); err != nil {
		if errors.Is(err, types.ErrBackendEmpty) || errors.Is(err, types.ErrBackendUnknown) {
			return nil, userError("attach backend %q: %w", cfg.Backend, err)
		}
		return nil, sysError("attach backend: %w", err)
	}

	a.log = log
	a.backend = backend
	a.session = auth.NewSession(backend)
	a.db = dav.New(backend, paths.AttachmentsDir(cfg.DataDir),
		dav.WithLogger(log.With(zap.String("data_dir", cfg.DataDir))),
		dav.WithAuthenticator(a.session),
	)
	log.Debug("store opened", zap.String("backend", cfg.Backend))
	return a.db, nil
}

// close detaches the backend if it was opened. Safe to call repeatedly.
func (a *app) close() error {
	if a.backend == nil {
		return nil
	}
	err := a.backend.Detach()
	_ = a.log.Sync()
	a.backend, a.session, a.db = nil, nil, nil
	return err
}
