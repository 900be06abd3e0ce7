// Package cli defines the shelf command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shelfapp/shelf/internal/config"
	"github.com/shelfapp/shelf/internal/di"
)

// Version is stamped at build time with -ldflags "-X".
var Version = "dev"

const keyEnvFile = "env-file"

// annotationInteractive marks commands that draw menus on the terminal.
const annotationInteractive = "shelf/interactive"

// app carries per-invocation state from PersistentPreRunE to the commands.
type app struct {
	viper    *viper.Viper
	injector *do.RootScope
	services *di.Services

	in  io.Reader
	out io.Writer
}

// NewRootCommand builds the shelf command tree.
func NewRootCommand() *cobra.Command {
	a := &app{in: os.Stdin, out: os.Stdout}

	root := &cobra.Command{
		Use:   "shelf",
		Short: "Personal library catalog",
		Long: `shelf keeps a per-user catalog of books in a local SQLite database.

Run "shelf shell" for the interactive menu, or use the one-shot commands to
register accounts and move a library in and out of CSV files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String(keyEnvFile, ".env", "dotenv file loaded before reading SHELF_* variables")
	flags.String(config.KeyEnv, "", "environment: development, production or test")
	flags.String(config.KeyLogLevel, "", "log level: debug, info, warn or error")
	flags.String(config.KeyLogFormat, "", "log format: pretty or json (default depends on env)")
	flags.String(config.KeyLogFile, "", "append an activity log in JSON lines to this file")
	flags.String(config.KeyDBPath, "", "library database file (default ~/Shelf/library.db)")
	flags.String(config.KeyExportDir, "", "directory receiving CSV exports (default .)")
	flags.Int(config.KeyLoginAttempts, 0, "failed logins allowed per username before throttling (default 5)")
	flags.Duration(config.KeyLoginWindow, 0, "period over which login attempts refill (default 1m)")

	root.AddCommand(
		newShellCommand(a),
		newRegisterCommand(a),
		newImportCommand(a),
		newExportCommand(a),
		newSeedCommand(a),
		newVersionCommand(),
	)

	return root
}

// setup loads configuration and builds the container for cmd. Commands that
// need the library call it from PreRunE.
func (a *app) setup(cmd *cobra.Command) error {
	a.in = cmd.InOrStdin()
	a.out = cmd.OutOrStdout()

	envFile, err := cmd.Flags().GetString(keyEnvFile)
	if err != nil {
		return err
	}

	v, err := config.NewViper(envFile)
	if err != nil {
		return err
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	if _, ok := cmd.Annotations[annotationInteractive]; ok {
		config.SetInteractiveDefaults(v)
	}
	a.viper = v

	a.injector = di.NewContainer(v, cmd.ErrOrStderr())
	if err := di.Bootstrap(a.injector); err != nil {
		return err
	}

	a.services, err = di.ResolveServices(a.injector)
	return err
}

// teardown closes the store and the activity log.
func (a *app) teardown() {
	if a.injector == nil {
		return
	}
	if err := a.injector.Shutdown(); err != nil && a.services != nil {
		a.services.Logger.Error("shutdown error", "error", err)
	}
	a.injector = nil
}

// withApp wraps a command body so the container is always torn down.
func (a *app) withApp(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.setup(cmd); err != nil {
			a.teardown()
			return err
		}
		defer a.teardown()
		return run(cmd, args)
	}
}

// Execute runs the command tree and returns the process exit code. An
// interrupt cancels the running command.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
