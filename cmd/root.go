package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"platter/internal/config"
	"platter/internal/logging"
)

// ExitError ends the process with Code without printing anything.
type ExitError struct {
	Code int
}

func (e ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

var rootCmd = newRootCommand()

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "platter",
		Short:         "platter - image maintenance for the gallery site",
		Long:          "platter converts HEIC photos to JPEG, rewrites references to them, and recompresses gallery images in place.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetHelpCommand(&cobra.Command{Hidden: true})

	root.PersistentFlags().String("config", "", "optional TOML or YAML defaults file")
	root.PersistentFlags().String("log-format", "console", "log format: console or json")

	root.AddCommand(newHeicCommand())
	root.AddCommand(newOptimizeCommand())
	return root
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err, os.Stderr))
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var exit ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	fmt.Fprintln(stderr, err)
	return 1
}

// loadConfig reads --config and applies --log-format on top of it.
func loadConfig(cmd *cobra.Command) (config.File, error) {
	path, _ := cmd.Flags().GetString("config")
	file, err := config.Load(path)
	if err != nil {
		return file, err
	}
	if cmd.Flags().Changed("log-format") {
		file.LogFormat, _ = cmd.Flags().GetString("log-format")
		if err := file.Validate(); err != nil {
			return file, err
		}
	}
	return file, nil
}

func newLogger(cmd *cobra.Command, format string, verbose bool) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Format:  format,
		Verbose: verbose,
		Command: cmd.Name(),
		Writer:  cmd.ErrOrStderr(),
	})
}
