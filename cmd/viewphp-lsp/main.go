package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/viewphp-lsp/cmd/viewphp-lsp/check"
	serve_lsp "github.com/walteh/viewphp-lsp/cmd/viewphp-lsp/serve-lsp"
	"github.com/walteh/viewphp-lsp/pkg/debug"
)

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, check.ErrFindings) {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		os.Exit(1)
	}
}

func run() error {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "viewphp-lsp",
		Short:         "Structural checks and editor support for ViewPHP templates",
		Version:       debug.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		logger := debug.NewConsoleLogger(os.Stderr, level, false)
		cmd.SetContext(logger.WithContext(cmd.Context()))
	}

	cmdVersion := &cobra.Command{
		Use: "raw-version",
		Run: func(cmdz *cobra.Command, args []string) {
			cmdz.Println(rootCmd.Version)
		},
		Hidden: true,
	}

	rootCmd.AddCommand(cmdVersion)
	rootCmd.AddCommand(serve_lsp.NewServeLSPCommand())
	rootCmd.AddCommand(check.NewCheckCommand())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if errors.Is(err, check.ErrFindings) {
			return err
		}
		return errors.Errorf("failed to execute command: %w", err)
	}

	return nil
}
