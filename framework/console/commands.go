// Package console holds the command-line entry points of a go-svcs
// application.
package console

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-svcs/framework/app"
)

// ErrUnhealthy is returned by the health command when a probe fails.
var ErrUnhealthy = errors.New("one or more services are unhealthy")

// Setup registers application providers and routes. It runs after the core
// providers are registered and before Boot.
type Setup func(a *app.Application) error

// NewRootCommand builds the CLI with the serve and health subcommands.
func NewRootCommand(name, version string, setup Setup, opts ...app.Option) *cobra.Command {
	var envFiles []string

	build := func() (*app.Application, error) {
		a, err := app.New(envFiles, opts...)
		if err != nil {
			return nil, err
		}
		if setup != nil {
			if err := setup(a); err != nil {
				return nil, err
			}
		}
		return a, nil
	}

	root := &cobra.Command{
		Use:           name,
		Short:         name + " service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve HTTP until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := build()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Run(ctx)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Run every health probe once and print the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			a, err := build()
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.Close(cmd.Context()); err == nil {
					err = cerr
				}
			}()

			if err := a.Boot(cmd.Context()); err != nil {
				return fmt.Errorf("boot: %w", err)
			}
			report, err := a.CheckHealth(cmd.Context())
			if err != nil {
				return err
			}
			PrintHealth(cmd.OutOrStdout(), report)
			if !report.Healthy() {
				return ErrUnhealthy
			}
			return nil
		},
	})

	return root
}
