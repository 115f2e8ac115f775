// Package cli wires the cobra command tree.
package cli

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/autofixops/fixops-go/internal/app"
	"github.com/autofixops/fixops-go/internal/domain"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// Version is stamped at build time via -ldflags.
var Version = "dev"

// NewRootCmd wires the cobra root command.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, opts.Verbose)
	if err != nil {
		return nil, err
	}

	root := &cobra.Command{
		Use:           "fixops",
		Short:         "FixOps - AI-powered environment debugging service",
		Long:          "FixOps analyzes error logs with an LLM, runs whitelisted diagnostics, and tracks service metrics.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCommand(container))
	root.AddCommand(newDoctorCommand(container))
	root.AddCommand(newPolicyCommand(container))
	root.AddCommand(newVersionCommand())
	return root, nil
}

func newServeCommand(container *app.Container) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			defer container.Logger.Sync()

			listen := addr
			if listen == "" {
				listen = container.Config.Server.Addr
			}
			if err := container.Analyst.Ready(); err != nil {
				container.Logger.Warn("analysis unavailable", map[string]interface{}{"reason": err.Error()})
			}
			return container.HTTPServer.Run(ctx, listen)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func newDoctorCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the environment and configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := container.DoctorService.Run(cmd.Context())
			for _, check := range report.Checks {
				fmt.Fprintf(cmd.OutOrStdout(), "[%-5s] %-20s %s\n", check.Status, check.Name, check.Details)
			}
			if err != nil {
				return err
			}
			if report.Worst() == domain.HealthError {
				return fmt.Errorf("doctor found blocking problems")
			}
			return nil
		},
	}
}

func newPolicyCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Show the effective command policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			binaries := container.Policy.AllowedBinaries()
			sort.Strings(binaries)
			fmt.Fprintf(cmd.OutOrStdout(), "Policy file: %s\n", container.Config.Security.PolicyFile)
			fmt.Fprintf(cmd.OutOrStdout(), "Forbidden patterns: %d\n", container.Policy.RuleCount())
			fmt.Fprintln(cmd.OutOrStdout(), "Whitelisted binaries:")
			for _, name := range binaries {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "fixops", Version)
		},
	}
}
