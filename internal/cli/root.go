// Package cli implements circuitctl, the operator command line for the
// capacity ledger and the matching engine.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "text" | "json" | "yaml"
	Tables string

	env Env
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command wired to the real configuration,
// store and synergy tables.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithEnv(DefaultEnv())
}

// NewRootCommandWithEnv creates the root command on top of env.
func NewRootCommandWithEnv(env Env) *cobra.Command {
	opts := &RootOptions{env: env}

	cmd := &cobra.Command{
		Use:   "circuitctl",
		Short: "circuitctl - operate Circuit events",
		Long:  "Operator tooling for event capacity, counter reconciliation and compatibility ranking.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.Tables, "tables", "", "synergy table file (defaults to SYNERGY_TABLE_PATH, then the built-in tables)")

	cmd.AddCommand(NewEventCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewRankCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewTablesCommand(opts))

	return cmd
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}
