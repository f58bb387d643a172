package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	PolicyFile string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command. open builds the engine for the
// commands that need one.
func NewRootCommand(open RuntimeFactory) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "attendancectl",
		Short: "Attendance reconciliation and auto-submission",
		Long: `Operate the attendance engine: ingest device punches, reconcile
attendance records from check-ins, backfill missed days and run the
auto-submission sweep.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.PolicyFile, "policy-file", "", "YAML policy file used instead of the database policy tables")

	cmd.AddCommand(NewReconcileCommand(opts, open))
	cmd.AddCommand(NewBackfillCommand(opts, open))
	cmd.AddCommand(NewSweepCommand(opts, open))
	cmd.AddCommand(NewIngestCommand(opts, open))
	cmd.AddCommand(NewClassifyCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
