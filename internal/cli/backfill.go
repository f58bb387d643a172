package cli

import (
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/spf13/cobra"
)

func NewBackfillCommand(rootOpts *RootOptions, open RuntimeFactory) *cobra.Command {
	req := &attendance.BackfillRequest{}

	cmd := &cobra.Command{
		Use:           "backfill",
		Short:         "Create attendance for days that have check-ins but no record",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, rootOpts)
			if err := req.Validate(); err != nil {
				return invalidInput(out, err)
			}

			rt, err := open(cmd.Context(), rootOpts)
			if err != nil {
				return WrapExitError(ExitCommandError, "open runtime", err)
			}
			defer rt.Close()

			from, to := req.Range(rt.Location)
			result, err := rt.Engine.Backfill(cmd.Context(), from, to)
			return finishPass(out, passReport{
				Op:     "backfill",
				IDs:    result.Touched,
				Errors: attendance.ErrorStrings(result.Errors),
			}, "record(s) created", err)
		},
	}

	cmd.Flags().StringVar(&req.From, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&req.To, "to", "", "last date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
