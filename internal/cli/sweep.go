package cli

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/spf13/cobra"
)

func NewSweepCommand(rootOpts *RootOptions, open RuntimeFactory) *cobra.Command {
	var now string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Finalize draft attendance that is due for auto-submission",
		Long: `Evaluate every draft record and finalize those past the shift-end
buffer or the regularization window. --now replays the sweep at a fixed
instant.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, rootOpts)

			req := attendance.SweepRequest{}
			if now != "" {
				req.Now = &now
			}
			if err := req.Validate(); err != nil {
				return invalidInput(out, err)
			}
			at := req.At(time.Now())

			rt, err := open(cmd.Context(), rootOpts)
			if err != nil {
				return WrapExitError(ExitCommandError, "open runtime", err)
			}
			defer rt.Close()

			result, err := rt.Engine.SweepAutoSubmit(cmd.Context(), at)
			return finishPass(out, passReport{
				Op:     "sweep",
				IDs:    result.Finalized,
				Errors: attendance.ErrorStrings(result.Errors),
			}, "record(s) finalized", err)
		},
	}

	cmd.Flags().StringVar(&now, "now", "", "evaluation instant, RFC3339 (defaults to the current time)")

	return cmd
}
