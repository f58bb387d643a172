package cli

import (
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/spf13/cobra"
)

type reconcileOptions struct {
	from      string
	to        string
	employees []string
}

func NewReconcileCommand(rootOpts *RootOptions, open RuntimeFactory) *cobra.Command {
	opts := &reconcileOptions{}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Create or refresh draft attendance from check-ins",
		Long: `Reconcile attendance for a date range. Without --employee every active
employee is reconciled. Final records are never modified.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd, rootOpts, opts, open)
		},
	}

	cmd.Flags().StringVar(&opts.from, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.to, "to", "", "last date, YYYY-MM-DD (defaults to --from)")
	cmd.Flags().StringSliceVar(&opts.employees, "employee", nil, "employee id (repeatable)")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

func runReconcile(cmd *cobra.Command, rootOpts *RootOptions, opts *reconcileOptions, open RuntimeFactory) error {
	out := newFormatter(cmd, rootOpts)

	to := opts.to
	if to == "" {
		to = opts.from
	}
	req := attendance.ReconcileRequest{EmployeeIDs: opts.employees, From: opts.from, To: to}
	if err := req.Validate(); err != nil {
		return invalidInput(out, err)
	}

	rt, err := open(cmd.Context(), rootOpts)
	if err != nil {
		return WrapExitError(ExitCommandError, "open runtime", err)
	}
	defer rt.Close()

	from, until := req.Range(rt.Location)
	out.VerboseLog("Reconciling %s..%s for %d employee(s)", req.From, req.To, len(req.EmployeeIDs))

	result, err := rt.Engine.Reconcile(cmd.Context(), req.EmployeeIDs, from, until)
	report := passReport{
		Op:     "reconcile",
		IDs:    result.Touched,
		Errors: attendance.ErrorStrings(result.Errors),
	}
	return finishPass(out, report, "record(s) touched", err)
}
