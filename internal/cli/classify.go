package cli

import (
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	"github.com/spf13/cobra"
)

func NewClassifyCommand(rootOpts *RootOptions) *cobra.Command {
	req := &attendance.ClassifyRequest{}

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Show the status a day would be classified as",
		Long: `Classify worked hours against leave, holiday and the minimum working
hours. Holiday takes precedence over leave, and leave over hours.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, rootOpts)
			if err := req.Validate(); err != nil {
				return invalidInput(out, err)
			}

			hours, leave, holiday, minHours := req.Args()
			status := attendanceService.Classify(hours, leave, holiday, minHours)
			return out.Success(attendance.ClassifyResponse{Status: status}, string(status))
		},
	}

	cmd.Flags().StringVar(&req.WorkedHours, "hours", "0", "worked hours")
	cmd.Flags().StringVar(&req.Leave, "leave", "none", "leave kind (none|full_day|half_day)")
	cmd.Flags().StringVar(&req.Holiday, "holiday", "false", "the day is a holiday")
	cmd.Flags().StringVar(&req.MinHours, "min-hours", fmt.Sprint(attendance.DefaultSettings().MinWorkingHours), "minimum working hours for present")

	return cmd
}
