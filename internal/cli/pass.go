package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// passReport is the shared output of the batch commands.
type passReport struct {
	Op      string   `json:"op"`
	IDs     []string `json:"ids"`
	Skipped int      `json:"skipped,omitempty"`
	Errors  []string `json:"errors"`
	Aborted string   `json:"aborted,omitempty"`
}

func (p passReport) text(verb string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d %s", p.Op, len(p.IDs), verb)
	if p.Skipped > 0 {
		fmt.Fprintf(&b, ", %d skipped", p.Skipped)
	}
	fmt.Fprintf(&b, ", %d error(s)", len(p.Errors))
	for _, id := range p.IDs {
		fmt.Fprintf(&b, "\n  %s", id)
	}
	for _, e := range p.Errors {
		fmt.Fprintf(&b, "\n  error: %s", e)
	}
	if p.Aborted != "" {
		fmt.Fprintf(&b, "\naborted: %s", p.Aborted)
	}
	return b.String()
}

// finishPass prints the report and turns it into an exit status. Units
// committed before an abort are still printed.
func finishPass(out *OutputFormatter, report passReport, verb string, err error) error {
	if report.IDs == nil {
		report.IDs = []string{}
	}
	if err != nil {
		report.Aborted = err.Error()
	}
	if printErr := out.Success(report, report.text(verb)); printErr != nil {
		return printErr
	}

	switch {
	case err != nil:
		return WrapExitError(ExitCommandError, report.Op+" aborted", err)
	case len(report.Errors) > 0:
		return WrapExitError(ExitFailure, fmt.Sprintf("%s finished with %d error(s)", report.Op, len(report.Errors)), nil)
	}
	return nil
}

// invalidInput reports validation failures in the configured format.
func invalidInput(out *OutputFormatter, err error) error {
	var details interface{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details = verrs.ToMap()
	}
	_ = out.Error("INVALID_INPUT", err.Error(), details)
	return WrapExitError(ExitCommandError, "invalid input", attendance.ErrInput)
}
