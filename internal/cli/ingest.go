package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/checkin"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func NewIngestCommand(rootOpts *RootOptions, open RuntimeFactory) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Store device punches as check-in events",
		Long: `Read a punch dump and store new check-ins. The file holds either a list
of punches or an object with a "punches" list, as JSON or YAML:

  - user_id: "101"
    timestamp: "2024-03-11 09:00:00"
    punch: 0
    device: gate-1

Use --file - to read standard input.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, rootOpts)

			req, err := readPunches(cmd.InOrStdin(), file)
			if err != nil {
				_ = out.Error("INVALID_INPUT", err.Error(), nil)
				return WrapExitError(ExitCommandError, "read punches", err)
			}
			if err := req.Validate(); err != nil {
				return invalidInput(out, err)
			}
			out.VerboseLog("Ingesting %d punch(es) from %s", len(req.Punches), file)

			rt, err := open(cmd.Context(), rootOpts)
			if err != nil {
				return WrapExitError(ExitCommandError, "open runtime", err)
			}
			defer rt.Close()

			result, err := rt.Engine.Ingest(cmd.Context(), req.Punches)
			return finishPass(out, passReport{
				Op:      "ingest",
				IDs:     result.Created,
				Skipped: result.Skipped,
				Errors:  attendance.ErrorStrings(result.Errors),
			}, "checkin(s) created", err)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "punch dump (JSON or YAML), - for stdin")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// readPunches accepts a bare list or a {punches: [...]} document. YAML
// decoding covers JSON input as well.
func readPunches(stdin io.Reader, path string) (checkin.IngestRequest, error) {
	var req checkin.IngestRequest

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return req, fmt.Errorf("read %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return req, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return req, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.SequenceNode {
		err = root.Decode(&req.Punches)
	} else {
		err = root.Decode(&req)
	}
	if err != nil {
		return req, fmt.Errorf("decode %s: %w", path, err)
	}
	return req, nil
}
