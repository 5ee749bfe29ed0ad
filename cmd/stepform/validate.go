package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dlovans/stepform/pkg/stepform"
)

func newValidateCmd(a *app) *cobra.Command {
	var (
		mode string
		step int
	)

	cmd := &cobra.Command{
		Use:   "validate RECORD",
		Short: "Validate a record file against the form",
		Long: `Validate checks a JSON or YAML record file without saving it. With --step
only the fields of that step (by its id) are checked, the same gate the
wizard applies before moving on.

Examples:
  stepform validate socio.yaml
  stepform validate socio.json --step 1
  stepform validate socio.yaml --mode edit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := parseModeFlag(mode)
			if err != nil {
				return err
			}
			s, err := a.schema()
			if err != nil {
				return err
			}
			values, err := readRecord(args[0])
			if err != nil {
				return err
			}

			var errs stepform.Errors
			if cmd.Flags().Changed("step") {
				if step < 0 || step >= len(s.Steps) {
					return fmt.Errorf("--step: no step with id %d", step)
				}
				errs = s.ValidateStep(step, values, m)
			} else {
				errs = s.ValidateAll(values, m)
			}

			a.logger.Debug("validated record")
			out := cmd.OutOrStdout()
			if len(errs) == 0 {
				fmt.Fprintln(out, "✓ Record is valid")
				return nil
			}
			printErrors(out, s, errs)
			return errValidationFailed
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(stepform.ModeCreate), "form mode (create, edit)")
	cmd.Flags().IntVar(&step, "step", 0, "validate a single step by id")
	return cmd
}

// printErrors lists errors in schema field order.
func printErrors(out io.Writer, s *stepform.Schema, errs stepform.Errors) {
	for _, f := range s.Fields {
		if msg, ok := errs[f.Name]; ok {
			fmt.Fprintf(out, "✗ %s: %s\n", f.Name, msg)
		}
	}
}
