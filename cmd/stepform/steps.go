package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dlovans/stepform/pkg/stepform"
)

func newStepsCmd(a *app) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "steps",
		Short: "Show the steps a form walks through",
		Long: `Steps prints the effective steps for a mode with the fields each one
validates. Steps skipped in the mode are left out.

Examples:
  stepform steps
  stepform steps --mode edit --schema forms/signup.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := parseModeFlag(mode)
			if err != nil {
				return err
			}
			s, err := a.schema()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			steps := s.EffectiveSteps(m)
			for i, step := range steps {
				fmt.Fprintf(out, "Step %d/%d  %s", i+1, len(steps), step.Title)
				if step.Subtitle != "" {
					fmt.Fprintf(out, ": %s", step.Subtitle)
				}
				fmt.Fprintln(out)
				for _, f := range s.StepFields(step.ID) {
					fmt.Fprintf(out, "  %-18s %s\n", f.Name, describeField(f, m))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(stepform.ModeCreate), "form mode (create, edit)")
	return cmd
}

func describeField(f *stepform.FieldDefinition, mode stepform.Mode) string {
	parts := []string{string(f.Kind)}
	if f.Required {
		parts = append(parts, "required")
	}
	if len(f.Options) > 0 {
		parts = append(parts, "one of "+strings.Join(f.Options, "|"))
	}
	if f.SensitiveOnEdit && mode == stepform.ModeEdit {
		parts = append(parts, "ignored when editing")
	}
	return strings.Join(parts, ", ")
}
