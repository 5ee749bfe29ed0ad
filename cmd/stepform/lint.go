package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dlovans/stepform/pkg/formdoc"
	"github.com/dlovans/stepform/pkg/lint"
)

func newLintCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lint [SCHEMA]",
		Short: "Check a schema document for structural problems",
		Long: `Lint reads a schema document and reports problems without building it.
Errors make the command fail; warnings are printed only.

Examples:
  stepform lint forms/member.yaml
  stepform --schema forms/member.toml lint`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Schema
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return errors.New("no schema document given")
			}

			doc, err := formdoc.Load(path)
			if err != nil {
				return fmt.Errorf("lint error: %w", err)
			}
			result := lint.Run(doc)

			out := cmd.OutOrStdout()
			if len(result.Issues) == 0 {
				fmt.Fprintln(out, "✓ No issues found")
				return nil
			}

			for _, issue := range result.Issues {
				icon := "⚠"
				if issue.Severity == "error" {
					icon = "✗"
				}
				location := ""
				if issue.Field != "" {
					location = fmt.Sprintf(" [field: %s]", issue.Field)
				}
				if issue.Step != nil {
					location += fmt.Sprintf(" [step: %d]", *issue.Step)
				}
				fmt.Fprintf(out, "%s %s%s: %s\n", icon, issue.Severity, location, issue.Message)
			}

			if !result.Valid {
				return errValidationFailed
			}
			return nil
		},
	}
}
