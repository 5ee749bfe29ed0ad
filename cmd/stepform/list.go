package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dlovans/stepform/internal/store/sqlite"
	"github.com/dlovans/stepform/pkg/stepform"
)

const masked = "******"

func newListCmd(a *app) *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.schema()
			if err != nil {
				return err
			}
			store, err := sqlite.NewStore(a.cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No records saved.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUPDATED\tVALUES")
			for _, rec := range records {
				values := rec.Values
				if !showSecrets {
					values = maskSensitive(s, values)
				}
				data, err := json.Marshal(values)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", rec.ID, rec.UpdatedAt.Local().Format(time.DateTime), data)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print sensitive fields in clear")
	return cmd
}

// maskSensitive hides fields that are never shown when editing.
func maskSensitive(s *stepform.Schema, values stepform.Values) stepform.Values {
	out := values.Clone()
	for _, f := range s.Fields {
		if _, ok := out[f.Name]; ok && f.SensitiveOnEdit {
			out[f.Name] = masked
		}
	}
	return out
}
