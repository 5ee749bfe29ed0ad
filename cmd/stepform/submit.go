package main

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dlovans/stepform/internal/store/sqlite"
	"github.com/dlovans/stepform/pkg/stepform"
)

func newSubmitCmd(a *app) *cobra.Command {
	var (
		mode string
		id   string
	)

	cmd := &cobra.Command{
		Use:   "submit RECORD",
		Short: "Walk a record through the wizard and save it",
		Long: `Submit opens the wizard, fills it from a JSON or YAML record file, advances
through every step and submits. Records are saved to the SQLite store.

In edit mode the stored record given by --id seeds the wizard and the file
only needs the fields that change. Fields hidden when editing keep their
stored values.

Examples:
  stepform submit socio.yaml
  stepform submit cambios.yaml --mode edit --id 3f6c...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := parseModeFlag(mode)
			if err != nil {
				return err
			}
			if m == stepform.ModeEdit && id == "" {
				return errors.New("--id is required in edit mode")
			}
			s, err := a.schema()
			if err != nil {
				return err
			}
			values, err := readRecord(args[0])
			if err != nil {
				return err
			}

			store, err := sqlite.NewStore(a.cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			var seed *stepform.Record
			if m == stepform.ModeEdit {
				stored, err := store.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				seed = &stored.Record
			}

			w, err := stepform.NewWizard(s, store,
				stepform.WithDebounce(a.cfg.Debounce),
				stepform.WithLogger(a.logger),
				stepform.WithJumpToInvalidStep(a.cfg.JumpToInvalid))
			if err != nil {
				return err
			}
			if err := w.Open(m, seed); err != nil {
				return err
			}
			defer w.Close()

			if err := fill(w, values, a.logger); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for w.AdvanceStep() {
				step, _ := w.CurrentStep()
				a.logger.Debug("step passed", zap.String("next", step.Title))
			}
			if st := w.State(); len(st.Errors) > 0 {
				step, _ := w.CurrentStep()
				fmt.Fprintf(out, "Stopped at step %d (%s):\n", st.CurrentStepIndex+1, step.Title)
				printErrors(out, s, st.Errors)
				return errValidationFailed
			}

			ok, err := w.Submit(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				printErrors(out, s, w.State().Errors)
				return errValidationFailed
			}

			fmt.Fprintf(out, "✓ Record saved (%s)\n", m)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(stepform.ModeCreate), "form mode (create, edit)")
	cmd.Flags().StringVar(&id, "id", "", "record id to edit")
	return cmd
}

// fill sets every value from the record file in a stable order. Keys the
// schema does not know, and fields hidden in the mode, are skipped with a warning.
func fill(w *stepform.Wizard, values stepform.Values, logger *zap.Logger) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		err := w.SetFieldValue(name, values[name])
		if errors.Is(err, stepform.ErrUnknownField) || errors.Is(err, stepform.ErrFieldHidden) {
			logger.Warn("skipping field", zap.String("field", name), zap.Error(err))
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
