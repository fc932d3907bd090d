package cmd

import (
	"github.com/spf13/cobra"

	owerrors "github.com/Aman-CERP/otherwords/internal/errors"
	"github.com/Aman-CERP/otherwords/internal/store"
)

func newResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe every source and signature from the index",
		Long: `Wipe every source and signature from the index and start empty.

Without --yes nothing is deleted and the command exits with an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			outcome, err := a.indexer.Reset(cmd.Context(), yes)
			if err != nil {
				return err
			}

			out := newWriter(cmd)
			if out.JSONMode() {
				if err := out.JSON(map[string]string{"outcome": outcome.String()}); err != nil {
					return err
				}
			}
			if outcome == store.ResetSkipped {
				if !out.JSONMode() {
					out.Warning("Reset skipped: nothing was deleted")
				}
				return owerrors.New(owerrors.ErrCodeResetUnconfirmed, "reset requires confirmation", nil).
					WithSuggestion("Run 'otherwords reset --yes' to wipe the index")
			}
			if !out.JSONMode() {
				out.Success("Index reset")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the reset")
	return cmd
}
