package cmd

import (
	"os"

	"github.com/spf13/cobra"

	owerrors "github.com/Aman-CERP/otherwords/internal/errors"
	"github.com/Aman-CERP/otherwords/internal/index"
	"github.com/Aman-CERP/otherwords/internal/ui"
)

func newIndexCmd() *cobra.Command {
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "index <path>...",
		Short: "Ingest files or directories into the index",
		Long: `Ingest files or directories into the anagram index.

Directories are walked recursively. Binary, oversized and sensitive files
and the configured exclude patterns are skipped. A source that is already
indexed is left untouched. Files that cannot be read are reported and
make the command exit non-zero after the others are indexed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			out := newWriter(cmd)
			renderer := ui.Discard
			if !noProgress && !out.JSONMode() {
				renderer = ui.NewRenderer(ui.Config{Output: cmd.ErrOrStderr(), NoColor: ui.DetectNoColor()})
			}

			var failures []error
			for _, p := range args {
				info, err := os.Stat(p)
				if err != nil {
					return owerrors.SourceError(p, err)
				}
				// Sources are keyed by absolute path so a file indexed on
				// its own and through its directory is stored once.
				abs, err := absPath(p)
				if err != nil {
					return err
				}

				if info.IsDir() {
					res, err := a.indexer.IngestDirectory(cmd.Context(), abs, index.DirectoryOptions{Renderer: renderer})
					if err != nil {
						return err
					}
					if err := out.Directory(res); err != nil {
						return err
					}
					if err := res.Err(); err != nil {
						failures = append(failures, err)
					}
					continue
				}

				res, err := a.indexer.IngestFile(cmd.Context(), abs)
				if err != nil {
					return err
				}
				if err := out.Ingest(res); err != nil {
					return err
				}
			}

			if len(failures) > 0 {
				return failures[0]
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress output")
	return cmd
}
