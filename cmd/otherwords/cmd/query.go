package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/otherwords/internal/anagram"
	owerrors "github.com/Aman-CERP/otherwords/internal/errors"
	"github.com/Aman-CERP/otherwords/internal/output"
)

func newFindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find <phrase>...",
		Short: "Find every anagram of a phrase",
		Long: `Find every span of the indexed text that uses exactly the letters of
the phrase. Case, spacing and punctuation are ignored.

Spans shorter than index.min_len letters are never indexed, so shorter
phrases find nothing.`,
		Example: `  otherwords find "Lorem ipsum dolor sit amet"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.indexer.Find(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return newWriter(cmd).Hits(res.Phrase, res.Signature, res.Hits)
		},
	}
}

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "lookup <signature>",
		Short:   "Look up a canonical signature",
		Example: `  otherwords lookup ADE2I2L2M3O3PR2S2T2U`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			sig := strings.ToUpper(strings.TrimSpace(args[0]))
			hits, err := a.indexer.Lookup(cmd.Context(), sig)
			if err != nil {
				return err
			}
			if err := a.indexer.CheckSignature(sig); err != nil {
				output.New(cmd.ErrOrStderr()).Warning(owerrors.FormatInline(err))
			}
			return newWriter(cmd).Hits("", sig, hits)
		},
	}
}

// canon never touches the index.
func newCanonCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "canon <phrase>...",
		Short:   "Print the canonical signature of a phrase",
		Example: `  otherwords canon "Lorem ipsum"  # EILM2OPRSU`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := loadConfig()
			if err != nil {
				return err
			}

			phrase := strings.Join(args, " ")
			sig := anagram.NewPipeline(cfg.PipelineOptions()).Canonicalizer().Canonize(phrase)
			if sig == "" {
				return owerrors.New(owerrors.ErrCodeQueryEmpty, "phrase contains no letters", nil)
			}
			return newWriter(cmd).Signature(phrase, sig)
		},
	}
}

func newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List ingested sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.indexer.Sources(cmd.Context())
			if err != nil {
				return err
			}
			return newWriter(cmd).Sources(records)
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.indexer.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return newWriter(cmd).Stats(st)
		},
	}
}
