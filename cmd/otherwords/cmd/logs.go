package cmd

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/otherwords/internal/logging"
	"github.com/Aman-CERP/otherwords/internal/ui"
)

func newLogsCmd() *cobra.Command {
	var (
		lines   int
		level   string
		filter  string
		noColor bool
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log entries",
		Long: `Show the last entries of the otherwords log
(~/.otherwords/logs/otherwords.log).`,
		Example: `  otherwords logs -n 100
  otherwords logs --level warn
  otherwords logs --filter ingest_`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := logging.FindLogFile(logFile)
			if err != nil {
				return err
			}

			var pattern *regexp.Regexp
			if filter != "" {
				if pattern, err = regexp.Compile(filter); err != nil {
					return fmt.Errorf("invalid filter pattern: %w", err)
				}
			}

			// Filter before trimming to n so -n counts matching lines.
			entries, err := logging.Tail(path, 0, level)
			if err != nil {
				return err
			}
			if pattern != nil {
				kept := entries[:0]
				for _, e := range entries {
					if pattern.MatchString(e.Raw) {
						kept = append(kept, e)
					}
				}
				entries = kept
			}
			if lines > 0 && len(entries) > lines {
				entries = entries[len(entries)-lines:]
			}

			color := !noColor && ui.IsTTY(cmd.OutOrStdout()) && !ui.DetectNoColor()
			for _, e := range entries {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), logging.Format(e, color)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of entries to show")
	cmd.Flags().StringVar(&level, "level", "debug", "Minimum level (debug|info|warn|error)")
	cmd.Flags().StringVar(&filter, "filter", "", "Only show entries matching this regular expression")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&logFile, "file", "", "Log file to read instead of the default")
	return cmd
}
