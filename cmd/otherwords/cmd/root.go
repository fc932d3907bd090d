// Package cmd provides the CLI commands for otherwords.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/otherwords/internal/logging"
	"github.com/Aman-CERP/otherwords/internal/output"
	"github.com/Aman-CERP/otherwords/internal/profiling"
	"github.com/Aman-CERP/otherwords/pkg/version"
)

// Persistent flags.
var (
	debugMode    bool
	outputFormat string
	projectDir   string
	profileOpts  profiling.Options

	loggingCleanup func()
	profile        *profiling.Session
)

// NewRootCmd creates the root command for the otherwords CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "otherwords",
		Short: "Find every anagram of a phrase in your text corpora",
		Long: `otherwords builds a rolling anagram index over text files.

Every run of consecutive words is reduced to a signature of its letters,
so a lookup returns each place in the corpus that uses exactly the same
letters as your phrase, in any order.

  otherwords index ./books
  otherwords find "Lorem ipsum dolor sit amet"`,
		Version:           version.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: startProfilingAndLogging,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return stopProfilingAndLogging()
		},
	}
	cmd.SetVersionTemplate("otherwords version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.otherwords/logs/ and stderr")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "text", "Output format: text or json")
	cmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", ".", "Project directory to load configuration from")
	cmd.PersistentFlags().StringVar(&profileOpts.CPUPath, "profile-cpu", "", "Write a CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.HeapPath, "profile-mem", "", "Write a heap profile to file on exit")
	cmd.PersistentFlags().StringVar(&profileOpts.TracePath, "profile-trace", "", "Write an execution trace to file")

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newFindCmd())
	cmd.AddCommand(newLookupCmd())
	cmd.AddCommand(newCanonCmd())
	cmd.AddCommand(newSourcesCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newResetCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging sends structured logs to the rotating log file
// and starts any requested profiles. --debug lowers the level and tees
// records to stderr.
func startProfilingAndLogging(cmd *cobra.Command, _ []string) error {
	if _, err := output.ParseFormat(outputFormat); err != nil {
		return err
	}

	cfg := logging.DefaultConfig()
	if debugMode {
		cfg = logging.DebugConfig()
	} else if _, projectCfg, err := loadConfig(); err == nil {
		// Configuration errors surface from the command itself.
		cfg.Level = projectCfg.Server.LogLevel
	}
	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Debug("debug_logging_enabled",
		slog.String("log_file", cfg.FilePath),
		slog.String("version", version.Version),
		slog.String("command", cmd.CommandPath()))

	if profileOpts.Enabled() {
		profile, err = profiling.Start(profileOpts)
		if err != nil {
			return err
		}
	}
	return nil
}

func stopProfilingAndLogging() error {
	var err error
	if profile != nil {
		err = profile.Stop()
		profile = nil
	}
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// newWriter returns an output writer for the command's stdout honoring
// --format.
func newWriter(cmd *cobra.Command) *output.Writer {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		format = output.FormatText
	}
	return output.NewWithFormat(cmd.OutOrStdout(), format)
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command under ctx.
func ExecuteContext(ctx context.Context) error {
	err := NewRootCmd().ExecuteContext(ctx)
	// PersistentPostRunE does not run after a failed command.
	if stopErr := stopProfilingAndLogging(); err == nil {
		err = stopErr
	}
	return err
}
