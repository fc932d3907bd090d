package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/otherwords/internal/config"
	owerrors "github.com/Aman-CERP/otherwords/internal/errors"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create configuration",
		Long: `Inspect or create configuration.

Configuration precedence (lowest to highest):
  1. Defaults
  2. User config ($XDG_CONFIG_HOME/otherwords/config.yaml)
  3. Project config (.otherwords.yaml)
  4. .env in the project root (never overrides set variables)
  5. Environment variables (OTHERWORDS_*)`,
		Example: `  otherwords config show
  otherwords config init --user`,
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigPathCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cfg, err := loadConfig()
			if err != nil {
				return err
			}

			out := newWriter(cmd)
			if out.JSONMode() {
				return out.JSON(cfg)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var (
		user  bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the defaults",
		Long: `Write a configuration file holding the default settings.

The project file .otherwords.yaml is written to the project directory, or
the user file with --user. An existing file is kept unless --force is
given, in which case it is backed up first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := config.GetUserConfigPath()
			if !user {
				root, err := config.FindProjectRoot(projectDir)
				if err != nil {
					return owerrors.ConfigError("failed to find project root", err)
				}
				path = filepath.Join(root, config.ProjectConfigFile)
			}
			return runConfigInit(cmd, path, force)
		},
	}

	cmd.Flags().BoolVar(&user, "user", false, "Write the user configuration instead of the project one")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file after backing it up")
	return cmd
}

func runConfigInit(cmd *cobra.Command, path string, force bool) error {
	out := newWriter(cmd)

	if _, err := os.Stat(path); err == nil {
		if !force {
			out.Warning("Configuration already exists")
			out.Statusf("📁", "Location: %s", path)
			out.Status("💡", "Use --force to overwrite it (a backup is kept)")
			return nil
		}
		backup, err := config.BackupFile(path)
		if err != nil {
			return owerrors.New(owerrors.ErrCodeConfigWrite, "failed to back up "+path, err)
		}
		out.Statusf("💾", "Backup: %s", backup)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return owerrors.New(owerrors.ErrCodeConfigWrite, "failed to create config directory", err)
	}
	if err := config.NewConfig().WriteYAML(path); err != nil {
		return owerrors.New(owerrors.ErrCodeConfigWrite, "failed to write "+path, err)
	}

	out.Success("Created configuration")
	out.Statusf("📁", "Location: %s", path)
	return nil
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the user configuration path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}
