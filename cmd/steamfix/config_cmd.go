package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/larkstead/steamfix/internal/config"
	"github.com/larkstead/steamfix/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Manage configuration",
		Aliases: []string{"cfg"},
		Long: `Manage steamfix configuration.

Config file: ~/.config/steamfix/config.toml`,
		Example: `  steamfix config init   # Create default config
  steamfix config show   # Show effective config`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			path, err := config.Init(force)
			if err != nil {
				return err
			}
			out.Printf("Created config file: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			if jsonOutput {
				enc := json.NewEncoder(out.Writer())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}

			steamPath := cfg.SteamPath
			if steamPath == "" {
				steamPath = "(auto-detect)"
			}
			backupDir, err := cfg.BackupPath()
			if err != nil {
				return err
			}

			out.Printf("steam_path: %s\n", steamPath)
			out.Printf("backup_dir: %s\n", backupDir)
			out.Printf("backup_retain: %d\n", cfg.BackupRetain)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
