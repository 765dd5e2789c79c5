package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/larkstead/steamfix/internal/log"
	"github.com/larkstead/steamfix/internal/output"
	"github.com/larkstead/steamfix/internal/ui/prompt"
	"github.com/larkstead/steamfix/internal/ui/static"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "List, restore, and prune fix backups",
		Long: `Manage the backups taken before each repair.

Every repair snapshots the files it touches into a timestamped record.
Restoring a record copies the original files back into place.`,
	}

	cmd.AddCommand(newBackupListCmd())
	cmd.AddCommand(newBackupRestoreCmd())
	cmd.AddCommand(newBackupPruneCmd())

	return cmd
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backup records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			backups, err := newBackupManager(log.FromContext(ctx))
			if err != nil {
				return err
			}
			records, err := backups.List()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				out.Println("No backups")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, record := range records {
				rows = append(rows, static.BackupTableRow(record))
			}
			out.Print(static.RenderTable(static.BackupHeaders, rows))
			return nil
		},
	}
}

func newBackupRestoreCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore every file in a backup record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)
			id := args[0]

			backups, err := newBackupManager(log.FromContext(ctx))
			if err != nil {
				return err
			}
			record, err := backups.Get(id)
			if err != nil {
				return err
			}

			if !yes {
				if !stdinIsTerminal() {
					return fmt.Errorf("refusing to restore without confirmation; pass --yes or run interactively")
				}
				result, err := prompt.Confirm(fmt.Sprintf("Overwrite %d file(s) from backup %s?", len(record.Files), id))
				if err != nil {
					return err
				}
				if !result.Confirmed || result.Cancelled {
					out.Println("Aborted")
					return nil
				}
			}

			if err := backups.Restore(id); err != nil {
				return err
			}
			out.Printf("Restored %d file(s) from %s\n", len(record.Files), id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func newBackupPruneCmd() *cobra.Command {
	var retain int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old backup records",
		Long: `Delete all but the most recent backup records.

The most recent record is never deleted, whatever --retain says.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			if retain < 0 {
				retain = cfg.BackupRetain
			}

			backups, err := newBackupManager(log.FromContext(ctx))
			if err != nil {
				return err
			}
			deleted, err := backups.Prune(retain)
			if err != nil {
				return err
			}
			out.Printf("Deleted %d backup record(s)\n", deleted)
			return nil
		},
	}

	cmd.Flags().IntVar(&retain, "retain", -1, "Records to keep (default: backup_retain from config)")

	return cmd
}
