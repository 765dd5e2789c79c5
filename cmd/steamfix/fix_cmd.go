package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/larkstead/steamfix/internal/fix"
	"github.com/larkstead/steamfix/internal/log"
	"github.com/larkstead/steamfix/internal/output"
	"github.com/larkstead/steamfix/internal/scan"
	"github.com/larkstead/steamfix/internal/steam"
	"github.com/larkstead/steamfix/internal/ui/prompt"
	"github.com/larkstead/steamfix/internal/ui/styles"
)

func newFixCmd() *cobra.Command {
	var (
		steamPath    string
		dryRun       bool
		yes          bool
		forceRunning bool
	)

	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Repair detected configuration issues",
		Args:  cobra.NoArgs,
		Long: `Scan the Steam library configuration and repair what can be repaired.

Every file a repair touches is backed up first; failed repairs are rolled
back from that backup. One failing repair never aborts the rest.

Refuses to run while a Steam process is detected, because Steam rewrites
these files on exit. Close Steam first, or pass --force-running.

Examples:
  steamfix fix --dry-run   # Preview without writing
  steamfix fix             # Repair, asking for confirmation
  steamfix fix --yes       # Repair without prompting`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)

			if !dryRun && !forceRunning {
				running, err := steam.IsRunning(ctx)
				if err != nil {
					l.Errorf("Warning: could not check for a running Steam process: %v\n", err)
				} else if running {
					return fmt.Errorf("Steam appears to be running; close it first or pass --force-running")
				}
			}

			root, err := resolveSteamRoot(steamPath)
			if err != nil {
				return err
			}
			indexPath := steam.IndexPath(root)

			report, err := scan.New(l).Report(indexPath)
			if err != nil {
				return fmt.Errorf("scan %s: %w", indexPath, err)
			}
			if len(report.Issues) == 0 {
				out.Println("No issues found; nothing to fix")
				return nil
			}

			renderIssues(out, report)
			out.Println()

			if !dryRun && !yes {
				if !stdinIsTerminal() {
					return fmt.Errorf("refusing to fix without confirmation; pass --yes or run interactively")
				}
				result, err := prompt.Confirm(fmt.Sprintf("Apply %d fix(es)?", len(report.Issues)))
				if err != nil {
					return err
				}
				if !result.Confirmed || result.Cancelled {
					out.Println("Aborted")
					return nil
				}
			}

			backups, err := newBackupManager(l)
			if err != nil {
				return err
			}

			results, err := fix.New(backups, l).Fix(report.Issues, dryRun)
			if err != nil {
				return err
			}

			var fixed, failed, unfixable int
			for _, result := range results {
				switch result.Status {
				case fix.StatusFixed:
					fixed++
					out.Printf("%s %s\n", styles.AccentStyle.Render("fixed"), result.Detail)
					out.Printf("  backup: %s\n", styles.MutedStyle.Render(result.BackupID))
				case fix.StatusWouldFix:
					fixed++
					out.Printf("%s %s\n", styles.WarningStyle.Render("would fix"), result.Detail)
				case fix.StatusFailed:
					failed++
					out.Printf("%s %s: %v\n", styles.ErrorStyle.Render("failed"), result.Detail, result.Err)
				case fix.StatusUnfixable:
					unfixable++
					out.Printf("%s %s (app %s): %s\n", styles.MutedStyle.Render("unfixable"),
						result.Issue.Kind, result.Issue.AppID, result.Detail)
				}
			}

			out.Println()
			if dryRun {
				out.Printf("Would fix %d issue(s), %d unfixable\n", fixed, unfixable)
				return nil
			}
			out.Printf("Fixed %d issue(s), %d failed, %d unfixable\n", fixed, failed, unfixable)
			if failed > 0 {
				return fmt.Errorf("%d fix(es) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&steamPath, "steam-path", "", "Steam installation root (default: auto-detect)")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "Preview without writing")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&forceRunning, "force-running", false, "Fix even while Steam is running")

	return cmd
}
