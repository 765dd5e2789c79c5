package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/larkstead/steamfix/internal/format"
	"github.com/larkstead/steamfix/internal/log"
	"github.com/larkstead/steamfix/internal/output"
	"github.com/larkstead/steamfix/internal/scan"
	"github.com/larkstead/steamfix/internal/steam"
	"github.com/larkstead/steamfix/internal/ui/progress"
)

func newScanCmd() *cobra.Command {
	var (
		steamPath string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan Steam libraries for configuration issues",
		Args:  cobra.NoArgs,
		Long: `Scan the Steam library configuration and report inconsistencies.

Detects:
- Manifests whose StagingFolder names the wrong library
- Orphaned download artifacts without a matching manifest
- Storage roots that hold manifests but are not declared in the index
- Declared library paths that no longer exist
- Manifests that fail to parse

Scanning never writes. Run 'steamfix fix' to repair what it finds.

Examples:
  steamfix scan                          # Scan the detected installation
  steamfix scan --steam-path ~/.steam/steam
  steamfix scan --json                   # Machine-readable issue list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)

			root, err := resolveSteamRoot(steamPath)
			if err != nil {
				return err
			}
			indexPath := steam.IndexPath(root)
			l.Debugf("scanning root index %s\n", indexPath)

			var sp *progress.Spinner
			if !asJSON && stderrIsTerminal() {
				sp = progress.NewSpinner("Scanning libraries...")
				sp.Start()
			}

			report, err := scan.New(l).Report(indexPath)
			if sp != nil {
				sp.Stop()
			}
			if err != nil {
				return fmt.Errorf("scan %s: %w", indexPath, err)
			}

			if asJSON {
				data, err := json.MarshalIndent(report.Issues, "", "  ")
				if err != nil {
					return err
				}
				out.Println(string(data))
				return nil
			}

			if len(report.Issues) == 0 {
				out.Printf("No issues found (%d libraries, %d installed apps)\n",
					len(report.Libraries), len(report.Apps))
				return nil
			}

			renderIssues(out, report)
			if report.OrphanBytes > 0 {
				out.Printf("Orphaned download artifacts: %s reclaimable\n", format.Bytes(report.OrphanBytes))
			}
			out.Println("\nRun 'steamfix fix' to repair, or 'steamfix fix --dry-run' to preview")
			return nil
		},
	}

	cmd.Flags().StringVar(&steamPath, "steam-path", "", "Steam installation root (default: auto-detect)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the issue list as JSON")

	return cmd
}
