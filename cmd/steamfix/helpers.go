package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/larkstead/steamfix/internal/backup"
	"github.com/larkstead/steamfix/internal/log"
	"github.com/larkstead/steamfix/internal/output"
	"github.com/larkstead/steamfix/internal/scan"
	"github.com/larkstead/steamfix/internal/steam"
	"github.com/larkstead/steamfix/internal/ui/static"
)

// resolveSteamRoot picks the Steam root: --steam-path flag, then config,
// then per-OS detection. The result is validated to contain a steamapps
// directory.
func resolveSteamRoot(flagPath string) (string, error) {
	path := flagPath
	if path == "" {
		path = cfg.SteamPath
	}
	if path == "" {
		detected, err := steam.DefaultPath()
		if err != nil {
			return "", fmt.Errorf("no Steam installation found; set steam_path in the config or pass --steam-path: %w", err)
		}
		path = detected
	}
	if err := steam.ValidateRoot(path); err != nil {
		return "", err
	}
	return path, nil
}

// newBackupManager builds the backup manager on the configured directory.
func newBackupManager(l *log.Logger) (*backup.Manager, error) {
	dir, err := cfg.BackupPath()
	if err != nil {
		return nil, err
	}
	return backup.NewManager(dir, l), nil
}

// stderrIsTerminal reports whether spinners may be drawn.
func stderrIsTerminal() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}

// stdinIsTerminal reports whether interactive prompts are possible.
func stdinIsTerminal() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// renderIssues prints the issue table plus a one-line summary.
func renderIssues(out *output.Printer, report *scan.Report) {
	rows := make([][]string, 0, len(report.Issues))
	for _, issue := range report.Issues {
		rows = append(rows, static.IssueTableRow(issue))
	}
	out.Print(static.RenderTable(static.IssueHeaders, rows))
	out.Printf("\n%d issue(s) across %d libraries, %d installed app(s)\n",
		len(report.Issues), len(report.Libraries), len(report.Apps))
}
