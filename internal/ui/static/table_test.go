package static

import (
	"strings"
	"testing"
	"time"

	"github.com/larkstead/steamfix/internal/backup"
	"github.com/larkstead/steamfix/internal/scan"
)

func TestIssueTableRow(t *testing.T) {
	t.Parallel()

	issue := scan.Issue{
		Kind:        scan.KindStagingMismatch,
		Severity:    scan.SeverityWarning,
		AppID:       "3564740",
		AppName:     "Example Game",
		Description: "rewrite StagingFolder to \"0\"",
	}

	row := IssueTableRow(issue)

	if len(row) != len(IssueHeaders) {
		t.Fatalf("expected %d columns, got %d", len(IssueHeaders), len(row))
	}
	if !strings.Contains(row[0], "warning") {
		t.Errorf("column 0 (SEVERITY) = %q, want to contain %q", row[0], "warning")
	}
	if row[1] != "staging-mismatch" {
		t.Errorf("column 1 (ISSUE) = %q", row[1])
	}
	if row[2] != "3564740" {
		t.Errorf("column 2 (APP) = %q", row[2])
	}
	if row[3] != "Example Game" {
		t.Errorf("column 3 (NAME) = %q", row[3])
	}
	if row[4] == "" {
		t.Error("column 4 (DETAIL) is empty")
	}
}

func TestIssueTableRowOrphanIncludesSize(t *testing.T) {
	t.Parallel()

	issue := scan.Issue{
		Kind:          scan.KindOrphanedDownload,
		Severity:      scan.SeverityInfo,
		AppID:         "999999",
		Description:   "delete orphaned download artifacts",
		ArtifactBytes: 2048,
	}

	row := IssueTableRow(issue)
	if !strings.Contains(row[4], "2.00 KB") {
		t.Errorf("DETAIL = %q, want artifact size appended", row[4])
	}
}

func TestBackupTableRow(t *testing.T) {
	t.Parallel()

	record := backup.Record{
		ID:        "backup_20260823_120000",
		CreatedAt: time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC),
		Files: []backup.Entry{
			{OriginalPath: "/a", Size: 512},
			{OriginalPath: "/b", Size: 512},
		},
	}

	row := BackupTableRow(record)

	if len(row) != len(BackupHeaders) {
		t.Fatalf("expected %d columns, got %d", len(BackupHeaders), len(row))
	}
	if row[0] != "backup_20260823_120000" {
		t.Errorf("column 0 (ID) = %q", row[0])
	}
	if row[2] != "2" {
		t.Errorf("column 2 (FILES) = %q", row[2])
	}
	if row[3] != "1.00 KB" {
		t.Errorf("column 3 (SIZE) = %q", row[3])
	}
}

func TestRenderTable(t *testing.T) {
	t.Parallel()

	if got := RenderTable([]string{"A"}, nil); got != "" {
		t.Errorf("empty rows rendered %q", got)
	}

	out := RenderTable([]string{"ID", "NAME"}, [][]string{{"1", "foo"}, {"2", "bar"}})
	for _, want := range []string{"ID", "NAME", "foo", "bar"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
