package static

import (
	"fmt"
	"time"

	"github.com/larkstead/steamfix/internal/backup"
	"github.com/larkstead/steamfix/internal/format"
	"github.com/larkstead/steamfix/internal/scan"
	"github.com/larkstead/steamfix/internal/ui/styles"
)

// IssueHeaders are the columns of the scan report table.
var IssueHeaders = []string{"SEVERITY", "ISSUE", "APP", "NAME", "DETAIL"}

// IssueTableRow builds one scan report row. The severity cell is
// colored: critical red, warning yellow.
func IssueTableRow(issue scan.Issue) []string {
	severity := issue.Severity.String()
	switch issue.Severity {
	case scan.SeverityCritical:
		severity = styles.ErrorStyle.Render(severity)
	case scan.SeverityWarning:
		severity = styles.WarningStyle.Render(severity)
	}

	detail := issue.Description
	if issue.Kind == scan.KindOrphanedDownload && issue.ArtifactBytes > 0 {
		detail = fmt.Sprintf("%s (%s)", detail, format.Bytes(issue.ArtifactBytes))
	}

	return []string{
		severity,
		issue.Kind.String(),
		issue.AppID,
		issue.AppName,
		detail,
	}
}

// BackupHeaders are the columns of the backup listing table.
var BackupHeaders = []string{"ID", "CREATED", "FILES", "SIZE"}

// BackupTableRow builds one backup listing row.
func BackupTableRow(record backup.Record) []string {
	var total int64
	for _, f := range record.Files {
		total += f.Size
	}
	return []string{
		record.ID,
		record.CreatedAt.Local().Format(time.DateTime),
		fmt.Sprintf("%d", len(record.Files)),
		format.Bytes(total),
	}
}
