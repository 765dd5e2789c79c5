package fix

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/larkstead/steamfix/internal/backup"
	"github.com/larkstead/steamfix/internal/log"
	"github.com/larkstead/steamfix/internal/scan"
	"github.com/larkstead/steamfix/internal/steam"
)

func vdfEscape(path string) string {
	return strings.ReplaceAll(path, `\`, `\\`)
}

func writeIndex(t *testing.T, root string, entries map[string]string, order []string) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("\"libraryfolders\"\n{\n")
	for _, id := range order {
		fmt.Fprintf(&b, "\t%q\n\t{\n\t\t\"path\"\t\t\"%s\"\n\t\t\"apps\"\n\t\t{\n\t\t}\n\t}\n", id, vdfEscape(entries[id]))
	}
	b.WriteString("}\n")

	appsDir := steam.AppsDir(root)
	if err := os.MkdirAll(appsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	indexPath := filepath.Join(appsDir, steam.IndexFileName)
	if err := os.WriteFile(indexPath, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return indexPath
}

func writeManifest(t *testing.T, libraryRoot, appID, name, staging string) string {
	t.Helper()

	content := fmt.Sprintf("\"AppState\"\n{\n\t\"appid\"\t\t%q\n\t\"name\"\t\t%q\n\t\"StateFlags\"\t\t\"4\"\n\t\"installdir\"\t\t%q\n\t\"StagingFolder\"\t\t%q\n}\n",
		appID, name, name, staging)

	appsDir := steam.AppsDir(libraryRoot)
	if err := os.MkdirAll(appsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(appsDir, steam.ManifestName(appID))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newFixer(t *testing.T) (*Fixer, *backup.Manager) {
	t.Helper()
	backups := backup.NewManager(filepath.Join(t.TempDir(), "backups"), log.Discard())
	return New(backups, log.Discard()), backups
}

func rescan(t *testing.T, indexPath string) []scan.Issue {
	t.Helper()
	issues, err := scan.New(log.Discard()).Scan(indexPath)
	if err != nil {
		t.Fatalf("rescan failed: %v", err)
	}
	return issues
}

func TestFix_StagingMismatch(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	second := t.TempDir()
	indexPath := writeIndex(t, root, map[string]string{"0": root, "1": second}, []string{"0", "1"})
	manifestPath := writeManifest(t, root, "3564740", "Example Game", "1")

	before, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatal(err)
	}

	issues := rescan(t, indexPath)
	if len(issues) != 1 || issues[0].Kind != scan.KindStagingMismatch {
		t.Fatalf("setup produced %+v, want one staging-mismatch", issues)
	}

	fixer, backups := newFixer(t)
	results, err := fixer.Fix(issues, false)
	if err != nil {
		t.Fatalf("Fix failed: %v", err)
	}
	if len(results) != 1 || results[0].Status != StatusFixed {
		t.Fatalf("results = %+v, want one fixed", results)
	}
	if results[0].BackupID == "" {
		t.Fatal("fixed result has no backup id")
	}

	// The fix is effective: a rescan reports nothing for the app.
	if issues := rescan(t, indexPath); len(issues) != 0 {
		t.Errorf("rescan after fix: %+v, want clean", issues)
	}

	// Backup completeness: restoring the record reproduces the
	// pre-mutation bytes exactly.
	if err := backups.Restore(results[0].BackupID); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	after, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(after) != string(before) {
		t.Errorf("restored manifest differs from pre-fix content:\n%s", after)
	}
}

func TestFix_DryRunWritesNothing(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	second := t.TempDir()
	indexPath := writeIndex(t, root, map[string]string{"0": root, "1": second}, []string{"0", "1"})
	manifestPath := writeManifest(t, root, "3564740", "Example Game", "1")

	before, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatal(err)
	}

	fixer, backups := newFixer(t)
	results, err := fixer.Fix(rescan(t, indexPath), true)
	if err != nil {
		t.Fatalf("Fix failed: %v", err)
	}
	if len(results) != 1 || results[0].Status != StatusWouldFix {
		t.Fatalf("results = %+v, want one would-fix", results)
	}
	if results[0].BackupID != "" {
		t.Error("dry run created a backup")
	}
	if results[0].Detail == "" {
		t.Error("dry run reported no action detail")
	}

	after, _ := os.ReadFile(manifestPath)
	if string(after) != string(before) {
		t.Error("dry run modified the manifest")
	}
	if records, _ := backups.List(); len(records) != 0 {
		t.Errorf("dry run left %d backup records", len(records))
	}
}

func TestFix_OrphanedDownload(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	indexPath := writeIndex(t, root, map[string]string{"0": root}, []string{"0"})

	downloading := filepath.Join(steam.AppsDir(root), steam.DownloadingDirName)
	orphanDir := filepath.Join(downloading, "999999")
	if err := os.MkdirAll(orphanDir, 0o755); err != nil {
		t.Fatal(err)
	}
	chunk := filepath.Join(orphanDir, "chunk.bin")
	if err := os.WriteFile(chunk, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	issues := rescan(t, indexPath)
	if len(issues) != 1 || issues[0].Kind != scan.KindOrphanedDownload {
		t.Fatalf("setup produced %+v, want one orphaned-download", issues)
	}

	fixer, backups := newFixer(t)
	results, err := fixer.Fix(issues, false)
	if err != nil {
		t.Fatalf("Fix failed: %v", err)
	}
	if results[0].Status != StatusFixed {
		t.Fatalf("result = %+v, want fixed", results[0])
	}

	if _, err := os.Stat(orphanDir); !os.IsNotExist(err) {
		t.Error("orphan directory still exists")
	}
	if issues := rescan(t, indexPath); len(issues) != 0 {
		t.Errorf("rescan after fix: %+v, want clean", issues)
	}

	// The deleted bytes live on in the backup record.
	record, err := backups.Get(results[0].BackupID)
	if err != nil {
		t.Fatalf("Get backup: %v", err)
	}
	if len(record.Files) != 1 || record.Files[0].OriginalPath != chunk {
		t.Errorf("backup record = %+v, want the deleted chunk", record.Files)
	}
}

func TestFix_DeadLibrary(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dead := filepath.Join(t.TempDir(), "gone")
	indexPath := writeIndex(t, root, map[string]string{"0": root, "1": dead}, []string{"0", "1"})

	issues := rescan(t, indexPath)
	if len(issues) != 1 || issues[0].Kind != scan.KindDeadLibrary {
		t.Fatalf("setup produced %+v, want one dead-library", issues)
	}

	fixer, _ := newFixer(t)
	results, err := fixer.Fix(issues, false)
	if err != nil {
		t.Fatalf("Fix failed: %v", err)
	}
	if results[0].Status != StatusFixed {
		t.Fatalf("result = %+v, want fixed", results[0])
	}
	if issues := rescan(t, indexPath); len(issues) != 0 {
		t.Errorf("rescan after fix: %+v, want clean", issues)
	}
}

func TestFix_MissingLibraryPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	elsewhere := t.TempDir()
	indexPath := writeIndex(t, root, map[string]string{"1": elsewhere}, []string{"1"})
	writeManifest(t, root, "3564740", "Example Game", "1")

	issues := rescan(t, indexPath)

	fixer, _ := newFixer(t)
	results, err := fixer.Fix(issues, false)
	if err != nil {
		t.Fatalf("Fix failed: %v", err)
	}
	for _, result := range results {
		if result.Status != StatusFixed {
			t.Errorf("result = %+v, want fixed", result)
		}
	}

	// Idempotence: fixing the full issue set leaves nothing to report.
	if issues := rescan(t, indexPath); len(issues) != 0 {
		t.Errorf("rescan after fix: %+v, want clean", issues)
	}
}

func TestFix_MissingLibraryPathUnresolvable(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	indexPath := filepath.Join(steam.AppsDir(root), steam.IndexFileName)
	writeIndex(t, root, map[string]string{"0": root}, []string{"0"})

	issue := scan.Issue{
		Kind:          scan.KindMissingLibraryPath,
		RootIndexPath: indexPath,
		LibraryID:     "1",
		LibraryPath:   filepath.Join(t.TempDir(), "does-not-exist"),
	}

	fixer, backups := newFixer(t)
	results, err := fixer.Fix([]scan.Issue{issue}, false)
	if err != nil {
		t.Fatalf("Fix failed: %v", err)
	}
	if results[0].Status != StatusFailed {
		t.Fatalf("result = %+v, want failed", results[0])
	}
	if results[0].Err == nil || !strings.Contains(results[0].Err.Error(), "unresolvable") {
		t.Errorf("error = %v, want unresolvable", results[0].Err)
	}
	// Validation happens before any backup is taken.
	if records, _ := backups.List(); len(records) != 0 {
		t.Errorf("unresolvable fix left %d backup records", len(records))
	}
}

func TestFix_CorruptManifestIsUnfixable(t *testing.T) {
	t.Parallel()

	fixer, _ := newFixer(t)
	results, err := fixer.Fix([]scan.Issue{{Kind: scan.KindCorruptManifest, AppID: "200"}}, false)
	if err != nil {
		t.Fatalf("Fix failed: %v", err)
	}
	if results[0].Status != StatusUnfixable {
		t.Errorf("result = %+v, want unfixable", results[0])
	}
}

func TestFix_PartialFailureIsolation(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	second := t.TempDir()
	indexPath := writeIndex(t, root, map[string]string{"0": root, "1": second}, []string{"0", "1"})
	first := writeManifest(t, root, "100", "A Game", "1")
	third := writeManifest(t, root, "300", "C Game", "1")

	issues := rescan(t, indexPath)
	if len(issues) != 2 {
		t.Fatalf("setup produced %d issues, want 2", len(issues))
	}

	// Splice in a doomed issue between the two real ones: its manifest
	// does not exist, so its backup fails before anything is written.
	doomed := scan.Issue{
		Kind:            scan.KindStagingMismatch,
		AppID:           "200",
		ManifestPath:    filepath.Join(steam.AppsDir(root), steam.ManifestName("200")),
		ExpectedStaging: "0",
	}
	batch := []scan.Issue{issues[0], doomed, issues[1]}

	fixer, _ := newFixer(t)
	results, err := fixer.Fix(batch, false)
	if err != nil {
		t.Fatalf("Fix failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	if results[0].Status != StatusFixed || results[2].Status != StatusFixed {
		t.Errorf("surrounding issues not fixed: %+v, %+v", results[0], results[2])
	}
	if results[1].Status != StatusFailed {
		t.Errorf("doomed issue = %+v, want failed", results[1])
	}
	var berr *backup.Error
	if !errors.As(results[1].Err, &berr) {
		t.Errorf("doomed issue error = %T, want *backup.Error", results[1].Err)
	}

	// Both real manifests were actually fixed.
	for _, path := range []string{first, third} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "\"StagingFolder\"\t\t\"0\"") {
			t.Errorf("%s not rewritten:\n%s", path, data)
		}
	}
}

// failingVerifyAction mutates the file, then reports verification failure,
// exercising the rollback path.
type failingVerifyAction struct{}

func (failingVerifyAction) describe(scan.Issue) string { return "doomed rewrite" }

func (failingVerifyAction) targets(issue scan.Issue) ([]string, error) {
	return []string{issue.ManifestPath}, nil
}

func (failingVerifyAction) apply(issue scan.Issue) error {
	return writeFileAtomic(issue.ManifestPath, []byte("clobbered"))
}

func (failingVerifyAction) verify(issue scan.Issue) error {
	return &ValidationError{Path: issue.ManifestPath, Msg: "field did not take"}
}

func TestFix_VerificationFailureRollsBack(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	manifestPath := writeManifest(t, root, "100", "A Game", "0")
	before, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatal(err)
	}

	fixer, _ := newFixer(t)
	fixer.actions[scan.KindStagingMismatch] = failingVerifyAction{}

	results, err := fixer.Fix([]scan.Issue{{
		Kind:         scan.KindStagingMismatch,
		AppID:        "100",
		ManifestPath: manifestPath,
	}}, false)
	if err != nil {
		t.Fatalf("Fix failed: %v", err)
	}

	if results[0].Status != StatusFailed {
		t.Fatalf("result = %+v, want failed", results[0])
	}
	var verr *ValidationError
	if !errors.As(results[0].Err, &verr) {
		t.Fatalf("error = %T, want *ValidationError", results[0].Err)
	}

	// The file was rolled back from the just-created backup.
	after, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(after) != string(before) {
		t.Errorf("file not rolled back:\n%s", after)
	}
}
