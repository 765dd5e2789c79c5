//go:build integration

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/larkstead/steamfix/internal/steam"
)

// resolvePath resolves symlinks in a path.
// This is needed on macOS where /var is a symlink to /private/var.
func resolvePath(t *testing.T, path string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		t.Fatalf("failed to resolve path %s: %v", path, err)
	}
	return resolved
}

// libraryEntry describes one entry of a fixture root index.
type libraryEntry struct {
	id   string
	path string
}

// setupSteamRoot creates a fake Steam installation under dir: a steamapps
// directory holding a libraryfolders.vdf with the given entries. Returns
// the root index path.
func setupSteamRoot(t *testing.T, root string, entries []libraryEntry) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("\"libraryfolders\"\n{\n")
	for _, entry := range entries {
		escaped := strings.ReplaceAll(entry.path, `\`, `\\`)
		fmt.Fprintf(&b, "\t%q\n\t{\n\t\t\"path\"\t\t\"%s\"\n\t\t\"apps\"\n\t\t{\n\t\t}\n\t}\n", entry.id, escaped)
	}
	b.WriteString("}\n")

	appsDir := steam.AppsDir(root)
	if err := os.MkdirAll(appsDir, 0o755); err != nil {
		t.Fatalf("failed to create steamapps: %v", err)
	}
	indexPath := filepath.Join(appsDir, steam.IndexFileName)
	if err := os.WriteFile(indexPath, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("failed to write root index: %v", err)
	}
	return indexPath
}

// installApp writes an appmanifest for appID under libraryRoot/steamapps.
func installApp(t *testing.T, libraryRoot, appID, name, staging string) string {
	t.Helper()

	content := fmt.Sprintf("\"AppState\"\n{\n\t\"appid\"\t\t%q\n\t\"name\"\t\t%q\n\t\"StateFlags\"\t\t\"4\"\n\t\"installdir\"\t\t%q\n\t\"StagingFolder\"\t\t%q\n}\n",
		appID, name, name, staging)

	appsDir := steam.AppsDir(libraryRoot)
	if err := os.MkdirAll(appsDir, 0o755); err != nil {
		t.Fatalf("failed to create steamapps: %v", err)
	}
	path := filepath.Join(appsDir, steam.ManifestName(appID))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return path
}

// leaveDownloadArtifacts drops partial-download artifacts for appID under
// libraryRoot/steamapps/downloading and returns their paths.
func leaveDownloadArtifacts(t *testing.T, libraryRoot, appID string) []string {
	t.Helper()

	downloading := filepath.Join(steam.AppsDir(libraryRoot), steam.DownloadingDirName)
	dir := filepath.Join(downloading, appID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create download dir: %v", err)
	}
	chunk := filepath.Join(dir, "chunk.bin")
	if err := os.WriteFile(chunk, []byte("partial payload"), 0o644); err != nil {
		t.Fatalf("failed to write chunk: %v", err)
	}
	state := filepath.Join(downloading, "state_"+appID+"_100.patch")
	if err := os.WriteFile(state, []byte("st"), 0o644); err != nil {
		t.Fatalf("failed to write state file: %v", err)
	}
	return []string{dir, state}
}
