// Package steam locates and validates local Steam installations and
// provides naming helpers for the files steamfix operates on.
package steam

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// AppsDirName is the directory under a library root that holds manifests
// and download state.
const AppsDirName = "steamapps"

// IndexFileName is the root index listing all library folders.
const IndexFileName = "libraryfolders.vdf"

// DownloadingDirName holds partial-download artifacts under a steamapps dir.
const DownloadingDirName = "downloading"

// AppsDir returns the steamapps directory of a library root.
func AppsDir(libraryRoot string) string {
	return filepath.Join(libraryRoot, AppsDirName)
}

// IndexPath returns the root index path of a Steam installation.
func IndexPath(steamRoot string) string {
	return filepath.Join(steamRoot, AppsDirName, IndexFileName)
}

// DefaultPath returns the Steam installation path for the current
// platform, probing the usual candidates. Returns an error when none of
// them contains a steamapps directory.
func DefaultPath() (string, error) {
	var candidates []string
	switch runtime.GOOS {
	case "windows":
		candidates = []string{
			`C:\Program Files (x86)\Steam`,
			`C:\Program Files\Steam`,
		}
		if dir := os.Getenv("PROGRAMFILES(X86)"); dir != "" {
			candidates = append(candidates, filepath.Join(dir, "Steam"))
		}
		if dir := os.Getenv("PROGRAMFILES"); dir != "" {
			candidates = append(candidates, filepath.Join(dir, "Steam"))
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		candidates = []string{
			filepath.Join(home, "Library", "Application Support", "Steam"),
		}
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		candidates = []string{
			filepath.Join(home, ".steam", "steam"),
			filepath.Join(home, ".local", "share", "Steam"),
			"/usr/share/steam",
		}
	}

	for _, candidate := range candidates {
		if err := ValidateRoot(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no Steam installation found (tried %s)", strings.Join(candidates, ", "))
}

// ValidateRoot checks that path looks like a Steam installation or
// library root: an existing directory containing steamapps.
func ValidateRoot(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("steam path %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("steam path %s: not a directory", path)
	}
	if _, err := os.Stat(AppsDir(path)); err != nil {
		return fmt.Errorf("steam path %s: no %s directory: %w", path, AppsDirName, err)
	}
	return nil
}

// IsRunning reports whether a Steam process is currently running.
func IsRunning(ctx context.Context) (bool, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("list processes: %w", err)
	}
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue // process may have exited, or access denied
		}
		if strings.Contains(strings.ToLower(name), "steam") {
			return true, nil
		}
	}
	return false, nil
}

// AppIDFromManifestName extracts the application identifier from a
// manifest filename like "appmanifest_3564740.acf".
func AppIDFromManifestName(name string) (string, bool) {
	const prefix, suffix = "appmanifest_", ".acf"
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return "", false
	}
	id := name[len(prefix) : len(name)-len(suffix)]
	if !isDigits(id) {
		return "", false
	}
	return id, true
}

// ManifestName returns the manifest filename for an application identifier.
func ManifestName(appID string) string {
	return "appmanifest_" + appID + ".acf"
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// CleanLibraryPath converts a path value read from a VDF file into a
// filesystem path. Index files written on Windows store doubled
// backslashes; after VDF unescaping they are single backslashes, which
// still need flipping when the tool runs elsewhere.
func CleanLibraryPath(raw string) string {
	return filepath.Clean(filepath.FromSlash(strings.ReplaceAll(raw, `\`, "/")))
}
