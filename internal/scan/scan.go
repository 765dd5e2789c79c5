// Package scan cross-references a Steam root index with the manifests and
// download state on disk and reports inconsistencies as an ordered list
// of issues. Scanning never mutates files.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/larkstead/steamfix/internal/log"
	"github.com/larkstead/steamfix/internal/steam"
	"github.com/larkstead/steamfix/internal/vdf"
)

// Scanner detects configuration issues. Construct with New; a Scanner is
// stateless across calls, every Scan builds its inventory fresh.
type Scanner struct {
	logger *log.Logger
}

// New creates a Scanner reporting diagnostics to logger.
func New(logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.Discard()
	}
	return &Scanner{logger: logger}
}

// Scan parses the root index at rootIndexPath, inventories every
// reachable library, and returns the detected issues in deterministic
// order. An unreadable or unparseable root index is fatal; any
// per-manifest failure degrades to a corrupt-manifest issue instead.
func (s *Scanner) Scan(rootIndexPath string) ([]Issue, error) {
	report, err := s.Report(rootIndexPath)
	if err != nil {
		return nil, err
	}
	return report.Issues, nil
}

// Report is Scan plus the derived inventory.
func (s *Scanner) Report(rootIndexPath string) (*Report, error) {
	rootIndexPath, err := filepath.Abs(rootIndexPath)
	if err != nil {
		return nil, fmt.Errorf("resolve root index path: %w", err)
	}

	root, err := vdf.ParseFile(rootIndexPath)
	if err != nil {
		return nil, err
	}
	folders := root.Child("libraryfolders")
	if folders == nil {
		return nil, fmt.Errorf("parse %s: no libraryfolders block", rootIndexPath)
	}

	report := &Report{Apps: make(map[string]Manifest)}
	libraries := loadLibraries(folders)

	// The steamapps dir holding the root index is always a storage root.
	// When no entry declares it, inventory it under a synthetic id and
	// flag the missing declaration.
	indexRoot := filepath.Dir(filepath.Dir(rootIndexPath))
	if findLibraryByPath(libraries, indexRoot) < 0 {
		synthetic := Library{
			ID:        nextFreeLibraryID(libraries),
			Path:      indexRoot,
			Exists:    true,
			Synthetic: true,
		}
		libraries = append(libraries, synthetic)
		report.Issues = append(report.Issues, Issue{
			Kind:     KindMissingLibraryPath,
			Severity: SeverityWarning,
			Paths:    []string{indexRoot},
			Description: fmt.Sprintf("add library entry %q for undeclared storage root %s",
				synthetic.ID, indexRoot),
			RootIndexPath: rootIndexPath,
			LibraryID:     synthetic.ID,
			LibraryPath:   indexRoot,
		})
	}

	// Inventory every library that exists on disk; dead ones are issues.
	for i := range libraries {
		lib := &libraries[i]
		if _, err := os.Stat(lib.Path); err != nil {
			lib.Exists = false
			report.Issues = append(report.Issues, Issue{
				Kind:          KindDeadLibrary,
				Severity:      SeverityCritical,
				Paths:         []string{lib.Path},
				Description:   fmt.Sprintf("remove library entry %q: path %s no longer exists", lib.ID, lib.Path),
				RootIndexPath: rootIndexPath,
				LibraryID:     lib.ID,
				LibraryPath:   lib.Path,
			})
			continue
		}
		lib.Exists = true
		report.Issues = append(report.Issues, s.loadManifests(lib, report.Apps)...)
	}
	report.Libraries = libraries

	report.Issues = append(report.Issues, detectStagingMismatches(libraries, report.Apps)...)

	orphans, orphanBytes := s.detectOrphanedDownloads(libraries, report.Apps)
	report.Issues = append(report.Issues, orphans...)
	report.OrphanBytes = orphanBytes

	sortIssues(report.Issues)
	s.logger.Debugf("scan: %d libraries, %d apps, %d issue(s)\n",
		len(libraries), len(report.Apps), len(report.Issues))
	return report, nil
}

// loadLibraries extracts library entries from the libraryfolders block in
// document order. Entries without a path value are ignored, matching
// Steam's tolerance for stray keys in the block.
func loadLibraries(folders *vdf.Node) []Library {
	var libraries []Library
	for _, id := range folders.Keys() {
		entry := folders.Child(id)
		if entry == nil {
			continue
		}
		raw, ok := entry.Get("path")
		if !ok || raw == "" {
			continue
		}
		lib := Library{ID: id, Path: steam.CleanLibraryPath(raw)}
		if apps := entry.Child("apps"); apps != nil {
			lib.Apps = apps.Keys()
		}
		libraries = append(libraries, lib)
	}
	return libraries
}

func findLibraryByPath(libraries []Library, path string) int {
	for i := range libraries {
		if libraries[i].Path == filepath.Clean(path) {
			return i
		}
	}
	return -1
}

// nextFreeLibraryID returns the smallest non-negative integer not used as
// a library id.
func nextFreeLibraryID(libraries []Library) string {
	used := make(map[int]bool)
	for _, lib := range libraries {
		if n, err := strconv.Atoi(lib.ID); err == nil {
			used[n] = true
		}
	}
	for n := 0; ; n++ {
		if !used[n] {
			return strconv.Itoa(n)
		}
	}
}

// loadManifests parses every appmanifest under one library, adding parsed
// manifests to apps and returning corrupt-manifest issues for the rest.
// os.ReadDir returns entries sorted by name, which keeps the inventory
// deterministic.
func (s *Scanner) loadManifests(lib *Library, apps map[string]Manifest) []Issue {
	appsDir := steam.AppsDir(lib.Path)
	entries, err := os.ReadDir(appsDir)
	if err != nil {
		// A library without a steamapps dir simply hosts nothing.
		s.logger.Debugf("library %s: %v\n", lib.ID, err)
		return nil
	}

	var issues []Issue
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fileID, ok := steam.AppIDFromManifestName(entry.Name())
		if !ok {
			continue
		}
		path := filepath.Join(appsDir, entry.Name())

		manifest, err := readManifest(path, fileID, lib.ID)
		if err != nil {
			issues = append(issues, Issue{
				Kind:         KindCorruptManifest,
				Severity:     SeverityCritical,
				AppID:        fileID,
				Paths:        []string{path},
				Description:  fmt.Sprintf("manifest cannot be repaired automatically: %v", err),
				ManifestPath: path,
				LibraryID:    lib.ID,
				LibraryPath:  lib.Path,
			})
			continue
		}
		if _, exists := apps[manifest.AppID]; exists {
			s.logger.Debugf("app %s: duplicate manifest %s ignored\n", manifest.AppID, path)
			continue
		}
		apps[manifest.AppID] = manifest
	}
	return issues
}

func readManifest(path, fileID, libraryID string) (Manifest, error) {
	root, err := vdf.ParseFile(path)
	if err != nil {
		return Manifest{}, err
	}
	state := root.Child("AppState")
	if state == nil {
		return Manifest{}, fmt.Errorf("no AppState block")
	}

	m := Manifest{Path: path, LibraryID: libraryID, AppID: fileID}
	if id, ok := state.Get("appid"); ok && id != "" {
		m.AppID = id
	}
	m.Name, _ = state.Get("name")
	m.InstallDir, _ = state.Get("installdir")
	m.StagingFolder, _ = state.Get("StagingFolder")
	m.SizeOnDisk, _ = state.Get("SizeOnDisk")
	m.StateFlags, _ = state.Get("StateFlags")
	return m, nil
}

// detectStagingMismatches flags manifests whose StagingFolder names a
// library other than the one hosting the install. Severity is critical
// when the staging target does not even exist.
func detectStagingMismatches(libraries []Library, apps map[string]Manifest) []Issue {
	byID := make(map[string]*Library, len(libraries))
	for i := range libraries {
		byID[libraries[i].ID] = &libraries[i]
	}

	var issues []Issue
	for _, m := range apps {
		if m.StagingFolder == "" || m.StagingFolder == m.LibraryID {
			continue
		}
		severity := SeverityWarning
		detail := fmt.Sprintf("downloads stage to library %q", m.StagingFolder)
		if target, ok := byID[m.StagingFolder]; !ok {
			severity = SeverityCritical
			detail = fmt.Sprintf("downloads stage to undeclared library %q", m.StagingFolder)
		} else if !target.Exists {
			severity = SeverityCritical
			detail = fmt.Sprintf("downloads stage to dead library %q (%s)", m.StagingFolder, target.Path)
		}
		issues = append(issues, Issue{
			Kind:     KindStagingMismatch,
			Severity: severity,
			AppID:    m.AppID,
			AppName:  m.Name,
			Paths:    []string{m.Path},
			Description: fmt.Sprintf("%s but the install lives in library %q: rewrite StagingFolder to %q",
				detail, m.LibraryID, m.LibraryID),
			ManifestPath:    m.Path,
			LibraryID:       m.LibraryID,
			ExpectedStaging: m.LibraryID,
		})
	}
	return issues
}

// detectOrphanedDownloads finds partial-download artifacts whose
// application id has no manifest anywhere in the inventory. Artifacts for
// one app under one library are grouped into a single issue.
func (s *Scanner) detectOrphanedDownloads(libraries []Library, apps map[string]Manifest) ([]Issue, int64) {
	var issues []Issue
	var totalBytes int64

	for _, lib := range libraries {
		if !lib.Exists {
			continue
		}
		downloading := filepath.Join(steam.AppsDir(lib.Path), steam.DownloadingDirName)
		entries, err := os.ReadDir(downloading)
		if err != nil {
			continue
		}

		grouped := make(map[string][]string)
		var order []string
		add := func(appID, path string) {
			if _, seen := grouped[appID]; !seen {
				order = append(order, appID)
			}
			grouped[appID] = append(grouped[appID], path)
		}

		for _, entry := range entries {
			name := entry.Name()
			path := filepath.Join(downloading, name)
			if entry.IsDir() {
				if appID, ok := downloadDirAppID(name); ok {
					add(appID, path)
				}
				continue
			}
			if appID, ok := downloadFileAppID(name); ok {
				add(appID, path)
			}
		}

		for _, appID := range order {
			if _, known := apps[appID]; known {
				continue
			}
			paths := grouped[appID]
			bytes := artifactSize(paths)
			totalBytes += bytes
			issues = append(issues, Issue{
				Kind:     KindOrphanedDownload,
				Severity: SeverityWarning,
				AppID:    appID,
				Paths:    paths,
				Description: fmt.Sprintf("delete %d partial-download artifact(s) for app %s with no manifest",
					len(paths), appID),
				LibraryID:     lib.ID,
				LibraryPath:   lib.Path,
				ArtifactPaths: paths,
				ArtifactBytes: bytes,
			})
		}
	}
	return issues, totalBytes
}

// downloadDirAppID treats an all-digit directory name as an app id.
func downloadDirAppID(name string) (string, bool) {
	for _, r := range name {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return name, name != ""
}

// downloadFileAppID extracts the app id from depot_<app>_* and
// state_<app>_* download state files.
func downloadFileAppID(name string) (string, bool) {
	if !strings.HasPrefix(name, "depot_") && !strings.HasPrefix(name, "state_") {
		return "", false
	}
	parts := strings.Split(name, "_")
	if len(parts) < 2 {
		return "", false
	}
	return downloadDirAppID(parts[1])
}

func artifactSize(paths []string) int64 {
	var total int64
	for _, path := range paths {
		filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
			return nil
		})
	}
	return total
}

// sortIssues orders issues by (app id ascending, kind precedence, first
// implicated path) so unchanged input always scans to identical output.
// Issues without an app id sort before app-specific ones.
func sortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.AppID != b.AppID {
			return a.AppID < b.AppID
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return firstPath(a) < firstPath(b)
	})
}

func firstPath(issue Issue) string {
	if len(issue.Paths) == 0 {
		return ""
	}
	return issue.Paths[0]
}
