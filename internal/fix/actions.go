package fix

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/larkstead/steamfix/internal/format"
	"github.com/larkstead/steamfix/internal/scan"
	"github.com/larkstead/steamfix/internal/steam"
	"github.com/larkstead/steamfix/internal/vdf"
)

// writeFileAtomic writes data to a temporary sibling of path and renames
// it over the original, so an interrupted write never leaves a truncated
// file under the real name.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// stagingAction rewrites a manifest's StagingFolder to the library that
// actually hosts the install.
type stagingAction struct{}

func (stagingAction) describe(issue scan.Issue) string {
	return fmt.Sprintf("rewrite StagingFolder to %q in %s", issue.ExpectedStaging, issue.ManifestPath)
}

func (stagingAction) targets(issue scan.Issue) ([]string, error) {
	return []string{issue.ManifestPath}, nil
}

func (stagingAction) apply(issue scan.Issue) error {
	root, err := vdf.ParseFile(issue.ManifestPath)
	if err != nil {
		return err
	}
	state := root.Child("AppState")
	if state == nil {
		return fmt.Errorf("%s: no AppState block", issue.ManifestPath)
	}
	state.Set("StagingFolder", issue.ExpectedStaging)
	return writeFileAtomic(issue.ManifestPath, vdf.Serialize(root))
}

func (stagingAction) verify(issue scan.Issue) error {
	root, err := vdf.ParseFile(issue.ManifestPath)
	if err != nil {
		return &ValidationError{Path: issue.ManifestPath, Msg: err.Error()}
	}
	state := root.Child("AppState")
	if state == nil {
		return &ValidationError{Path: issue.ManifestPath, Msg: "no AppState block after write"}
	}
	if got, _ := state.Get("StagingFolder"); got != issue.ExpectedStaging {
		return &ValidationError{
			Path: issue.ManifestPath,
			Msg:  fmt.Sprintf("StagingFolder is %q, want %q", got, issue.ExpectedStaging),
		}
	}
	return nil
}

// orphanAction deletes partial-download artifacts. It never touches the
// completed install payload: only the paths the scanner collected under
// the downloading directory are removed.
type orphanAction struct{}

func (orphanAction) describe(issue scan.Issue) string {
	return fmt.Sprintf("delete %d orphaned artifact(s) for app %s (%s)",
		len(issue.ArtifactPaths), issue.AppID, format.Bytes(issue.ArtifactBytes))
}

// targets expands artifact directories to the individual files inside
// them so the snapshot covers every byte the deletion destroys.
func (orphanAction) targets(issue scan.Issue) ([]string, error) {
	var files []string
	for _, artifact := range issue.ArtifactPaths {
		err := filepath.WalkDir(artifact, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			if os.IsNotExist(err) {
				continue // artifact vanished since the scan
			}
			return nil, err
		}
	}
	return files, nil
}

func (orphanAction) apply(issue scan.Issue) error {
	for _, artifact := range issue.ArtifactPaths {
		if err := os.RemoveAll(artifact); err != nil {
			return fmt.Errorf("delete %s: %w", artifact, err)
		}
	}
	return nil
}

func (orphanAction) verify(issue scan.Issue) error {
	for _, artifact := range issue.ArtifactPaths {
		if _, err := os.Stat(artifact); !os.IsNotExist(err) {
			return fmt.Errorf("verify %s: artifact still present", artifact)
		}
	}
	return nil
}

// deadLibraryAction removes a library entry whose path no longer exists
// from the root index.
type deadLibraryAction struct{}

func (deadLibraryAction) describe(issue scan.Issue) string {
	return fmt.Sprintf("remove library entry %q (%s) from %s",
		issue.LibraryID, issue.LibraryPath, issue.RootIndexPath)
}

func (deadLibraryAction) targets(issue scan.Issue) ([]string, error) {
	return []string{issue.RootIndexPath}, nil
}

func (deadLibraryAction) apply(issue scan.Issue) error {
	root, err := vdf.ParseFile(issue.RootIndexPath)
	if err != nil {
		return err
	}
	folders := root.Child("libraryfolders")
	if folders == nil {
		return fmt.Errorf("%s: no libraryfolders block", issue.RootIndexPath)
	}
	entry := folders.Child(issue.LibraryID)
	if entry == nil {
		return nil // entry already gone
	}
	// Refuse to delete an entry that no longer matches the scanned path;
	// the index changed under us.
	if raw, _ := entry.Get("path"); steam.CleanLibraryPath(raw) != filepath.Clean(issue.LibraryPath) {
		return fmt.Errorf("index entry %q now points at %q, not %q; rescan needed",
			issue.LibraryID, raw, issue.LibraryPath)
	}
	folders.Delete(issue.LibraryID)
	return writeFileAtomic(issue.RootIndexPath, vdf.Serialize(root))
}

func (deadLibraryAction) verify(issue scan.Issue) error {
	root, err := vdf.ParseFile(issue.RootIndexPath)
	if err != nil {
		return &ValidationError{Path: issue.RootIndexPath, Msg: err.Error()}
	}
	folders := root.Child("libraryfolders")
	if folders == nil {
		return &ValidationError{Path: issue.RootIndexPath, Msg: "no libraryfolders block after write"}
	}
	if folders.Child(issue.LibraryID) != nil {
		return &ValidationError{
			Path: issue.RootIndexPath,
			Msg:  fmt.Sprintf("library entry %q still present", issue.LibraryID),
		}
	}
	return nil
}

// missingLibraryAction declares an undeclared storage root in the index.
type missingLibraryAction struct{}

func (missingLibraryAction) describe(issue scan.Issue) string {
	return fmt.Sprintf("add library entry %q for %s to %s",
		issue.LibraryID, issue.LibraryPath, issue.RootIndexPath)
}

// targets also validates the referenced path; an unresolvable path fails
// the issue before any backup is taken.
func (missingLibraryAction) targets(issue scan.Issue) ([]string, error) {
	info, err := os.Stat(issue.LibraryPath)
	if err != nil {
		return nil, fmt.Errorf("unresolvable library path %s: %w", issue.LibraryPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("unresolvable library path %s: not a directory", issue.LibraryPath)
	}
	return []string{issue.RootIndexPath}, nil
}

func (missingLibraryAction) apply(issue scan.Issue) error {
	root, err := vdf.ParseFile(issue.RootIndexPath)
	if err != nil {
		return err
	}
	folders := root.Child("libraryfolders")
	if folders == nil {
		return fmt.Errorf("%s: no libraryfolders block", issue.RootIndexPath)
	}
	if existing := folders.Child(issue.LibraryID); existing != nil {
		raw, _ := existing.Get("path")
		if steam.CleanLibraryPath(raw) == filepath.Clean(issue.LibraryPath) {
			return nil // already declared
		}
		return fmt.Errorf("index entry %q already taken by %q; rescan needed", issue.LibraryID, raw)
	}
	entry := folders.SetChild(issue.LibraryID)
	entry.Set("path", issue.LibraryPath)
	entry.SetChild("apps")
	return writeFileAtomic(issue.RootIndexPath, vdf.Serialize(root))
}

func (missingLibraryAction) verify(issue scan.Issue) error {
	root, err := vdf.ParseFile(issue.RootIndexPath)
	if err != nil {
		return &ValidationError{Path: issue.RootIndexPath, Msg: err.Error()}
	}
	folders := root.Child("libraryfolders")
	if folders == nil {
		return &ValidationError{Path: issue.RootIndexPath, Msg: "no libraryfolders block after write"}
	}
	entry := folders.Child(issue.LibraryID)
	if entry == nil {
		return &ValidationError{
			Path: issue.RootIndexPath,
			Msg:  fmt.Sprintf("library entry %q missing after write", issue.LibraryID),
		}
	}
	if raw, _ := entry.Get("path"); steam.CleanLibraryPath(raw) != filepath.Clean(issue.LibraryPath) {
		return &ValidationError{
			Path: issue.RootIndexPath,
			Msg:  fmt.Sprintf("library entry %q points at %q, want %q", issue.LibraryID, raw, issue.LibraryPath),
		}
	}
	return nil
}
