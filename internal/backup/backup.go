// Package backup snapshots files before mutation and restores them on
// demand. Each snapshot is one timestamped directory under the backup
// root containing a manifest.json plus a copy of every covered file.
// Snapshots are all-or-nothing: they are staged in a temporary directory
// and renamed into place only after every file and the manifest have been
// written, so a partial snapshot is never visible.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/larkstead/steamfix/internal/log"
)

// manifestName is the mapping file written inside every record directory.
const manifestName = "manifest.json"

// idFormat is the timestamp layout used for record identifiers.
const idFormat = "20060102_150405"

// Entry maps one original file to its copy inside the record directory.
type Entry struct {
	OriginalPath string `json:"original_path"`
	SnapshotFile string `json:"snapshot_file"`
	Size         int64  `json:"size"`
}

// Record describes one snapshot: its identifier (derived from the creation
// timestamp), when it was taken, and the files it covers.
type Record struct {
	ID        string    `json:"backup_id"`
	CreatedAt time.Time `json:"created_at"`
	Files     []Entry   `json:"files"`
}

// Error reports a failed snapshot or restore operation, naming the path
// that caused it.
type Error struct {
	Op   string // "snapshot" or "restore"
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("backup %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Manager owns one backup directory.
type Manager struct {
	dir    string
	logger *log.Logger
	now    func() time.Time
}

// NewManager creates a manager rooted at dir. The directory is created
// lazily on first snapshot.
func NewManager(dir string, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Discard()
	}
	return &Manager{dir: dir, logger: logger, now: time.Now}
}

// Dir returns the backup root directory.
func (m *Manager) Dir() string { return m.dir }

// Snapshot copies the current contents of every given path into a new
// record directory. Duplicate paths are copied once. If any source file
// is unreadable the staged directory is removed and no record exists.
func (m *Manager) Snapshot(paths []string) (*Record, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, &Error{Op: "snapshot", Path: m.dir, Err: err}
	}

	createdAt := m.now()
	id, err := m.newID(createdAt)
	if err != nil {
		return nil, err
	}

	staged := filepath.Join(m.dir, id+".partial")
	if err := os.MkdirAll(staged, 0o755); err != nil {
		return nil, &Error{Op: "snapshot", Path: staged, Err: err}
	}

	record := &Record{ID: id, CreatedAt: createdAt}
	seen := make(map[string]bool)
	for i, path := range paths {
		if seen[path] {
			continue
		}
		seen[path] = true

		name := fmt.Sprintf("%04d_%s", i, filepath.Base(path))
		size, err := copyFile(path, filepath.Join(staged, name))
		if err != nil {
			os.RemoveAll(staged)
			return nil, &Error{Op: "snapshot", Path: path, Err: err}
		}
		record.Files = append(record.Files, Entry{
			OriginalPath: path,
			SnapshotFile: name,
			Size:         size,
		})
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		os.RemoveAll(staged)
		return nil, &Error{Op: "snapshot", Path: staged, Err: err}
	}
	if err := os.WriteFile(filepath.Join(staged, manifestName), data, 0o644); err != nil {
		os.RemoveAll(staged)
		return nil, &Error{Op: "snapshot", Path: staged, Err: err}
	}

	final := filepath.Join(m.dir, id)
	if err := os.Rename(staged, final); err != nil {
		os.RemoveAll(staged)
		return nil, &Error{Op: "snapshot", Path: final, Err: err}
	}

	m.logger.Debugf("backup %s: %d file(s)\n", id, len(record.Files))
	return record, nil
}

// newID derives a fresh record identifier from the creation time,
// suffixing a counter when a record from the same second already exists.
func (m *Manager) newID(createdAt time.Time) (string, error) {
	base := "backup_" + createdAt.Format(idFormat)
	id := base
	for n := 2; ; n++ {
		_, errFinal := os.Stat(filepath.Join(m.dir, id))
		_, errStaged := os.Stat(filepath.Join(m.dir, id+".partial"))
		if os.IsNotExist(errFinal) && os.IsNotExist(errStaged) {
			return id, nil
		}
		if errFinal != nil && !os.IsNotExist(errFinal) {
			return "", &Error{Op: "snapshot", Path: filepath.Join(m.dir, id), Err: errFinal}
		}
		id = fmt.Sprintf("%s_%d", base, n)
	}
}

// Get loads the record with the given identifier.
func (m *Manager) Get(id string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, id, manifestName))
	if err != nil {
		return nil, fmt.Errorf("backup %s: %w", id, err)
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("backup %s: corrupt manifest: %w", id, err)
	}
	return &record, nil
}

// Restore copies every file in the named record back over its original
// path, verifying that the restored byte length matches the manifest.
// On failure the error names the offending path; files restored before
// the failure stay restored.
func (m *Manager) Restore(id string) error {
	record, err := m.Get(id)
	if err != nil {
		return err
	}

	for _, entry := range record.Files {
		src := filepath.Join(m.dir, id, entry.SnapshotFile)
		if err := os.MkdirAll(filepath.Dir(entry.OriginalPath), 0o755); err != nil {
			return &Error{Op: "restore", Path: entry.OriginalPath, Err: err}
		}
		written, err := copyFile(src, entry.OriginalPath)
		if err != nil {
			return &Error{Op: "restore", Path: entry.OriginalPath, Err: err}
		}
		if written != entry.Size {
			return &Error{
				Op:   "restore",
				Path: entry.OriginalPath,
				Err:  fmt.Errorf("size mismatch: restored %d bytes, manifest records %d", written, entry.Size),
			}
		}
		m.logger.Debugf("restored %s\n", entry.OriginalPath)
	}
	return nil
}

// RestoreFile restores a single path from the named record. Used for
// per-file rollback after a failed fix verification.
func (m *Manager) RestoreFile(id, originalPath string) error {
	record, err := m.Get(id)
	if err != nil {
		return err
	}
	for _, entry := range record.Files {
		if entry.OriginalPath != originalPath {
			continue
		}
		src := filepath.Join(m.dir, id, entry.SnapshotFile)
		written, err := copyFile(src, originalPath)
		if err != nil {
			return &Error{Op: "restore", Path: originalPath, Err: err}
		}
		if written != entry.Size {
			return &Error{
				Op:   "restore",
				Path: originalPath,
				Err:  fmt.Errorf("size mismatch: restored %d bytes, manifest records %d", written, entry.Size),
			}
		}
		return nil
	}
	return &Error{Op: "restore", Path: originalPath, Err: errors.New("path not covered by record")}
}

// List returns all records sorted newest-first. Directories without a
// readable manifest are skipped.
func (m *Manager) List() ([]Record, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	var records []Record
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		record, err := m.Get(entry.Name())
		if err != nil {
			continue
		}
		records = append(records, *record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ID > records[j].ID
	})
	return records, nil
}

// Delete removes the named record directory.
func (m *Manager) Delete(id string) error {
	if err := os.RemoveAll(filepath.Join(m.dir, id)); err != nil {
		return fmt.Errorf("delete backup %s: %w", id, err)
	}
	return nil
}

// Prune deletes the oldest records beyond retain, never deleting the most
// recent one. Returns the number of records deleted.
func (m *Manager) Prune(retain int) (int, error) {
	if retain < 1 {
		retain = 1
	}
	records, err := m.List()
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, record := range records[min(retain, len(records)):] {
		if err := m.Delete(record.ID); err != nil {
			return deleted, err
		}
		m.logger.Debugf("pruned backup %s\n", record.ID)
		deleted++
	}
	return deleted, nil
}

// copyFile copies src to dst, truncating any existing dst, and returns
// the number of bytes written. The source's permission bits are applied
// to new destination files.
func copyFile(src, dst string) (int64, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, err
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, srcInfo.Mode().Perm())
	if err != nil {
		return 0, err
	}

	written, err := io.Copy(dstFile, srcFile)
	if closeErr := dstFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return written, err
	}
	return written, nil
}
