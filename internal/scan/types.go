package scan

// IssueKind identifies one class of configuration inconsistency.
// The declaration order is the fixed precedence used when sorting issues
// for one application.
type IssueKind int

const (
	// KindStagingMismatch: a manifest's StagingFolder does not name the
	// library that actually hosts the install.
	KindStagingMismatch IssueKind = iota
	// KindOrphanedDownload: partial-download artifacts without a matching
	// manifest anywhere in the inventory.
	KindOrphanedDownload
	// KindMissingLibraryPath: a storage root holds manifests but no
	// library entry in the root index declares it.
	KindMissingLibraryPath
	// KindDeadLibrary: a declared library path no longer exists on disk.
	KindDeadLibrary
	// KindCorruptManifest: a manifest file failed to parse.
	KindCorruptManifest
)

func (k IssueKind) String() string {
	switch k {
	case KindStagingMismatch:
		return "staging-mismatch"
	case KindOrphanedDownload:
		return "orphaned-download"
	case KindMissingLibraryPath:
		return "missing-library-path"
	case KindDeadLibrary:
		return "dead-library"
	case KindCorruptManifest:
		return "corrupt-manifest"
	default:
		return "unknown"
	}
}

// Severity grades how urgent an issue is.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Issue is one detected inconsistency, carrying everything the fixer
// needs to act on it. Issues are immutable once emitted.
type Issue struct {
	Kind        IssueKind
	Severity    Severity
	AppID       string   // empty for issues not tied to one application
	AppName     string   // display name when known
	Paths       []string // implicated on-disk paths
	Description string   // human-readable proposed corrective action

	// Fix targets, set per kind.
	RootIndexPath   string   // index mutations: DeadLibrary, MissingLibraryPath
	ManifestPath    string   // StagingMismatch, CorruptManifest
	LibraryID       string   // index entry id involved
	LibraryPath     string   // library root path involved
	ExpectedStaging string   // StagingMismatch: value to write
	ArtifactPaths   []string // OrphanedDownload: paths to delete
	ArtifactBytes   int64    // OrphanedDownload: total artifact size
}

// Library is one configured storage root, derived read-only from the
// root index by a single scan.
type Library struct {
	ID        string
	Path      string
	Exists    bool
	Apps      []string // application ids the index believes installed here
	Synthetic bool     // inferred from the root index location, not declared
}

// Manifest is one application's installed-state record, derived
// read-only from an appmanifest file.
type Manifest struct {
	AppID         string
	Name          string
	InstallDir    string
	StagingFolder string // empty when the field is absent
	SizeOnDisk    string
	StateFlags    string
	Path          string
	LibraryID     string // id of the hosting library
}

// Report is the full result of one scan: the ordered issue list plus the
// derived inventory, for display layers that want totals.
type Report struct {
	Issues      []Issue
	Libraries   []Library
	Apps        map[string]Manifest
	OrphanBytes int64
}
