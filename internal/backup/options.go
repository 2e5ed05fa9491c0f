package backup

import "time"

// BackupOptions configures backup creation.
type BackupOptions struct {
	IncludeUsage bool   // Include AI usage records
	OutputPath   string // Where to write the backup file
}

// DefaultBackupOptions returns sensible defaults.
func DefaultBackupOptions() BackupOptions {
	return BackupOptions{
		IncludeUsage: true,
	}
}

// RestoreMode determines how to handle existing data.
type RestoreMode string

const (
	// RestoreModeFull overwrites existing records with backup versions.
	RestoreModeFull RestoreMode = "full"

	// RestoreModeMerge adds backup data, keeping existing records on conflict.
	RestoreModeMerge RestoreMode = "merge"
)

// Valid returns true if the restore mode is recognized.
func (m RestoreMode) Valid() bool {
	switch m {
	case RestoreModeFull, RestoreModeMerge:
		return true
	default:
		return false
	}
}

// RestoreOptions configures restoration.
type RestoreOptions struct {
	Mode   RestoreMode
	DryRun bool // Validate without writing
}

// BackupResult contains the outcome of a backup operation.
type BackupResult struct {
	Path     string        `json:"path"`
	Size     int64         `json:"size"`
	Counts   EntityCounts  `json:"counts"`
	Duration time.Duration `json:"duration"`
	Checksum string        `json:"checksum"`
}

// BackupInfo describes an existing backup.
type BackupInfo struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// RestoreResult contains the outcome of a restore operation.
type RestoreResult struct {
	Imported map[string]int `json:"imported"`
	Skipped  map[string]int `json:"skipped"`
	Duration time.Duration  `json:"duration"`
}
