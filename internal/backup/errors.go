package backup

import "errors"

// Backup errors.
var (
	ErrBackupNotFound  = errors.New("backup not found")
	ErrInvalidArchive  = errors.New("invalid backup archive")
	ErrVersionMismatch = errors.New("unsupported backup format version")
)
