package backup

import "time"

// FormatVersion is the backup format version. Increment major on breaking changes.
const FormatVersion = "1.0"

// Manifest describes backup contents and metadata.
type Manifest struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`

	// Server identity
	ServerName    string `json:"server_name"`
	ServerVersion string `json:"server_version"`

	// Content summary
	Counts EntityCounts `json:"counts"`

	// What's included
	IncludesUsage bool `json:"includes_usage"`
}

// EntityCounts tracks entity counts for validation and progress reporting.
type EntityCounts struct {
	Users         int `json:"users"`
	Links         int `json:"links"`
	Tags          int `json:"tags"`
	Subscriptions int `json:"subscriptions"`
	UsageRecords  int `json:"usage_records,omitempty"`
}
