package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/linkstashapp/linkstash-server/internal/backup"
	domainerrors "github.com/linkstashapp/linkstash-server/internal/errors"
)

func (s *Server) registerBackupRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBackups",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/backups",
		Summary:     "List backups",
		Description: "Lists server backup archives, newest first. Admin only.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListBackups)

	huma.Register(s.api, huma.Operation{
		OperationID: "createBackup",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/backups",
		Summary:     "Create backup",
		Description: "Creates a backup archive of all server data. Admin only.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateBackup)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBackup",
		Method:      http.MethodDelete,
		Path:        "/api/v1/admin/backups/{id}",
		Summary:     "Delete backup",
		Description: "Removes a backup archive. Admin only.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteBackup)

	huma.Register(s.api, huma.Operation{
		OperationID: "restoreBackup",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/backups/{id}/restore",
		Summary:     "Restore backup",
		Description: "Applies a backup archive to the data store. Admin only.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRestoreBackup)
}

// === DTOs ===

// ListBackupsInput contains parameters for the backup listing.
type ListBackupsInput struct {
	Authorization string `header:"Authorization"`
}

// BackupInfoResponse describes one backup archive.
type BackupInfoResponse struct {
	ID        string    `json:"id" doc:"Backup ID"`
	Size      int64     `json:"size" doc:"Archive size in bytes"`
	CreatedAt time.Time `json:"created_at" doc:"When the backup was created"`
}

// ListBackupsResponse contains backup listing data.
type ListBackupsResponse struct {
	Backups []BackupInfoResponse `json:"backups" doc:"Available backups, newest first"`
}

// ListBackupsOutput wraps the backup listing for Huma.
type ListBackupsOutput struct {
	Body ListBackupsResponse
}

// CreateBackupRequest configures backup creation.
type CreateBackupRequest struct {
	IncludeUsage bool `json:"include_usage,omitempty" doc:"Include AI usage records"`
}

// CreateBackupInput wraps the create backup request for Huma.
type CreateBackupInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateBackupRequest
}

// BackupResultResponse reports backup creation details.
type BackupResultResponse struct {
	Path     string `json:"path" doc:"Archive path on the server host"`
	Size     int64  `json:"size" doc:"Archive size in bytes"`
	Checksum string `json:"checksum" doc:"SHA-256 of the archive"`
	Users    int    `json:"users" doc:"Users exported"`
	Links    int    `json:"links" doc:"Links exported"`
	Tags     int    `json:"tags" doc:"Tags exported"`
}

// CreateBackupOutput wraps the backup result for Huma.
type CreateBackupOutput struct {
	Body BackupResultResponse
}

// DeleteBackupInput contains parameters for deleting a backup.
type DeleteBackupInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Backup ID"`
}

// RestoreBackupRequest configures a restore.
type RestoreBackupRequest struct {
	Mode   string `json:"mode" validate:"required,oneof=full merge" doc:"Restore mode: full overwrites on conflict, merge keeps existing records"`
	DryRun bool   `json:"dry_run,omitempty" doc:"Validate and count without writing"`
}

// RestoreBackupInput wraps the restore request for Huma.
type RestoreBackupInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Backup ID"`
	Body          RestoreBackupRequest
}

// RestoreBackupResponse reports restore counts per entity.
type RestoreBackupResponse struct {
	Imported map[string]int `json:"imported" doc:"Records written per entity"`
	Skipped  map[string]int `json:"skipped,omitempty" doc:"Records kept as-is per entity"`
}

// RestoreBackupOutput wraps the restore response for Huma.
type RestoreBackupOutput struct {
	Body RestoreBackupResponse
}

// === Handlers ===

func (s *Server) handleListBackups(ctx context.Context, input *ListBackupsInput) (*ListBackupsOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	backups, err := s.backups.List(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]BackupInfoResponse, len(backups))
	for i, b := range backups {
		resp[i] = BackupInfoResponse{ID: b.ID, Size: b.Size, CreatedAt: b.CreatedAt}
	}

	return &ListBackupsOutput{Body: ListBackupsResponse{Backups: resp}}, nil
}

func (s *Server) handleCreateBackup(ctx context.Context, input *CreateBackupInput) (*CreateBackupOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	result, err := s.backups.Create(ctx, backup.BackupOptions{
		IncludeUsage: input.Body.IncludeUsage,
	})
	if err != nil {
		return nil, err
	}

	return &CreateBackupOutput{
		Body: BackupResultResponse{
			Path:     result.Path,
			Size:     result.Size,
			Checksum: result.Checksum,
			Users:    result.Counts.Users,
			Links:    result.Counts.Links,
			Tags:     result.Counts.Tags,
		},
	}, nil
}

func (s *Server) handleDeleteBackup(ctx context.Context, input *DeleteBackupInput) (*MessageOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if err := s.backups.Delete(ctx, input.ID); err != nil {
		if errors.Is(err, backup.ErrBackupNotFound) {
			return nil, domainerrors.NotFound("backup not found")
		}
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Backup deleted"}}, nil
}

func (s *Server) handleRestoreBackup(ctx context.Context, input *RestoreBackupInput) (*RestoreBackupOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	info, err := s.backups.Get(ctx, input.ID)
	if err != nil {
		if errors.Is(err, backup.ErrBackupNotFound) {
			return nil, domainerrors.NotFound("backup not found")
		}
		return nil, err
	}

	result, err := s.restore.Restore(ctx, info.Path, backup.RestoreOptions{
		Mode:   backup.RestoreMode(input.Body.Mode),
		DryRun: input.Body.DryRun,
	})
	if err != nil {
		if errors.Is(err, backup.ErrInvalidArchive) || errors.Is(err, backup.ErrVersionMismatch) {
			return nil, domainerrors.InvalidArgument("backup archive is not restorable").WithCause(err)
		}
		return nil, err
	}

	return &RestoreBackupOutput{
		Body: RestoreBackupResponse{
			Imported: result.Imported,
			Skipped:  result.Skipped,
		},
	}, nil
}
