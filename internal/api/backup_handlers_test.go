package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndListBackups(t *testing.T) {
	ts := setupTestServer(t)
	token, userID := ts.registerTestUser(t, "admin@example.com")
	ts.promoteToAdmin(t, userID)

	resp := ts.api.Post("/api/v1/links",
		map[string]any{"url": "https://example.com/a", "tag_names": []string{"golang"}},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/admin/backups",
		map[string]any{"include_usage": true},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	created := decodeEnvelope[BackupResultResponse](t, resp.Body.Bytes())
	assert.Equal(t, 1, created.Data.Users)
	assert.Equal(t, 1, created.Data.Links)
	assert.Equal(t, 1, created.Data.Tags)
	assert.NotEmpty(t, created.Data.Checksum)

	resp = ts.api.Get("/api/v1/admin/backups", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	listing := decodeEnvelope[ListBackupsResponse](t, resp.Body.Bytes())
	require.Len(t, listing.Data.Backups, 1)

	// Dry-run restore against the live store reports counts without writing.
	resp = ts.api.Post("/api/v1/admin/backups/"+listing.Data.Backups[0].ID+"/restore",
		map[string]any{"mode": "merge", "dry_run": true},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	restored := decodeEnvelope[RestoreBackupResponse](t, resp.Body.Bytes())
	assert.Equal(t, 1, restored.Data.Imported["users"])
}

func TestBackups_RequireAdmin(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/admin/backups", map[string]any{}, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Get("/api/v1/admin/backups", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestDeleteBackup_NotFound(t *testing.T) {
	ts := setupTestServer(t)
	token, userID := ts.registerTestUser(t, "admin@example.com")
	ts.promoteToAdmin(t, userID)

	resp := ts.api.Delete("/api/v1/admin/backups/backup-nope", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
