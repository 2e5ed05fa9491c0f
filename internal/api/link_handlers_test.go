package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLink_WithTags(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/links",
		map[string]any{
			"url":       "https://go.dev/blog/error-handling",
			"title":     "Error handling",
			"tag_names": []string{"golang", "errors"},
		},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	link := decodeEnvelope[LinkResponse](t, resp.Body.Bytes())
	assert.Equal(t, "Error handling", link.Data.Title)
	assert.Len(t, link.Data.TagIDs, 2)
	assert.Equal(t, "active", link.Data.Status)

	// The tags were created and carry the link count.
	resp = ts.api.Get("/api/v1/tags", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	tags := decodeEnvelope[ListTagsResponse](t, resp.Body.Bytes())
	require.Len(t, tags.Data.Tags, 2)
	for _, tag := range tags.Data.Tags {
		assert.Equal(t, 1, tag.LinkCount)
	}
}

func TestCreateLink_DuplicateURL(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/links",
		map[string]any{"url": "https://example.com/post"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	first := decodeEnvelope[LinkResponse](t, resp.Body.Bytes())

	resp = ts.api.Post("/api/v1/links",
		map[string]any{"url": "https://example.com/post"},
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusConflict, resp.Code)

	envelope := decodeEnvelope[struct{}](t, resp.Body.Bytes())
	assert.Equal(t, "CONFLICT", envelope.Code)

	// Details carry the existing link's ID.
	assert.Contains(t, resp.Body.String(), first.Data.ID)
}

func TestCreateLink_RejectsPrivateHost(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/links",
		map[string]any{"url": "http://169.254.169.254/latest/meta-data"},
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUpdateLink_ArchiveAndList(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/links",
		map[string]any{"url": "https://example.com/a"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	link := decodeEnvelope[LinkResponse](t, resp.Body.Bytes())

	resp = ts.api.Patch("/api/v1/links/"+link.Data.ID,
		map[string]any{"is_archived": true, "is_read": true},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	updated := decodeEnvelope[LinkResponse](t, resp.Body.Bytes())
	assert.True(t, updated.Data.IsArchived)
	assert.Equal(t, "archived", updated.Data.Status)

	// Archived links drop out of the default listing.
	resp = ts.api.Get("/api/v1/links", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	listing := decodeEnvelope[ListLinksResponse](t, resp.Body.Bytes())
	assert.Zero(t, listing.Data.Total)

	resp = ts.api.Get("/api/v1/links?include_archived=true", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	listing = decodeEnvelope[ListLinksResponse](t, resp.Body.Bytes())
	assert.Equal(t, 1, listing.Data.Total)
}

func TestAttachDetachTag(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/links",
		map[string]any{"url": "https://example.com/a"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	link := decodeEnvelope[LinkResponse](t, resp.Body.Bytes())

	resp = ts.api.Post("/api/v1/links/"+link.Data.ID+"/tags",
		map[string]any{"name": "golang"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	tagged := decodeEnvelope[LinkResponse](t, resp.Body.Bytes())
	require.Len(t, tagged.Data.TagIDs, 1)
	tagID := tagged.Data.TagIDs[0]

	// Attaching the same tag again is idempotent.
	resp = ts.api.Post("/api/v1/links/"+link.Data.ID+"/tags",
		map[string]any{"name": "Golang"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	tagged = decodeEnvelope[LinkResponse](t, resp.Body.Bytes())
	assert.Len(t, tagged.Data.TagIDs, 1)

	resp = ts.api.Delete("/api/v1/links/"+link.Data.ID+"/tags/"+tagID,
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	detached := decodeEnvelope[LinkResponse](t, resp.Body.Bytes())
	assert.Empty(t, detached.Data.TagIDs)

	// The tag itself survives detachment.
	resp = ts.api.Get("/api/v1/tags/"+tagID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestDeleteLink(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/links",
		map[string]any{"url": "https://example.com/a"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	link := decodeEnvelope[LinkResponse](t, resp.Body.Bytes())

	resp = ts.api.Delete("/api/v1/links/"+link.Data.ID, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/links/"+link.Data.ID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestLinks_UserScoped(t *testing.T) {
	ts := setupTestServer(t)
	aliceToken, _ := ts.registerTestUser(t, "alice@example.com")
	bobToken, _ := ts.registerTestUser(t, "bob@example.com")

	resp := ts.api.Post("/api/v1/links",
		map[string]any{"url": "https://example.com/a"},
		"Authorization: Bearer "+aliceToken)
	require.Equal(t, http.StatusOK, resp.Code)
	link := decodeEnvelope[LinkResponse](t, resp.Body.Bytes())

	resp = ts.api.Get("/api/v1/links/"+link.Data.ID, "Authorization: Bearer "+bobToken)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetTagLinks(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/links",
		map[string]any{"url": "https://example.com/a", "tag_names": []string{"golang"}},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	link := decodeEnvelope[LinkResponse](t, resp.Body.Bytes())
	tagID := link.Data.TagIDs[0]

	resp = ts.api.Get("/api/v1/tags/"+tagID+"/links", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	listing := decodeEnvelope[ListLinksResponse](t, resp.Body.Bytes())
	require.Equal(t, 1, listing.Data.Total)
	assert.Equal(t, link.Data.ID, listing.Data.Links[0].ID)

	resp = ts.api.Get("/api/v1/tags/tag_missing/links", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
