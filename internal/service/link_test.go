package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkstashapp/linkstash-server/internal/domain"
	domainerrors "github.com/linkstashapp/linkstash-server/internal/errors"
)

func TestLinkService_CreateLink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, domain.PlanFree)

	link, err := env.links.CreateLink(ctx, user, CreateLinkRequest{
		URL:      "https://example.com/article",
		Title:    "An Article",
		TagNames: []string{"reading", "tech"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, link.ID)
	assert.Len(t, link.TagIDs, 2)
	assert.Equal(t, domain.LinkStatusActive, link.Status)

	// Tags were created with link counts.
	tags, err := env.tags.ListTags(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	for _, tag := range tags {
		assert.Equal(t, 1, tag.LinkCount)
	}
}

func TestLinkService_CreateLink_DuplicateURL(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, domain.PlanFree)

	req := CreateLinkRequest{URL: "https://example.com/article"}

	_, err := env.links.CreateLink(ctx, user, req)
	require.NoError(t, err)

	_, err = env.links.CreateLink(ctx, user, req)
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestLinkService_CreateLink_RejectsPrivateHosts(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, domain.PlanFree)

	_, err := env.links.CreateLink(context.Background(), user, CreateLinkRequest{
		URL: "http://169.254.169.254/latest/meta-data",
	})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidArgument)
}

func TestLinkService_CreateLink_PlanCeiling(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, domain.PlanFree)

	limit := domain.PlanFree.Limits().MaxLinks
	for i := range limit {
		_, err := env.links.CreateLink(ctx, user, CreateLinkRequest{
			URL: fmt.Sprintf("https://example.com/post/%d", i),
		})
		require.NoError(t, err)
	}

	_, err := env.links.CreateLink(ctx, user, CreateLinkRequest{
		URL: "https://example.com/one-too-many",
	})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestLinkService_UpdateLink_Partial(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, domain.PlanFree)

	link, err := env.links.CreateLink(ctx, user, CreateLinkRequest{
		URL:   "https://example.com/article",
		Title: "Original",
	})
	require.NoError(t, err)

	isRead := true
	updated, err := env.links.UpdateLink(ctx, user.ID, link.ID, UpdateLinkRequest{
		IsRead: &isRead,
	})
	require.NoError(t, err)

	assert.True(t, updated.IsRead)
	assert.Equal(t, "Original", updated.Title, "unset fields stay unchanged")

	archived := true
	updated, err = env.links.UpdateLink(ctx, user.ID, link.ID, UpdateLinkRequest{
		IsArchived: &archived,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.LinkStatusArchived, updated.Status)
}

func TestLinkService_ListLinks_Filters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, domain.PlanFree)

	active, err := env.links.CreateLink(ctx, user, CreateLinkRequest{URL: "https://example.com/a"})
	require.NoError(t, err)
	archived, err := env.links.CreateLink(ctx, user, CreateLinkRequest{URL: "https://example.com/b"})
	require.NoError(t, err)

	flag := true
	_, err = env.links.UpdateLink(ctx, user.ID, archived.ID, UpdateLinkRequest{IsArchived: &flag})
	require.NoError(t, err)

	links, err := env.links.ListLinks(ctx, user.ID, ListLinksParams{})
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, active.ID, links[0].ID)

	links, err = env.links.ListLinks(ctx, user.ID, ListLinksParams{IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, links, 2)
}

func TestLinkService_AttachDetachTag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, domain.PlanFree)

	link, err := env.links.CreateLink(ctx, user, CreateLinkRequest{URL: "https://example.com/a"})
	require.NoError(t, err)

	link, err = env.links.AttachTag(ctx, user, link.ID, AttachTagRequest{Name: "golang"})
	require.NoError(t, err)
	require.Len(t, link.TagIDs, 1)
	tagID := link.TagIDs[0]

	// Attaching the same tag again is a no-op.
	link, err = env.links.AttachTag(ctx, user, link.ID, AttachTagRequest{Name: "Golang"})
	require.NoError(t, err)
	assert.Len(t, link.TagIDs, 1)

	tag, err := env.tags.GetTag(ctx, user.ID, tagID)
	require.NoError(t, err)
	assert.Equal(t, 1, tag.LinkCount)

	link, err = env.links.DetachTag(ctx, user.ID, link.ID, tagID)
	require.NoError(t, err)
	assert.Empty(t, link.TagIDs)

	tag, err = env.tags.GetTag(ctx, user.ID, tagID)
	require.NoError(t, err)
	assert.Equal(t, 0, tag.LinkCount)
}

func TestLinkService_DeleteLink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, domain.PlanFree)

	link, err := env.links.CreateLink(ctx, user, CreateLinkRequest{
		URL:      "https://example.com/a",
		TagNames: []string{"golang"},
	})
	require.NoError(t, err)

	require.NoError(t, env.links.DeleteLink(ctx, user.ID, link.ID))

	_, err = env.links.GetLink(ctx, user.ID, link.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	// Tag survives with a zeroed count.
	tags, err := env.tags.ListTags(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, 0, tags[0].LinkCount)
}

func TestLinkService_UserScoping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, domain.PlanFree)
	other := env.createUser(t, domain.PlanFree)

	link, err := env.links.CreateLink(ctx, owner, CreateLinkRequest{URL: "https://example.com/a"})
	require.NoError(t, err)

	_, err = env.links.GetLink(ctx, other.ID, link.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
