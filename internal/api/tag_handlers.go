package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/linkstashapp/linkstash-server/internal/domain"
	"github.com/linkstashapp/linkstash-server/internal/service"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns all tags for the current user",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "createTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags",
		Summary:     "Create tag",
		Description: "Creates a new tag, subject to the plan tag ceiling",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTag",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Get tag",
		Description: "Returns a tag by ID",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "renameTag",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Rename tag",
		Description: "Renames a tag",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRenameTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Delete tag",
		Description: "Deletes a tag and detaches it from all links",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTagLinks",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{id}/links",
		Summary:     "Get tag links",
		Description: "Returns the links carrying this tag",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetTagLinks)
}

// === DTOs ===

// TagResponse contains tag data in API responses.
type TagResponse struct {
	ID         string    `json:"id" doc:"Tag ID"`
	Name       string    `json:"name" doc:"Tag name"`
	LinkCount  int       `json:"link_count" doc:"Number of links carrying this tag"`
	LastUsedAt time.Time `json:"last_used_at" doc:"Last time the tag was applied"`
	CreatedAt  time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt  time.Time `json:"updated_at" doc:"Last update time"`
}

// TagOutput wraps a single tag response for Huma.
type TagOutput struct {
	Body TagResponse
}

// ListTagsInput contains parameters for listing tags.
type ListTagsInput struct {
	Authorization string `header:"Authorization"`
}

// ListTagsResponse contains a list of tags.
type ListTagsResponse struct {
	Tags []TagResponse `json:"tags" doc:"List of tags"`
}

// ListTagsOutput wraps the list tags response for Huma.
type ListTagsOutput struct {
	Body ListTagsResponse
}

// CreateTagRequest is the request body for creating a tag.
type CreateTagRequest struct {
	Name string `json:"name" validate:"required,min=1,max=30" doc:"Tag name"`
}

// CreateTagInput wraps the create tag request for Huma.
type CreateTagInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateTagRequest
}

// GetTagInput contains parameters for getting a tag.
type GetTagInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Tag ID"`
}

// RenameTagRequest is the request body for renaming a tag.
type RenameTagRequest struct {
	Name string `json:"name" validate:"required,min=1,max=30" doc:"New tag name"`
}

// RenameTagInput wraps the rename tag request for Huma.
type RenameTagInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Tag ID"`
	Body          RenameTagRequest
}

// DeleteTagInput contains parameters for deleting a tag.
type DeleteTagInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Tag ID"`
}

// GetTagLinksInput contains parameters for listing a tag's links.
type GetTagLinksInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Tag ID"`
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, input *ListTagsInput) (*ListTagsOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Tag.ListTags(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	resp := make([]TagResponse, len(tags))
	for i, t := range tags {
		resp[i] = mapTagResponse(t)
	}

	return &ListTagsOutput{Body: ListTagsResponse{Tags: resp}}, nil
}

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*TagOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.CreateTag(ctx, user, service.CreateTagRequest{
		Name: input.Body.Name,
	})
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: mapTagResponse(tag)}, nil
}

func (s *Server) handleGetTag(ctx context.Context, input *GetTagInput) (*TagOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.GetTag(ctx, user.ID, input.ID)
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: mapTagResponse(tag)}, nil
}

func (s *Server) handleRenameTag(ctx context.Context, input *RenameTagInput) (*TagOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.RenameTag(ctx, user.ID, input.ID, service.RenameTagRequest{
		Name: input.Body.Name,
	})
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: mapTagResponse(tag)}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *DeleteTagInput) (*MessageOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.DeleteTag(ctx, user.ID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tag deleted"}}, nil
}

func (s *Server) handleGetTagLinks(ctx context.Context, input *GetTagLinksInput) (*ListLinksOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	// 404 for unknown tags rather than an empty listing.
	if _, err := s.services.Tag.GetTag(ctx, user.ID, input.ID); err != nil {
		return nil, err
	}

	links, err := s.services.Link.ListLinks(ctx, user.ID, service.ListLinksParams{
		IncludeArchived: true,
		TagID:           input.ID,
	})
	if err != nil {
		return nil, err
	}

	resp := make([]LinkResponse, len(links))
	for i, link := range links {
		resp[i] = mapLinkResponse(link)
	}

	return &ListLinksOutput{Body: ListLinksResponse{Links: resp, Total: len(resp)}}, nil
}

// === Helpers ===

func mapTagResponse(t *domain.Tag) TagResponse {
	return TagResponse{
		ID:         t.ID,
		Name:       t.Name,
		LinkCount:  t.LinkCount,
		LastUsedAt: t.LastUsedAt,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}
