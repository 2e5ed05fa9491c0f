package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/linkstashapp/linkstash-server/internal/domain"
	"github.com/linkstashapp/linkstash-server/internal/service"
)

func (s *Server) registerLinkRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createLink",
		Method:      http.MethodPost,
		Path:        "/api/v1/links",
		Summary:     "Save link",
		Description: "Saves a new link, creating any missing tags",
		Tags:        []string{"Links"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateLink)

	huma.Register(s.api, huma.Operation{
		OperationID: "listLinks",
		Method:      http.MethodGet,
		Path:        "/api/v1/links",
		Summary:     "List links",
		Description: "Returns the user's links, newest first",
		Tags:        []string{"Links"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListLinks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getLink",
		Method:      http.MethodGet,
		Path:        "/api/v1/links/{id}",
		Summary:     "Get link",
		Description: "Returns a link by ID",
		Tags:        []string{"Links"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetLink)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateLink",
		Method:      http.MethodPatch,
		Path:        "/api/v1/links/{id}",
		Summary:     "Update link",
		Description: "Applies a partial update (title, description, read/archive/bookmark/pin flags, priority)",
		Tags:        []string{"Links"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateLink)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteLink",
		Method:      http.MethodDelete,
		Path:        "/api/v1/links/{id}",
		Summary:     "Delete link",
		Description: "Deletes a link and decrements its tags' link counts",
		Tags:        []string{"Links"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteLink)

	huma.Register(s.api, huma.Operation{
		OperationID: "attachTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/links/{id}/tags",
		Summary:     "Attach tag",
		Description: "Attaches a tag to a link by name, creating the tag when missing",
		Tags:        []string{"Links"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAttachTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "detachTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/links/{id}/tags/{tagID}",
		Summary:     "Detach tag",
		Description: "Removes a tag from a link; the tag itself is kept",
		Tags:        []string{"Links"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDetachTag)
}

// === DTOs ===

// LinkResponse contains link data in API responses.
type LinkResponse struct {
	ID           string    `json:"id" doc:"Link ID"`
	URL          string    `json:"url" doc:"Saved URL"`
	Title        string    `json:"title" doc:"Title"`
	Description  string    `json:"description,omitempty" doc:"Description"`
	TagIDs       []string  `json:"tag_ids,omitempty" doc:"Attached tag IDs"`
	Status       string    `json:"status" doc:"Lifecycle status (active, archived)"`
	IsRead       bool      `json:"is_read" doc:"Read flag"`
	IsArchived   bool      `json:"is_archived" doc:"Archived flag"`
	IsBookmarked bool      `json:"is_bookmarked" doc:"Bookmarked flag"`
	IsPinned     bool      `json:"is_pinned" doc:"Pinned flag"`
	Priority     int       `json:"priority" doc:"Priority (0-3)"`
	CreatedAt    time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt    time.Time `json:"updated_at" doc:"Last update time"`
}

// LinkOutput wraps a single link response for Huma.
type LinkOutput struct {
	Body LinkResponse
}

// CreateLinkRequest is the request body for saving a link.
type CreateLinkRequest struct {
	URL         string   `json:"url" validate:"required,max=2048" doc:"URL to save"`
	Title       string   `json:"title,omitempty" validate:"omitempty,max=500" doc:"Title (defaults to URL)"`
	Description string   `json:"description,omitempty" validate:"omitempty,max=2000" doc:"Description"`
	TagNames    []string `json:"tag_names,omitempty" validate:"omitempty,max=20,dive,min=1,max=30" doc:"Tags to apply"`
}

// CreateLinkInput wraps the create link request for Huma.
type CreateLinkInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateLinkRequest
}

// ListLinksInput contains filters for listing links.
type ListLinksInput struct {
	Authorization   string `header:"Authorization"`
	IncludeArchived bool   `query:"include_archived" doc:"Include archived links"`
	UnreadOnly      bool   `query:"unread_only" doc:"Only unread links"`
	TagID           string `query:"tag" doc:"Filter by tag ID"`
}

// ListLinksResponse contains a list of links.
type ListLinksResponse struct {
	Links []LinkResponse `json:"links" doc:"List of links"`
	Total int            `json:"total" doc:"Number of links returned"`
}

// ListLinksOutput wraps the list links response for Huma.
type ListLinksOutput struct {
	Body ListLinksResponse
}

// GetLinkInput contains parameters for getting a link.
type GetLinkInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Link ID"`
}

// UpdateLinkRequest is the request body for a partial link update.
type UpdateLinkRequest struct {
	Title        *string `json:"title,omitempty" validate:"omitempty,max=500" doc:"Title"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=2000" doc:"Description"`
	IsRead       *bool   `json:"is_read,omitempty" doc:"Read flag"`
	IsArchived   *bool   `json:"is_archived,omitempty" doc:"Archived flag"`
	IsBookmarked *bool   `json:"is_bookmarked,omitempty" doc:"Bookmarked flag"`
	IsPinned     *bool   `json:"is_pinned,omitempty" doc:"Pinned flag"`
	Priority     *int    `json:"priority,omitempty" validate:"omitempty,gte=0,lte=3" doc:"Priority (0-3)"`
}

// UpdateLinkInput wraps the update link request for Huma.
type UpdateLinkInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Link ID"`
	Body          UpdateLinkRequest
}

// DeleteLinkInput contains parameters for deleting a link.
type DeleteLinkInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Link ID"`
}

// AttachTagRequest is the request body for attaching a tag.
type AttachTagRequest struct {
	Name string `json:"name" validate:"required,min=1,max=30" doc:"Tag name"`
}

// AttachTagInput wraps the attach tag request for Huma.
type AttachTagInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Link ID"`
	Body          AttachTagRequest
}

// DetachTagInput contains parameters for detaching a tag.
type DetachTagInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Link ID"`
	TagID         string `path:"tagID" doc:"Tag ID"`
}

// === Handlers ===

func (s *Server) handleCreateLink(ctx context.Context, input *CreateLinkInput) (*LinkOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	link, err := s.services.Link.CreateLink(ctx, user, service.CreateLinkRequest{
		URL:         input.Body.URL,
		Title:       input.Body.Title,
		Description: input.Body.Description,
		TagNames:    input.Body.TagNames,
	})
	if err != nil {
		return nil, err
	}

	return &LinkOutput{Body: mapLinkResponse(link)}, nil
}

func (s *Server) handleListLinks(ctx context.Context, input *ListLinksInput) (*ListLinksOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	links, err := s.services.Link.ListLinks(ctx, user.ID, service.ListLinksParams{
		IncludeArchived: input.IncludeArchived,
		UnreadOnly:      input.UnreadOnly,
		TagID:           input.TagID,
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

func (s *Server) handleGetLink(ctx context.Context, input *GetLinkInput) (*LinkOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	link, err := s.services.Link.GetLink(ctx, user.ID, input.ID)
	if err != nil {
		return nil, err
	}

	return &LinkOutput{Body: mapLinkResponse(link)}, nil
}

func (s *Server) handleUpdateLink(ctx context.Context, input *UpdateLinkInput) (*LinkOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	link, err := s.services.Link.UpdateLink(ctx, user.ID, input.ID, service.UpdateLinkRequest{
		Title:        input.Body.Title,
		Description:  input.Body.Description,
		IsRead:       input.Body.IsRead,
		IsArchived:   input.Body.IsArchived,
		IsBookmarked: input.Body.IsBookmarked,
		IsPinned:     input.Body.IsPinned,
		Priority:     input.Body.Priority,
	})
	if err != nil {
		return nil, err
	}

	return &LinkOutput{Body: mapLinkResponse(link)}, nil
}

func (s *Server) handleDeleteLink(ctx context.Context, input *DeleteLinkInput) (*MessageOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Link.DeleteLink(ctx, user.ID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Link deleted"}}, nil
}

func (s *Server) handleAttachTag(ctx context.Context, input *AttachTagInput) (*LinkOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	link, err := s.services.Link.AttachTag(ctx, user, input.ID, service.AttachTagRequest{
		Name: input.Body.Name,
	})
	if err != nil {
		return nil, err
	}

	return &LinkOutput{Body: mapLinkResponse(link)}, nil
}

func (s *Server) handleDetachTag(ctx context.Context, input *DetachTagInput) (*LinkOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	link, err := s.services.Link.DetachTag(ctx, user.ID, input.ID, input.TagID)
	if err != nil {
		return nil, err
	}

	return &LinkOutput{Body: mapLinkResponse(link)}, nil
}

// === Helpers ===

func mapLinkResponse(link *domain.Link) LinkResponse {
	return LinkResponse{
		ID:           link.ID,
		URL:          link.URL,
		Title:        link.Title,
		Description:  link.Description,
		TagIDs:       link.TagIDs,
		Status:       string(link.Status),
		IsRead:       link.IsRead,
		IsArchived:   link.IsArchived,
		IsBookmarked: link.IsBookmarked,
		IsPinned:     link.IsPinned,
		Priority:     link.Priority,
		CreatedAt:    link.CreatedAt,
		UpdatedAt:    link.UpdatedAt,
	}
}
