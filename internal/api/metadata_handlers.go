package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/linkstashapp/linkstash-server/internal/errors"
	"github.com/linkstashapp/linkstash-server/internal/fetch"
)

func (s *Server) registerMetadataRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "fetchMetadata",
		Method:      http.MethodPost,
		Path:        "/api/v1/metadata/fetch",
		Summary:     "Fetch page metadata",
		Description: "Fetches a page and returns its Open Graph metadata and a coarse content classification",
		Tags:        []string{"Metadata"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleFetchMetadata)
}

// FetchMetadataRequest is the request body for a metadata fetch.
type FetchMetadataRequest struct {
	URL string `json:"url" validate:"required,max=2048" doc:"Page URL"`
}

// FetchMetadataInput wraps the metadata request for Huma.
type FetchMetadataInput struct {
	Authorization string `header:"Authorization"`
	Body          FetchMetadataRequest
}

// MetadataResponse contains extracted page metadata.
type MetadataResponse struct {
	URL         string   `json:"url" doc:"Fetched URL"`
	Title       string   `json:"title,omitempty" doc:"Page title"`
	Description string   `json:"description,omitempty" doc:"Page description"`
	ImageURL    string   `json:"image_url,omitempty" doc:"Preview image URL"`
	SiteName    string   `json:"site_name,omitempty" doc:"Site name"`
	Keywords    []string `json:"keywords,omitempty" doc:"Page keywords"`
	Excerpt     string   `json:"excerpt,omitempty" doc:"Body text excerpt"`
	ContentType string   `json:"content_type" doc:"Classification: article, video, product, recipe, or other"`
}

// MetadataOutput wraps the metadata response for Huma.
type MetadataOutput struct {
	Body MetadataResponse
}

// handleFetchMetadata returns page metadata. Fetch failures degrade to a
// default response rather than erroring; only an unfetchable URL is a
// client error.
func (s *Server) handleFetchMetadata(ctx context.Context, input *FetchMetadataInput) (*MetadataOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if err := fetch.ValidateURL(input.Body.URL); err != nil {
		return nil, domainerrors.InvalidArgument("url is not a fetchable address").WithCause(err)
	}

	fallback := &MetadataOutput{
		Body: MetadataResponse{
			URL:         input.Body.URL,
			ContentType: string(fetch.ClassOther),
		},
	}

	if s.fetcher == nil {
		return fallback, nil
	}

	result, err := s.fetcher.Fetch(ctx, input.Body.URL)
	if err != nil {
		s.logger.Warn("metadata fetch failed", "url", input.Body.URL, "error", err)
		return fallback, nil
	}

	return &MetadataOutput{
		Body: MetadataResponse{
			URL:         result.URL,
			Title:       result.Title,
			Description: result.Description,
			ImageURL:    result.ImageURL,
			SiteName:    result.SiteName,
			Keywords:    result.Keywords,
			Excerpt:     result.Excerpt,
			ContentType: string(result.Class),
		},
	}, nil
}
