package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerImportRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "importBookmarks",
		Method:      http.MethodPost,
		Path:        "/api/v1/import/bookmarks",
		Summary:     "Import bookmarks",
		Description: "Imports bookmarks from a Firefox places.sqlite file on the server host. Admin only.",
		Tags:        []string{"Import"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleImportBookmarks)
}

// ImportBookmarksRequest names the bookmarks database to import.
type ImportBookmarksRequest struct {
	Path string `json:"path" validate:"required,max=4096" doc:"Path to a places.sqlite file on the server host"`
}

// ImportBookmarksInput wraps the import request for Huma.
type ImportBookmarksInput struct {
	Authorization string `header:"Authorization"`
	Body          ImportBookmarksRequest
}

// ImportBookmarksResponse reports import counts.
type ImportBookmarksResponse struct {
	Imported int `json:"imported" doc:"Bookmarks imported as links"`
	Skipped  int `json:"skipped" doc:"Bookmarks skipped (duplicates or invalid)"`
}

// ImportBookmarksOutput wraps the import response for Huma.
type ImportBookmarksOutput struct {
	Body ImportBookmarksResponse
}

func (s *Server) handleImportBookmarks(ctx context.Context, input *ImportBookmarksInput) (*ImportBookmarksOutput, error) {
	user, err := s.authenticateAndRequireAdmin(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Import.ImportFirefox(ctx, user, input.Body.Path)
	if err != nil {
		return nil, err
	}

	return &ImportBookmarksOutput{
		Body: ImportBookmarksResponse{
			Imported: result.Imported,
			Skipped:  result.Skipped,
		},
	}, nil
}
