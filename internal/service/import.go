package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linkstashapp/linkstash-server/internal/domain"
	domainerrors "github.com/linkstashapp/linkstash-server/internal/errors"
	"github.com/linkstashapp/linkstash-server/internal/importer"
)

// ImportService loads bookmarks from browser profile exports into a user's
// library.
type ImportService struct {
	linkService *LinkService
	logger      *slog.Logger
}

// NewImportService creates a new import service.
func NewImportService(linkService *LinkService, logger *slog.Logger) *ImportService {
	return &ImportService{
		linkService: linkService,
		logger:      logger,
	}
}

// ImportResult summarizes one import run.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ImportFirefox imports bookmarks from an uploaded places.sqlite file.
// Already-saved URLs and invalid entries are skipped; the bookmark folder
// becomes a tag. The run stops early when the plan's link ceiling is hit.
func (s *ImportService) ImportFirefox(ctx context.Context, user *domain.User, path string) (*ImportResult, error) {
	bookmarks, err := importer.ParseFirefoxPlaces(path, s.logger)
	if err != nil {
		if errors.Is(err, importer.ErrNotPlacesDB) {
			return nil, domainerrors.InvalidArgument("file is not a Firefox places database")
		}
		return nil, fmt.Errorf("parse places database: %w", err)
	}

	result := &ImportResult{}
	for _, bm := range bookmarks {
		req := CreateLinkRequest{
			URL:   bm.URL,
			Title: bm.Title,
		}
		if bm.Folder != "" {
			req.TagNames = []string{bm.Folder}
		}

		_, err := s.linkService.CreateLink(ctx, user, req)
		switch {
		case err == nil:
			result.Imported++
		case errors.Is(err, domainerrors.ErrConflict),
			errors.Is(err, domainerrors.ErrValidation),
			errors.Is(err, domainerrors.ErrInvalidArgument):
			result.Skipped++
		case errors.Is(err, domainerrors.ErrForbidden):
			// Plan link ceiling; keep what was imported so far.
			s.logger.Info("import stopped at plan link limit",
				"user_id", user.ID,
				"imported", result.Imported,
			)
			return result, nil
		default:
			return result, fmt.Errorf("import %s: %w", bm.URL, err)
		}
	}

	s.logger.Info("bookmark import complete",
		"user_id", user.ID,
		"imported", result.Imported,
		"skipped", result.Skipped,
	)
	return result, nil
}
