package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/linkstashapp/linkstash-server/internal/domain"
	domainerrors "github.com/linkstashapp/linkstash-server/internal/errors"
	"github.com/linkstashapp/linkstash-server/internal/fetch"
	"github.com/linkstashapp/linkstash-server/internal/id"
	"github.com/linkstashapp/linkstash-server/internal/store"
)

// LinkService manages saved links: creation with the plan ceiling and URL
// dedupe, listing, partial updates, and tag attachment.
type LinkService struct {
	store      *store.Store
	tagService *TagService
	logger     *slog.Logger
}

// NewLinkService creates a new link service.
func NewLinkService(store *store.Store, tagService *TagService, logger *slog.Logger) *LinkService {
	return &LinkService{
		store:      store,
		tagService: tagService,
		logger:     logger,
	}
}

// CreateLinkRequest contains new link data.
type CreateLinkRequest struct {
	URL         string   `json:"url" validate:"required,http_url,max=2048"`
	Title       string   `json:"title" validate:"max=500"`
	Description string   `json:"description" validate:"max=2000"`
	TagNames    []string `json:"tag_names" validate:"max=20,dive,min=1,max=30"`
}

// CreateLink saves a new link for the user. The same URL can only be saved
// once per user; the free plan has a link ceiling.
func (s *LinkService) CreateLink(ctx context.Context, user *domain.User, req CreateLinkRequest) (*domain.Link, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	if err := fetch.ValidateURL(req.URL); err != nil {
		return nil, domainerrors.InvalidArgument("url is not a fetchable address").WithCause(err)
	}

	limits := user.Plan.Limits()
	if limits.MaxLinks > 0 {
		count, err := s.store.CountLinks(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("count links: %w", err)
		}
		if count >= limits.MaxLinks {
			return nil, domainerrors.Forbidden(
				fmt.Sprintf("link limit reached for %s plan (%d)", user.Plan, limits.MaxLinks),
			)
		}
	}

	if existing, err := s.store.GetLinkByURL(ctx, user.ID, req.URL); err == nil {
		return nil, domainerrors.Conflict("url already saved").WithDetails(map[string]string{
			"link_id": existing.ID,
		})
	} else if !errors.Is(err, store.ErrLinkNotFound) {
		return nil, fmt.Errorf("check existing url: %w", err)
	}

	tagIDs, err := s.resolveTagNames(ctx, user, req.TagNames)
	if err != nil {
		return nil, err
	}

	linkID, err := id.Generate("link")
	if err != nil {
		return nil, fmt.Errorf("generate link ID: %w", err)
	}

	now := time.Now()
	link := &domain.Link{
		ID:          linkID,
		UserID:      user.ID,
		URL:         req.URL,
		Title:       req.Title,
		Description: req.Description,
		TagIDs:      tagIDs,
		Status:      domain.LinkStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if link.Title == "" {
		link.Title = req.URL
	}

	if err := s.store.CreateLink(ctx, link); err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}

	for _, tagID := range tagIDs {
		if err := s.store.AdjustTagLinkCount(ctx, user.ID, tagID, 1); err != nil {
			s.logger.Warn("failed to bump tag link count", "tag_id", tagID, "error", err)
		}
	}

	s.logger.Info("link created", "user_id", user.ID, "link_id", linkID, "tags", len(tagIDs))

	return link, nil
}

// GetLink returns one link.
func (s *LinkService) GetLink(ctx context.Context, userID, linkID string) (*domain.Link, error) {
	link, err := s.store.GetLink(ctx, userID, linkID)
	if err != nil {
		if errors.Is(err, store.ErrLinkNotFound) {
			return nil, domainerrors.NotFound("link not found")
		}
		return nil, fmt.Errorf("get link: %w", err)
	}
	return link, nil
}

// ListLinksParams filters a link listing.
type ListLinksParams struct {
	IncludeArchived bool
	UnreadOnly      bool
	TagID           string
}

// ListLinks returns the user's links, newest first.
func (s *LinkService) ListLinks(ctx context.Context, userID string, params ListLinksParams) ([]*domain.Link, error) {
	links, err := s.store.ListLinks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}

	return lo.Filter(links, func(link *domain.Link, _ int) bool {
		if !params.IncludeArchived && link.IsArchived {
			return false
		}
		if params.UnreadOnly && link.IsRead {
			return false
		}
		if params.TagID != "" && !link.HasTag(params.TagID) {
			return false
		}
		return true
	}), nil
}

// UpdateLinkRequest contains a partial link update. Nil fields are left
// unchanged.
type UpdateLinkRequest struct {
	Title        *string `json:"title,omitempty" validate:"omitempty,max=500"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	IsRead       *bool   `json:"is_read,omitempty"`
	IsArchived   *bool   `json:"is_archived,omitempty"`
	IsBookmarked *bool   `json:"is_bookmarked,omitempty"`
	IsPinned     *bool   `json:"is_pinned,omitempty"`
	Priority     *int    `json:"priority,omitempty" validate:"omitempty,gte=0,lte=3"`
}

// UpdateLink applies a partial update to a link.
func (s *LinkService) UpdateLink(ctx context.Context, userID, linkID string, req UpdateLinkRequest) (*domain.Link, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	link, err := s.GetLink(ctx, userID, linkID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		link.Title = *req.Title
	}
	if req.Description != nil {
		link.Description = *req.Description
	}
	if req.IsRead != nil {
		link.IsRead = *req.IsRead
	}
	if req.IsArchived != nil {
		link.IsArchived = *req.IsArchived
		if link.IsArchived {
			link.Status = domain.LinkStatusArchived
		} else {
			link.Status = domain.LinkStatusActive
		}
	}
	if req.IsBookmarked != nil {
		link.IsBookmarked = *req.IsBookmarked
	}
	if req.IsPinned != nil {
		link.IsPinned = *req.IsPinned
	}
	if req.Priority != nil {
		link.Priority = *req.Priority
	}
	link.Touch()

	if err := s.store.UpdateLink(ctx, link); err != nil {
		return nil, fmt.Errorf("update link: %w", err)
	}

	return link, nil
}

// AttachTagRequest names the tag to attach.
type AttachTagRequest struct {
	Name string `json:"name" validate:"required,min=1,max=30"`
}

// AttachTag adds a tag to a link by name, creating the tag when missing.
func (s *LinkService) AttachTag(ctx context.Context, user *domain.User, linkID string, req AttachTagRequest) (*domain.Link, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	link, err := s.GetLink(ctx, user.ID, linkID)
	if err != nil {
		return nil, err
	}

	tag, err := s.tagService.FindOrCreateTag(ctx, user, req.Name)
	if err != nil {
		return nil, err
	}

	if link.HasTag(tag.ID) {
		return link, nil
	}

	link.AddTag(tag.ID)
	link.Touch()

	if err := s.store.UpdateLink(ctx, link); err != nil {
		return nil, fmt.Errorf("update link: %w", err)
	}
	if err := s.store.AdjustTagLinkCount(ctx, user.ID, tag.ID, 1); err != nil {
		s.logger.Warn("failed to bump tag link count", "tag_id", tag.ID, "error", err)
	}

	return link, nil
}

// DetachTag removes a tag from a link. The tag itself is kept.
func (s *LinkService) DetachTag(ctx context.Context, userID, linkID, tagID string) (*domain.Link, error) {
	link, err := s.GetLink(ctx, userID, linkID)
	if err != nil {
		return nil, err
	}

	if !link.HasTag(tagID) {
		return link, nil
	}

	link.RemoveTag(tagID)
	link.Touch()

	if err := s.store.UpdateLink(ctx, link); err != nil {
		return nil, fmt.Errorf("update link: %w", err)
	}
	if err := s.store.AdjustTagLinkCount(ctx, userID, tagID, -1); err != nil {
		s.logger.Warn("failed to drop tag link count", "tag_id", tagID, "error", err)
	}

	return link, nil
}

// DeleteLink removes a link and decrements its tags' link counts.
func (s *LinkService) DeleteLink(ctx context.Context, userID, linkID string) error {
	link, err := s.GetLink(ctx, userID, linkID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteLink(ctx, userID, linkID); err != nil {
		return fmt.Errorf("delete link: %w", err)
	}

	for _, tagID := range link.TagIDs {
		if err := s.store.AdjustTagLinkCount(ctx, userID, tagID, -1); err != nil {
			s.logger.Warn("failed to drop tag link count", "tag_id", tagID, "error", err)
		}
	}

	return nil
}

// resolveTagNames maps tag names to IDs, creating missing tags.
func (s *LinkService) resolveTagNames(ctx context.Context, user *domain.User, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	tagIDs := make([]string, 0, len(names))
	seen := make(map[string]bool)
	for _, name := range names {
		tag, err := s.tagService.FindOrCreateTag(ctx, user, name)
		if err != nil {
			return nil, err
		}
		if seen[tag.ID] {
			continue
		}
		seen[tag.ID] = true
		tagIDs = append(tagIDs, tag.ID)
	}
	return tagIDs, nil
}
