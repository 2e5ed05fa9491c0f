package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/linkstashapp/linkstash-server/internal/domain"
	domainerrors "github.com/linkstashapp/linkstash-server/internal/errors"
	"github.com/linkstashapp/linkstash-server/internal/id"
	"github.com/linkstashapp/linkstash-server/internal/store"
)

// TagService manages a user's tag vocabulary, including the plan ceiling
// and least-recently-used eviction on downgrade.
type TagService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store *store.Store, logger *slog.Logger) *TagService {
	return &TagService{store: store, logger: logger}
}

// ListTags returns all tags of a user, most used first.
func (s *TagService) ListTags(ctx context.Context, userID string) ([]*domain.Tag, error) {
	return s.store.ListTags(ctx, userID)
}

// GetTag returns one tag.
func (s *TagService) GetTag(ctx context.Context, userID, tagID string) (*domain.Tag, error) {
	tag, err := s.store.GetTag(ctx, userID, tagID)
	if err != nil {
		if errors.Is(err, store.ErrTagNotFound) {
			return nil, domainerrors.NotFound("tag not found")
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return tag, nil
}

// CreateTagRequest contains new tag data.
type CreateTagRequest struct {
	Name string `json:"name" validate:"required,min=1,max=30"`
}

// CreateTag creates a tag, enforcing the plan's tag ceiling.
func (s *TagService) CreateTag(ctx context.Context, user *domain.User, req CreateTagRequest) (*domain.Tag, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	if err := s.checkTagCeiling(ctx, user); err != nil {
		return nil, err
	}

	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, fmt.Errorf("generate tag ID: %w", err)
	}

	now := time.Now()
	tag := &domain.Tag{
		ID:        tagID,
		UserID:    user.ID,
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateTag(ctx, tag); err != nil {
		if errors.Is(err, store.ErrTagExists) {
			return nil, domainerrors.AlreadyExists("tag already exists")
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}

	return tag, nil
}

// FindOrCreateTag resolves a tag name to a tag, creating it when missing.
// New tags count against the plan ceiling; resolving an existing tag never
// fails the ceiling check.
func (s *TagService) FindOrCreateTag(ctx context.Context, user *domain.User, name string) (*domain.Tag, error) {
	existing, err := s.store.GetTagByName(ctx, user.ID, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrTagNotFound) {
		return nil, fmt.Errorf("lookup tag: %w", err)
	}

	if err := s.checkTagCeiling(ctx, user); err != nil {
		return nil, err
	}

	tag, _, err := s.store.FindOrCreateTag(ctx, user.ID, name)
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return tag, nil
}

// RenameTagRequest contains the new name for a tag.
type RenameTagRequest struct {
	Name string `json:"name" validate:"required,min=1,max=30"`
}

// RenameTag changes a tag's display name.
func (s *TagService) RenameTag(ctx context.Context, userID, tagID string, req RenameTagRequest) (*domain.Tag, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	tag, err := s.store.GetTag(ctx, userID, tagID)
	if err != nil {
		if errors.Is(err, store.ErrTagNotFound) {
			return nil, domainerrors.NotFound("tag not found")
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}

	tag.Name = req.Name
	tag.Touch()

	if err := s.store.UpdateTag(ctx, tag); err != nil {
		if errors.Is(err, store.ErrTagExists) {
			return nil, domainerrors.Conflict("a tag with that name already exists")
		}
		return nil, fmt.Errorf("update tag: %w", err)
	}

	return tag, nil
}

// DeleteTag removes a tag and detaches it from every link that carries it.
func (s *TagService) DeleteTag(ctx context.Context, userID, tagID string) error {
	if _, err := s.store.GetTag(ctx, userID, tagID); err != nil {
		if errors.Is(err, store.ErrTagNotFound) {
			return domainerrors.NotFound("tag not found")
		}
		return fmt.Errorf("get tag: %w", err)
	}

	if err := s.detachTagFromLinks(ctx, userID, tagID); err != nil {
		return err
	}

	if err := s.store.DeleteTag(ctx, userID, tagID); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	return nil
}

// EnforceTagLimit evicts least-recently-used tags until the user is within
// the plan's tag ceiling. Called on plan downgrade; links keep their other
// tags.
func (s *TagService) EnforceTagLimit(ctx context.Context, userID string, plan domain.Plan) (int, error) {
	limits := plan.Limits()
	if limits.MaxTags <= 0 {
		return 0, nil
	}

	tags, err := s.store.ListTags(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list tags: %w", err)
	}
	if len(tags) <= limits.MaxTags {
		return 0, nil
	}

	// Never-used tags (zero LastUsedAt) sort first, then oldest use.
	slices.SortFunc(tags, func(a, b *domain.Tag) int {
		if c := a.LastUsedAt.Compare(b.LastUsedAt); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	evicted := 0
	for _, tag := range tags[:len(tags)-limits.MaxTags] {
		if err := s.detachTagFromLinks(ctx, userID, tag.ID); err != nil {
			return evicted, err
		}
		if err := s.store.DeleteTag(ctx, userID, tag.ID); err != nil {
			return evicted, fmt.Errorf("evict tag %s: %w", tag.ID, err)
		}
		evicted++
	}

	s.logger.Info("evicted tags for plan limit",
		"user_id", userID,
		"plan", plan,
		"evicted", evicted,
	)
	return evicted, nil
}

// detachTagFromLinks removes the tag ID from every link carrying it.
func (s *TagService) detachTagFromLinks(ctx context.Context, userID, tagID string) error {
	links, err := s.store.ListLinks(ctx, userID)
	if err != nil {
		return fmt.Errorf("list links: %w", err)
	}

	for _, link := range links {
		if !link.HasTag(tagID) {
			continue
		}
		link.RemoveTag(tagID)
		link.Touch()
		if err := s.store.UpdateLink(ctx, link); err != nil {
			return fmt.Errorf("detach tag from link %s: %w", link.ID, err)
		}
	}
	return nil
}

// checkTagCeiling rejects tag creation beyond the plan's MaxTags.
func (s *TagService) checkTagCeiling(ctx context.Context, user *domain.User) error {
	limits := user.Plan.Limits()
	if limits.MaxTags <= 0 {
		return nil
	}

	count, err := s.store.CountTags(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("count tags: %w", err)
	}
	if count >= limits.MaxTags {
		return domainerrors.Forbidden(
			fmt.Sprintf("tag limit reached for %s plan (%d)", user.Plan, limits.MaxTags),
		)
	}
	return nil
}
