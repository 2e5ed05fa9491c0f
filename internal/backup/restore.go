package backup

import (
	"archive/zip"
	"bufio"
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/linkstashapp/linkstash-server/internal/domain"
	"github.com/linkstashapp/linkstash-server/internal/store"
)

// RestoreService applies backup archives to the data store.
type RestoreService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewRestoreService creates a RestoreService.
func NewRestoreService(s *store.Store, logger *slog.Logger) *RestoreService {
	return &RestoreService{store: s, logger: logger}
}

// ReadManifest extracts and validates the manifest from an archive.
func ReadManifest(path string) (*Manifest, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != manifestFile {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		var manifest Manifest
		if err := json.UnmarshalRead(rc, &manifest); err != nil {
			return nil, fmt.Errorf("%w: bad manifest: %v", ErrInvalidArchive, err)
		}
		if !strings.HasPrefix(manifest.Version, "1.") {
			return nil, fmt.Errorf("%w: %s", ErrVersionMismatch, manifest.Version)
		}
		return &manifest, nil
	}
	return nil, fmt.Errorf("%w: missing manifest", ErrInvalidArchive)
}

// Restore applies an archive to the store.
//
// Restore order is users, tags, links, subscriptions, usage, so references
// are always resolvable. Merge mode keeps existing records on conflict; full
// mode replaces them with the backup's version.
func (s *RestoreService) Restore(ctx context.Context, path string, opts RestoreOptions) (*RestoreResult, error) {
	if !opts.Mode.Valid() {
		return nil, fmt.Errorf("invalid restore mode %q", opts.Mode)
	}

	manifest, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer zr.Close()

	start := time.Now()
	result := &RestoreResult{
		Imported: make(map[string]int),
		Skipped:  make(map[string]int),
	}

	s.logger.Info("restoring backup",
		"path", path,
		"mode", opts.Mode,
		"dry_run", opts.DryRun,
		"backup_created_at", manifest.CreatedAt)

	if err := s.restoreUsers(ctx, zr, opts, result); err != nil {
		return nil, err
	}
	if err := s.restoreTags(ctx, zr, opts, result); err != nil {
		return nil, err
	}
	if err := s.restoreLinks(ctx, zr, opts, result); err != nil {
		return nil, err
	}
	if err := s.restoreSubscriptions(ctx, zr, opts, result); err != nil {
		return nil, err
	}
	if err := s.restoreUsage(ctx, zr, opts, result); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)

	s.logger.Info("restore complete",
		"imported", result.Imported,
		"skipped", result.Skipped,
		"duration", result.Duration)

	return result, nil
}

func (s *RestoreService) restoreUsers(ctx context.Context, zr *zip.ReadCloser, opts RestoreOptions, result *RestoreResult) error {
	return eachLine(zr, usersFile, func(line []byte) error {
		var u domain.User
		if err := json.Unmarshal(line, &u); err != nil {
			return fmt.Errorf("%w: bad user record: %v", ErrInvalidArchive, err)
		}
		if opts.DryRun {
			result.Imported["users"]++
			return nil
		}

		err := s.store.CreateUser(ctx, &u)
		if errors.Is(err, store.ErrUserExists) {
			if opts.Mode == RestoreModeMerge {
				result.Skipped["users"]++
				return nil
			}
			err = s.store.UpdateUser(ctx, &u)
		}
		if err != nil {
			return fmt.Errorf("restore user %s: %w", u.ID, err)
		}
		result.Imported["users"]++
		return nil
	})
}

func (s *RestoreService) restoreTags(ctx context.Context, zr *zip.ReadCloser, opts RestoreOptions, result *RestoreResult) error {
	return eachLine(zr, tagsFile, func(line []byte) error {
		var tag domain.Tag
		if err := json.Unmarshal(line, &tag); err != nil {
			return fmt.Errorf("%w: bad tag record: %v", ErrInvalidArchive, err)
		}
		if opts.DryRun {
			result.Imported["tags"]++
			return nil
		}

		err := s.store.CreateTag(ctx, &tag)
		if errors.Is(err, store.ErrTagExists) {
			if opts.Mode == RestoreModeMerge {
				result.Skipped["tags"]++
				return nil
			}
			err = s.store.UpdateTag(ctx, &tag)
		}
		if err != nil {
			return fmt.Errorf("restore tag %s: %w", tag.ID, err)
		}
		result.Imported["tags"]++
		return nil
	})
}

func (s *RestoreService) restoreLinks(ctx context.Context, zr *zip.ReadCloser, opts RestoreOptions, result *RestoreResult) error {
	return eachLine(zr, linksFile, func(line []byte) error {
		var link domain.Link
		if err := json.Unmarshal(line, &link); err != nil {
			return fmt.Errorf("%w: bad link record: %v", ErrInvalidArchive, err)
		}
		if opts.DryRun {
			result.Imported["links"]++
			return nil
		}

		existing, err := s.store.GetLinkByURL(ctx, link.UserID, link.URL)
		if err == nil {
			if opts.Mode == RestoreModeMerge {
				result.Skipped["links"]++
				return nil
			}
			// Replace so the URL index points at exactly one record.
			if err := s.store.DeleteLink(ctx, link.UserID, existing.ID); err != nil {
				return fmt.Errorf("replace link %s: %w", existing.ID, err)
			}
		} else if !errors.Is(err, store.ErrLinkNotFound) {
			return fmt.Errorf("lookup link %s: %w", link.URL, err)
		}

		if err := s.store.CreateLink(ctx, &link); err != nil {
			return fmt.Errorf("restore link %s: %w", link.ID, err)
		}
		result.Imported["links"]++
		return nil
	})
}

func (s *RestoreService) restoreSubscriptions(ctx context.Context, zr *zip.ReadCloser, opts RestoreOptions, result *RestoreResult) error {
	return eachLine(zr, subscriptionsFile, func(line []byte) error {
		var sub domain.Subscription
		if err := json.Unmarshal(line, &sub); err != nil {
			return fmt.Errorf("%w: bad subscription record: %v", ErrInvalidArchive, err)
		}
		if opts.DryRun {
			result.Imported["subscriptions"]++
			return nil
		}

		if opts.Mode == RestoreModeMerge {
			if _, err := s.store.GetSubscription(ctx, sub.UserID); err == nil {
				result.Skipped["subscriptions"]++
				return nil
			}
		}

		if err := s.store.PutSubscription(ctx, &sub); err != nil {
			return fmt.Errorf("restore subscription for %s: %w", sub.UserID, err)
		}
		result.Imported["subscriptions"]++
		return nil
	})
}

// restoreUsage replays usage records per user, but only into users with no
// recorded usage. Replaying on top of existing records would double the
// monthly summaries the quota checks read.
func (s *RestoreService) restoreUsage(ctx context.Context, zr *zip.ReadCloser, opts RestoreOptions, result *RestoreResult) error {
	usageAllowed := make(map[string]bool)

	return eachLine(zr, usageFile, func(line []byte) error {
		var rec domain.UsageRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("%w: bad usage record: %v", ErrInvalidArchive, err)
		}
		if opts.DryRun {
			result.Imported["usage_records"]++
			return nil
		}

		allowed, checked := usageAllowed[rec.UserID]
		if !checked {
			existing, err := s.store.ListAllUsageRecords(ctx, rec.UserID)
			if err != nil {
				return fmt.Errorf("check usage for %s: %w", rec.UserID, err)
			}
			allowed = len(existing) == 0
			usageAllowed[rec.UserID] = allowed
		}
		if !allowed {
			result.Skipped["usage_records"]++
			return nil
		}

		if err := s.store.RecordUsage(ctx, &rec); err != nil {
			return fmt.Errorf("restore usage %s: %w", rec.ID, err)
		}
		result.Imported["usage_records"]++
		return nil
	})
}

// eachLine streams one jsonl entry from the archive at a time. A missing
// entity file is fine; older backups may not carry every entity.
func eachLine(zr *zip.ReadCloser, name string, fn func(line []byte) error) error {
	var file *zip.File
	for _, f := range zr.File {
		if f.Name == name {
			file = f
			break
		}
	}
	if file == nil {
		return nil
	}

	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return err
	}
	return nil
}
