package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/linkstashapp/linkstash-server/internal/ai"
	"github.com/linkstashapp/linkstash-server/internal/domain"
	domainerrors "github.com/linkstashapp/linkstash-server/internal/errors"
	"github.com/linkstashapp/linkstash-server/internal/fetch"
	"github.com/linkstashapp/linkstash-server/internal/keywords"
	"github.com/linkstashapp/linkstash-server/internal/store"
	"github.com/linkstashapp/linkstash-server/internal/tagging"
)

// minAIContentRunes is the combined text length below which the pipeline
// skips the model entirely. There is not enough signal to be worth a paid
// call; the fixed vocabulary handles short inputs.
const minAIContentRunes = 40

// SuggestService runs the tag suggestion pipeline: cache, content fetch,
// heuristics, quota-gated model calls, and merge.
type SuggestService struct {
	store   *store.Store
	fetcher *fetch.Fetcher
	ai      *ai.Client
	usage   *UsageService
	logger  *slog.Logger
}

// NewSuggestService creates a new suggestion service. fetcher and aiClient
// may be nil; the pipeline degrades to heuristics.
func NewSuggestService(
	store *store.Store,
	fetcher *fetch.Fetcher,
	aiClient *ai.Client,
	usage *UsageService,
	logger *slog.Logger,
) *SuggestService {
	return &SuggestService{
		store:   store,
		fetcher: fetcher,
		ai:      aiClient,
		usage:   usage,
		logger:  logger,
	}
}

// SuggestRequest contains the content to suggest tags for.
type SuggestRequest struct {
	URL         string `json:"url" validate:"required,http_url,max=2048"`
	Title       string `json:"title" validate:"max=500"`
	Description string `json:"description" validate:"max=2000"`
}

// SuggestResponse is the pipeline output.
type SuggestResponse struct {
	Tags       []string `json:"tags"`
	FromCache  bool     `json:"from_cache"`
	TokensUsed int      `json:"tokens_used"`
	Cost       float64  `json:"cost"`
}

// Suggest produces up to the plan's MaxSuggestedTags tags for a URL.
//
// The cache is checked against the caller-provided title and description
// before any fetching, so repeat requests cost nothing. Fetch and model
// failures never fail the request; the pipeline degrades to domain tags
// and heuristics. A quota denial on the paid path returns QUOTA_EXCEEDED
// with the reason instead of degraded tags. Results are only cached when
// the model answered or was never needed, so a degraded answer cannot
// mask a recovered model for the cache TTL.
func (s *SuggestService) Suggest(ctx context.Context, user *domain.User, req SuggestRequest) (*SuggestResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	limits := user.Plan.Limits()
	maxTags := limits.MaxSuggestedTags

	contentHash := tagging.CacheKey(user.ID, req.Title, req.Description)
	if entry, err := s.store.GetSuggestionCache(ctx, user.ID, contentHash); err == nil {
		if touchErr := s.store.TouchSuggestionCache(ctx, user.ID, contentHash); touchErr != nil {
			s.logger.Warn("failed to touch suggestion cache", "error", touchErr)
		}
		tags := entry.Tags
		if len(tags) > maxTags {
			tags = tags[:maxTags]
		}
		return &SuggestResponse{Tags: tags, FromCache: true}, nil
	} else if !errors.Is(err, store.ErrCacheMiss) {
		s.logger.Warn("suggestion cache read failed", "error", err)
	}

	title, description := req.Title, req.Description
	var excerpt string
	var pageKeywords []string

	// Fetch failures are expected (paywalls, bot blocks, dead links) and
	// never fail the request.
	if s.fetcher != nil {
		if result, fetchErr := s.fetcher.Fetch(ctx, req.URL); fetchErr != nil {
			s.logger.Debug("content fetch failed", "url", req.URL, "error", fetchErr)
		} else {
			if title == "" {
				title = result.Title
			}
			if description == "" {
				description = result.Description
			}
			excerpt = result.Excerpt
			pageKeywords = result.Keywords
		}
	}

	domainTags := tagging.ClassifyDomain(req.URL, title, s.logger)
	heuristics := keywords.Extract(title, description)

	combined := strings.TrimSpace(title + " " + description + " " + excerpt)

	var aiTags, entities []string
	tokensUsed := 0
	cost := 0.0

	aiWanted := utf8.RuneCountInString(combined) >= minAIContentRunes
	aiGenerated := false

	if s.ai != nil && s.ai.Enabled() && aiWanted {
		// The check precedes the paid call only; heuristics stay free.
		quota, quotaErr := s.usage.CheckQuota(ctx, user.ID, user.Plan)
		if quotaErr != nil {
			return nil, fmt.Errorf("check quota: %w", quotaErr)
		}
		if !quota.Allowed {
			return nil, domainerrors.QuotaExceeded(quota.Reason)
		}

		input := ai.TagInput{
			URL:         req.URL,
			Title:       title,
			Description: description,
			Excerpt:     excerpt,
			Keywords:    heuristics,
		}

		if result, genErr := s.ai.GenerateTags(ctx, input, maxTags); genErr != nil {
			s.logger.Warn("tag generation failed, using fallback", "error", genErr)
		} else {
			aiGenerated = true
			aiTags = result.Tags
			tokensUsed += result.TokensUsed
			cost += limits.CostPerRequest
			if recErr := s.usage.Record(ctx, user.ID, domain.UsageTypeTagGeneration, result.TokensUsed, user.Plan); recErr != nil {
				s.logger.Error("failed to record usage", "error", recErr)
			}

			if entResult, entErr := s.ai.ExtractEntities(ctx, input, maxTags); entErr != nil {
				s.logger.Warn("entity extraction failed", "error", entErr)
			} else {
				entities = entResult.Tags
				tokensUsed += entResult.TokensUsed
				cost += limits.CostPerRequest
				if recErr := s.usage.Record(ctx, user.ID, domain.UsageTypeEntityExtraction, entResult.TokensUsed, user.Plan); recErr != nil {
					s.logger.Error("failed to record usage", "error", recErr)
				}
			}
		}
	}

	var fallback []string
	if len(aiTags) == 0 {
		fallback = tagging.FallbackTags(combined, maxTags)
	}

	tags := tagging.Merge(maxTags, domainTags, aiTags, entities, fallback, pageKeywords, heuristics)

	// A result the model should have contributed to but didn't (client
	// missing or call failed) is degraded; caching it would pin the
	// degraded tags for the full TTL even after the model recovers.
	if aiGenerated || !aiWanted {
		now := time.Now()
		entry := &domain.SuggestionCacheEntry{
			ContentHash: contentHash,
			Tags:        tags,
			CreatedAt:   now,
			UsageCount:  1,
			LastUsedAt:  now,
		}
		if cacheErr := s.store.PutSuggestionCache(ctx, user.ID, entry); cacheErr != nil {
			s.logger.Warn("failed to write suggestion cache", "error", cacheErr)
		}
	}

	return &SuggestResponse{
		Tags:       tags,
		FromCache:  false,
		TokensUsed: tokensUsed,
		Cost:       cost,
	}, nil
}

// ClearCache drops every cached suggestion of a user.
func (s *SuggestService) ClearCache(ctx context.Context, userID string) (int, error) {
	return s.store.ClearSuggestionCache(ctx, userID)
}
