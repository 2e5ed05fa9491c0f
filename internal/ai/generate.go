package ai

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"net/http"

	"github.com/linkstashapp/linkstash-server/internal/domain"
)

// generateContentRequest is the wire format of a generateContent call.
type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// GenerateResult carries the model output and the token count billed for it.
type GenerateResult struct {
	Tags       []string
	TokensUsed int
}

// GenerateTags asks the model for tags describing the given content.
func (c *Client) GenerateTags(ctx context.Context, input TagInput, maxTags int) (*GenerateResult, error) {
	prompt := BuildTagPrompt(input, maxTags)

	text, tokens, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	tags := ParseTagList(text, maxTags)
	c.logger.Debug("generated tags", "count", len(tags), "tokens", tokens)

	return &GenerateResult{Tags: tags, TokensUsed: tokens}, nil
}

// ExtractEntities asks the model for salient proper nouns in the content.
func (c *Client) ExtractEntities(ctx context.Context, input TagInput, maxEntities int) (*GenerateResult, error) {
	prompt := BuildEntityPrompt(input, maxEntities)

	text, tokens, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	entities := ParseTagList(text, maxEntities)
	c.logger.Debug("extracted entities", "count", len(entities), "tokens", tokens)

	return &GenerateResult{Tags: entities, TokensUsed: tokens}, nil
}

// generate performs one generateContent call and returns the first candidate
// text plus the token count. Token usage comes from the response metadata when
// present, otherwise it is estimated from the prompt and response lengths.
func (c *Client) generate(ctx context.Context, prompt string) (string, int, error) {
	if !c.Enabled() {
		return "", 0, fmt.Errorf("ai client not configured")
	}

	if err := c.wait(ctx); err != nil {
		return "", 0, fmt.Errorf("rate limit wait: %w", err)
	}

	reqBody := generateContentRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.cfg.BaseURL, c.cfg.Model, c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("calling model", "model", c.cfg.Model, "prompt_chars", len(prompt))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("model request failed: status %d", resp.StatusCode)
	}

	var genResp generateContentResponse
	if err := json.UnmarshalRead(resp.Body, &genResp); err != nil {
		return "", 0, fmt.Errorf("parse response: %w", err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", 0, fmt.Errorf("model returned no candidates")
	}

	text := genResp.Candidates[0].Content.Parts[0].Text

	tokens := 0
	if genResp.UsageMetadata != nil && genResp.UsageMetadata.TotalTokenCount > 0 {
		tokens = genResp.UsageMetadata.TotalTokenCount
	} else {
		tokens = domain.EstimateTokens(prompt) + domain.EstimateTokens(text)
	}

	return text, tokens, nil
}
