package domain

import "time"

// UsageType identifies what kind of AI invocation a usage record covers.
type UsageType string

// Usage record types.
const (
	UsageTypeTagGeneration    UsageType = "tag_generation"
	UsageTypeEntityExtraction UsageType = "entity_extraction"
)

// UsageRecord is one row per AI invocation.
// Tokens comes from the provider's reported count when available and a
// chars/4 estimate otherwise.
type UsageRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      UsageType `json:"type"`
	Tokens    int       `json:"tokens"`
	Cost      float64   `json:"cost"`
	Day       string    `json:"day"`   // 2006-01-02
	Month     string    `json:"month"` // 2006-01
	CreatedAt time.Time `json:"created_at"`
}

// UsageSummary aggregates AI usage per (user, month).
// Counters only ever increase; quota checks read them before paid calls.
type UsageSummary struct {
	UserID        string         `json:"user_id"`
	Month         string         `json:"month"`
	TotalRequests int            `json:"total_requests"`
	TotalTokens   int            `json:"total_tokens"`
	TotalCost     float64        `json:"total_cost"`
	DailyRequests map[string]int `json:"daily_requests,omitempty"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// RequestsOn returns the request count recorded for a given day key.
func (s *UsageSummary) RequestsOn(day string) int {
	if s == nil || s.DailyRequests == nil {
		return 0
	}
	return s.DailyRequests[day]
}

// MonthKey formats t as a usage summary month bucket.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// DayKey formats t as a usage record day bucket.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// EstimateTokens approximates a token count for prompt text when the
// provider does not report one. Roughly four characters per token.
func EstimateTokens(text string) int {
	n := len(text) / 4
	if n == 0 && len(text) > 0 {
		n = 1
	}
	return n
}
