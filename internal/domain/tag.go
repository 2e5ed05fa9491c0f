package domain

import "time"

// Tag is a user-scoped label applied to links.
// Tags are created lazily the first time they are applied and carry a
// denormalized link count. LastUsedAt drives least-recently-used eviction
// when a plan downgrade enforces the free tag ceiling.
type Tag struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	LinkCount  int       `json:"link_count"`
	LastUsedAt time.Time `json:"last_used_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (t *Tag) Touch() {
	t.UpdatedAt = time.Now()
}

// MarkUsed records that the tag was just applied to a link.
func (t *Tag) MarkUsed() {
	t.LastUsedAt = time.Now()
	t.Touch()
}
