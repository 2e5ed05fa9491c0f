package domain

import "time"

// LinkStatus tracks the lifecycle of a saved link.
type LinkStatus string

// Link statuses.
const (
	LinkStatusActive   LinkStatus = "active"
	LinkStatusArchived LinkStatus = "archived"
)

// Link is a URL saved by a user, optionally annotated with tags.
// Links are owned by exactly one user and are only removed by an explicit
// delete or by plan-downgrade cleanup.
type Link struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	URL          string     `json:"url"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	TagIDs       []string   `json:"tag_ids,omitempty"`
	Status       LinkStatus `json:"status"`
	IsRead       bool       `json:"is_read"`
	IsArchived   bool       `json:"is_archived"`
	IsBookmarked bool       `json:"is_bookmarked"`
	IsPinned     bool       `json:"is_pinned"`
	Priority     int        `json:"priority"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (l *Link) Touch() {
	l.UpdatedAt = time.Now()
}

// HasTag reports whether the link already carries the given tag.
func (l *Link) HasTag(tagID string) bool {
	for _, id := range l.TagIDs {
		if id == tagID {
			return true
		}
	}
	return false
}

// AddTag appends a tag ID if not already present.
func (l *Link) AddTag(tagID string) {
	if !l.HasTag(tagID) {
		l.TagIDs = append(l.TagIDs, tagID)
	}
}

// RemoveTag removes a tag ID if present.
func (l *Link) RemoveTag(tagID string) {
	for i, id := range l.TagIDs {
		if id == tagID {
			l.TagIDs = append(l.TagIDs[:i], l.TagIDs[i+1:]...)
			return
		}
	}
}
