package models

import "time"

// Topic lifecycle statuses
const (
	StatusNotStarted = "NOT_STARTED"
	StatusCompleted  = "COMPLETED"
)

// ValidStatus reports whether s is a known topic status
func ValidStatus(s string) bool {
	return s == StatusNotStarted || s == StatusCompleted
}

// Topic represents a content idea tracked through production.
// Platform and Category are always populated on API responses.
type Topic struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	PlatformID  string     `json:"platformId"`
	Platform    *Platform  `json:"platform,omitempty"`
	CategoryID  string     `json:"categoryId"`
	Category    *Category  `json:"category,omitempty"`
	Status      string     `json:"status"`
	IsPublished bool       `json:"isPublished"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt"`
}

// CreateTopicRequest is the POST /api/topics body
type CreateTopicRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	PlatformID  string  `json:"platformId"`
	CategoryID  string  `json:"categoryId"`
}

// UpdateTopicRequest is the PATCH /api/topics/:id body.
// Pointer fields distinguish "absent" from zero values.
type UpdateTopicRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	PlatformID  *string `json:"platformId"`
	CategoryID  *string `json:"categoryId"`
	Status      *string `json:"status"`
	IsPublished *bool   `json:"isPublished"`
}

// TopicFilter holds the optional equality filters for topic listing
type TopicFilter struct {
	Status     string
	PlatformID string
	CategoryID string
}
