package models

import "time"

// GeneratedIdea is an AI-proposed topic candidate awaiting acceptance.
// Content packs title and description separated by a blank line.
type GeneratedIdea struct {
	ID                  string    `json:"id"`
	Content             string    `json:"content"`
	SuggestedPlatformID *string   `json:"suggestedPlatformId"`
	SuggestedPlatform   *Platform `json:"suggestedPlatform,omitempty"`
	SuggestedCategoryID *string   `json:"suggestedCategoryId"`
	SuggestedCategory   *Category `json:"suggestedCategory,omitempty"`
	IsAccepted          bool      `json:"isAccepted"`
	AcceptedAsTopicID   *string   `json:"acceptedAsTopicId"`
	CreatedAt           time.Time `json:"createdAt"`
}

// GenerateRequest is the POST /api/generate body
type GenerateRequest struct {
	Count int `json:"count"`
}
