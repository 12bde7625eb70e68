package services

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"contentdeck/internal/database"
	"contentdeck/internal/models"

	"github.com/google/uuid"
)

// Acceptance failure conditions
var (
	ErrIdeaNotFound          = errors.New("generated idea not found")
	ErrIdeaMissingSuggestion = errors.New("generated idea missing platform or category")
	ErrIdeaAlreadyAccepted   = errors.New("generated idea already accepted")
)

// IdeaService handles generated-idea persistence and acceptance
type IdeaService struct {
	db       *database.DB
	topicSvc *TopicService
}

// NewIdeaService creates a new idea service
func NewIdeaService(db *database.DB, topicSvc *TopicService) *IdeaService {
	return &IdeaService{db: db, topicSvc: topicSvc}
}

const ideaSelect = `
	SELECT i.id, i.content, i.suggested_platform_id, i.suggested_category_id,
	       i.is_accepted, i.accepted_as_topic_id, i.created_at,
	       p.id, p.name, p.created_at,
	       c.id, c.name, c.created_at
	FROM generated_ideas i
	LEFT JOIN platforms p ON p.id = i.suggested_platform_id
	LEFT JOIN categories c ON c.id = i.suggested_category_id
`

func scanIdea(row rowScanner) (*models.GeneratedIdea, error) {
	var i models.GeneratedIdea
	var platformID, categoryID, topicID sql.NullString
	var pID, pName, cID, cName sql.NullString
	var pCreated, cCreated sql.NullTime

	err := row.Scan(
		&i.ID, &i.Content, &platformID, &categoryID,
		&i.IsAccepted, &topicID, &i.CreatedAt,
		&pID, &pName, &pCreated,
		&cID, &cName, &cCreated,
	)
	if err != nil {
		return nil, err
	}

	if platformID.Valid {
		i.SuggestedPlatformID = &platformID.String
	}
	if categoryID.Valid {
		i.SuggestedCategoryID = &categoryID.String
	}
	if topicID.Valid {
		i.AcceptedAsTopicID = &topicID.String
	}
	if pID.Valid {
		i.SuggestedPlatform = &models.Platform{ID: pID.String, Name: pName.String, CreatedAt: pCreated.Time}
	}
	if cID.Valid {
		i.SuggestedCategory = &models.Category{ID: cID.String, Name: cName.String, CreatedAt: cCreated.Time}
	}

	return &i, nil
}

// ListPending returns all unaccepted ideas, newest first
func (s *IdeaService) ListPending() ([]models.GeneratedIdea, error) {
	rows, err := s.db.Query(ideaSelect + " WHERE i.is_accepted = 0 ORDER BY i.created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query generated ideas: %w", err)
	}
	defer rows.Close()

	var ideas []models.GeneratedIdea
	for rows.Next() {
		i, err := scanIdea(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generated idea: %w", err)
		}
		ideas = append(ideas, *i)
	}

	return ideas, nil
}

// GetByID returns a generated idea by ID
func (s *IdeaService) GetByID(id string) (*models.GeneratedIdea, error) {
	i, err := scanIdea(s.db.QueryRow(ideaSelect+" WHERE i.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, ErrIdeaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query generated idea: %w", err)
	}
	return i, nil
}

// Create persists a validated candidate as a pending idea
func (s *IdeaService) Create(content, suggestedPlatformID, suggestedCategoryID string) (*models.GeneratedIdea, error) {
	id := uuid.New().String()

	_, err := s.db.Exec(`
		INSERT INTO generated_ideas (id, content, suggested_platform_id, suggested_category_id, is_accepted, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, content, suggestedPlatformID, suggestedCategoryID, false, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create generated idea: %w", err)
	}

	return s.GetByID(id)
}

// Accept promotes a generated idea into a topic. The idea's content is
// split at the first blank line into title and description; the accept
// transition is a conditional update so concurrent calls cannot consume
// the same idea twice.
func (s *IdeaService) Accept(id string) (*models.Topic, error) {
	idea, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if idea.IsAccepted {
		return nil, ErrIdeaAlreadyAccepted
	}
	if idea.SuggestedPlatformID == nil || idea.SuggestedCategoryID == nil {
		return nil, ErrIdeaMissingSuggestion
	}

	title, description := SplitIdeaContent(idea.Content)

	topic, err := s.topicSvc.Create(models.CreateTopicRequest{
		Title:       title,
		Description: description,
		PlatformID:  *idea.SuggestedPlatformID,
		CategoryID:  *idea.SuggestedCategoryID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create topic from idea: %w", err)
	}

	result, err := s.db.Exec(`
		UPDATE generated_ideas
		SET is_accepted = 1, accepted_as_topic_id = ?
		WHERE id = ? AND is_accepted = 0
	`, topic.ID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to mark idea accepted: %w", err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		// Lost a concurrent accept race; undo our topic so only one survives
		if delErr := s.topicSvc.Delete(topic.ID); delErr != nil {
			log.Printf("⚠️ Failed to undo topic %s after lost accept race: %v", topic.ID, delErr)
		}
		return nil, ErrIdeaAlreadyAccepted
	}

	if m := GetMetrics(); m != nil {
		m.IdeasAccepted.Inc()
	}

	return topic, nil
}

// SplitIdeaContent splits idea content at the first blank line. The part
// before is the title; the rest becomes the description (nil when empty).
func SplitIdeaContent(content string) (string, *string) {
	parts := strings.SplitN(content, "\n\n", 2)
	title := strings.TrimSpace(parts[0])

	if len(parts) < 2 {
		return title, nil
	}

	description := strings.TrimSpace(parts[1])
	if description == "" {
		return title, nil
	}
	return title, &description
}

// DeleteAcceptedBefore purges accepted ideas created before the cutoff.
// Pending ideas are never touched.
func (s *IdeaService) DeleteAcceptedBefore(cutoff time.Time) (int64, error) {
	result, err := s.db.Exec(`
		DELETE FROM generated_ideas
		WHERE is_accepted = 1 AND created_at < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge accepted ideas: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}
