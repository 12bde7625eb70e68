package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"contentdeck/internal/database"
	"contentdeck/internal/models"

	"github.com/google/uuid"
)

// ErrTopicNotFound is returned when a topic ID does not exist
var ErrTopicNotFound = errors.New("topic not found")

// TopicService handles topic operations
type TopicService struct {
	db          *database.DB
	platformSvc *PlatformService
	categorySvc *CategoryService
}

// NewTopicService creates a new topic service
func NewTopicService(db *database.DB, platformSvc *PlatformService, categorySvc *CategoryService) *TopicService {
	return &TopicService{db: db, platformSvc: platformSvc, categorySvc: categorySvc}
}

const topicSelect = `
	SELECT t.id, t.title, t.description, t.platform_id, t.category_id,
	       t.status, t.is_published, t.created_at, t.updated_at, t.completed_at,
	       p.id, p.name, p.created_at,
	       c.id, c.name, c.created_at
	FROM topics t
	JOIN platforms p ON p.id = t.platform_id
	JOIN categories c ON c.id = t.category_id
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTopic(row rowScanner) (*models.Topic, error) {
	var t models.Topic
	var p models.Platform
	var c models.Category
	var description sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&t.ID, &t.Title, &description, &t.PlatformID, &t.CategoryID,
		&t.Status, &t.IsPublished, &t.CreatedAt, &t.UpdatedAt, &completedAt,
		&p.ID, &p.Name, &p.CreatedAt,
		&c.ID, &c.Name, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		t.Description = &description.String
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	t.Platform = &p
	t.Category = &c

	return &t, nil
}

// List returns topics joined with platform/category, newest first.
// Filter fields are combined with equality AND semantics when set.
func (s *TopicService) List(filter models.TopicFilter) ([]models.Topic, error) {
	query := topicSelect
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, "t.status = ?")
		args = append(args, filter.Status)
	}
	if filter.PlatformID != "" {
		conditions = append(conditions, "t.platform_id = ?")
		args = append(args, filter.PlatformID)
	}
	if filter.CategoryID != "" {
		conditions = append(conditions, "t.category_id = ?")
		args = append(args, filter.CategoryID)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY t.created_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query topics: %w", err)
	}
	defer rows.Close()

	var topics []models.Topic
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		topics = append(topics, *t)
	}

	return topics, nil
}

// ListRecent returns the newest topics up to limit (generation context)
func (s *TopicService) ListRecent(limit int) ([]models.Topic, error) {
	rows, err := s.db.Query(topicSelect+" ORDER BY t.created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent topics: %w", err)
	}
	defer rows.Close()

	var topics []models.Topic
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		topics = append(topics, *t)
	}

	return topics, nil
}

// GetByID returns a topic by ID, joined with platform/category
func (s *TopicService) GetByID(id string) (*models.Topic, error) {
	t, err := scanTopic(s.db.QueryRow(topicSelect+" WHERE t.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, ErrTopicNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query topic: %w", err)
	}
	return t, nil
}

// Create creates a new topic. Status defaults to NOT_STARTED and the
// publish flag to false; both platform and category must exist.
func (s *TopicService) Create(req models.CreateTopicRequest) (*models.Topic, error) {
	if _, err := s.platformSvc.GetByID(req.PlatformID); err != nil {
		return nil, err
	}
	if _, err := s.categorySvc.GetByID(req.CategoryID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	id := uuid.New().String()

	var description interface{}
	if req.Description != nil && *req.Description != "" {
		description = *req.Description
	}

	_, err := s.db.Exec(`
		INSERT INTO topics (id, title, description, platform_id, category_id, status, is_published, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, req.Title, description, req.PlatformID, req.CategoryID, models.StatusNotStarted, false, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create topic: %w", err)
	}

	if m := GetMetrics(); m != nil {
		m.TopicsCreated.Inc()
	}

	return s.GetByID(id)
}

// Update applies a partial update. Setting status to COMPLETED stamps
// completed_at; reverting to NOT_STARTED clears it.
func (s *TopicService) Update(id string, req models.UpdateTopicRequest) (*models.Topic, error) {
	if _, err := s.GetByID(id); err != nil {
		return nil, err
	}

	var sets []string
	var args []interface{}

	if req.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *req.Title)
	}
	if req.Description != nil {
		sets = append(sets, "description = ?")
		if *req.Description == "" {
			args = append(args, nil)
		} else {
			args = append(args, *req.Description)
		}
	}
	if req.PlatformID != nil {
		if _, err := s.platformSvc.GetByID(*req.PlatformID); err != nil {
			return nil, err
		}
		sets = append(sets, "platform_id = ?")
		args = append(args, *req.PlatformID)
	}
	if req.CategoryID != nil {
		if _, err := s.categorySvc.GetByID(*req.CategoryID); err != nil {
			return nil, err
		}
		sets = append(sets, "category_id = ?")
		args = append(args, *req.CategoryID)
	}
	if req.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *req.Status)

		sets = append(sets, "completed_at = ?")
		if *req.Status == models.StatusCompleted {
			args = append(args, time.Now().UTC())
		} else {
			args = append(args, nil)
		}
	}
	if req.IsPublished != nil {
		sets = append(sets, "is_published = ?")
		args = append(args, *req.IsPublished)
	}

	if len(sets) == 0 {
		return s.GetByID(id)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC())
	args = append(args, id)

	_, err := s.db.Exec("UPDATE topics SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update topic: %w", err)
	}

	return s.GetByID(id)
}

// Delete removes a topic. Generated ideas that were accepted into this
// topic keep is_accepted but lose the dangling back-reference.
func (s *TopicService) Delete(id string) error {
	if _, err := s.db.Exec(`
		UPDATE generated_ideas
		SET accepted_as_topic_id = NULL
		WHERE accepted_as_topic_id = ?
	`, id); err != nil {
		return fmt.Errorf("failed to clear idea references: %w", err)
	}

	result, err := s.db.Exec("DELETE FROM topics WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete topic: %w", err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrTopicNotFound
	}

	return nil
}
