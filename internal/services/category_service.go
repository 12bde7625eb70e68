package services

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"contentdeck/internal/database"
	"contentdeck/internal/models"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
)

// ErrCategoryNotFound is returned when a category ID does not exist
var ErrCategoryNotFound = errors.New("category not found")

const categoryListKey = "categories"

// CategoryService handles category operations
type CategoryService struct {
	db    *database.DB
	cache *cache.Cache
}

// NewCategoryService creates a new category service
func NewCategoryService(db *database.DB) *CategoryService {
	return &CategoryService{
		db:    db,
		cache: cache.New(30*time.Second, time.Minute),
	}
}

// GetAll returns all categories ordered by name.
// The list is cached briefly; every write invalidates it.
func (s *CategoryService) GetAll() ([]models.Category, error) {
	if cached, ok := s.cache.Get(categoryListKey); ok {
		return cached.([]models.Category), nil
	}

	rows, err := s.db.Query(`
		SELECT id, name, created_at
		FROM categories
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	s.cache.Set(categoryListKey, categories, cache.DefaultExpiration)
	return categories, nil
}

// GetByID returns a category by ID
func (s *CategoryService) GetByID(id string) (*models.Category, error) {
	var c models.Category
	err := s.db.QueryRow(`
		SELECT id, name, created_at
		FROM categories
		WHERE id = ?
	`, id).Scan(&c.ID, &c.Name, &c.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}

	return &c, nil
}

// GetByName returns a category by exact name, or nil if absent
func (s *CategoryService) GetByName(name string) (*models.Category, error) {
	var c models.Category
	err := s.db.QueryRow(`
		SELECT id, name, created_at
		FROM categories
		WHERE name = ?
	`, name).Scan(&c.ID, &c.Name, &c.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil // Not found, not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}

	return &c, nil
}

// Create creates a new category
func (s *CategoryService) Create(name string) (*models.Category, error) {
	c := models.Category{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(`
		INSERT INTO categories (id, name, created_at)
		VALUES (?, ?, ?)
	`, c.ID, c.Name, c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.cache.Delete(categoryListKey)
	return &c, nil
}

// SyncCatalog upserts the given category names (catalog.json seed/re-sync)
func (s *CategoryService) SyncCatalog(names []string) error {
	for _, name := range names {
		existing, err := s.GetByName(name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if _, err := s.Create(name); err != nil {
			return err
		}
		log.Printf("   ✅ Created category %s", name)
	}
	return nil
}
