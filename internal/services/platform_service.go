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

// ErrPlatformNotFound is returned when a platform ID does not exist
var ErrPlatformNotFound = errors.New("platform not found")

const platformListKey = "platforms"

// PlatformService handles platform operations
type PlatformService struct {
	db    *database.DB
	cache *cache.Cache
}

// NewPlatformService creates a new platform service
func NewPlatformService(db *database.DB) *PlatformService {
	return &PlatformService{
		db:    db,
		cache: cache.New(30*time.Second, time.Minute),
	}
}

// GetAll returns all platforms ordered by name.
// The list is cached briefly; every write invalidates it.
func (s *PlatformService) GetAll() ([]models.Platform, error) {
	if cached, ok := s.cache.Get(platformListKey); ok {
		return cached.([]models.Platform), nil
	}

	rows, err := s.db.Query(`
		SELECT id, name, created_at
		FROM platforms
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query platforms: %w", err)
	}
	defer rows.Close()

	var platforms []models.Platform
	for rows.Next() {
		var p models.Platform
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan platform: %w", err)
		}
		platforms = append(platforms, p)
	}

	s.cache.Set(platformListKey, platforms, cache.DefaultExpiration)
	return platforms, nil
}

// GetByID returns a platform by ID
func (s *PlatformService) GetByID(id string) (*models.Platform, error) {
	var p models.Platform
	err := s.db.QueryRow(`
		SELECT id, name, created_at
		FROM platforms
		WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrPlatformNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query platform: %w", err)
	}

	return &p, nil
}

// GetByName returns a platform by exact name, or nil if absent
func (s *PlatformService) GetByName(name string) (*models.Platform, error) {
	var p models.Platform
	err := s.db.QueryRow(`
		SELECT id, name, created_at
		FROM platforms
		WHERE name = ?
	`, name).Scan(&p.ID, &p.Name, &p.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil // Not found, not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query platform: %w", err)
	}

	return &p, nil
}

// Create creates a new platform
func (s *PlatformService) Create(name string) (*models.Platform, error) {
	p := models.Platform{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(`
		INSERT INTO platforms (id, name, created_at)
		VALUES (?, ?, ?)
	`, p.ID, p.Name, p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create platform: %w", err)
	}

	s.cache.Delete(platformListKey)
	return &p, nil
}

// SyncCatalog upserts the given platform names (catalog.json seed/re-sync).
// Existing platforms are left untouched; unknown names are created.
func (s *PlatformService) SyncCatalog(names []string) error {
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
		log.Printf("   ✅ Created platform %s", name)
	}
	return nil
}
