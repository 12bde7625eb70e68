package models

import "time"

// Platform represents a publishing destination (LinkedIn, Threads, etc.)
type Platform struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Category represents a content classification label
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// CatalogConfig represents the catalog.json file structure used to seed
// and re-sync platforms and categories
type CatalogConfig struct {
	Platforms  []string `json:"platforms"`
	Categories []string `json:"categories"`
}
