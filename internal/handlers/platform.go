package handlers

import (
	"contentdeck/internal/models"
	"contentdeck/internal/services"

	"github.com/gofiber/fiber/v2"
)

// PlatformHandler handles platform requests
type PlatformHandler struct {
	platformService *services.PlatformService
}

// NewPlatformHandler creates a new platform handler
func NewPlatformHandler(platformService *services.PlatformService) *PlatformHandler {
	return &PlatformHandler{platformService: platformService}
}

// List returns all platforms ordered by name
func (h *PlatformHandler) List(c *fiber.Ctx) error {
	platforms, err := h.platformService.GetAll()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch platforms",
		})
	}

	if platforms == nil {
		platforms = []models.Platform{}
	}
	return c.JSON(platforms)
}

// Create creates a new platform
func (h *PlatformHandler) Create(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": map[string]string{"name": "Platform name is required"},
		})
	}

	platform, err := h.platformService.Create(req.Name)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create platform",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(platform)
}
