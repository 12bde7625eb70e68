package handlers

import (
	"errors"

	"contentdeck/internal/models"
	"contentdeck/internal/services"

	"github.com/gofiber/fiber/v2"
)

// TopicHandler handles topic CRUD requests
type TopicHandler struct {
	topicService *services.TopicService
}

// NewTopicHandler creates a new topic handler
func NewTopicHandler(topicService *services.TopicService) *TopicHandler {
	return &TopicHandler{topicService: topicService}
}

// List returns all topics joined with platform/category, newest first.
// status, platformId and categoryId query params filter by equality.
func (h *TopicHandler) List(c *fiber.Ctx) error {
	filter := models.TopicFilter{
		Status:     c.Query("status"),
		PlatformID: c.Query("platformId"),
		CategoryID: c.Query("categoryId"),
	}

	topics, err := h.topicService.List(filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch topics",
		})
	}

	if topics == nil {
		topics = []models.Topic{}
	}
	return c.JSON(topics)
}

// Create creates a new topic
func (h *TopicHandler) Create(c *fiber.Ctx) error {
	var req models.CreateTopicRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	details := map[string]string{}
	if req.Title == "" {
		details["title"] = "Title is required"
	}
	if req.PlatformID == "" {
		details["platformId"] = "Platform is required"
	}
	if req.CategoryID == "" {
		details["categoryId"] = "Category is required"
	}
	if len(details) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": details,
		})
	}

	topic, err := h.topicService.Create(req)
	if err != nil {
		if errors.Is(err, services.ErrPlatformNotFound) || errors.Is(err, services.ErrCategoryNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create topic",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(topic)
}

// Update applies a partial update to a topic
func (h *TopicHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")

	var req models.UpdateTopicRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Title != nil && *req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": map[string]string{"title": "Title must not be empty"},
		})
	}
	if req.Status != nil && !models.ValidStatus(*req.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": map[string]string{"status": "Status must be NOT_STARTED or COMPLETED"},
		})
	}

	topic, err := h.topicService.Update(id, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTopicNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Topic not found",
			})
		case errors.Is(err, services.ErrPlatformNotFound), errors.Is(err, services.ErrCategoryNotFound):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update topic",
			})
		}
	}

	return c.JSON(topic)
}

// Delete removes a topic by ID
func (h *TopicHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := h.topicService.Delete(id); err != nil {
		if errors.Is(err, services.ErrTopicNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Topic not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete topic",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}
