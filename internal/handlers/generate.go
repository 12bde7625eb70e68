package handlers

import (
	"errors"

	"contentdeck/internal/models"
	"contentdeck/internal/services"

	"github.com/gofiber/fiber/v2"
)

// GenerateHandler handles idea generation and acceptance requests
type GenerateHandler struct {
	generator   *services.IdeaGeneratorService
	ideaService *services.IdeaService
}

// NewGenerateHandler creates a new generate handler
func NewGenerateHandler(generator *services.IdeaGeneratorService, ideaService *services.IdeaService) *GenerateHandler {
	return &GenerateHandler{generator: generator, ideaService: ideaService}
}

// List returns all pending (unaccepted) generated ideas, newest first
func (h *GenerateHandler) List(c *fiber.Ctx) error {
	ideas, err := h.ideaService.ListPending()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch generated ideas",
		})
	}

	if ideas == nil {
		ideas = []models.GeneratedIdea{}
	}
	return c.JSON(ideas)
}

// Generate produces and persists new idea candidates. The response may
// hold fewer items than requested when the model returns malformed
// candidates or names unknown platforms/categories.
func (h *GenerateHandler) Generate(c *fiber.Ctx) error {
	var req models.GenerateRequest
	// Body is optional; count falls back to the default
	_ = c.BodyParser(&req)

	ideas, err := h.generator.Generate(c.Context(), req.Count)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotConfigured):
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "OpenAI API key not configured",
				"message": "Please add OPENAI_API_KEY to your .env file to use AI generation features.",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Failed to generate ideas",
				"details": err.Error(),
			})
		}
	}

	return c.JSON(ideas)
}

// Accept promotes a generated idea into a topic
func (h *GenerateHandler) Accept(c *fiber.Ctx) error {
	id := c.Params("id")

	topic, err := h.ideaService.Accept(id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrIdeaNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Generated idea not found",
			})
		case errors.Is(err, services.ErrIdeaMissingSuggestion):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Generated idea missing platform or category",
			})
		case errors.Is(err, services.ErrIdeaAlreadyAccepted):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Generated idea already accepted",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to accept generated idea",
			})
		}
	}

	return c.JSON(topic)
}
