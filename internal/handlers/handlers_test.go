package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"contentdeck/internal/database"
	"contentdeck/internal/models"
	"contentdeck/internal/services"

	"github.com/gofiber/fiber/v2"
)

// setupTestApp wires a fiber app with the full route table against a temp
// sqlite database. generatorBaseURL usually points at a fake completions
// server; an empty apiKey exercises the not-configured path.
func setupTestApp(t *testing.T, apiKey, generatorBaseURL string) *fiber.App {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test_handlers.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	platformSvc := services.NewPlatformService(db)
	categorySvc := services.NewCategoryService(db)
	topicSvc := services.NewTopicService(db, platformSvc, categorySvc)
	ideaSvc := services.NewIdeaService(db, topicSvc)
	generator := services.NewIdeaGeneratorService(apiKey, generatorBaseURL, "gpt-4o-mini", platformSvc, categorySvc, topicSvc, ideaSvc)

	if err := platformSvc.SyncCatalog([]string{"LinkedIn", "Threads", "Instagram"}); err != nil {
		t.Fatalf("Failed to seed platforms: %v", err)
	}
	if err := categorySvc.SyncCatalog([]string{"Career Advice", "Thought Leadership", "Resources"}); err != nil {
		t.Fatalf("Failed to seed categories: %v", err)
	}

	healthHandler := NewHealthHandler(db)
	topicHandler := NewTopicHandler(topicSvc)
	platformHandler := NewPlatformHandler(platformSvc)
	categoryHandler := NewCategoryHandler(categorySvc)
	generateHandler := NewGenerateHandler(generator, ideaSvc)

	app := fiber.New()
	app.Get("/health", healthHandler.Handle)

	api := app.Group("/api")
	api.Get("/topics", topicHandler.List)
	api.Post("/topics", topicHandler.Create)
	api.Patch("/topics/:id", topicHandler.Update)
	api.Delete("/topics/:id", topicHandler.Delete)
	api.Get("/platforms", platformHandler.List)
	api.Post("/platforms", platformHandler.Create)
	api.Get("/categories", categoryHandler.List)
	api.Post("/categories", categoryHandler.Create)
	api.Get("/generate", generateHandler.List)
	api.Post("/generate", generateHandler.Generate)
	api.Post("/generate/:id/accept", generateHandler.Accept)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, path, err)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	resp.Body.Close()

	return resp, respBody
}

func decode(t *testing.T, data []byte, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("Failed to decode response %s: %v", string(data), err)
	}
}

func fetchCatalog(t *testing.T, app *fiber.App) ([]models.Platform, []models.Category) {
	t.Helper()

	resp, body := doJSON(t, app, "GET", "/api/platforms", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 listing platforms, got %d", resp.StatusCode)
	}
	var platforms []models.Platform
	decode(t, body, &platforms)

	resp, body = doJSON(t, app, "GET", "/api/categories", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 listing categories, got %d", resp.StatusCode)
	}
	var categories []models.Category
	decode(t, body, &categories)

	return platforms, categories
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp(t, "", "")

	resp, body := doJSON(t, app, "GET", "/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var health map[string]interface{}
	decode(t, body, &health)
	if health["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", health["status"])
	}
}

func TestPlatformEndpoints(t *testing.T) {
	app := setupTestApp(t, "", "")

	platforms, categories := fetchCatalog(t, app)
	if len(platforms) != 3 {
		t.Errorf("Expected 3 seeded platforms, got %d", len(platforms))
	}
	if len(categories) != 3 {
		t.Errorf("Expected 3 seeded categories, got %d", len(categories))
	}

	resp, body := doJSON(t, app, "POST", "/api/platforms", map[string]string{"name": "YouTube"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201 creating platform, got %d: %s", resp.StatusCode, string(body))
	}
	var created models.Platform
	decode(t, body, &created)
	if created.Name != "YouTube" || created.ID == "" {
		t.Errorf("Unexpected created platform %+v", created)
	}

	resp, _ = doJSON(t, app, "POST", "/api/platforms", map[string]string{"name": ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty platform name, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, "POST", "/api/categories", map[string]string{"name": ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty category name, got %d", resp.StatusCode)
	}
}

func TestTopicLifecycle(t *testing.T) {
	app := setupTestApp(t, "", "")
	platforms, categories := fetchCatalog(t, app)

	resp, body := doJSON(t, app, "POST", "/api/topics", map[string]string{
		"title":       "Annual review prep checklist",
		"description": "What to gather before the meeting.",
		"platformId":  platforms[0].ID,
		"categoryId":  categories[0].ID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201 creating topic, got %d: %s", resp.StatusCode, string(body))
	}

	var topic models.Topic
	decode(t, body, &topic)
	if topic.Status != models.StatusNotStarted {
		t.Errorf("Expected status NOT_STARTED, got %q", topic.Status)
	}
	if topic.IsPublished {
		t.Error("Expected isPublished false")
	}
	if topic.Platform == nil || topic.Platform.Name != platforms[0].Name {
		t.Errorf("Expected joined platform in response, got %+v", topic.Platform)
	}

	resp, body = doJSON(t, app, "GET", "/api/topics", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 listing topics, got %d", resp.StatusCode)
	}
	var topics []models.Topic
	decode(t, body, &topics)
	if len(topics) != 1 || topics[0].ID != topic.ID {
		t.Fatalf("Expected the created topic in the list, got %d rows", len(topics))
	}

	resp, body = doJSON(t, app, "PATCH", "/api/topics/"+topic.ID, map[string]interface{}{
		"status":      models.StatusCompleted,
		"isPublished": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 updating topic, got %d: %s", resp.StatusCode, string(body))
	}
	var updated models.Topic
	decode(t, body, &updated)
	if updated.Status != models.StatusCompleted || !updated.IsPublished {
		t.Errorf("Unexpected updated topic %+v", updated)
	}
	if updated.CompletedAt == nil {
		t.Error("Expected completedAt after completing topic")
	}

	resp, body = doJSON(t, app, "DELETE", "/api/topics/"+topic.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 deleting topic, got %d", resp.StatusCode)
	}
	var deleteResult map[string]bool
	decode(t, body, &deleteResult)
	if !deleteResult["success"] {
		t.Errorf("Expected success true, got %s", string(body))
	}

	resp, body = doJSON(t, app, "GET", "/api/topics", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 listing topics, got %d", resp.StatusCode)
	}
	if string(bytes.TrimSpace(body)) != "[]" {
		t.Errorf("Expected empty array after delete, got %s", string(body))
	}
}

func TestTopicValidation(t *testing.T) {
	app := setupTestApp(t, "", "")
	platforms, categories := fetchCatalog(t, app)

	resp, body := doJSON(t, app, "POST", "/api/topics", map[string]string{"title": ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected 400 for missing fields, got %d", resp.StatusCode)
	}
	var errResp struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	decode(t, body, &errResp)
	if errResp.Error != "Validation failed" {
		t.Errorf("Expected validation error, got %q", errResp.Error)
	}
	for _, field := range []string{"title", "platformId", "categoryId"} {
		if errResp.Details[field] == "" {
			t.Errorf("Expected details entry for %s", field)
		}
	}

	resp, _ = doJSON(t, app, "POST", "/api/topics", map[string]string{
		"title": "Phantom", "platformId": "no-such-id", "categoryId": categories[0].ID,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown platform, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, "PATCH", "/api/topics/no-such-id", map[string]string{"title": "X"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 updating missing topic, got %d", resp.StatusCode)
	}

	resp, body = doJSON(t, app, "POST", "/api/topics", map[string]string{
		"title": "Status probe", "platformId": platforms[0].ID, "categoryId": categories[0].ID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}
	var topic models.Topic
	decode(t, body, &topic)

	resp, _ = doJSON(t, app, "PATCH", "/api/topics/"+topic.ID, map[string]string{"status": "DONE"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid status, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, "DELETE", "/api/topics/no-such-id", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 deleting missing topic, got %d", resp.StatusCode)
	}
}

func TestGenerateNotConfigured(t *testing.T) {
	app := setupTestApp(t, "", "http://127.0.0.1:0")

	resp, body := doJSON(t, app, "POST", "/api/generate", nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("Expected 500 when key missing, got %d", resp.StatusCode)
	}

	var errResp map[string]string
	decode(t, body, &errResp)
	if errResp["error"] != "OpenAI API key not configured" {
		t.Errorf("Unexpected error %q", errResp["error"])
	}
	if errResp["message"] == "" {
		t.Error("Expected guidance message in response")
	}
}

func TestGenerateAndAcceptFlow(t *testing.T) {
	modelOutput := `[{"title": "Portfolio teardown series", "description": "Review one follower portfolio per week.", "platform": "Instagram", "category": "Resources"}]`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"content": modelOutput}},
			},
		})
	}))
	defer server.Close()

	app := setupTestApp(t, "test-key", server.URL)

	resp, body := doJSON(t, app, "POST", "/api/generate", map[string]int{"count": 1})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 generating ideas, got %d: %s", resp.StatusCode, string(body))
	}
	var ideas []models.GeneratedIdea
	decode(t, body, &ideas)
	if len(ideas) != 1 {
		t.Fatalf("Expected 1 generated idea, got %d", len(ideas))
	}
	idea := ideas[0]

	resp, body = doJSON(t, app, "GET", "/api/generate", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 listing pending ideas, got %d", resp.StatusCode)
	}
	var pending []models.GeneratedIdea
	decode(t, body, &pending)
	if len(pending) != 1 || pending[0].ID != idea.ID {
		t.Fatalf("Expected the generated idea pending, got %d rows", len(pending))
	}

	resp, body = doJSON(t, app, "POST", "/api/generate/"+idea.ID+"/accept", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 accepting idea, got %d: %s", resp.StatusCode, string(body))
	}
	var topic models.Topic
	decode(t, body, &topic)
	if topic.Title != "Portfolio teardown series" {
		t.Errorf("Expected split title, got %q", topic.Title)
	}
	if topic.Description == nil || *topic.Description != "Review one follower portfolio per week." {
		t.Errorf("Expected split description, got %v", topic.Description)
	}

	resp, _ = doJSON(t, app, "POST", "/api/generate/"+idea.ID+"/accept", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for double accept, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, "POST", "/api/generate/no-such-id/accept", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 accepting missing idea, got %d", resp.StatusCode)
	}

	resp, body = doJSON(t, app, "GET", "/api/generate", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 listing pending ideas, got %d", resp.StatusCode)
	}
	if string(bytes.TrimSpace(body)) != "[]" {
		t.Errorf("Expected empty pending list after accept, got %s", string(body))
	}
}
