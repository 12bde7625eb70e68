package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"contentdeck/internal/models"

	"golang.org/x/time/rate"
)

// Generation failure conditions
var (
	ErrNotConfigured  = errors.New("generation API key not configured")
	ErrNoContent      = errors.New("no content generated")
	ErrBadModelOutput = errors.New("invalid JSON response from model")
)

const (
	defaultIdeaCount  = 5
	contextTopicLimit = 50
)

// fencedArrayRe matches a JSON array wrapped in a markdown code block
var fencedArrayRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\[.*\\])\\s*\\n?```")

// ideaCandidate is one record of the model's JSON array output
type ideaCandidate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Platform    string `json:"platform"`
	Category    string `json:"category"`
}

// IdeaGeneratorService builds prompts from existing topics, calls an
// OpenAI-compatible completion endpoint and persists validated candidates
type IdeaGeneratorService struct {
	apiKey  string
	baseURL string
	model   string

	platformSvc *PlatformService
	categorySvc *CategoryService
	topicSvc    *TopicService
	ideaSvc     *IdeaService

	clientOnce sync.Once
	client     *http.Client
	limiter    *rate.Limiter // outbound calls to the generation API
}

// NewIdeaGeneratorService creates a new idea generator service
func NewIdeaGeneratorService(apiKey, baseURL, model string, platformSvc *PlatformService, categorySvc *CategoryService, topicSvc *TopicService, ideaSvc *IdeaService) *IdeaGeneratorService {
	return &IdeaGeneratorService{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		platformSvc: platformSvc,
		categorySvc: categorySvc,
		topicSvc:    topicSvc,
		ideaSvc:     ideaSvc,
		limiter:     rate.NewLimiter(rate.Limit(1), 3), // 1 req/s, burst 3
	}
}

// IsConfigured reports whether the generation API key is present
func (s *IdeaGeneratorService) IsConfigured() bool {
	return s.apiKey != ""
}

// httpClient lazily builds the shared HTTP client on first use
func (s *IdeaGeneratorService) httpClient() *http.Client {
	s.clientOnce.Do(func() {
		s.client = &http.Client{Timeout: 120 * time.Second}
	})
	return s.client
}

// Generate produces up to count new idea candidates and persists the
// valid subset. Candidates naming unknown platforms or categories are
// silently discarded, so the result may be shorter than requested.
func (s *IdeaGeneratorService) Generate(ctx context.Context, count int) ([]models.GeneratedIdea, error) {
	if count <= 0 {
		count = defaultIdeaCount
	}

	if !s.IsConfigured() {
		if m := GetMetrics(); m != nil {
			m.GenerationErrors.WithLabelValues("not_configured").Inc()
		}
		return nil, ErrNotConfigured
	}

	start := time.Now()
	if m := GetMetrics(); m != nil {
		m.GenerationRequests.Inc()
		defer func() {
			m.GenerationLatency.Observe(time.Since(start).Seconds())
		}()
	}

	// Fetch context: recent topics plus the full platform/category sets
	topics, err := s.topicSvc.ListRecent(contextTopicLimit)
	if err != nil {
		return nil, err
	}
	platforms, err := s.platformSvc.GetAll()
	if err != nil {
		return nil, err
	}
	categories, err := s.categorySvc.GetAll()
	if err != nil {
		return nil, err
	}

	prompt := buildPrompt(topics, platforms, categories, count)

	content, err := s.complete(ctx, prompt)
	if err != nil {
		if m := GetMetrics(); m != nil {
			m.GenerationErrors.WithLabelValues("upstream").Inc()
		}
		return nil, err
	}

	candidates, err := parseCandidates(content)
	if err != nil {
		if m := GetMetrics(); m != nil {
			m.GenerationErrors.WithLabelValues("parse").Inc()
		}
		log.Printf("⚠️ [IDEA-GEN] Failed to parse model output: %v", err)
		return nil, err
	}

	// Resolve platform/category by case-insensitive name; discard misses
	ideas := []models.GeneratedIdea{}
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate.Title) == "" {
			continue
		}

		platform := matchPlatform(platforms, candidate.Platform)
		category := matchCategory(categories, candidate.Category)
		if platform == nil || category == nil {
			if m := GetMetrics(); m != nil {
				m.IdeasDiscarded.Inc()
			}
			log.Printf("⚠️ [IDEA-GEN] Discarding candidate %q (platform=%q, category=%q)",
				candidate.Title, candidate.Platform, candidate.Category)
			continue
		}

		content := candidate.Title + "\n\n" + candidate.Description
		idea, err := s.ideaSvc.Create(content, platform.ID, category.ID)
		if err != nil {
			return nil, err
		}
		ideas = append(ideas, *idea)
	}

	if m := GetMetrics(); m != nil {
		m.IdeasGenerated.Add(float64(len(ideas)))
	}
	log.Printf("✅ [IDEA-GEN] Persisted %d of %d candidates (%d requested)",
		len(ideas), len(candidates), count)

	return ideas, nil
}

// complete sends the prompt to the chat completions endpoint and returns
// the raw text of the first choice
func (s *IdeaGeneratorService) complete(ctx context.Context, prompt string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	requestBody := map[string]interface{}{
		"model": s.model,
		"messages": []map[string]interface{}{
			{
				"role":    "system",
				"content": "You are a helpful content strategist that generates creative social media content ideas. Always respond with valid JSON only.",
			},
			{
				"role":    "user",
				"content": prompt,
			},
		},
		"stream":      false,
		"temperature": 0.8,
		"max_tokens":  2000,
	}

	reqBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	log.Printf("📤 [IDEA-GEN] Sending request to %s with model %s", s.baseURL, s.model)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient().Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("⚠️ [IDEA-GEN] API error: %s", string(body))
		return "", fmt.Errorf("generation API error (status %d)", resp.StatusCode)
	}

	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return "", fmt.Errorf("failed to parse API response: %w", err)
	}

	if len(apiResponse.Choices) == 0 || apiResponse.Choices[0].Message.Content == "" {
		return "", ErrNoContent
	}

	content := apiResponse.Choices[0].Message.Content
	log.Printf("📥 [IDEA-GEN] Received response (%d chars)", len(content))

	return content, nil
}

// buildPrompt renders the generation prompt from existing topics and the
// available platform/category names
func buildPrompt(topics []models.Topic, platforms []models.Platform, categories []models.Category, count int) string {
	platformNames := make([]string, len(platforms))
	for i, p := range platforms {
		platformNames[i] = p.Name
	}
	categoryNames := make([]string, len(categories))
	for i, c := range categories {
		categoryNames[i] = c.Name
	}

	var examples []string
	for _, t := range topics {
		line := fmt.Sprintf("- %q (%s, %s)", t.Title, t.Platform.Name, t.Category.Name)
		if t.Description != nil && *t.Description != "" {
			line += ": " + *t.Description
		}
		examples = append(examples, line)
	}
	topicExamples := strings.Join(examples, "\n")
	if topicExamples == "" {
		topicExamples = "No existing topics yet."
	}

	return fmt.Sprintf(`You are a content strategist helping to generate social media content ideas.

Available platforms: %s
Available categories: %s

Here are some existing content topics for reference:
%s

Based on these examples and the available platforms/categories, generate %d new, creative content topic ideas. Each idea should:
1. Be specific and actionable
2. Fit one of the available platforms
3. Match one of the available categories
4. Be different from existing topics
5. Be relevant and engaging

Return ONLY a valid JSON array with this exact structure:
[
  {
    "title": "topic title here",
    "description": "brief description",
    "platform": "platform name",
    "category": "category name"
  }
]

Important: Return ONLY the JSON array, no additional text or formatting.`,
		strings.Join(platformNames, ", "),
		strings.Join(categoryNames, ", "),
		topicExamples,
		count,
	)
}

// parseCandidates parses the model output as a JSON array of candidates,
// falling back to extracting an array from a fenced code block
func parseCandidates(content string) ([]ideaCandidate, error) {
	content = strings.TrimSpace(content)

	var candidates []ideaCandidate
	if err := json.Unmarshal([]byte(content), &candidates); err == nil {
		return candidates, nil
	}

	matches := fencedArrayRe.FindStringSubmatch(content)
	if len(matches) > 1 {
		if err := json.Unmarshal([]byte(matches[1]), &candidates); err == nil {
			return candidates, nil
		}
	}

	return nil, ErrBadModelOutput
}

func matchPlatform(platforms []models.Platform, name string) *models.Platform {
	for i := range platforms {
		if strings.EqualFold(platforms[i].Name, name) {
			return &platforms[i]
		}
	}
	return nil
}

func matchCategory(categories []models.Category, name string) *models.Category {
	for i := range categories {
		if strings.EqualFold(categories[i].Name, name) {
			return &categories[i]
		}
	}
	return nil
}
