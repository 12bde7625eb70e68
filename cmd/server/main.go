package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"contentdeck/internal/config"
	"contentdeck/internal/database"
	"contentdeck/internal/handlers"
	"contentdeck/internal/jobs"
	"contentdeck/internal/logging"
	"contentdeck/internal/services"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting ContentDeck Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s)", cfg.Port)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// Initialize services
	services.InitMetrics()

	platformService := services.NewPlatformService(db)
	categoryService := services.NewCategoryService(db)
	topicService := services.NewTopicService(db, platformService, categoryService)
	ideaService := services.NewIdeaService(db, topicService)
	generatorService := services.NewIdeaGeneratorService(
		cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel,
		platformService, categoryService, topicService, ideaService,
	)

	if !generatorService.IsConfigured() {
		log.Println("⚠️  OPENAI_API_KEY not set - idea generation disabled")
	}

	// Seed platforms/categories from the catalog file (or built-in defaults)
	if err := syncCatalog(cfg.CatalogFile, platformService, categoryService); err != nil {
		log.Fatalf("❌ Failed to sync catalog: %v", err)
	}
	go watchCatalogFile(cfg.CatalogFile, platformService, categoryService)

	// Background jobs
	jobScheduler := jobs.NewJobScheduler()
	if cfg.IdeaRetentionDays > 0 {
		retention := time.Duration(cfg.IdeaRetentionDays) * 24 * time.Hour
		jobScheduler.Register("accepted-idea-cleanup",
			jobs.NewAcceptedIdeaCleanupJob(ideaService, 12*time.Hour, retention))
	}
	jobScheduler.Start()

	// Initialize handlers
	topicHandler := handlers.NewTopicHandler(topicService)
	platformHandler := handlers.NewPlatformHandler(platformService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	generateHandler := handlers.NewGenerateHandler(generatorService, ideaService)
	healthHandler := handlers.NewHealthHandler(db)

	app := fiber.New(fiber.Config{
		AppName:      "ContentDeck v1.0",
		ReadTimeout:  150 * time.Second, // generation calls can take a while
		WriteTimeout: 150 * time.Second,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	prometheus := fiberprometheus.New("contentdeck")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Generation is an expensive LLM call; rate limit it per IP
	generateLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many generation requests, slow down",
			})
		},
	})

	// Routes
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
	api.Post("/generate", generateLimiter, generateHandler.Generate)
	api.Post("/generate/:id/accept", generateHandler.Accept)

	log.Printf("📡 API listening on http://localhost:%s/api", cfg.Port)
	log.Printf("📈 Metrics: http://localhost:%s/metrics", cfg.Port)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		jobScheduler.Stop()

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// syncCatalog upserts platforms and categories from the catalog file into
// the database. A missing file falls back to the built-in seed set.
func syncCatalog(filePath string, platformService *services.PlatformService, categoryService *services.CategoryService) error {
	catalog, err := config.LoadCatalog(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("📋 No catalog file at %s, seeding defaults", filePath)
			catalog = config.DefaultCatalog()
		} else {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
	}

	log.Println("🔄 Syncing platform/category catalog...")

	if err := platformService.SyncCatalog(catalog.Platforms); err != nil {
		return fmt.Errorf("failed to sync platforms: %w", err)
	}
	if err := categoryService.SyncCatalog(catalog.Categories); err != nil {
		return fmt.Errorf("failed to sync categories: %w", err)
	}

	log.Println("✅ Catalog synced")
	return nil
}

// watchCatalogFile watches the catalog file and re-syncs on changes
func watchCatalogFile(filePath string, platformService *services.PlatformService, categoryService *services.CategoryService) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("⚠️  Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		log.Printf("⚠️  Failed to get absolute path for %s: %v", filePath, err)
		return
	}

	// Watch the directory containing the file (more reliable than watching the file directly)
	dir := filepath.Dir(absPath)
	filename := filepath.Base(absPath)

	if err := watcher.Add(dir); err != nil {
		log.Printf("⚠️  Failed to watch directory %s: %v", dir, err)
		return
	}

	log.Printf("👁️  Watching %s for changes (hot-reload enabled)", filePath)

	// Debounce timer to avoid multiple syncs for rapid file changes
	var debounceTimer *time.Timer
	debounceDuration := 500 * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filename {
				continue
			}

			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}

				debounceTimer = time.AfterFunc(debounceDuration, func() {
					log.Printf("🔄 Detected changes in %s, re-syncing catalog...", filePath)

					if err := syncCatalog(filePath, platformService, categoryService); err != nil {
						log.Printf("❌ Failed to sync catalog after file change: %v", err)
					}
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️  File watcher error: %v", err)
		}
	}
}
