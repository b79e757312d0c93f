package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"callscope/tagging-gateway/config"
	"callscope/tagging-gateway/handlers"
	"callscope/tagging-gateway/internal/store"
	"callscope/tagging-gateway/middleware"
)

func main() {
	// Load .env file if it exists; deployments set real env vars instead.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	config.InitLogger(cfg.Logging.Level)

	if err := config.InitSupabase(cfg.Supabase.URL, cfg.Supabase.ServiceKey); err != nil {
		config.Log.WithError(err).Fatal("Failed to initialize Supabase")
	}
	config.Log.Info("Supabase client initialized")

	h := handlers.NewApplicationHandler(
		store.NewAnnotationStore(config.SupabaseClient, config.Log),
		store.NewTranscriptStore(config.SupabaseClient, config.Log),
		store.NewTagStore(config.SupabaseClient, config.Log),
		store.NewCallStore(config.SupabaseClient, config.Log),
		config.Log,
	)

	app := fiber.New()

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*", // Allow all origins for development
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(middleware.RequestLogger())

	// Health check route
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "ok",
			"message": "Tagging gateway is healthy",
		})
	})

	// API v1 routes
	apiV1 := app.Group("/api/v1")

	apiV1.Get("/calls", h.ListCalls)
	apiV1.Get("/tags", h.ListTags)
	apiV1.Get("/calls/:callId/transcript", h.GetTranscript)

	// Annotation CRUD within a call
	callAnnotations := apiV1.Group("/calls/:callId/annotations")
	callAnnotations.Get("", h.ListAnnotations)
	callAnnotations.Post("", h.CreateAnnotation)
	callAnnotations.Patch("/:annotationId", h.UpdateAnnotation)
	callAnnotations.Delete("/:annotationId", h.DeleteAnnotation)
	callAnnotations.Post("/recompute", h.RecomputeNextTurns)

	// Tagging sessions: the selection/commit workflow and the playback socket
	sessions := apiV1.Group("/tagging/sessions")
	sessions.Post("", h.CreateSession)
	sessions.Post("/:id/selection", h.Selection)
	sessions.Post("/:id/annotation", h.AnnotationClick)
	sessions.Post("/:id/commit", h.CommitSelection)
	sessions.Post("/:id/cancel", h.CancelSelection)
	sessions.Post("/:id/remove", h.RemoveSelection)
	sessions.Delete("/:id", h.CloseSession)
	sessions.Get("/:id/playback", handlers.PlaybackUpgrade, websocket.New(h.PlaybackSocket))

	config.Log.WithField("addr", cfg.Addr()).Info("Starting tagging gateway")
	if err := app.Listen(cfg.Addr()); err != nil {
		config.Log.WithError(err).Fatal("Server stopped")
	}
}
