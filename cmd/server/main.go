package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"serena/internal/config"
	"serena/internal/database"
	"serena/internal/handlers"
	"serena/internal/jobs"
	"serena/internal/logging"
	"serena/internal/repository"
	"serena/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️  No .env file found, using environment variables")
	}

	logging.Init()
	cfg := config.Load()

	// Storage: Mongo when reachable, in-memory degraded mode otherwise.
	var (
		mongoDB      *database.MongoDB
		memories     repository.MemoryRepository
		profiles     repository.ProfileRepository
		progressRepo repository.ProgressRepository
		goalsRepo    repository.GoalRepository
		therapeutic  repository.TherapeuticRepository
		replies      repository.ReplyRepository
	)

	mongoDB, err := database.NewMongoDB(cfg.MongoURI)
	if err != nil {
		log.Printf("⚠️  MongoDB unavailable (%v), running with in-memory storage", err)
		mongoDB = nil
		store := repository.NewInMemoryStore()
		memories = store.Memories()
		profiles = store.Profiles()
		progressRepo = store.Progress()
		goalsRepo = store.Goals()
		therapeutic = store.Therapeutic()
		replies = store.Replies()
	} else {
		initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := mongoDB.Initialize(initCtx); err != nil {
			log.Printf("⚠️  Failed to initialize MongoDB indexes: %v", err)
		}
		cancel()

		db := mongoDB.Database()
		memories = repository.NewMongoMemoryRepository(db)
		profiles = repository.NewMongoProfileRepository(db)
		progressRepo = repository.NewMongoProgressRepository(db)
		goalsRepo = repository.NewMongoGoalRepository(db)
		therapeutic = repository.NewMongoTherapeuticRepository(db)
		replies = repository.NewMongoReplyRepository(db)
	}

	var redisCache *services.RedisService
	if cache, err := services.NewRedisService(cfg.RedisURL); err != nil {
		log.Printf("⚠️  Redis unavailable (%v), repetition and window caches disabled", err)
	} else {
		redisCache = cache
	}

	memorySvc := services.NewMemoryService(memories)
	personalizationSvc := services.NewPersonalizationService(profiles)
	stateSvc := services.NewConversationStateService(redisCache)
	coherenceSvc := services.NewCoherenceService(redisCache)
	progressSvc := services.NewProgressService(progressRepo)
	goalSvc := services.NewGoalService(goalsRepo)
	therapeuticSvc := services.NewTherapeuticService(therapeutic)
	messageSvc := services.NewMessageService(replies, redisCache)

	generator := services.NewGenerationService(
		cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout,
		cfg.GenerationRatePerMinute, cfg.GenerationBurst,
	)

	pipeline := services.NewPipelineService(
		memorySvc, personalizationSvc, stateSvc, generator, coherenceSvc,
		progressSvc, goalSvc, therapeuticSvc, messageSvc, redisCache,
	)

	maintenance, err := jobs.NewMaintenance(goalSvc, time.Duration(cfg.GoalIdleDays)*24*time.Hour)
	if err != nil {
		log.Printf("⚠️  Maintenance job disabled: %v", err)
		maintenance = nil
	} else if err := maintenance.Start(); err != nil {
		log.Printf("⚠️  Maintenance job disabled: %v", err)
		maintenance = nil
	}

	app := fiber.New(fiber.Config{
		AppName:      "serena",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	})
	app.Use(recover.New())

	prom := fiberprometheus.New("serena")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)

	chatHandler := handlers.NewChatHandler(pipeline)
	healthHandler := handlers.NewHealthHandler(mongoDB, redisCache)
	wellnessHandler := handlers.NewWellnessHandler(goalSvc, progressSvc, messageSvc)

	app.Get("/health", healthHandler.Handle)
	app.Post("/api/chat", chatHandler.Handle)
	app.Post("/api/goals", wellnessHandler.CreateGoal)
	app.Get("/api/users/:userId/goals", wellnessHandler.ListGoals)
	app.Get("/api/users/:userId/progress", wellnessHandler.GetProgress)
	app.Get("/api/users/:userId/replies", wellnessHandler.RecentReplies)

	go func() {
		log.Printf("🚀 Serena listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("⚠️  Server shutdown: %v", err)
	}

	// Let in-flight persistence fan-outs land before closing stores.
	pipeline.Drain()

	if maintenance != nil {
		if err := maintenance.Stop(); err != nil {
			log.Printf("⚠️  Scheduler shutdown: %v", err)
		}
	}
	if redisCache != nil {
		redisCache.Close()
	}
	if mongoDB != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoDB.Close(closeCtx); err != nil {
			log.Printf("⚠️  MongoDB shutdown: %v", err)
		}
	}

	log.Println("✅ Server stopped")
}
