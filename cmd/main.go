package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/retrocraftdevops/seitech/internal/clients/enrollment"
	"github.com/retrocraftdevops/seitech/internal/clients/trendcache"
	"github.com/retrocraftdevops/seitech/internal/db"
	"github.com/retrocraftdevops/seitech/internal/handlers"
	"github.com/retrocraftdevops/seitech/internal/jobs"
	"github.com/retrocraftdevops/seitech/internal/logger"
	"github.com/retrocraftdevops/seitech/internal/repos"
	"github.com/retrocraftdevops/seitech/internal/server"
	"github.com/retrocraftdevops/seitech/internal/services"
	"github.com/retrocraftdevops/seitech/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Redis trend cache
	trendCache, err := trendcache.New(log)
	if err != nil {
		log.Warn("Redis init failed, trend cache disabled", "error", err)
		trendCache = trendcache.NewNoop()
	}
	defer trendCache.Close()

	// Enrollment collaborator
	enrollClient, err := enrollment.NewHTTP(log, enrollment.Config{
		BaseURL: utils.GetEnv("ENROLLMENT_API_URL", "http://localhost:8081/api", log),
		APIKey:  utils.GetEnv("ENROLLMENT_API_KEY", "", log),
		Timeout: time.Duration(utils.GetEnvAsInt("ENROLLMENT_API_TIMEOUT_SECONDS", 15, log)) * time.Second,
	})
	if err != nil {
		log.Error("Enrollment client init failed", "error", err)
		os.Exit(1)
	}

	// Repos
	log.Info("Setting up Repos from main...")
	skillRepo := repos.NewSkillRepo(thePG, log)
	courseSkillRepo := repos.NewCourseSkillRepo(thePG, log)
	userSkillRepo := repos.NewUserSkillRepo(thePG, log)
	learningPathRepo := repos.NewLearningPathRepo(thePG, log)
	pathNodeRepo := repos.NewPathNodeRepo(thePG, log)
	recommendationRepo := repos.NewRecommendationRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	notifier := services.NewLogNotifier(log)
	taxonomyService := services.NewTaxonomyService(thePG, log, services.DefaultTaxonomyConfig(), skillRepo, courseSkillRepo, userSkillRepo, enrollClient, trendCache)
	ledgerService := services.NewLedgerService(thePG, log, userSkillRepo, skillRepo, notifier)
	pathService := services.NewPathService(thePG, log, services.DefaultPathConfig(), learningPathRepo, pathNodeRepo, courseSkillRepo, enrollClient, notifier)
	recommendationService := services.NewRecommendationService(thePG, log, services.DefaultRecommendationConfig(), recommendationRepo, userSkillRepo, courseSkillRepo, skillRepo, learningPathRepo, enrollClient, notifier)

	// Jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	refreshWorker := jobs.NewRefreshWorker(log, taxonomyService, recommendationService, learningPathRepo, skillRepo)
	go refreshWorker.Run(ctx)

	// Handlers
	skillHandler := handlers.NewSkillHandler(taxonomyService)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService)
	pathHandler := handlers.NewPathHandler(pathService, ledgerService)
	recommendationHandler := handlers.NewRecommendationHandler(recommendationService)
	eventHandler := handlers.NewEventHandler(ledgerService, pathService, courseSkillRepo)

	router := server.NewRouter(log, server.RouterConfig{
		SkillHandler:          skillHandler,
		LedgerHandler:         ledgerHandler,
		PathHandler:           pathHandler,
		RecommendationHandler: recommendationHandler,
		EventHandler:          eventHandler,
	})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("Shutdown signal received")
		cancel()
	}()

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
