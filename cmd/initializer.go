package main

import (
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"investBack/internal/config"
	"investBack/internal/handlers"
	"investBack/internal/plan/calc"
	"investBack/internal/plan/detail"
	"investBack/internal/plan/reconcile"
	"investBack/internal/plan/watch"
	"investBack/internal/planapi"
	"investBack/internal/repositories"
	"investBack/internal/services"
	"investBack/utils"
)

type application struct {
	errorLog *log.Logger
	infoLog  *log.Logger

	registry *detail.Registry

	sessionRepo    *repositories.SessionRepository
	sessionService *services.SessionService

	planHandler    *handlers.PlanHandler
	sessionHandler *handlers.SessionHandler
}

func initializeApp(cfg config.Config, planClient *planapi.Client, rdb *redis.Client, errorLog, infoLog *log.Logger) (*application, error) {
	tokenManager, err := utils.NewManager(cfg.Auth.SigningKey)
	if err != nil {
		return nil, err
	}

	// Repositories
	sessionRepo := &repositories.SessionRepository{Rdb: rdb}
	attemptRepo := &repositories.RolloverAttemptRepository{Rdb: rdb}

	// Services
	accessTTL := cfg.Auth.AccessTTL
	if accessTTL <= 0 {
		accessTTL = 20 * time.Hour
	}
	refreshTTL := cfg.Auth.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	sessionService := &services.SessionService{
		Repo:         sessionRepo,
		TokenManager: tokenManager,
		AccessTTL:    accessTTL,
		RefreshTTL:   refreshTTL,
	}

	registry := detail.NewRegistry(planClient, attemptRepo, detail.Config{
		Reconcile: reconcile.Config{
			Interval:           cfg.Engine.PollInterval,
			PendingMaxAttempts: cfg.Engine.PendingMaxAttempts,
			DefaultMaxAttempts: cfg.Engine.DefaultMaxAttempts,
		},
		Watch: watch.Config{
			Delay:     cfg.Engine.RolloverCheckDelay,
			GraceDays: cfg.Engine.RolloverGraceDays,
		},
		Calculator: calc.Calculator{},
	}, infoLog, errorLog)

	// Handlers
	planHandler := handlers.NewPlanHandler(registry)
	sessionHandler := handlers.NewSessionHandler(sessionService)

	return &application{
		errorLog:       errorLog,
		infoLog:        infoLog,
		registry:       registry,
		sessionRepo:    sessionRepo,
		sessionService: sessionService,
		planHandler:    planHandler,
		sessionHandler: sessionHandler,
	}, nil
}
