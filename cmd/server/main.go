package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/fairgrid/stand-assignment/internal/assignment"
	"github.com/fairgrid/stand-assignment/internal/config"
	"github.com/fairgrid/stand-assignment/internal/database"
	"github.com/fairgrid/stand-assignment/internal/handler"
	"github.com/fairgrid/stand-assignment/internal/queue"
	"github.com/fairgrid/stand-assignment/internal/repository"
	"github.com/fairgrid/stand-assignment/internal/router"
	queue_publisher "github.com/fairgrid/stand-assignment/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	store := repository.NewStore(db)
	exhibitors := repository.NewExhibitorRepo(db)
	events := repository.NewEventRepo(db)
	booths := repository.NewBoothRepo(db)
	requests := repository.NewRequestRepo(db)
	conflicts := repository.NewConflictRepo(db)
	history := repository.NewHistoryRepo(db)

	gate := assignment.NewAvailabilityGate(booths)
	scorer := assignment.NewScorer(assignment.DefaultScoreConfig())
	detector := assignment.NewDetector(assignment.DefaultDetectorConfig(), store, exhibitors)

	requestManager := assignment.NewRequestManager(store, exhibitors, events, gate, scorer, history)
	conflictManager := assignment.NewConflictManager(store, detector, events, booths, exhibitors, history)

	publisher := queue_publisher.Events{}
	requestManager.SetPublisher(publisher)
	conflictManager.SetPublisher(publisher)
	// New requests trigger detection on their target booth.
	requestManager.SetConflictRecorder(conflictManager)

	// Redis backs rate limiting and the response cache; nil disables both.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response cache disabled")
	}

	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterAPI(e, router.Handlers{
		Requests:  handler.NewRequestHandler(requestManager, requests),
		Conflicts: handler.NewConflictHandler(conflictManager, conflicts),
		Stats:     handler.NewStatsHandler(requests, conflicts, booths, events),
	}, cfg.JWTSecret, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
