package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"stockcast/advisory"
	"stockcast/config"
	"stockcast/database"
	"stockcast/forecast"
	"stockcast/handlers"
	"stockcast/pipeline"
	"stockcast/recorder"
	"stockcast/routes"
	"stockcast/scheduler"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	config.AppConfig = *cfg

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize database
	if err := database.Connect(ctx, cfg.Database.URL); err != nil {
		log.Fatalf("[FATAL] connect database: %v", err)
	}
	defer database.Close()
	store := database.NewStore(database.GetDB())

	// Forecast engine, with the Gemini advisory when a key is configured
	opts := []forecast.Option{forecast.WithConcurrency(cfg.Forecast.Concurrency)}
	if cfg.Advisory.GeminiAPIKey != "" {
		advisor, err := advisory.NewGeminiAdvisor(ctx, cfg.Advisory.GeminiAPIKey, cfg.Advisory.Model)
		if err != nil {
			log.Printf("[WARN] gemini advisory disabled: %v", err)
		} else {
			defer advisor.Close()
			opts = append(opts, forecast.WithAdvisor(advisor, cfg.Advisory.Timeout))
			log.Println("[INFO] gemini advisory enabled")
		}
	}
	engine, err := forecast.NewEngine(cfg.Forecast.Config, opts...)
	if err != nil {
		log.Fatalf("[FATAL] forecast engine: %v", err)
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	runner := pipeline.NewRunner(store, engine, rec, cfg.Forecast.LookbackDays)

	// Nightly forecast
	sched := scheduler.NewScheduler(ctx, func(ctx context.Context) (int, error) {
		return runner.RunAll(ctx, pipeline.TriggerScheduled)
	})
	if err := sched.Register(cfg.Schedule.ForecastCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Schedule.RunOnStart {
		log.Println("[INFO] RUN_ON_START enabled, forecasting all merchants now")
		go sched.RunNow()
	}

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	routes.SetupRoutes(app, handlers.New(runner, store, rec, sched))

	go func() {
		<-ctx.Done()
		log.Println("[INFO] shutdown signal received, stopping...")
		if err := app.Shutdown(); err != nil {
			log.Printf("[ERROR] server shutdown: %v", err)
		}
	}()

	log.Printf("serving http://%s\n", cfg.Server.Addr)
	if err := app.Listen(cfg.Server.Addr); err != nil {
		log.Printf("[ERROR] server: %v", err)
	}
}
