package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"

	"coursecrawler/internal/config"
	"coursecrawler/internal/core/crawl"
	"coursecrawler/internal/core/job"
	"coursecrawler/internal/health"
	"coursecrawler/internal/logger"
	"coursecrawler/internal/platform/browser"
	rds "coursecrawler/internal/platform/redis"
	"coursecrawler/internal/platform/store"
	tasks "coursecrawler/internal/platform/tasks"
	"coursecrawler/internal/server"
	"coursecrawler/internal/worker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log.Printf("[coursecrawler] starting at %s (env=%s, store=%s)\n", cfg.HTTPAddr, cfg.AppEnv, cfg.StoreDriver)

	logr := logger.New("main")
	ctx := context.Background()

	redisSvc, err := rds.New(rds.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer redisSvc.Close()

	st, err := store.Open(ctx, cfg, true)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	taskClient := tasks.New(redisSvc, cfg.TaskQueue, cfg.TaskMaxRetries, cfg.Catalog.TaskTimeout())
	defer taskClient.Close()
	asynqServer := worker.NewServer(redisSvc.AsynqRedisOpt(), cfg.TaskQueue, cfg.WorkerConcurrency)

	launcher := browser.NewLauncher(browser.Options{
		Headless:        cfg.Catalog.Headless,
		UserAgent:       cfg.Catalog.UserAgent,
		NavTimeout:      cfg.Catalog.NavTimeout(),
		SelectorTimeout: cfg.Catalog.SelectorTimeout(),
	})

	jobSvc := job.NewJobService(st, redisSvc)
	crawlSvc := crawl.NewCrawlService(jobSvc, st, launcher, taskClient, cfg.Catalog)

	mux := worker.NewMux()
	mux.HandleFunc(tasks.TaskTypeCatalogCrawl, crawlSvc.HandleCrawlTask)

	go func() {
		if err := asynqServer.Run(mux.Mux()); err != nil {
			log.Printf("[worker] stopped: %v\n", err)
		}
	}()

	app := fiber.New(fiber.Config{
		AppName: "Course Catalog Crawler",
		JSONEncoder: func(v interface{}) ([]byte, error) {
			var buf bytes.Buffer
			encoder := json.NewEncoder(&buf)
			encoder.SetEscapeHTML(false)
			if err := encoder.Encode(v); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
	})

	checks := map[string]health.Checker{"redis": redisSvc}
	if st.DB != nil {
		checks["database"] = st.DB
	}
	healthHandler := server.RegisterRoutes(app, server.Dependencies{
		Job:     jobSvc,
		Crawl:   crawlSvc,
		Courses: st,
		Health:  checks,
	})

	go func() {
		time.Sleep(2 * time.Second)
		healthHandler.SetReady()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		logr.LogInfo("Shutting down...")
		asynqServer.Shutdown()
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	if err := app.Listen(cfg.HTTPAddr); err != nil {
		log.Fatalf("server listen: %v", err)
	}
}
