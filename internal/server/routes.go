package server

import (
	"coursecrawler/internal/core/catalog"
	"coursecrawler/internal/core/crawl"
	"coursecrawler/internal/core/job"
	"coursecrawler/internal/health"

	"github.com/gofiber/fiber/v2"
)

type Dependencies struct {
	Job     *job.Service
	Crawl   *crawl.CrawlService
	Courses catalog.CourseStore
	// Health lists the dependencies reported by /v1/health.
	Health map[string]health.Checker
}

func RegisterRoutes(app *fiber.App, d Dependencies) *health.HealthHandler {
	healthHandler := health.NewHealthHandler(d.Health)
	app.Get("/v1/health", health.HealthLimiter(), healthHandler.HandleHealth)

	api := app.Group("/v1/catalog")

	crawlHandler := crawl.NewCrawlHandler(d.Job, d.Crawl, d.Courses)
	api.Post("/crawls", crawlHandler.HandleCreateCrawl)
	api.Get("/crawls", crawlHandler.HandleListCrawls)
	api.Get("/crawls/:jobId", crawlHandler.HandleGetCrawl)
	api.Get("/courses/:subject/:number", crawlHandler.HandleGetCourse)

	return healthHandler
}
