package crawl

import (
	"errors"

	"coursecrawler/internal/core/catalog"
	"coursecrawler/internal/core/job"
	"coursecrawler/internal/utils/parser"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	job     *job.Service
	crawl   *CrawlService
	courses catalog.CourseStore
}

func NewCrawlHandler(job *job.Service, crawl *CrawlService, courses catalog.CourseStore) *Handler {
	return &Handler{job: job, crawl: crawl, courses: courses}
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Success: false, Error: msg})
}

func (h *Handler) HandleCreateCrawl(c *fiber.Ctx) error {
	var req Params
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid body")
		}
	}
	id, err := h.crawl.Crawl(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidParams) {
			return fail(c, fiber.StatusBadRequest, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(CreateResponse{Success: true, JobID: id})
}

func (h *Handler) HandleGetCrawl(c *fiber.Ctx) error {
	j, err := h.job.Get(c.UserContext(), c.Params("jobId"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "not_found")
		}
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(JobResponse{Success: true, Job: j})
}

func (h *Handler) HandleListCrawls(c *fiber.Ctx) error {
	var q job.ListParams
	if err := parser.ParseQuery(c, &q); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	jobs, err := h.job.List(c.UserContext(), q)
	if err != nil {
		if errors.Is(err, job.ErrInvalidQuery) {
			return fail(c, fiber.StatusBadRequest, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(JobListResponse{Success: true, Jobs: jobs})
}

// HandleGetCourse looks a course up by its natural key.
func (h *Handler) HandleGetCourse(c *fiber.Ctx) error {
	ctx := c.UserContext()
	course, err := h.courses.GetCourse(ctx, c.Params("subject"), c.Params("number"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "not_found")
		}
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	p, err := h.courses.FindPrerequisite(ctx, course.ID)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(CourseResponse{Success: true, Course: course, Prerequisite: p})
}
