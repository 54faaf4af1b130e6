package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"pixiu/internal/jobs"
)

// JobsHandler exposes scheduler status and manual job runs.
type JobsHandler struct {
	scheduler *jobs.Scheduler
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(scheduler *jobs.Scheduler) *JobsHandler {
	return &JobsHandler{scheduler: scheduler}
}

// Status handles GET /jobs
func (h *JobsHandler) Status(c *fiber.Ctx) error {
	return c.JSON(h.scheduler.Status())
}

// RunNow handles POST /jobs/:name/run
func (h *JobsHandler) RunNow(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := h.scheduler.RunNow(c.Context(), name); err != nil {
		if errors.Is(err, jobs.ErrAlreadyRunning) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return c.SendStatus(fiber.StatusAccepted)
}
