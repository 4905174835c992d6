package jobapi

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Abraxas-365/hireflow/pkg/ats/job"
	"github.com/Abraxas-365/hireflow/pkg/ats/job/jobsrv"
	"github.com/Abraxas-365/hireflow/pkg/ats/sla"
	"github.com/Abraxas-365/hireflow/pkg/iam"
	"github.com/Abraxas-365/hireflow/pkg/iam/auth"
	"github.com/Abraxas-365/hireflow/pkg/iam/scopes"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

type JobHandlers struct {
	service *jobsrv.JobService
	loc     *time.Location
}

func NewJobHandlers(service *jobsrv.JobService, loc *time.Location) *JobHandlers {
	if loc == nil {
		loc = time.UTC
	}
	return &JobHandlers{service: service, loc: loc}
}

func (h *JobHandlers) RegisterRoutes(router fiber.Router, authMiddleware *auth.AuthMiddleware) {
	jobs := router.Group("/jobs", authMiddleware.Authenticate())

	jobs.Get("/", authMiddleware.RequireScope(scopes.ScopeJobsRead), h.ListJobs)
	jobs.Post("/", authMiddleware.RequireScope(scopes.ScopeJobsWrite), h.CreateJob)
	jobs.Get("/:id", authMiddleware.RequireScope(scopes.ScopeJobsRead), h.GetJob)
	jobs.Put("/:id", authMiddleware.RequireScope(scopes.ScopeJobsWrite), h.UpdateJob)
	jobs.Delete("/:id", authMiddleware.RequireScope(scopes.ScopeJobsDelete), h.DeleteJob)
	jobs.Get("/:id/sla", authMiddleware.RequireScope(scopes.ScopeJobsRead), h.GetSLA)

	canTransition := authMiddleware.RequireScope(scopes.ScopeJobsFreeze)
	jobs.Post("/:id/freeze", canTransition, h.FreezeJob)
	jobs.Post("/:id/unfreeze", canTransition, h.UnfreezeJob)
	jobs.Post("/:id/close", canTransition, h.CloseJob)
	jobs.Post("/:id/cancel", canTransition, h.CancelJob)
}

func viewerOf(c *fiber.Ctx) (kernel.Viewer, error) {
	authContext, ok := auth.GetAuthContext(c)
	if !ok {
		return kernel.Viewer{}, iam.ErrUnauthorized()
	}
	return authContext.Viewer(), nil
}

func (h *JobHandlers) ListJobs(c *fiber.Ctx) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	var filter job.Filter
	if err := c.QueryParser(&filter); err != nil {
		return job.ErrInvalidJob().WithDetail("error", "invalid query parameters")
	}

	response, err := h.service.ListJobs(c.Context(), viewer, filter)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

func (h *JobHandlers) CreateJob(c *fiber.Ctx) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	var req job.CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return job.ErrInvalidJob().WithDetail("error", "invalid request body")
	}

	j, err := h.service.CreateJob(c.Context(), viewer, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(j)
}

func (h *JobHandlers) GetJob(c *fiber.Ctx) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	j, err := h.service.GetJob(c.Context(), viewer, kernel.JobID(c.Params("id")))
	if err != nil {
		return err
	}
	return c.JSON(j)
}

func (h *JobHandlers) UpdateJob(c *fiber.Ctx) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	var req job.UpdateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return job.ErrInvalidJob().WithDetail("error", "invalid request body")
	}

	j, err := h.service.UpdateJob(c.Context(), viewer, kernel.JobID(c.Params("id")), req)
	if err != nil {
		return err
	}
	return c.JSON(j)
}

func (h *JobHandlers) DeleteJob(c *fiber.Ctx) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteJob(c.Context(), viewer, kernel.JobID(c.Params("id"))); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Job deleted successfully"})
}

func (h *JobHandlers) FreezeJob(c *fiber.Ctx) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	var req job.FreezeRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}

	j, err := h.service.FreezeJob(c.Context(), viewer, kernel.JobID(c.Params("id")), req)
	if err != nil {
		return err
	}
	return c.JSON(j)
}

func (h *JobHandlers) UnfreezeJob(c *fiber.Ctx) error {
	return h.transition(c, h.service.UnfreezeJob)
}

func (h *JobHandlers) CloseJob(c *fiber.Ctx) error {
	return h.transition(c, h.service.CloseJob)
}

func (h *JobHandlers) CancelJob(c *fiber.Ctx) error {
	return h.transition(c, h.service.CancelJob)
}

func (h *JobHandlers) GetSLA(c *fiber.Ctx) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	var asOf *time.Time
	if raw := c.Query("as_of"); raw != "" {
		t, err := sla.ParseDate(raw, h.loc)
		if err != nil {
			return err
		}
		asOf = &t
	}

	res, err := h.service.GetSLA(c.Context(), viewer, kernel.JobID(c.Params("id")), asOf)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

type transitionFunc func(ctx context.Context, viewer kernel.Viewer, id kernel.JobID, req job.TransitionRequest) (*job.Job, error)

func (h *JobHandlers) transition(c *fiber.Ctx, fn transitionFunc) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	var req job.TransitionRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}

	j, err := fn(c.Context(), viewer, kernel.JobID(c.Params("id")), req)
	if err != nil {
		return err
	}
	return c.JSON(j)
}

// parseOptionalBody tolerates an empty body; transitions default to now.
func parseOptionalBody(c *fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(dst); err != nil {
		return job.ErrInvalidJob().WithDetail("error", "invalid request body")
	}
	return nil
}
