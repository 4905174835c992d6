package candidateapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Abraxas-365/hireflow/pkg/ats/candidate"
	"github.com/Abraxas-365/hireflow/pkg/ats/candidate/candidatesrv"
	"github.com/Abraxas-365/hireflow/pkg/iam"
	"github.com/Abraxas-365/hireflow/pkg/iam/auth"
	"github.com/Abraxas-365/hireflow/pkg/iam/scopes"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

type CandidateHandlers struct {
	service *candidatesrv.CandidateService
}

func NewCandidateHandlers(service *candidatesrv.CandidateService) *CandidateHandlers {
	return &CandidateHandlers{service: service}
}

// RegisterRoutes registra las rutas de candidatos
func (h *CandidateHandlers) RegisterRoutes(router fiber.Router, authMiddleware *auth.AuthMiddleware) {
	authenticate := authMiddleware.Authenticate()

	router.Get("/jobs/:id/candidates", authenticate, authMiddleware.RequireScope(scopes.ScopeCandidatesRead), h.ListByJob)
	router.Get("/talent-pool", authenticate, authMiddleware.RequireScope(scopes.ScopeTalentPoolRead), h.TalentPool)

	candidates := router.Group("/candidates", authenticate)
	candidates.Post("/", authMiddleware.RequireScope(scopes.ScopeCandidatesWrite), h.CreateCandidate)
	candidates.Get("/:id", authMiddleware.RequireScope(scopes.ScopeCandidatesRead), h.GetCandidate)
	candidates.Delete("/:id", authMiddleware.RequireScope(scopes.ScopeCandidatesDelete), h.DeleteCandidate)
	candidates.Patch("/:id/status", authMiddleware.RequireScope(scopes.ScopeCandidatesWrite), h.ChangeStatus)
	candidates.Post("/:id/interview", authMiddleware.RequireScope(scopes.ScopeCandidatesWrite), h.ScheduleInterview)
	candidates.Post("/:id/tech-test", authMiddleware.RequireScope(scopes.ScopeCandidatesWrite), h.ScheduleTechTest)
}

func viewerOf(c *fiber.Ctx) (kernel.Viewer, error) {
	authContext, ok := auth.GetAuthContext(c)
	if !ok {
		return kernel.Viewer{}, iam.ErrUnauthorized()
	}
	return authContext.Viewer(), nil
}

func invalidBody() error {
	return candidate.ErrInvalidCandidate().WithDetail("error", "invalid request body")
}

func (h *CandidateHandlers) ListByJob(c *fiber.Ctx) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	response, err := h.service.ListByJob(c.Context(), viewer, kernel.JobID(c.Params("id")))
	if err != nil {
		return err
	}
	return c.JSON(response)
}

func (h *CandidateHandlers) TalentPool(c *fiber.Ctx) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	response, err := h.service.TalentPool(c.Context(), viewer)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

func (h *CandidateHandlers) CreateCandidate(c *fiber.Ctx) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	var req candidate.CreateCandidateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}

	created, err := h.service.CreateCandidate(c.Context(), viewer, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *CandidateHandlers) GetCandidate(c *fiber.Ctx) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	found, err := h.service.GetCandidate(c.Context(), viewer, kernel.CandidateID(c.Params("id")))
	if err != nil {
		return err
	}
	return c.JSON(found)
}

func (h *CandidateHandlers) DeleteCandidate(c *fiber.Ctx) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteCandidate(c.Context(), viewer, kernel.CandidateID(c.Params("id"))); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Candidate deleted successfully"})
}

func (h *CandidateHandlers) ChangeStatus(c *fiber.Ctx) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	var req candidate.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}

	updated, err := h.service.ChangeStatus(c.Context(), viewer, kernel.CandidateID(c.Params("id")), req)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func (h *CandidateHandlers) ScheduleInterview(c *fiber.Ctx) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	var req candidate.ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}

	updated, err := h.service.ScheduleInterview(c.Context(), viewer, kernel.CandidateID(c.Params("id")), req)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func (h *CandidateHandlers) ScheduleTechTest(c *fiber.Ctx) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	var req candidate.ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}

	updated, err := h.service.ScheduleTechTest(c.Context(), viewer, kernel.CandidateID(c.Params("id")), req)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}
