package reportapi

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/Abraxas-365/hireflow/pkg/ats/report"
	"github.com/Abraxas-365/hireflow/pkg/ats/report/reportsrv"
	"github.com/Abraxas-365/hireflow/pkg/iam"
	"github.com/Abraxas-365/hireflow/pkg/iam/auth"
	"github.com/Abraxas-365/hireflow/pkg/iam/scopes"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

type ReportHandlers struct {
	service *reportsrv.ReportService
}

func NewReportHandlers(service *reportsrv.ReportService) *ReportHandlers {
	return &ReportHandlers{service: service}
}

func (h *ReportHandlers) RegisterRoutes(router fiber.Router, authMiddleware *auth.AuthMiddleware) {
	reports := router.Group("/reports", authMiddleware.Authenticate())

	reports.Get("/snapshot", authMiddleware.RequireScope(scopes.ScopeReportsView), h.Snapshot)
	reports.Get("/export", authMiddleware.RequireScope(scopes.ScopeReportsExport), h.Export)
}

type reportQuery struct {
	Start  string `query:"start"`
	End    string `query:"end"`
	Unit   string `query:"unit"`
	Sector string `query:"sector"`
}

func (h *ReportHandlers) parse(c *fiber.Ctx) (kernel.Viewer, report.DateRange, report.Filter, error) {
	authContext, ok := auth.GetAuthContext(c)
	if !ok {
		return kernel.Viewer{}, report.DateRange{}, report.Filter{}, iam.ErrUnauthorized()
	}

	var q reportQuery
	if err := c.QueryParser(&q); err != nil {
		return kernel.Viewer{}, report.DateRange{}, report.Filter{}, report.ErrInvalidRange().WithDetail("error", "invalid query parameters")
	}

	r, err := h.service.ParseRange(q.Start, q.End)
	if err != nil {
		return kernel.Viewer{}, report.DateRange{}, report.Filter{}, err
	}
	return authContext.Viewer(), r, report.Filter{Unit: q.Unit, Sector: q.Sector}, nil
}

// Snapshot GET /reports/snapshot?start=&end=&unit=&sector=
func (h *ReportHandlers) Snapshot(c *fiber.Ctx) error {
	viewer, r, f, err := h.parse(c)
	if err != nil {
		return err
	}

	snap, err := h.service.Snapshot(c.Context(), viewer, r, f)
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

// Export GET /reports/export
func (h *ReportHandlers) Export(c *fiber.Ctx) error {
	viewer, r, f, err := h.parse(c)
	if err != nil {
		return err
	}

	res, err := h.service.Export(c.Context(), viewer, r, f)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, res.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", res.Filename))
	return c.Send(res.Data)
}
