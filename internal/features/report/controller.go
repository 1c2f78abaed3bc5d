package report

import (
	"errors"
	"fmt"
	"os"

	"go-itam/internal/common/errs"
	"go-itam/internal/config"
	"go-itam/internal/export"
	"go-itam/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReportController struct {
	ReportService ReportService
	ExportService ExportService
	debug         bool
}

func NewReportController(reportService ReportService, exportService ExportService, cfg *config.Config) *ReportController {
	return &ReportController{
		ReportService: reportService,
		ExportService: exportService,
		debug:         cfg.Debug,
	}
}

func actorOf(ctx *fiber.Ctx) (Actor, bool) {
	claims := middleware.Claims(ctx)
	if claims == nil {
		return Actor{}, false
	}
	return Actor{UserID: claims.UserID, Admin: claims.IsAdmin()}, true
}

// fail maps engine errors onto HTTP responses. Backend detail is only
// exposed in debug mode.
func (c *ReportController) fail(ctx *fiber.Ctx, err error) error {
	switch {
	case errs.IsValidation(err), errs.IsTooManyResults(err):
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errs.IsNotFound(err):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errs.IsForbidden(err):
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrQueueFull):
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}

	body := fiber.Map{"error": "failed to generate report"}
	if c.debug {
		body["detail"] = err.Error()
		if cause := errors.Unwrap(err); cause != nil {
			body["detail"] = cause.Error()
		}
	}
	return ctx.Status(fiber.StatusInternalServerError).JSON(body)
}

func unauthorized(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User ID not found"})
}

// Create godoc
func (c *ReportController) Create(ctx *fiber.Ctx) error {
	actor, ok := actorOf(ctx)
	if !ok {
		return unauthorized(ctx)
	}
	var report ReportDefinition
	if err := ctx.BodyParser(&report); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.ReportService.CreateReport(ctx.UserContext(), &report, actor); err != nil {
		return c.fail(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(report)
}

// List godoc
func (c *ReportController) List(ctx *fiber.Ctx) error {
	actor, ok := actorOf(ctx)
	if !ok {
		return unauthorized(ctx)
	}
	reports, err := c.ReportService.ListReports(ctx.UserContext(), actor)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(reports)
}

// Get godoc
func (c *ReportController) Get(ctx *fiber.Ctx) error {
	actor, ok := actorOf(ctx)
	if !ok {
		return unauthorized(ctx)
	}
	report, err := c.ReportService.GetReport(ctx.UserContext(), ctx.Params("id"), actor)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(report)
}

// Update godoc
func (c *ReportController) Update(ctx *fiber.Ctx) error {
	actor, ok := actorOf(ctx)
	if !ok {
		return unauthorized(ctx)
	}
	var report ReportDefinition
	if err := ctx.BodyParser(&report); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.ReportService.UpdateReport(ctx.UserContext(), ctx.Params("id"), &report, actor); err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(report)
}

// Delete godoc
func (c *ReportController) Delete(ctx *fiber.Ctx) error {
	actor, ok := actorOf(ctx)
	if !ok {
		return unauthorized(ctx)
	}
	if err := c.ReportService.DeleteReport(ctx.UserContext(), ctx.Params("id"), actor); err != nil {
		return c.fail(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

// Run godoc
func (c *ReportController) Run(ctx *fiber.Ctx) error {
	actor, ok := actorOf(ctx)
	if !ok {
		return unauthorized(ctx)
	}
	var opts QueryOptions
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&opts); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	page, err := c.ReportService.RunReport(ctx.UserContext(), ctx.Params("id"), opts, actor)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(page)
}

// InvalidateCache godoc
func (c *ReportController) InvalidateCache(ctx *fiber.Ctx) error {
	actor, ok := actorOf(ctx)
	if !ok {
		return unauthorized(ctx)
	}
	n, err := c.ReportService.InvalidateCache(ctx.UserContext(), ctx.Params("id"), actor)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(fiber.Map{"invalidated": n})
}

func parseExport(ctx *fiber.Ctx) (ExportRequest, error) {
	var req ExportRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return req, err
		}
	}
	if req.Format == "" {
		req.Format = ctx.Query("format")
	}
	return req, nil
}

// Export godoc
func (c *ReportController) Export(ctx *fiber.Ctx) error {
	actor, ok := actorOf(ctx)
	if !ok {
		return unauthorized(ctx)
	}
	req, err := parseExport(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	file, err := c.ExportService.Generate(ctx.UserContext(), ctx.Params("id"), req, actor)
	if err != nil {
		return c.fail(ctx, err)
	}
	return sendFile(ctx, file)
}

// ExportAsync godoc
func (c *ReportController) ExportAsync(ctx *fiber.Ctx) error {
	actor, ok := actorOf(ctx)
	if !ok {
		return unauthorized(ctx)
	}
	req, err := parseExport(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	jobID, err := c.ExportService.Queue(ctx.UserContext(), ctx.Params("id"), req, actor)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.Status(fiber.StatusAccepted).JSON(fiber.Map{"job_id": jobID})
}

// ListFiles godoc
func (c *ReportController) ListFiles(ctx *fiber.Ctx) error {
	actor, ok := actorOf(ctx)
	if !ok {
		return unauthorized(ctx)
	}
	files, err := c.ExportService.ListFiles(ctx.UserContext(), actor)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(files)
}

// Download godoc
func (c *ReportController) Download(ctx *fiber.Ctx) error {
	actor, ok := actorOf(ctx)
	if !ok {
		return unauthorized(ctx)
	}
	file, err := c.ExportService.Download(ctx.UserContext(), ctx.Params("fileId"), actor)
	if err != nil {
		return c.fail(ctx, err)
	}
	return sendFile(ctx, file)
}

func sendFile(ctx *fiber.Ctx, file *ReportFile) error {
	f, err := os.Open(file.FilePath)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "report file not found"})
	}
	ctx.Set("Content-Type", export.Format(file.Format).ContentType())
	ctx.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	return ctx.SendStream(f, int(file.Size))
}
