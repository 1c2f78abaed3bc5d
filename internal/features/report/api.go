package report

import (
	"go-itam/internal/common/api"
	"go-itam/internal/config"
	"go-itam/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReportApi struct {
	ReportController *ReportController
	Config           *config.Config
}

func NewReportApi(reportController *ReportController, config *config.Config) api.Route {
	return &ReportApi{
		ReportController: reportController,
		Config:           config,
	}
}

func (api *ReportApi) Setup(app *fiber.App) {
	group := app.Group("/api/reports", middleware.AuthMiddleware(api.Config.SkipAuth))

	// file routes first so "files" is never taken for a report id
	group.Get("/files", api.ReportController.ListFiles)
	group.Get("/files/:fileId/download", api.ReportController.Download)

	group.Post("/", api.ReportController.Create)
	group.Get("/", api.ReportController.List)
	group.Get("/:id", api.ReportController.Get)
	group.Put("/:id", api.ReportController.Update)
	group.Delete("/:id", api.ReportController.Delete)
	group.Post("/:id/run", api.ReportController.Run)
	group.Post("/:id/export", api.ReportController.Export)
	group.Post("/:id/export/async", api.ReportController.ExportAsync)
	group.Delete("/:id/cache", api.ReportController.InvalidateCache)
}
