package cron_feature

import (
	"go-itam/internal/common/api"
	"go-itam/internal/config"
	"go-itam/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type CronApi struct {
	cronController *CronController
	config         *config.Config
}

func NewCronApi(cronController *CronController, config *config.Config) api.Route {
	return &CronApi{
		cronController: cronController,
		config:         config,
	}
}

func (h *CronApi) Setup(app *fiber.App) {
	cronJobs := app.Group("/api/cron-jobs", middleware.AuthMiddleware(h.config.SkipAuth), middleware.AdminMiddleware())

	cronJobs.Get("/", h.cronController.ListCronJobs)
	cronJobs.Post("/:name/execute", h.cronController.ExecuteCronJob)
	cronJobs.Get("/:name/logs", h.cronController.GetCronJobLogs)
}
